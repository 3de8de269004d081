package css

import (
	"strings"

	"github.com/loomweb/loom/internal/html"
)

// RuleIndex buckets rules by their rightmost compound's most selective
// simple selector (id, then class, then tag, else universal) so matching a
// given element only scans the rules that could plausibly apply, grounded
// on internal/relay's map-bucket dispatch pattern.
type RuleIndex struct {
	byID       map[string][]*Rule
	byClass    map[string][]*Rule
	byTag      map[string][]*Rule
	universal  []*Rule
}

// NewRuleIndex buckets rules, keeping one *Rule per (rule, selector) match
// candidacy — each selector lands in exactly one bucket (its rightmost
// compound's id, else its first class, else its tag, else universal), so
// only a rule with multiple selectors can land in more than one bucket;
// matching re-checks the full selector regardless of which bucket
// found it, so duplicate bucket membership never causes duplicate style
// application as long as callers de-duplicate by rule identity.
func NewRuleIndex(rules []Rule) *RuleIndex {
	idx := &RuleIndex{
		byID:    map[string][]*Rule{},
		byClass: map[string][]*Rule{},
		byTag:   map[string][]*Rule{},
	}
	for i := range rules {
		r := &rules[i]
		for _, sel := range r.Selectors {
			idx.bucket(r, sel)
		}
	}
	return idx
}

func (idx *RuleIndex) bucket(r *Rule, sel Selector) {
	if len(sel.Compounds) == 0 {
		idx.universal = append(idx.universal, r)
		return
	}
	rightmost := sel.Compounds[len(sel.Compounds)-1]
	for _, ss := range rightmost {
		switch ss.kind {
		case simID:
			idx.byID[ss.name] = append(idx.byID[ss.name], r)
			return
		}
	}
	for _, ss := range rightmost {
		if ss.kind == simClass {
			idx.byClass[ss.name] = append(idx.byClass[ss.name], r)
			return
		}
	}
	for _, ss := range rightmost {
		if ss.kind == simType {
			idx.byTag[ss.name] = append(idx.byTag[ss.name], r)
			return
		}
	}
	idx.universal = append(idx.universal, r)
}

// Candidates returns every rule that could possibly match n, deduplicated
// by pointer identity (a rule can be bucketed under more than one key when
// it has multiple selectors).
func (idx *RuleIndex) Candidates(n *html.Node) []*Rule {
	seen := map[*Rule]bool{}
	var out []*Rule
	add := func(rs []*Rule) {
		for _, r := range rs {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	if n.ID != "" {
		add(idx.byID[n.ID])
	}
	for _, c := range n.Classes {
		add(idx.byClass[c])
	}
	add(idx.byTag[strings.ToUpper(n.TagName)])
	add(idx.universal)
	return out
}
