package layout

import (
	"strconv"
	"strings"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/html"
)

// ApplyStyles computes and stores n.Style for every element in doc's head
// and body subtrees, cascading from each node's parent (spec §4.3), and
// resolves each element's ::before/::after content against a single
// counter set shared across the whole pass (spec §4.2).
func ApplyStyles(doc *html.Document, rules []css.Rule, ctx *css.MatchContext) {
	idx := css.NewRuleIndex(rules)
	counters := html.NewCounterSet()
	if doc.Head != nil {
		applyStylesToSubtree(doc.Head, css.StyleBag{}, idx, ctx, counters)
	}
	if doc.Body != nil {
		applyStylesToSubtree(doc.Body, css.StyleBag{}, idx, ctx, counters)
	}
}

func applyStylesToSubtree(n *html.Node, parentStyle css.StyleBag, idx *css.RuleIndex, ctx *css.MatchContext, counters *html.CounterSet) {
	if n.Kind == html.NodeFragment {
		for _, c := range n.Children {
			applyStylesToSubtree(c, parentStyle, idx, ctx, counters)
		}
		return
	}
	if n.Kind != html.NodeElement {
		return
	}
	computed := css.ComputeStyle(n, parentStyle, idx, ctx)
	n.Style = computed
	if inc := computed["counter-increment"]; inc != "" {
		applyCounterIncrement(counters, inc)
	}
	resolvePseudo(n, idx, ctx, counters, "before", &n.BeforeContent, &n.BeforeStyle)
	resolvePseudo(n, idx, ctx, counters, "after", &n.AfterContent, &n.AfterStyle)
	for _, c := range n.Children {
		applyStylesToSubtree(c, computed, idx, ctx, counters)
	}
}

// resolvePseudo looks up the ::which rule set matching n and, if it
// declares a non-empty `content`, resolves it against n's attributes and
// counters into *contentOut, recording the pseudo-element's own style bag
// in *styleOut (spec §4.2's content hook).
func resolvePseudo(n *html.Node, idx *css.RuleIndex, ctx *css.MatchContext, counters *html.CounterSet, which string, contentOut *string, styleOut *map[string]string) {
	bag, ok := css.ComputePseudoStyle(n, idx, ctx, which)
	if !ok {
		return
	}
	content := bag["content"]
	if content == "" || content == "none" || content == "normal" {
		return
	}
	*contentOut = html.ResolvePseudoContent(n, content, counters)
	*styleOut = bag
}

// applyCounterIncrement parses a `counter-increment` value ("name" or
// "name N", space-separated for multiple counters) and bumps counters
// accordingly (spec §4.2's counter(name) support).
func applyCounterIncrement(counters *html.CounterSet, value string) {
	fields := strings.Fields(value)
	for i := 0; i < len(fields); i++ {
		name := fields[i]
		delta := 0
		if i+1 < len(fields) {
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				delta = n
				i++
			}
		}
		counters.Increment(name, delta)
	}
}

// styleOf reads n's computed style, defaulting to an empty bag if the
// cascade hasn't run for this node (e.g. the Head/Body fragment roots,
// which carry no style of their own).
func styleOf(n *html.Node) css.StyleBag {
	if n.Style == nil {
		return css.StyleBag{}
	}
	return css.StyleBag(n.Style)
}
