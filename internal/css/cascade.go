package css

import (
	"sort"
	"strings"

	"github.com/loomweb/loom/internal/html"
)

// matchedDecl pairs one rule's declarations with the ordering key the
// cascade sorts by (spec §4.3 step 2/4: "declaration blocks ordered by
// (specificity, source order)").
type matchedDecl struct {
	specificity int
	sourceOrder int
	decls       StyleBag
}

// ComputeStyle resolves n's computed style bag: inherited properties from
// parentStyle, then matching sheet declarations in (specificity,
// source-order) ascending order, then n's inline `style` attribute, then
// matching sheet !important declarations in the same order, then inline
// !important — each step overwriting the last (spec §4.3, cascade order).
func ComputeStyle(n *html.Node, parentStyle StyleBag, idx *RuleIndex, ctx *MatchContext) StyleBag {
	out := StyleBag{}
	for prop, v := range parentStyle {
		if IsInheritable(prop) {
			out[prop] = v
		}
	}

	candidates := idx.Candidates(n)
	var normal, important []matchedDecl
	for _, r := range candidates {
		for _, sel := range r.Selectors {
			if sel.PseudoElement != "" || !Matches(sel, n, ctx) {
				continue
			}
			spec := sel.Specificity()
			if len(r.Declarations) > 0 {
				normal = append(normal, matchedDecl{spec, r.SourceOrder, r.Declarations})
			}
			if len(r.Important) > 0 {
				important = append(important, matchedDecl{spec, r.SourceOrder, r.Important})
			}
			break // a rule matches an element at most once even with multiple selectors
		}
	}
	sortByCascadeOrder(normal)
	sortByCascadeOrder(important)

	for _, m := range normal {
		applyDecls(out, m.decls, parentStyle)
	}

	inlineDecls, inlineImportant := parseInlineStyle(n)
	applyDecls(out, inlineDecls, parentStyle)

	for _, m := range important {
		applyDecls(out, m.decls, parentStyle)
	}
	applyDecls(out, inlineImportant, parentStyle)

	return out
}

// ComputePseudoStyle resolves the style bag a `n::pseudo` rule set
// contributes (spec §4.2/§4.3: "::before and ::after ... treated as host-
// element matches with a content hook"). It mirrors ComputeStyle's
// specificity/source-order merge but only over rules whose selector names
// this exact pseudo-element, and reports ok=false when no rule targets it
// (the common case — most elements have no ::before/::after at all).
func ComputePseudoStyle(n *html.Node, idx *RuleIndex, ctx *MatchContext, pseudo string) (StyleBag, bool) {
	candidates := idx.Candidates(n)
	var normal, important []matchedDecl
	matched := false
	for _, r := range candidates {
		for _, sel := range r.Selectors {
			if sel.PseudoElement != pseudo || !Matches(sel, n, ctx) {
				continue
			}
			matched = true
			spec := sel.Specificity()
			if len(r.Declarations) > 0 {
				normal = append(normal, matchedDecl{spec, r.SourceOrder, r.Declarations})
			}
			if len(r.Important) > 0 {
				important = append(important, matchedDecl{spec, r.SourceOrder, r.Important})
			}
			break
		}
	}
	if !matched {
		return nil, false
	}
	sortByCascadeOrder(normal)
	sortByCascadeOrder(important)

	out := StyleBag{}
	for _, m := range normal {
		applyDecls(out, m.decls, nil)
	}
	for _, m := range important {
		applyDecls(out, m.decls, nil)
	}
	return out, true
}

func sortByCascadeOrder(m []matchedDecl) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].specificity != m[j].specificity {
			return m[i].specificity < m[j].specificity
		}
		return m[i].sourceOrder < m[j].sourceOrder
	})
}

// applyDecls merges decls into out, resolving the inherit/initial/unset/
// revert keywords (spec §4.3's cascade post-processing step).
func applyDecls(out StyleBag, decls StyleBag, parentStyle StyleBag) {
	for prop, value := range decls {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "inherit":
			if pv, ok := parentStyle[prop]; ok {
				out[prop] = pv
			} else {
				delete(out, prop)
			}
		case "initial":
			delete(out, prop)
		case "unset":
			if IsInheritable(prop) {
				if pv, ok := parentStyle[prop]; ok {
					out[prop] = pv
					continue
				}
			}
			delete(out, prop)
		case "revert":
			delete(out, prop)
		default:
			out[prop] = value
		}
	}
}

// parseInlineStyle parses n's `style` attribute the same way a declaration
// block inside a rule is parsed, splitting !important into a separate bag.
func parseInlineStyle(n *html.Node) (decls, important StyleBag) {
	decls = StyleBag{}
	important = StyleBag{}
	raw, ok := n.Attr("style")
	if !ok || strings.TrimSpace(raw) == "" {
		return decls, important
	}
	for _, stmt := range splitTopLevelString(raw, ';') {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		colon := strings.IndexByte(stmt, ':')
		if colon < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(stmt[:colon]))
		value := strings.TrimSpace(stmt[colon+1:])
		if idx := strings.LastIndex(strings.ToLower(value), "!important"); idx >= 0 {
			important[name] = strings.TrimSpace(value[:idx])
			continue
		}
		decls[name] = value
	}
	return decls, important
}
