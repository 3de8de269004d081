package css

import (
	"strconv"
	"strings"

	"github.com/loomweb/loom/internal/html"
)

// CombinatorKind connects two compound selectors (spec §4.3 table).
type CombinatorKind int

const (
	CombinatorDescendant CombinatorKind = iota // " "
	CombinatorChild                            // ">"
	CombinatorAdjacent                         // "+"
	CombinatorGeneral                          // "~"
)

// simpleKind is one atom of a compound selector.
type simpleKind int

const (
	simUniversal simpleKind = iota
	simType
	simID
	simClass
	simAttr
	simPseudoClass
	simNot
	simIs
	simWhere
	simHas
)

type attrOp int

const (
	attrExists attrOp = iota
	attrEquals
	attrPrefix
	attrSuffix
	attrContains
	attrWord  // ~=
	attrLang  // |=
)

type simpleSelector struct {
	kind simpleKind

	name string // tag name (upper), id, class, attr name, or pseudo name

	attrOp    attrOp
	attrValue string

	// nth-child(an+b)/nth-of-type(an+b) coefficients; pseudo name carries
	// which structural check applies ("first-child", "nth-child", etc).
	nthA, nthB int

	nested []Selector // for :not/:is/:where/:has
}

// Selector is one compound-selector chain: Compounds[0] is the leftmost
// (outermost ancestor), Compounds[len-1] is the rightmost (the element the
// rule actually targets). Combinators[i] connects Compounds[i] to
// Compounds[i+1].
type Selector struct {
	Compounds     [][]simpleSelector
	Combinators   []CombinatorKind
	PseudoElement string // "before", "after", "first-line", "first-letter", "placeholder", or ""
}

// Specificity computes (ids<<16 | classes<<8 | types) over the rightmost
// compound (spec §3.4).
func (s Selector) Specificity() int {
	if len(s.Compounds) == 0 {
		return 0
	}
	var ids, classes, types int
	for _, ss := range s.Compounds[len(s.Compounds)-1] {
		countSimple(ss, &ids, &classes, &types)
	}
	return ids<<16 | classes<<8 | types
}

func countSimple(ss simpleSelector, ids, classes, types *int) {
	switch ss.kind {
	case simID:
		*ids++
	case simClass, simAttr, simPseudoClass:
		*classes++
	case simType:
		*types++
	case simNot, simIs, simWhere, simHas:
		for _, nestedSel := range ss.nested {
			if len(nestedSel.Compounds) == 0 {
				continue
			}
			for _, inner := range nestedSel.Compounds[len(nestedSel.Compounds)-1] {
				countSimple(inner, ids, classes, types)
			}
		}
	}
}

// ParseSelector parses one comma-free selector (a single compound chain).
func ParseSelector(text string) Selector {
	text = strings.TrimSpace(text)
	sel := Selector{}

	if idx := strings.Index(text, "::"); idx >= 0 {
		sel.PseudoElement = strings.ToLower(strings.TrimSpace(text[idx+2:]))
		text = strings.TrimSpace(text[:idx])
	}

	tokens := splitCombinators(text)
	for _, tok := range tokens {
		if tok.isCombinator {
			sel.Combinators = append(sel.Combinators, tok.combinator)
			continue
		}
		sel.Compounds = append(sel.Compounds, parseCompound(tok.text))
	}
	return sel
}

type combinatorToken struct {
	isCombinator bool
	combinator   CombinatorKind
	text         string
}

// splitCombinators tokenizes a selector chain into alternating compound
// text and combinator tokens, respecting nesting inside [] and ().
func splitCombinators(s string) []combinatorToken {
	var toks []combinatorToken
	depth := 0
	start := 0
	flush := func(end int) {
		part := strings.TrimSpace(s[start:end])
		if part != "" {
			toks = append(toks, combinatorToken{text: part})
		}
	}
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case '>', '+', '~':
			if depth == 0 {
				flush(i)
				kind := CombinatorChild
				if c == '+' {
					kind = CombinatorAdjacent
				} else if c == '~' {
					kind = CombinatorGeneral
				}
				toks = append(toks, combinatorToken{isCombinator: true, combinator: kind})
				start = i + 1
			}
		case ' ', '\t', '\n':
			if depth == 0 {
				// A space is a descendant combinator unless it's just
				// separating from an explicit combinator already emitted,
				// or trailing/leading whitespace.
				j := i
				for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
					j++
				}
				trimmed := strings.TrimSpace(s[start:i])
				if trimmed != "" {
					flush(i)
					if j < len(s) && s[j] != '>' && s[j] != '+' && s[j] != '~' {
						toks = append(toks, combinatorToken{isCombinator: true, combinator: CombinatorDescendant})
					}
				}
				start = j
				i = j
				continue
			}
		}
		i++
	}
	flush(len(s))
	return toks
}

func parseCompound(s string) []simpleSelector {
	var out []simpleSelector
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '*':
			out = append(out, simpleSelector{kind: simUniversal})
			i++
		case s[i] == '#':
			j := scanIdent(s, i+1)
			out = append(out, simpleSelector{kind: simID, name: s[i+1 : j]})
			i = j
		case s[i] == '.':
			j := scanIdent(s, i+1)
			out = append(out, simpleSelector{kind: simClass, name: s[i+1 : j]})
			i = j
		case s[i] == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				i = len(s)
				break
			}
			out = append(out, parseAttrSelector(s[i+1:i+end]))
			i += end + 1
		case s[i] == ':':
			j := i + 1
			if j < len(s) && s[j] == ':' {
				j++ // shouldn't normally happen post-pseudo-element split
			}
			nameEnd := scanIdent(s, j)
			name := strings.ToLower(s[j:nameEnd])
			if nameEnd < len(s) && s[nameEnd] == '(' {
				close, ok := matchParen(s, nameEnd)
				if !ok {
					i = len(s)
					break
				}
				arg := s[nameEnd+1 : close]
				out = append(out, parseFunctionalPseudo(name, arg))
				i = close + 1
			} else {
				out = append(out, simpleSelector{kind: simPseudoClass, name: name})
				i = nameEnd
			}
		default:
			j := scanIdent(s, i)
			if j == i {
				i++
				continue
			}
			out = append(out, simpleSelector{kind: simType, name: strings.ToUpper(s[i:j])})
			i = j
		}
	}
	return out
}

func scanIdent(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			i++
			continue
		}
		break
	}
	return i
}

func parseAttrSelector(inner string) simpleSelector {
	ops := []struct {
		tok string
		op  attrOp
	}{
		{"^=", attrPrefix}, {"$=", attrSuffix}, {"*=", attrContains},
		{"~=", attrWord}, {"|=", attrLang}, {"=", attrEquals},
	}
	for _, o := range ops {
		if idx := strings.Index(inner, o.tok); idx >= 0 {
			name := strings.TrimSpace(inner[:idx])
			val := strings.TrimSpace(inner[idx+len(o.tok):])
			val = strings.Trim(val, `"'`)
			return simpleSelector{kind: simAttr, name: strings.ToLower(name), attrOp: o.op, attrValue: val}
		}
	}
	return simpleSelector{kind: simAttr, name: strings.ToLower(strings.TrimSpace(inner)), attrOp: attrExists}
}

func parseFunctionalPseudo(name, arg string) simpleSelector {
	switch name {
	case "not", "is", "where", "has":
		var nested []Selector
		for _, part := range splitTopLevelString(arg, ',') {
			nested = append(nested, ParseSelector(strings.TrimSpace(part)))
		}
		k := simNot
		switch name {
		case "is":
			k = simIs
		case "where":
			k = simWhere
		case "has":
			k = simHas
		}
		return simpleSelector{kind: k, nested: nested}
	case "nth-child", "nth-of-type", "nth-last-child", "nth-last-of-type":
		a, b := parseNth(arg)
		return simpleSelector{kind: simPseudoClass, name: name, nthA: a, nthB: b}
	default:
		return simpleSelector{kind: simPseudoClass, name: name}
	}
}

// parseNth parses "an+b", "odd", or "even" (spec §4.3).
func parseNth(s string) (a, b int) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "odd":
		return 2, 1
	case "even":
		return 2, 0
	}
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, "n") {
		n, _ := strconv.Atoi(s)
		return 0, n
	}
	parts := strings.SplitN(s, "n", 2)
	aPart := parts[0]
	switch aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		a, _ = strconv.Atoi(aPart)
	}
	if len(parts) > 1 && parts[1] != "" {
		b, _ = strconv.Atoi(strings.TrimPrefix(parts[1], "+"))
	}
	return a, b
}

// MatchContext carries the dynamic, non-attribute-derived state the
// matcher needs for state pseudo-classes (spec §4.3). Only Focused is
// consulted, for :focus (a nil context or nil Focused means no element is
// focused); :hover, :active and :visited match regardless of Hovered, and
// :checked/:disabled are read from attributes.
type MatchContext struct {
	Focused  *html.Node
	Hovered  *html.Node
}

// Matches reports whether n satisfies sel, walking the parent chain for
// combinators (spec §4.3, "Matching is performed against the rightmost
// compound selector; combinator ancestors are checked by walking the
// parent chain").
func Matches(sel Selector, n *html.Node, ctx *MatchContext) bool {
	if len(sel.Compounds) == 0 {
		return false
	}
	idx := len(sel.Compounds) - 1
	if !matchesCompound(sel.Compounds[idx], n, ctx) {
		return false
	}
	cur := n
	for idx > 0 {
		combinator := sel.Combinators[idx-1]
		idx--
		compound := sel.Compounds[idx]
		switch combinator {
		case CombinatorChild:
			if cur.Parent == nil || !matchesCompound(compound, cur.Parent, ctx) {
				return false
			}
			cur = cur.Parent
		case CombinatorAdjacent:
			prev := previousElementSibling(cur)
			if prev == nil || !matchesCompound(compound, prev, ctx) {
				return false
			}
			cur = prev
		case CombinatorGeneral:
			found := false
			for s := previousElementSibling(cur); s != nil; s = previousElementSibling(s) {
				if matchesCompound(compound, s, ctx) {
					cur = s
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default: // descendant
			ancestor := cur.Parent
			found := false
			for ancestor != nil {
				if matchesCompound(compound, ancestor, ctx) {
					cur = ancestor
					found = true
					break
				}
				ancestor = ancestor.Parent
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func previousElementSibling(n *html.Node) *html.Node {
	if n.Parent == nil {
		return nil
	}
	idx := n.Index()
	for i := idx - 1; i >= 0; i-- {
		if n.Parent.Children[i].Kind == html.NodeElement {
			return n.Parent.Children[i]
		}
	}
	return nil
}

func matchesCompound(compound []simpleSelector, n *html.Node, ctx *MatchContext) bool {
	if n.Kind != html.NodeElement {
		return false
	}
	for _, ss := range compound {
		if !matchesSimple(ss, n, ctx) {
			return false
		}
	}
	return true
}

func matchesSimple(ss simpleSelector, n *html.Node, ctx *MatchContext) bool {
	switch ss.kind {
	case simUniversal:
		return true
	case simType:
		return n.TagName == ss.name
	case simID:
		return n.ID == ss.name
	case simClass:
		return n.HasClass(ss.name)
	case simAttr:
		return matchesAttr(ss, n)
	case simNot:
		for _, nestedSel := range ss.nested {
			if Matches(nestedSel, n, ctx) {
				return false
			}
		}
		return true
	case simIs, simWhere:
		for _, nestedSel := range ss.nested {
			if Matches(nestedSel, n, ctx) {
				return true
			}
		}
		return false
	case simHas:
		for _, nestedSel := range ss.nested {
			if hasDescendantMatching(n, nestedSel, ctx) {
				return true
			}
		}
		return false
	case simPseudoClass:
		return matchesPseudoClass(ss, n, ctx)
	}
	return false
}

func hasDescendantMatching(n *html.Node, sel Selector, ctx *MatchContext) bool {
	for _, c := range n.Children {
		if c.Kind == html.NodeElement {
			if Matches(sel, c, ctx) {
				return true
			}
			if hasDescendantMatching(c, sel, ctx) {
				return true
			}
		}
	}
	return false
}

func matchesAttr(ss simpleSelector, n *html.Node) bool {
	v, ok := n.Attr(ss.name)
	if !ok {
		return false
	}
	switch ss.attrOp {
	case attrExists:
		return true
	case attrEquals:
		return v == ss.attrValue
	case attrPrefix:
		return strings.HasPrefix(v, ss.attrValue)
	case attrSuffix:
		return strings.HasSuffix(v, ss.attrValue)
	case attrContains:
		return strings.Contains(v, ss.attrValue)
	case attrWord:
		for _, w := range strings.Fields(v) {
			if w == ss.attrValue {
				return true
			}
		}
		return false
	case attrLang:
		return v == ss.attrValue || strings.HasPrefix(v, ss.attrValue+"-")
	}
	return false
}

func matchesPseudoClass(ss simpleSelector, n *html.Node, ctx *MatchContext) bool {
	switch ss.name {
	case "hover", "active", "visited":
		return true // optimistically accepted, spec §4.3
	case "focus":
		return ctx != nil && ctx.Focused == n
	case "link":
		_, hasHref := n.Attr("href")
		return n.TagName == "A" && hasHref
	case "checked":
		_, ok := n.Attr("checked")
		return ok
	case "disabled":
		_, ok := n.Attr("disabled")
		return ok
	case "enabled":
		_, ok := n.Attr("disabled")
		return !ok
	case "required":
		_, ok := n.Attr("required")
		return ok
	case "placeholder-shown":
		ph, _ := n.Attr("placeholder")
		return ph != ""
	case "first-child":
		return siblingIndex(n) == 0
	case "last-child":
		return isLastElementChild(n)
	case "only-child":
		return siblingIndex(n) == 0 && isLastElementChild(n)
	case "nth-child":
		return matchesNth(siblingIndex(n)+1, ss.nthA, ss.nthB)
	case "nth-last-child":
		return matchesNth(countFollowingElementSiblings(n)+1, ss.nthA, ss.nthB)
	case "first-of-type":
		return typeIndex(n) == 0
	case "last-of-type":
		return isLastOfType(n)
	case "nth-of-type":
		return matchesNth(typeIndex(n)+1, ss.nthA, ss.nthB)
	}
	return false
}

func siblingIndex(n *html.Node) int {
	if n.Parent == nil {
		return 0
	}
	count := 0
	for _, c := range n.Parent.Children {
		if c == n {
			return count
		}
		if c.Kind == html.NodeElement {
			count++
		}
	}
	return count
}

func isLastElementChild(n *html.Node) bool {
	if n.Parent == nil {
		return true
	}
	for i := n.Index() + 1; i < len(n.Parent.Children); i++ {
		if n.Parent.Children[i].Kind == html.NodeElement {
			return false
		}
	}
	return true
}

func countFollowingElementSiblings(n *html.Node) int {
	if n.Parent == nil {
		return 0
	}
	count := 0
	for i := n.Index() + 1; i < len(n.Parent.Children); i++ {
		if n.Parent.Children[i].Kind == html.NodeElement {
			count++
		}
	}
	return count
}

func typeIndex(n *html.Node) int {
	if n.Parent == nil {
		return 0
	}
	count := 0
	for _, c := range n.Parent.Children {
		if c == n {
			return count
		}
		if c.Kind == html.NodeElement && c.TagName == n.TagName {
			count++
		}
	}
	return count
}

func isLastOfType(n *html.Node) bool {
	if n.Parent == nil {
		return true
	}
	for i := n.Index() + 1; i < len(n.Parent.Children); i++ {
		c := n.Parent.Children[i]
		if c.Kind == html.NodeElement && c.TagName == n.TagName {
			return false
		}
	}
	return true
}

func matchesNth(pos, a, b int) bool {
	if a == 0 {
		return pos == b
	}
	diff := pos - b
	if a > 0 {
		return diff >= 0 && diff%a == 0
	}
	return diff <= 0 && diff%a == 0
}
