package css

import "strings"

// Rule is one parsed `selector-list { declaration-block }` (spec §3.4).
type Rule struct {
	Selectors    []Selector
	Declarations StyleBag
	Important    StyleBag
	SourceOrder  int
}

// stripComments removes /* ... */ comments, per spec §4.3's "Parser"
// paragraph.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	i := 0
	for i < len(src) {
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 4
			continue
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}

// Parse parses a stylesheet into an ordered rule list, descending into
// @media/@supports/@layer blocks as if their rules were written at top
// level (the core never evaluates media queries), and skipping
// @charset/@import/@namespace (spec §4.3).
func Parse(src string, registry *VarRegistry) []Rule {
	src = stripComments(src)
	var rules []Rule
	parseBlock(src, registry, &rules)
	return rules
}

func parseBlock(src string, registry *VarRegistry, out *[]Rule) {
	i := 0
	for i < len(src) {
		for i < len(src) && isCSSSpace(src[i]) {
			i++
		}
		if i >= len(src) {
			break
		}
		if src[i] == '@' {
			i = parseAtRule(src, i, registry, out)
			continue
		}
		braceIdx := indexTopLevel(src[i:], '{')
		if braceIdx < 0 {
			break
		}
		selectorText := src[i : i+braceIdx]
		end, ok := matchCurly(src, i+braceIdx)
		if !ok {
			break
		}
		body := src[i+braceIdx+1 : end]
		addRule(selectorText, body, registry, out)
		i = end + 1
	}
}

// parseAtRule handles one @-rule starting at index i, returning the index
// just past it.
func parseAtRule(src string, i int, registry *VarRegistry, out *[]Rule) int {
	nameEnd := i
	for nameEnd < len(src) && src[nameEnd] != ' ' && src[nameEnd] != '{' && src[nameEnd] != ';' {
		nameEnd++
	}
	name := strings.ToLower(src[i:nameEnd])

	switch name {
	case "@charset", "@import", "@namespace":
		semi := strings.IndexByte(src[i:], ';')
		if semi < 0 {
			return len(src)
		}
		return i + semi + 1
	case "@media", "@supports", "@layer":
		braceIdx := indexTopLevel(src[i:], '{')
		if braceIdx < 0 {
			return len(src)
		}
		end, ok := matchCurly(src, i+braceIdx)
		if !ok {
			return len(src)
		}
		inner := src[i+braceIdx+1 : end]
		parseBlock(inner, registry, out) // treated as if written at top level
		return end + 1
	default:
		// Unknown at-rule: skip its block or statement.
		braceIdx := indexTopLevel(src[i:], '{')
		semiIdx := strings.IndexByte(src[i:], ';')
		if braceIdx < 0 || (semiIdx >= 0 && semiIdx < braceIdx) {
			if semiIdx < 0 {
				return len(src)
			}
			return i + semiIdx + 1
		}
		end, ok := matchCurly(src, i+braceIdx)
		if !ok {
			return len(src)
		}
		return end + 1
	}
}

func addRule(selectorText, body string, registry *VarRegistry, out *[]Rule) {
	var selectors []Selector
	for _, part := range splitTopLevelString(selectorText, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		selectors = append(selectors, ParseSelector(part))
	}

	decls, important := parseDeclarationBlock(body, registry, strings.TrimSpace(selectorText) == ":root")
	if len(selectors) == 0 && strings.TrimSpace(selectorText) != ":root" {
		return
	}
	*out = append(*out, Rule{
		Selectors:    selectors,
		Declarations: decls,
		Important:    important,
		SourceOrder:  len(*out),
	})
}

// parseDeclarationBlock splits body on ';' outside parens, resolves
// var(...) against registry, strips !important into a separate set, and
// registers --custom-property declarations (including :root ones) into the
// registry as a side effect (spec §4.3).
func parseDeclarationBlock(body string, registry *VarRegistry, isRoot bool) (decls, important StyleBag) {
	decls = StyleBag{}
	important = StyleBag{}
	for _, stmt := range splitTopLevelString(body, ';') {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		colon := strings.IndexByte(stmt, ':')
		if colon < 0 {
			continue
		}
		name := strings.TrimSpace(stmt[:colon])
		value := strings.TrimSpace(stmt[colon+1:])

		isImportant := false
		if idx := strings.LastIndex(strings.ToLower(value), "!important"); idx >= 0 {
			isImportant = true
			value = strings.TrimSpace(value[:idx])
		}

		if strings.HasPrefix(name, "--") {
			registry.Set(name, registry.ResolveVars(value))
			continue
		}

		resolved := registry.ResolveVars(value)
		if isImportant {
			important[strings.ToLower(name)] = resolved
		} else {
			decls[strings.ToLower(name)] = resolved
		}
	}
	return decls, important
}

func isCSSSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// indexTopLevel finds the first occurrence of target not nested inside
// parentheses or quotes.
func indexTopLevel(s string, target byte) int {
	depth := 0
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = c
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if c == target && depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchCurly(s string, openIdx int) (int, bool) {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// splitTopLevelString splits s on sep, ignoring sep occurrences nested
// inside parentheses or quotes (declaration blocks split on ';', selector
// lists on ',').
func splitTopLevelString(s string, sep byte) []string {
	var out []string
	depth := 0
	inQuote := byte(0)
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = c
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if c == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
