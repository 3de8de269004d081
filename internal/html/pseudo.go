package html

import "strings"

// CounterSet tracks CSS counters for counter()/counter-increment across a
// render pass (spec §4.2, "Pseudo-element content").
type CounterSet struct {
	values map[string]int
}

// NewCounterSet returns an empty counter map.
func NewCounterSet() *CounterSet {
	return &CounterSet{values: map[string]int{}}
}

// Increment bumps name by delta (default 1 when delta is 0), per a
// counter-increment declaration.
func (c *CounterSet) Increment(name string, delta int) {
	if delta == 0 {
		delta = 1
	}
	c.values[name] += delta
}

// Value returns name's current count.
func (c *CounterSet) Value(name string) int {
	return c.values[name]
}

// ResolvePseudoContent resolves a ::before/::after `content` declaration
// against n's attributes and the running counter set, supporting
// "literal", attr(name), counter(name), open-quote, and close-quote terms
// (spec §4.2). Terms are whitespace-separated in the declaration value.
func ResolvePseudoContent(n *Node, content string, counters *CounterSet) string {
	var b strings.Builder
	for _, term := range splitContentTerms(content) {
		switch {
		case term == "open-quote":
			b.WriteByte('"')
		case term == "close-quote":
			b.WriteByte('"')
		case term == "no-open-quote", term == "no-close-quote":
			// contributes nothing
		case strings.HasPrefix(term, "attr(") && strings.HasSuffix(term, ")"):
			name := strings.TrimSpace(term[len("attr(") : len(term)-1])
			if v, ok := n.Attr(name); ok {
				b.WriteString(v)
			}
		case strings.HasPrefix(term, "counter(") && strings.HasSuffix(term, ")"):
			name := strings.TrimSpace(term[len("counter(") : len(term)-1])
			b.WriteString(itoaPseudo(counters.Value(name)))
		case len(term) >= 2 && (term[0] == '"' || term[0] == '\'') && term[len(term)-1] == term[0]:
			b.WriteString(term[1 : len(term)-1])
		default:
			b.WriteString(term)
		}
	}
	return b.String()
}

// splitContentTerms splits a content value on whitespace outside quotes,
// since "literal text" may itself contain spaces.
func splitContentTerms(content string) []string {
	var terms []string
	var cur strings.Builder
	inQuote := byte(0)
	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return terms
}

func itoaPseudo(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
