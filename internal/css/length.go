package css

import (
	"math"
	"strconv"
	"strings"
)

// LengthContext supplies the contextual pixel values CSS length units
// resolve against (spec §4.3, "Length units").
type LengthContext struct {
	FontSizePx     float64 // for em
	RootFontSizePx float64 // for rem
	ViewportWidth  float64 // for vw
	ViewportHeight float64 // for vh
	CharWidthPx    float64 // for ch
}

const ptToPx = 96.0 / 72.0

// ResolveLength evaluates a CSS length/percentage/calc() expression to
// pixels. Percentages are returned as their raw percentage value (the
// caller multiplies against whatever 100% means in that context). Terms
// this function can't recognize yield NaN, per spec §4.3.
func ResolveLength(value string, ctx LengthContext) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "calc(") || strings.HasPrefix(lower, "min(") ||
		strings.HasPrefix(lower, "max(") || strings.HasPrefix(lower, "clamp(") {
		return evalFunctional(value, ctx)
	}
	return resolveSimpleLength(value, ctx)
}

func resolveSimpleLength(value string, ctx LengthContext) float64 {
	lower := strings.ToLower(value)
	units := []struct {
		suffix string
		scale  func(n float64) float64
	}{
		{"rem", func(n float64) float64 { return n * ctx.RootFontSizePx }},
		{"em", func(n float64) float64 { return n * ctx.FontSizePx }},
		{"px", func(n float64) float64 { return n }},
		{"pt", func(n float64) float64 { return n * ptToPx }},
		{"vw", func(n float64) float64 { return n / 100 * ctx.ViewportWidth }},
		{"vh", func(n float64) float64 { return n / 100 * ctx.ViewportHeight }},
		{"ch", func(n float64) float64 { return n * ctx.CharWidthPx }},
		{"%", func(n float64) float64 { return n }},
	}
	for _, u := range units {
		if strings.HasSuffix(lower, u.suffix) {
			numStr := strings.TrimSpace(value[:len(value)-len(u.suffix)])
			n, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return math.NaN()
			}
			return u.scale(n)
		}
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	return math.NaN()
}

// evalFunctional evaluates calc()/min()/max()/clamp() (spec §4.3).
func evalFunctional(value string, ctx LengthContext) float64 {
	lower := strings.ToLower(value)
	open := strings.IndexByte(value, '(')
	if open < 0 {
		return math.NaN()
	}
	close, ok := matchParen(value, open)
	if !ok {
		return math.NaN()
	}
	inner := value[open+1 : close]

	switch {
	case strings.HasPrefix(lower, "min("):
		return reduceArgs(inner, ctx, math.Min, math.Inf(1))
	case strings.HasPrefix(lower, "max("):
		return reduceArgs(inner, ctx, math.Max, math.Inf(-1))
	case strings.HasPrefix(lower, "clamp("):
		parts := splitTopLevelString(inner, ',')
		if len(parts) != 3 {
			return math.NaN()
		}
		min := evalSum(parts[0], ctx)
		pref := evalSum(parts[1], ctx)
		max := evalSum(parts[2], ctx)
		if math.IsNaN(min) || math.IsNaN(pref) || math.IsNaN(max) {
			return math.NaN()
		}
		return math.Max(min, math.Min(pref, max))
	case strings.HasPrefix(lower, "calc("):
		return evalSum(inner, ctx)
	}
	return math.NaN()
}

func reduceArgs(inner string, ctx LengthContext, combine func(a, b float64) float64, start float64) float64 {
	parts := splitTopLevelString(inner, ',')
	if len(parts) == 0 {
		return math.NaN()
	}
	result := start
	for _, p := range parts {
		v := evalSum(p, ctx)
		if math.IsNaN(v) {
			return math.NaN()
		}
		result = combine(result, v)
	}
	return result
}

// evalSum evaluates a +/- chain of calc terms (each term may itself be a
// */÷ product of lengths and bare numbers).
func evalSum(expr string, ctx LengthContext) float64 {
	expr = strings.TrimSpace(expr)
	terms, ops := splitAddSub(expr)
	if len(terms) == 0 {
		return math.NaN()
	}
	total := evalProduct(terms[0], ctx)
	for i, op := range ops {
		v := evalProduct(terms[i+1], ctx)
		if math.IsNaN(total) || math.IsNaN(v) {
			return math.NaN()
		}
		if op == '+' {
			total += v
		} else {
			total -= v
		}
	}
	return total
}

func evalProduct(expr string, ctx LengthContext) float64 {
	expr = strings.TrimSpace(expr)
	terms, ops := splitMulDiv(expr)
	if len(terms) == 0 {
		return math.NaN()
	}
	total := resolveTerm(terms[0], ctx)
	for i, op := range ops {
		v := resolveTerm(terms[i+1], ctx)
		if math.IsNaN(total) || math.IsNaN(v) {
			return math.NaN()
		}
		if op == '*' {
			total *= v
		} else {
			if v == 0 {
				return math.NaN()
			}
			total /= v
		}
	}
	return total
}

func resolveTerm(term string, ctx LengthContext) float64 {
	term = strings.TrimSpace(term)
	if strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")") {
		return evalSum(term[1:len(term)-1], ctx)
	}
	lower := strings.ToLower(term)
	if strings.HasPrefix(lower, "calc(") || strings.HasPrefix(lower, "min(") ||
		strings.HasPrefix(lower, "max(") || strings.HasPrefix(lower, "clamp(") {
		return evalFunctional(term, ctx)
	}
	return resolveSimpleLength(term, ctx)
}

// splitAddSub splits expr on top-level binary +/- operators, each of which
// must be surrounded by whitespace per the CSS calc() grammar (so "-5px"
// and "1e-3" are not mistaken for operators).
func splitAddSub(expr string) ([]string, []byte) {
	var terms []string
	var ops []byte
	depth := 0
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '+', '-':
			if depth == 0 && i > start && expr[i-1] == ' ' && i+1 < len(expr) && expr[i+1] == ' ' {
				terms = append(terms, expr[start:i])
				ops = append(ops, c)
				start = i + 1
			}
		}
	}
	terms = append(terms, expr[start:])
	return terms, ops
}

func splitMulDiv(expr string) ([]string, []byte) {
	var terms []string
	var ops []byte
	depth := 0
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '*', '/':
			if depth == 0 {
				terms = append(terms, expr[start:i])
				ops = append(ops, c)
				start = i + 1
			}
		}
	}
	terms = append(terms, expr[start:])
	return terms, ops
}
