package css

import "strings"

// VarRegistry is the page-scoped CSS-variable registry (spec §4.3,
// "CSS variable resolution"): populated from inline `--foo: value`
// declarations and `:root { … }` rules, consulted by var(...) resolution.
type VarRegistry struct {
	values map[string]string
}

// NewVarRegistry returns an empty registry.
func NewVarRegistry() *VarRegistry {
	return &VarRegistry{values: map[string]string{}}
}

// Set registers name (without its leading "--") as value.
func (r *VarRegistry) Set(name, value string) {
	r.values[strings.TrimPrefix(name, "--")] = value
}

// Get returns the raw registered value for name, if any.
func (r *VarRegistry) Get(name string) (string, bool) {
	v, ok := r.values[strings.TrimPrefix(name, "--")]
	return v, ok
}

// ResolveVars recursively expands every var(--name[, fallback]) occurrence
// in value, yielding the fallback (or empty string) for missing names
// (spec §4.3).
func (r *VarRegistry) ResolveVars(value string) string {
	return r.resolveVarsDepth(value, 0)
}

const maxVarDepth = 16

func (r *VarRegistry) resolveVarsDepth(value string, depth int) string {
	if depth > maxVarDepth || !strings.Contains(value, "var(") {
		return value
	}
	var b strings.Builder
	i := 0
	for i < len(value) {
		idx := strings.Index(value[i:], "var(")
		if idx < 0 {
			b.WriteString(value[i:])
			break
		}
		b.WriteString(value[i : i+idx])
		start := i + idx + len("var(")
		end, ok := matchParen(value, start-1)
		if !ok {
			b.WriteString(value[i+idx:])
			break
		}
		inner := value[start:end]
		name, fallback := splitVarArgs(inner)
		if v, found := r.Get(name); found {
			b.WriteString(r.resolveVarsDepth(v, depth+1))
		} else {
			b.WriteString(r.resolveVarsDepth(fallback, depth+1))
		}
		i = end + 1
	}
	return b.String()
}

// matchParen finds the index of the ')' matching the '(' at openIdx.
func matchParen(s string, openIdx int) (int, bool) {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func splitVarArgs(inner string) (name, fallback string) {
	idx := splitTopLevel(inner, ',')
	if len(idx) == 0 {
		return strings.TrimSpace(inner), ""
	}
	name = strings.TrimSpace(inner[:idx[0]])
	fallback = strings.TrimSpace(inner[idx[0]+1:])
	return name, fallback
}

// splitTopLevel returns the byte offsets of sep occurrences in s that are
// not nested inside parentheses; its only caller is splitVarArgs, which
// needs just the first for var()'s two-argument form. Declaration and
// selector-list splitting use splitTopLevelString in parse.go instead.
func splitTopLevel(s string, sep byte) []int {
	var out []int
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				out = append(out, i)
			}
		}
	}
	return out
}
