// Package css implements the CSS parser, rule index, selector matcher,
// cascade engine, variable registry, and length/calc() arithmetic (spec
// §4.3). Grounded on the teacher's internal/parse package for the
// absorb-malformed-input discipline (no error returns; a Result-shaped
// accumulator) and on internal/relay's map-bucket patterns for the rule
// index.
package css

import "strings"

// StyleBag is a property-name → value map, the cascade's unit of
// computation (spec §3.4).
type StyleBag map[string]string

// Clone returns a shallow copy.
func (b StyleBag) Clone() StyleBag {
	out := make(StyleBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// inheritableProperties lists the properties the cascade copies from a
// parent's computed style by default (spec §4.3 step 1).
var inheritableProperties = map[string]bool{
	"color": true, "font-size": true, "font-family": true, "font-weight": true,
	"font-style": true, "text-align": true, "white-space": true,
	"list-style-type": true, "list-style-position": true, "cursor": true,
	"line-height": true, "letter-spacing": true, "visibility": true,
}

// IsInheritable reports whether prop is copied down by default.
func IsInheritable(prop string) bool {
	return inheritableProperties[strings.ToLower(prop)]
}
