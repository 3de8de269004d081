package layout

import "strings"

const baseFontPx = 16.0

// FontScaleForPx buckets a continuous pixel font-size into one of the
// discrete scale factors layout actually uses (spec §4.4).
func FontScaleForPx(px float64) float64 {
	switch {
	case px < 12:
		return 0.75
	case px < 16:
		return 1
	case px < 24:
		return 2
	default:
		return 3
	}
}

// headingScale maps h1..h6 to their default scale factor (spec §4.4).
var headingScale = map[string]float64{
	"H1": 3, "H2": 2, "H3": 1.5, "H4": 1.25, "H5": 1, "H6": 1,
}

// HeadingScale reports the default scale for a heading tag, if any.
func HeadingScale(tag string) (float64, bool) {
	s, ok := headingScale[strings.ToUpper(tag)]
	return s, ok
}
