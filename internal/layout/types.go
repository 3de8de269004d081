// Package layout turns a cascaded Document (internal/html) into the
// LayoutResult block/inline representation the paint pass consumes: block
// flow with margin collapsing, inline word-wrap, font-size buckets, list
// markers, pre/blockquote decorations, and widget positioning.
//
// Grounded on the teacher's internal/egg/vterm.go, which drives a
// character-grid terminal buffer from a stream of styled runs — the same
// "accumulate styled spans into rows, track a cursor" shape this package
// applies to block/inline layout instead of a PTY's scrollback.
package layout

import "github.com/loomweb/loom/internal/formmodel"

// Bg is an optional background color/decoration carried by a line.
type Bg struct {
	Color string
}

// Decoration flags a line's non-content visual treatment (spec §4.4).
type Decoration struct {
	HR        bool
	PreBg     bool
	QuoteBar  bool
	ImageURL  string // non-empty when the host element has background-image: url(...)
}

// RenderedSpan is one run of styled inline text (spec §3.5).
type RenderedSpan struct {
	X          int
	Text       string
	Color      string
	FontScale  float64
	Bold       bool
	Italic     bool
	Href       string
	Underline  bool
	Strike     bool
	CodeBg     bool
	Mark       bool
	SearchHit  bool
}

// RenderedLine is one row of the laid-out page (spec §3.5).
type RenderedLine struct {
	Y          int
	Height     int
	Spans      []RenderedSpan
	Bg         *Bg
	Decoration Decoration
}

// LayoutResult is the layout engine's sole output (spec §3.5).
type LayoutResult struct {
	Lines   []RenderedLine
	Widgets []*formmodel.PositionedWidget
}

// ContentHeight returns the total content height: the bottom edge of the
// last line, or 0 when there are no lines (spec §3.5).
func (r *LayoutResult) ContentHeight() int {
	if len(r.Lines) == 0 {
		return 0
	}
	last := r.Lines[len(r.Lines)-1]
	return last.Y + last.Height
}

// MaxScrollY computes the scroll extent for a viewport of the given
// content height (spec §4.4).
func (r *LayoutResult) MaxScrollY(viewportContentHeight int) int {
	extent := r.ContentHeight() - viewportContentHeight
	if extent < 0 {
		return 0
	}
	return extent
}
