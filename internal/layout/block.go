package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/formmodel"
	"github.com/loomweb/loom/internal/html"
)

const contentPaddingPx = 8
const rootFontPx = baseFontPx

// blockLevelTags is the closed set of elements block flow stacks
// vertically; everything else flows inline (spec §4.4).
var blockLevelTags = map[string]bool{
	"HTML": true, "BODY": true, "DIV": true, "P": true, "UL": true, "OL": true,
	"LI": true, "H1": true, "H2": true, "H3": true, "H4": true, "H5": true, "H6": true,
	"PRE": true, "BLOCKQUOTE": true, "FORM": true, "TABLE": true, "TR": true,
	"TD": true, "TH": true, "HEADER": true, "FOOTER": true, "SECTION": true,
	"ARTICLE": true, "NAV": true, "ASIDE": true, "FIGURE": true, "FIGCAPTION": true,
	"FIELDSET": true, "DETAILS": true, "SUMMARY": true, "HR": true,
}

func isBlockLevel(tag string) bool { return blockLevelTags[tag] }

func isWidgetTag(tag string) bool {
	switch tag {
	case "INPUT", "TEXTAREA", "SELECT", "BUTTON":
		return true
	}
	return false
}

// engine carries the mutable cursor/widget state threaded through one
// Layout call (grounded on the teacher's internal/egg/vterm.go cursor-plus-
// accumulator shape).
type engine struct {
	doc          *html.Document
	result       *LayoutResult
	widgetCursor int
	listStack    []int // decimal counters, one per nesting ol/ul level

	// pendingMarginBottom is the trailing margin of the most recently
	// closed block, not yet materialized as blank space (spec §4.4: "the
	// adjoining margins reduce to their maximum"). The next block to open
	// collapses it with its own margin-top via max(); any other content
	// (inline text, a widget) breaks adjacency and flushes it as-is.
	pendingMarginBottom int
}

// flushPendingMargin materializes any deferred trailing margin as blank
// space, used whenever something other than an adjacent block (text, a
// widget) is about to be laid out and the collapse no longer applies.
func (e *engine) flushPendingMargin() {
	if e.pendingMarginBottom > 0 {
		e.blankLine(e.pendingMarginBottom)
	}
	e.pendingMarginBottom = 0
}

// Layout walks doc's body, producing block/inline lines and positioned
// widgets for a viewport contentWidthPx wide (spec §4.4).
func Layout(doc *html.Document, viewportWidthPx int) *LayoutResult {
	e := &engine{doc: doc, result: &LayoutResult{}}
	contentWidth := viewportWidthPx - 2*contentPaddingPx
	if contentWidth < 1 {
		contentWidth = viewportWidthPx
	}
	if doc.Body != nil {
		e.layoutChildren(doc.Body, contentPaddingPx, contentWidth, 0)
	}
	return e.result
}

func (e *engine) y() int {
	if len(e.result.Lines) == 0 {
		return 0
	}
	last := e.result.Lines[len(e.result.Lines)-1]
	return last.Y + last.Height
}

// layoutChildren processes n's children in document order, flushing
// accumulated inline runs into lines whenever a block-level child is
// reached (spec §4.4's block/inline interleaving).
func (e *engine) layoutChildren(n *html.Node, x, contentWidth, listDepth int) {
	var pending []InlineRun
	flush := func(style css.StyleBag) {
		if len(pending) == 0 {
			return
		}
		e.flushPendingMargin()
		e.emitInlineLines(pending, x, contentWidth, style)
		pending = nil
	}

	if n.BeforeContent != "" {
		pending = append(pending, baseRunFromStyle(pseudoStyleOrFallback(n.BeforeStyle, styleOf(n)), n.BeforeContent))
	}

	for _, c := range n.Children {
		switch c.Kind {
		case html.NodeText:
			pending = append(pending, baseRunFromStyle(styleOf(n), c.Text))
		case html.NodeComment, html.NodeFragment:
			continue
		case html.NodeElement:
			if c.TagName == "BR" {
				pending = append(pending, InlineRun{Text: "\n"})
				continue
			}
			if isWidgetTag(c.TagName) {
				flush(styleOf(n))
				e.flushPendingMargin()
				e.layoutWidget(c, x)
				continue
			}
			if isBlockLevel(c.TagName) {
				flush(styleOf(n))
				e.layoutBlock(c, x, contentWidth, listDepth)
				continue
			}
			pending = append(pending, e.flattenInlineElement(c, styleOf(n))...)
		}
	}
	if n.AfterContent != "" {
		pending = append(pending, baseRunFromStyle(pseudoStyleOrFallback(n.AfterStyle, styleOf(n)), n.AfterContent))
	}
	flush(styleOf(n))
}

// layoutBlock lays out one block-level element: margin/background
// decoration, list-item markers, then its own children.
func (e *engine) layoutBlock(n *html.Node, x, containerWidth, listDepth int) {
	style := styleOf(n)
	marginTop := int(resolveOr(style["margin-top"], 0))
	gap := marginTop
	if e.pendingMarginBottom > gap {
		gap = e.pendingMarginBottom
	}
	e.pendingMarginBottom = 0
	if gap > 0 {
		e.blankLine(gap)
	}

	contentWidth := containerWidth
	if w := resolveOr(style["width"], math.NaN()); !math.IsNaN(w) {
		contentWidth = int(w)
	}
	blockX := x

	switch n.TagName {
	case "HR":
		e.result.Lines = append(e.result.Lines, RenderedLine{Y: e.y(), Height: 2, Decoration: Decoration{HR: true}})
	case "LI":
		e.layoutListItem(n, x, contentWidth, listDepth, style)
	case "UL", "OL":
		e.listStack = append(e.listStack, 0)
		e.layoutChildren(n, x+8, contentWidth-8, listDepth+1)
		e.listStack = e.listStack[:len(e.listStack)-1]
	case "PRE":
		e.layoutPre(n, blockX, contentWidth, style)
	case "BLOCKQUOTE":
		e.layoutBlockquote(n, blockX, contentWidth, listDepth)
	default:
		if scale, ok := HeadingScale(n.TagName); ok && style["font-size"] == "" {
			orig := n.Style
			styleCopy := css.StyleBag(n.Style).Clone()
			styleCopy["font-size"] = headingSentinel(scale)
			n.Style = styleCopy
			e.layoutChildren(n, blockX, contentWidth, listDepth)
			n.Style = orig
		} else {
			e.layoutChildren(n, blockX, contentWidth, listDepth)
		}
	}

	if bg := backgroundImageURL(style); bg != "" && len(e.result.Lines) > 0 {
		e.result.Lines[len(e.result.Lines)-1].Decoration.ImageURL = bg
	}

	marginBottom := int(resolveOr(style["margin-bottom"], 0))
	if e.pendingMarginBottom > marginBottom {
		marginBottom = e.pendingMarginBottom
	}
	e.pendingMarginBottom = marginBottom
}

func (e *engine) blankLine(height int) {
	e.result.Lines = append(e.result.Lines, RenderedLine{Y: e.y(), Height: height})
}

func (e *engine) layoutListItem(n *html.Node, x, contentWidth, listDepth int, style css.StyleBag) {
	marker := "• "
	if listDepth > 0 && len(e.listStack) > 0 {
		idx := len(e.listStack) - 1
		if style["list-style-type"] == "decimal" || isOrderedAncestor(n) {
			e.listStack[idx]++
			marker = strconv.Itoa(e.listStack[idx]) + ". "
		}
	}
	pending := []InlineRun{{Text: marker, Color: style["color"]}}
	pending = append(pending, e.flattenInlineChildren(n, style)...)
	e.emitInlineLines(pending, x, contentWidth, style)
}

func isOrderedAncestor(n *html.Node) bool {
	return n.Parent != nil && n.Parent.TagName == "OL"
}

func (e *engine) layoutPre(n *html.Node, x, contentWidth int, style css.StyleBag) {
	runs := e.flattenInlineChildren(n, style)
	lines := WrapRuns(runs, contentWidth, "left", true)
	for _, l := range lines {
		for i := range l.Spans {
			l.Spans[i].X += x
		}
		e.result.Lines = append(e.result.Lines, RenderedLine{
			Y: e.y(), Height: l.Height, Spans: l.Spans,
			Decoration: Decoration{PreBg: true},
		})
	}
}

func (e *engine) layoutBlockquote(n *html.Node, x, contentWidth, listDepth int) {
	startIdx := len(e.result.Lines)
	e.layoutChildren(n, x+8, contentWidth-8, listDepth)
	for i := startIdx; i < len(e.result.Lines); i++ {
		e.result.Lines[i].Decoration.QuoteBar = true
	}
}

// layoutWidget positions one form control blueprint at the current cursor
// and reserves its box in the flow (spec §4.4).
func (e *engine) layoutWidget(n *html.Node, x int) {
	if e.widgetCursor >= len(e.doc.Widgets) {
		return
	}
	bp := e.doc.Widgets[e.widgetCursor]
	e.widgetCursor++
	w, h := WidgetSize(bp)
	pw := &formmodel.PositionedWidget{
		Blueprint: bp,
		Runtime:   formmodel.NewRuntimeState(bp),
		X:         x, Y: e.y(), W: w, H: h,
	}
	e.result.Widgets = append(e.result.Widgets, pw)
	e.result.Lines = append(e.result.Lines, RenderedLine{Y: e.y(), Height: h})
}

// emitInlineLines wraps pending runs and appends them as absolute lines.
func (e *engine) emitInlineLines(runs []InlineRun, x, contentWidth int, style css.StyleBag) {
	textAlign := style["text-align"]
	whiteSpacePre := strings.HasPrefix(style["white-space"], "pre")
	lines := WrapRuns(runs, contentWidth, textAlign, whiteSpacePre)
	for _, l := range lines {
		for i := range l.Spans {
			l.Spans[i].X += x
		}
		e.result.Lines = append(e.result.Lines, RenderedLine{Y: e.y(), Height: l.Height, Spans: l.Spans})
	}
}

// flattenInlineChildren gathers every text/inline descendant of n into a
// flat run list, honoring nested bold/italic/href/etc (spec §4.2/§4.4).
func (e *engine) flattenInlineChildren(n *html.Node, parentStyle css.StyleBag) []InlineRun {
	var out []InlineRun
	if n.BeforeContent != "" {
		out = append(out, baseRunFromStyle(pseudoStyleOrFallback(n.BeforeStyle, parentStyle), n.BeforeContent))
	}
	for _, c := range n.Children {
		switch c.Kind {
		case html.NodeText:
			out = append(out, baseRunFromStyle(parentStyle, c.Text))
		case html.NodeElement:
			if c.TagName == "BR" {
				out = append(out, InlineRun{Text: "\n"})
				continue
			}
			if isWidgetTag(c.TagName) {
				continue
			}
			out = append(out, e.flattenInlineElement(c, parentStyle)...)
		}
	}
	if n.AfterContent != "" {
		out = append(out, baseRunFromStyle(pseudoStyleOrFallback(n.AfterStyle, parentStyle), n.AfterContent))
	}
	return out
}

// pseudoStyleOrFallback resolves the style bag a generated ::before/::after
// run should use: the pseudo-element's own declarations when a rule
// targeted it, or the host element's style otherwise.
func pseudoStyleOrFallback(pseudo map[string]string, fallback css.StyleBag) css.StyleBag {
	if pseudo == nil {
		return fallback
	}
	return css.StyleBag(pseudo)
}

func (e *engine) flattenInlineElement(n *html.Node, parentStyle css.StyleBag) []InlineRun {
	style := styleOf(n)
	if len(style) == 0 {
		style = parentStyle
	}
	runs := e.flattenInlineChildren(n, style)
	href := ""
	if n.TagName == "A" {
		href, _ = n.Attr("href")
	}
	for i := range runs {
		applyTagFlags(&runs[i], n.TagName, style)
		if href != "" {
			runs[i].Href = href
		}
	}
	return runs
}

const headingSentinelPrefix = "heading:"

func headingSentinel(scale float64) string {
	return headingSentinelPrefix + strconv.FormatFloat(scale, 'g', -1, 64)
}

func baseRunFromStyle(style css.StyleBag, text string) InlineRun {
	var fontScale float64
	if s, ok := strings.CutPrefix(style["font-size"], headingSentinelPrefix); ok {
		fontScale, _ = strconv.ParseFloat(s, 64)
	} else {
		fontPx := resolveOr(style["font-size"], baseFontPx)
		if math.IsNaN(fontPx) {
			fontPx = baseFontPx
		}
		fontScale = FontScaleForPx(fontPx)
	}
	letterSpacing := resolveOr(style["letter-spacing"], 0)
	if math.IsNaN(letterSpacing) {
		letterSpacing = 0
	}
	r := InlineRun{
		Text:          text,
		Color:         style["color"],
		FontScale:     fontScale,
		LetterSpacing: letterSpacing,
	}
	applyDeclFlags(&r, style)
	return r
}

func applyDeclFlags(r *InlineRun, style css.StyleBag) {
	if strings.Contains(style["font-weight"], "bold") || style["font-weight"] == "700" {
		r.Bold = true
	}
	if style["font-style"] == "italic" {
		r.Italic = true
	}
	switch style["text-decoration"] {
	case "underline":
		r.Underline = true
	case "line-through":
		r.Strike = true
	}
	if style["word-break"] == "break-all" || style["overflow-wrap"] == "break-word" {
		r.BreakAll = true
	}
}

func applyTagFlags(r *InlineRun, tag string, style css.StyleBag) {
	switch tag {
	case "B", "STRONG":
		r.Bold = true
	case "I", "EM":
		r.Italic = true
	case "U":
		r.Underline = true
	case "S", "STRIKE", "DEL":
		r.Strike = true
	case "CODE", "KBD", "SAMP":
		r.CodeBg = true
	case "MARK":
		r.Mark = true
	}
	applyDeclFlags(r, style)
}

func backgroundImageURL(style css.StyleBag) string {
	v := style["background-image"]
	if v == "" || v == "none" {
		return ""
	}
	if strings.HasPrefix(v, "url(") && strings.HasSuffix(v, ")") {
		inner := strings.Trim(v[4:len(v)-1], `"'`)
		return inner
	}
	return ""
}

func resolveOr(value string, def float64) float64 {
	if value == "" {
		return def
	}
	v := css.ResolveLength(value, css.LengthContext{
		FontSizePx: baseFontPx, RootFontSizePx: rootFontPx,
		ViewportWidth: 1920, ViewportHeight: 1080, CharWidthPx: charWidthPx,
	})
	if math.IsNaN(v) {
		return def
	}
	return v
}
