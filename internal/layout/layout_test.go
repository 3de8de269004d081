package layout

import (
	"testing"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/formmodel"
	"github.com/loomweb/loom/internal/html"
)

func layoutFromSource(t *testing.T, markup, stylesheet string, viewportWidth int) *LayoutResult {
	t.Helper()
	doc := html.Parse(markup)
	rules := css.Parse(stylesheet, css.NewVarRegistry())
	ApplyStyles(doc, rules, nil)
	return Layout(doc, viewportWidth)
}

func TestLayoutSimpleParagraphWraps(t *testing.T) {
	result := layoutFromSource(t, `<body><p>one two three four five six seven eight</p></body>`, "", 80)
	if len(result.Lines) < 2 {
		t.Fatalf("expected wrapping to produce multiple lines, got %d", len(result.Lines))
	}
	for i := 1; i < len(result.Lines); i++ {
		if result.Lines[i].Y < result.Lines[i-1].Y {
			t.Fatalf("lines must be in top-to-bottom order, line %d.Y=%d < line %d.Y=%d", i, result.Lines[i].Y, i-1, result.Lines[i-1].Y)
		}
	}
}

func TestLayoutHeadingScale(t *testing.T) {
	result := layoutFromSource(t, `<body><h1>Title</h1></body>`, "", 800)
	found := false
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			if s.FontScale == 3 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected an h1 span at font scale 3, lines=%+v", result.Lines)
	}
}

func TestLayoutExplicitFontSizeOverridesHeadingDefault(t *testing.T) {
	result := layoutFromSource(t, `<body><h1>Title</h1></body>`, `h1 { font-size: 10px; }`, 800)
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			if s.FontScale != 0.75 {
				t.Fatalf("explicit font-size should yield bucket 0.75, got %v", s.FontScale)
			}
		}
	}
}

func TestLayoutListMarkers(t *testing.T) {
	result := layoutFromSource(t, `<body><ul><li>first</li><li>second</li></ul></body>`, "", 400)
	var texts []string
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			texts = append(texts, s.Text)
		}
	}
	sawBullet := false
	for _, text := range texts {
		if len(text) > 0 && []rune(text)[0] == '•' {
			sawBullet = true
		}
	}
	if !sawBullet {
		t.Fatalf("expected a disc bullet marker in %v", texts)
	}
}

func TestLayoutOrderedListDecimalMarkers(t *testing.T) {
	result := layoutFromSource(t, `<body><ol><li>first</li><li>second</li></ol></body>`, "", 400)
	var seen []string
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			seen = append(seen, s.Text)
		}
	}
	joined := ""
	for _, s := range seen {
		joined += s
	}
	if !contains(joined, "1.") || !contains(joined, "2.") {
		t.Fatalf("expected decimal markers 1. and 2. in %q", joined)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestLayoutPreservesPreformattedNewlines(t *testing.T) {
	result := layoutFromSource(t, "<body><pre>line one\nline two\nline three</pre></body>", "", 400)
	var preLines int
	for _, l := range result.Lines {
		if l.Decoration.PreBg {
			preLines++
		}
	}
	if preLines != 3 {
		t.Fatalf("expected 3 pre lines, got %d", preLines)
	}
}

func TestLayoutBlockquoteDecoration(t *testing.T) {
	result := layoutFromSource(t, `<body><blockquote>quoted text</blockquote></body>`, "", 400)
	found := false
	for _, l := range result.Lines {
		if l.Decoration.QuoteBar {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one line with a quote bar decoration")
	}
}

func TestLayoutWidgetPositioning(t *testing.T) {
	result := layoutFromSource(t, `<body><form><input type="text" name="q"><input type="submit" value="Go"></form></body>`, "", 400)
	if len(result.Widgets) != 2 {
		t.Fatalf("want 2 widgets, got %d", len(result.Widgets))
	}
	if result.Widgets[0].W <= 0 || result.Widgets[0].H <= 0 {
		t.Fatalf("expected positive widget size, got %+v", result.Widgets[0])
	}
	if result.Widgets[1].Y < result.Widgets[0].Y {
		t.Fatalf("second widget should not be placed above the first")
	}
}

func TestLayoutBeforeAfterContentInjectsSpans(t *testing.T) {
	result := layoutFromSource(t, `<body><p>middle</p></body>`, `p::before { content: "« "; } p::after { content: " »"; }`, 400)
	var texts []string
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			texts = append(texts, s.Text)
		}
	}
	joined := ""
	for _, text := range texts {
		joined += text
	}
	if !contains(joined, "«") || !contains(joined, "»") {
		t.Fatalf("expected ::before/::after content around the paragraph text, got %q", joined)
	}
	if !contains(joined, "middle") {
		t.Fatalf("expected the paragraph's own text to remain, got %q", joined)
	}
}

func TestLayoutNoBeforeAfterWhenNoRuleMatches(t *testing.T) {
	result := layoutFromSource(t, `<body><p>plain</p></body>`, "", 400)
	for _, l := range result.Lines {
		for _, s := range l.Spans {
			if s.Text != "plain" {
				t.Fatalf("expected no generated content without a ::before/::after rule, got span %q", s.Text)
			}
		}
	}
}

func TestLayoutBackgroundImageTagging(t *testing.T) {
	result := layoutFromSource(t, `<body><div>hi</div></body>`, `div { background-image: url(hero.png); }`, 400)
	found := ""
	for _, l := range result.Lines {
		if l.Decoration.ImageURL != "" {
			found = l.Decoration.ImageURL
		}
	}
	if found != "hero.png" {
		t.Fatalf("got background image %q, want hero.png", found)
	}
}

func TestLayoutAdjacentBlockMarginsCollapseToMax(t *testing.T) {
	markup := `<body><div style="margin-bottom:20px">A</div><div style="margin-top:10px">B</div></body>`
	result := layoutFromSource(t, markup, "", 400)

	var gap int
	found := false
	for _, l := range result.Lines {
		if len(l.Spans) == 0 && l.Height > 0 {
			gap = l.Height
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a blank gap line between the two blocks, lines=%+v", result.Lines)
	}
	if gap != 20 {
		t.Fatalf("collapsed margin gap = %d, want max(20, 10) = 20", gap)
	}
}

func TestLayoutNonAdjacentMarginsAreNotCollapsed(t *testing.T) {
	markup := `<body><div style="margin-bottom:20px">A</div>between<div style="margin-top:10px">B</div></body>`
	result := layoutFromSource(t, markup, "", 400)

	var gaps []int
	for _, l := range result.Lines {
		if len(l.Spans) == 0 && l.Height > 0 {
			gaps = append(gaps, l.Height)
		}
	}
	if len(gaps) != 2 {
		t.Fatalf("expected two separate margin gaps once text intervenes, got %v", gaps)
	}
	if gaps[0] != 20 || gaps[1] != 10 {
		t.Fatalf("gaps = %v, want [20, 10] (no collapsing once adjacency is broken)", gaps)
	}
}

func TestLayoutResultScrollExtent(t *testing.T) {
	result := layoutFromSource(t, `<body><p>one two three four five six seven eight nine ten eleven</p></body>`, "", 40)
	height := result.ContentHeight()
	if height <= 0 {
		t.Fatalf("expected positive content height, got %d", height)
	}
	if got := result.MaxScrollY(height + 100); got != 0 {
		t.Fatalf("viewport taller than content should not scroll, got %d", got)
	}
	if got := result.MaxScrollY(10); got != height-10 {
		t.Fatalf("MaxScrollY(10) = %d, want %d", got, height-10)
	}
}

func TestWrapRunsBreakAll(t *testing.T) {
	run := InlineRun{Text: "supercalifragilisticexpialidocious", FontScale: 1, BreakAll: true}
	lines := WrapRuns([]InlineRun{run}, 40, "left", false)
	if len(lines) < 2 {
		t.Fatalf("expected break-all to split a long word across lines, got %d lines", len(lines))
	}
}

func TestWidgetSizeKinds(t *testing.T) {
	w, h := WidgetSize(formmodel.Blueprint{Kind: formmodel.WidgetTextInput})
	if w <= 0 || h != inputHeightPx {
		t.Fatalf("text input size = (%d,%d)", w, h)
	}
}
