package layout

import (
	"strings"
)

const charWidthPx = 8.0 // spec's ch-unit base: 1ch = 8px at scale 1
const defaultLineHeightMultiplier = 1.2

// InlineRun is one styled run of inline text feeding the word-wrap
// algorithm (spec §4.4's "sequence of styled spans").
type InlineRun struct {
	Text          string
	Color         string
	FontScale     float64
	Bold          bool
	Italic        bool
	Href          string
	Underline     bool
	Strike        bool
	CodeBg        bool
	Mark          bool
	SearchHit     bool
	LetterSpacing float64
	BreakAll      bool // word-break: break-all or overflow-wrap: break-word
}

// WrappedLine is one inline-flow output line, positioned relative to the
// block's content box (x=0 is the left content edge).
type WrappedLine struct {
	Spans  []RenderedSpan
	Height int
}

// wordWidth computes a word's pixel width per spec §4.4's formula.
func wordWidth(word string, run InlineRun) float64 {
	n := len([]rune(word))
	if n == 0 {
		return 0
	}
	return float64(n)*charWidthPx*run.FontScale + run.LetterSpacing*float64(n-1)
}

func lineHeightFor(fontScale float64) int {
	h := fontScale * baseFontPx * defaultLineHeightMultiplier
	return int(h + 0.5)
}

// WrapRuns lays out runs into lines within contentWidthPx, applying
// text-align to each closed line. white-space: pre disables wrapping and
// preserves embedded newlines (spec §4.4).
func WrapRuns(runs []InlineRun, contentWidthPx int, textAlign string, whiteSpacePre bool) []WrappedLine {
	if whiteSpacePre {
		return wrapPreformatted(runs, textAlign)
	}

	var lines []WrappedLine
	var cur []span
	var curWidth float64
	maxScale := 1.0

	flush := func() {
		if len(cur) == 0 && len(lines) > 0 {
			return
		}
		lines = append(lines, buildLine(cur, curWidth, contentWidthPx, textAlign, maxScale))
		cur = nil
		curWidth = 0
		maxScale = 1.0
	}

	for _, run := range runs {
		words := strings.Fields(run.Text)
		if run.Text != "" && len(words) == 0 {
			continue
		}
		for _, w := range words {
			ww := wordWidth(w, run)
			gap := 0.0
			if len(cur) > 0 {
				gap = charWidthPx * run.FontScale
			}
			if len(cur) > 0 && curWidth+gap+ww > float64(contentWidthPx) {
				flush()
				gap = 0
			}
			if ww > float64(contentWidthPx) && contentWidthPx > 0 {
				if run.BreakAll {
					appendBrokenWord(&cur, &curWidth, &maxScale, w, run, contentWidthPx, &lines, textAlign)
					continue
				}
				// overflows the line; placed anyway (spec §4.4)
			}
			cur = append(cur, span{x: curWidth + gap, text: w, run: run})
			curWidth += gap + ww
			if run.FontScale > maxScale {
				maxScale = run.FontScale
			}
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

type span struct {
	x    float64
	text string
	run  InlineRun
}

func buildLine(spans []span, width float64, contentWidthPx int, textAlign string, maxScale float64) WrappedLine {
	offset := 0.0
	switch textAlign {
	case "right":
		offset = float64(contentWidthPx) - width
	case "center":
		offset = (float64(contentWidthPx) - width) / 2
	}
	if offset < 0 {
		offset = 0
	}
	var out []RenderedSpan
	for i, s := range spans {
		text := s.text
		if i < len(spans)-1 {
			text += " "
		}
		out = append(out, RenderedSpan{
			X:         int(s.x + offset + 0.5),
			Text:      text,
			Color:     s.run.Color,
			FontScale: s.run.FontScale,
			Bold:      s.run.Bold,
			Italic:    s.run.Italic,
			Href:      s.run.Href,
			Underline: s.run.Underline,
			Strike:    s.run.Strike,
			CodeBg:    s.run.CodeBg,
			Mark:      s.run.Mark,
			SearchHit: s.run.SearchHit,
		})
	}
	return WrappedLine{Spans: out, Height: lineHeightFor(maxScale)}
}

// appendBrokenWord splits a too-long word at character boundaries,
// flushing full lines as it goes (spec §4.4's break-all/overflow-wrap).
func appendBrokenWord(cur *[]span, curWidth *float64, maxScale *float64, word string, run InlineRun, contentWidthPx int, lines *[]WrappedLine, textAlign string) {
	runes := []rune(word)
	for len(runes) > 0 {
		maxChars := int(float64(contentWidthPx) / (charWidthPx * run.FontScale))
		if maxChars < 1 {
			maxChars = 1
		}
		if maxChars > len(runes) {
			maxChars = len(runes)
		}
		chunk := string(runes[:maxChars])
		runes = runes[maxChars:]
		w := wordWidth(chunk, run)
		if len(*cur) > 0 && *curWidth+w > float64(contentWidthPx) {
			*lines = append(*lines, buildLine(*cur, *curWidth, contentWidthPx, textAlign, *maxScale))
			*cur = nil
			*curWidth = 0
			*maxScale = 1.0
		}
		*cur = append(*cur, span{x: *curWidth, text: chunk, run: run})
		*curWidth += w
		if run.FontScale > *maxScale {
			*maxScale = run.FontScale
		}
		if len(runes) > 0 {
			*lines = append(*lines, buildLine(*cur, *curWidth, contentWidthPx, textAlign, *maxScale))
			*cur = nil
			*curWidth = 0
			*maxScale = 1.0
		}
	}
}

func wrapPreformatted(runs []InlineRun, textAlign string) []WrappedLine {
	var lines []WrappedLine
	for _, run := range runs {
		for _, raw := range strings.Split(run.Text, "\n") {
			spans := []span{{x: 0, text: raw, run: run}}
			lines = append(lines, buildLine(spans, wordWidth(raw, run), 1<<30, textAlign, run.FontScale))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, WrappedLine{Height: lineHeightFor(1)})
	}
	return lines
}
