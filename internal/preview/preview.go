// Package preview turns a layout.LayoutResult into a real terminal
// screenshot: the `loomctl screenshot` command (SPEC_FULL.md §0) and the
// devtools console's rendered-output view both drive this instead of a
// pixel framebuffer, since the GUI/window-manager surface itself is out
// of scope (spec §1).
//
// Grounded on the teacher's internal/egg/vterm.go: the same
// charmbracelet/x/vt-backed emulator wrapped in a small type that feeds
// it bytes and reads back a rendered grid, adapted here from "replay a
// PTY's raw ANSI stream" to "paint one LayoutResult's lines and spans as
// cursor moves plus SGR escapes, then let the emulator rasterize them."
package preview

import (
	"fmt"
	"strings"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/vt"

	"github.com/loomweb/loom/internal/layout"
)

const (
	charWidthPx = 8  // matches internal/layout's ch-unit base (wrap.go)
	rowHeightPx = 19 // matches internal/layout's default line-height at scale 1 (16px × 1.2)

	maxPrintScrollback = 50000 // generous cap on captured plain-text lines, matching the teacher's vterm ring size
)

// Renderer paints LayoutResults into a fixed-size terminal-emulator grid.
//
// It also captures scrolled-off rows via the emulator's ScrollOut
// callback (grounded on the teacher's internal/egg/vterm.go), which lets
// Print reconstruct the full document as plain text even though the
// emulator grid itself only holds `rows` lines at a time — the core's
// only persisted-output path (spec §6: "printed" pages are rendered line
// text written to a chosen path).
type Renderer struct {
	emu        *vt.Emulator
	cols, rows int

	mu         sync.Mutex
	scrollback []string
}

// New returns a Renderer with the given terminal dimensions in character
// cells.
func New(cols, rows int) *Renderer {
	r := &Renderer{emu: vt.NewEmulator(cols, rows), cols: cols, rows: rows}
	r.emu.SetCallbacks(vt.Callbacks{
		ScrollOut: func(lines []uv.Line) {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, line := range lines {
				if len(r.scrollback) >= maxPrintScrollback {
					r.scrollback = r.scrollback[1:]
				}
				r.scrollback = append(r.scrollback, plainText(line.Render()))
			}
		},
	})
	return r
}

// Close releases the underlying emulator.
func (r *Renderer) Close() error {
	return r.emu.Close()
}

// Render paints lr, scrolled by scrollY content pixels, into the
// terminal grid and returns the rendered ANSI screenshot.
func (r *Renderer) Render(lr *layout.LayoutResult, scrollY int) string {
	var buf strings.Builder
	buf.WriteString("\x1b[2J\x1b[H")

	for _, line := range lr.Lines {
		row := (line.Y-scrollY)/rowHeightPx + 1
		if row < 1 || row > r.rows {
			continue
		}
		if line.Decoration.HR {
			fmt.Fprintf(&buf, "\x1b[%d;1H", row)
			buf.WriteString(strings.Repeat("-", r.cols))
		}
		if line.Decoration.QuoteBar {
			fmt.Fprintf(&buf, "\x1b[%d;1H|", row)
		}
		for _, span := range line.Spans {
			col := span.X/charWidthPx + 1
			if col > r.cols {
				continue
			}
			if col < 1 {
				col = 1
			}
			text := clipToWidth(span.Text, r.cols-(col-1))
			if text == "" {
				continue
			}
			fmt.Fprintf(&buf, "\x1b[%d;%dH", row, col)
			buf.WriteString(sgrFor(span))
			buf.WriteString(text)
			buf.WriteString("\x1b[0m")
		}
	}

	r.emu.Write([]byte(buf.String()))
	return r.emu.Render()
}

// Print renders the full document as plain text, independent of the
// viewport height: it feeds every line through the emulator in order,
// forcing it to scroll past its `rows`-line grid, and stitches the
// captured scrollback together with whatever remains on-screen. This is
// the host's "print to file" path (spec §6); unlike Render it carries no
// SGR styling, since the target is a plain-text file, not a terminal.
func (r *Renderer) Print(lr *layout.LayoutResult) string {
	r.mu.Lock()
	r.scrollback = r.scrollback[:0]
	r.mu.Unlock()

	r.emu.Write([]byte("\x1b[2J\x1b[H"))
	for i, line := range lr.Lines {
		row := i + 1
		r.emu.Write([]byte(fmt.Sprintf("\x1b[%d;1H", row)))
		if line.Decoration.HR {
			r.emu.Write([]byte(strings.Repeat("-", r.cols)))
			continue
		}
		for _, span := range line.Spans {
			col := span.X/charWidthPx + 1
			r.emu.Write([]byte(fmt.Sprintf("\x1b[%d;%dH", row, col)))
			r.emu.Write([]byte(sgrFor(span)))
			r.emu.Write([]byte(span.Text))
			r.emu.Write([]byte("\x1b[0m"))
		}
		r.emu.Write([]byte("\r\n"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out strings.Builder
	for _, l := range r.scrollback {
		out.WriteString(l)
		out.WriteByte('\n')
	}
	out.WriteString(plainText(r.emu.Render()))
	return out.String()
}

// plainText strips SGR/cursor escape sequences, leaving the text a
// printed page would contain.
func plainText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' && s[i] != 'H' && s[i] != 'J' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.TrimRight(b.String(), " \t")
}

func clipToWidth(text string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(text)
	if len(rs) > max {
		rs = rs[:max]
	}
	return string(rs)
}

// sgrFor builds the SGR escape sequence for one span's text attributes
// (spec §3.5's RenderedSpan fields), preferring a 24-bit color sequence
// over the 16-color palette since the spec's color model is arbitrary
// hex/keyword values, not a fixed palette.
func sgrFor(span layout.RenderedSpan) string {
	var codes []string
	if span.Bold {
		codes = append(codes, "1")
	}
	if span.Italic {
		codes = append(codes, "3")
	}
	if span.Underline || span.Href != "" {
		codes = append(codes, "4")
	}
	if span.Strike {
		codes = append(codes, "9")
	}
	if r, g, b, ok := parseHexColor(span.Color); ok {
		codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", r, g, b))
	}
	if span.CodeBg {
		codes = append(codes, "48;2;230;230;230")
	}
	if span.Mark {
		codes = append(codes, "48;2;255;255;0")
	}
	if span.SearchHit {
		codes = append(codes, "7") // reverse video marks the current find hit
	}
	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func parseHexColor(v string) (r, g, b int, ok bool) {
	hex := strings.TrimPrefix(v, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	vals := [3]int{}
	for i := range vals {
		n, ok := hexByte(hex[i*2], hex[i*2+1])
		if !ok {
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], true
}

func hexByte(hi, lo byte) (int, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h*16 + l, true
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
