package controller

import (
	"time"

	"github.com/loomweb/loom/internal/platform"
)

// render(canvas) → bool is the entire reactor contract (spec §5): one
// synchronous call per frame that polls the active tab's in-flight fetch,
// ticks its script host, and composites the current LayoutResult onto
// canvas. It returns true whenever the tab has a layout, since that layout
// is painted on every call; with no layout yet, it returns whether a
// script-requested rerender was pending.
func (c *Controller) Render(canvas platform.Canvas, nowMs int64) bool {
	t := c.ActiveTab()
	if t == nil {
		return false
	}

	changed := c.takeRerender(t.ID)
	c.pollNavigation(t)
	if t.ScriptHost != nil {
		t.ScriptHost.Tick(nowMs)
	}
	if t.Layout == nil {
		return changed
	}

	c.paint(canvas, t)
	return true
}

// paint draws every visible line and widget of t.Layout onto canvas,
// translated by the tab's current scroll offset (spec §4.4).
func (c *Controller) paint(canvas platform.Canvas, t *Tab) {
	canvas.FillRect(0, 0, c.ViewportWidth, c.ViewportHeight, platform.Color(0xFFFFFFFF))

	for _, line := range t.Layout.Lines {
		y := line.Y - t.ScrollY
		if y+line.Height < 0 || y > c.ViewportHeight {
			continue
		}
		if line.Bg != nil {
			canvas.FillRect(0, y, c.ViewportWidth, line.Height, colorFromHex(line.Bg.Color))
		}
		if line.Decoration.HR {
			canvas.DrawLine(0, y+line.Height/2, c.ViewportWidth, y+line.Height/2, platform.Color(0xCCCCCCFF))
		}
		if line.Decoration.QuoteBar {
			canvas.FillRect(0, y, 2, line.Height, platform.Color(0x999999FF))
		}
		for _, span := range line.Spans {
			color := colorFromHex(span.Color)
			if span.SearchHit {
				canvas.FillRect(span.X, y, len(span.Text)*7, line.Height, platform.Color(0xFFFF00FF))
			}
			canvas.DrawTextScaled(span.X, y, span.Text, color, span.FontScale)
			if span.Underline || span.Href != "" {
				canvas.DrawLine(span.X, y+line.Height-1, span.X+len(span.Text)*7, y+line.Height-1, color)
			}
		}
	}

	for i, w := range t.Widgets {
		y := w.Y - t.ScrollY
		if y+w.H < 0 || y > c.ViewportHeight {
			continue
		}
		border := platform.Color(0x888888FF)
		if i == t.focusedWidget {
			border = platform.Color(0x3366FFFF)
		}
		canvas.DrawRect(w.X, y, w.W, w.H, border)
		canvas.DrawText(w.X+2, y+2, w.Runtime.Value, platform.Color(0x000000FF))
	}
}

// colorFromHex resolves a CSS color keyword/hex value into a packed
// platform.Color; unresolvable values fall back to opaque black rather
// than erroring (spec §7 absorb-malformed-input policy applied to paint).
func colorFromHex(v string) platform.Color {
	if v == "" {
		return platform.Color(0x000000FF)
	}
	if named, ok := namedColors[v]; ok {
		return named
	}
	hex := v
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) == 6 {
		if n, ok := parseHex6(hex); ok {
			return platform.Color(n<<8 | 0xFF)
		}
	}
	return platform.Color(0x000000FF)
}

func parseHex6(s string) (uint32, bool) {
	var n uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		default:
			return 0, false
		}
		n = n<<4 | d
	}
	return n, true
}

var namedColors = map[string]platform.Color{
	"black": 0x000000FF,
	"white": 0xFFFFFFFF,
	"red":   0xFF0000FF,
	"green": 0x008000FF,
	"blue":  0x0000FFFF,
	"gray":  0x808080FF,
	"grey":  0x808080FF,
}

// NowMs is a small helper for hosts that want millisecond timestamps
// without importing time directly at the call site.
func NowMs(t time.Time) int64 {
	return t.UnixMilli()
}
