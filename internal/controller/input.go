package controller

import (
	"github.com/loomweb/loom/internal/formmodel"
	"github.com/loomweb/loom/internal/platform"
	"github.com/loomweb/loom/internal/urlx"
)

// Extended key codes the host's input source is expected to deliver
// through platform.KeyEvent.Code (spec §6: "keyboard events {ch,
// extended_code, ...}"); printable characters arrive via Char instead.
const (
	keyEnter = iota + 1
	keyEscape
	keyBackspace
	keyTab
	keyArrowUp
	keyArrowDown
	keyArrowLeft
	keyArrowRight
	keyPageUp
	keyPageDown
	keyF5
)

// HandleKey dispatches one keyboard event against the active tab in the
// priority order spec §4.5 fixes: the find bar, then the focused widget,
// then the URL bar, then scroll/navigation shortcuts, and finally (for
// pointer events only) a hit test. Tab cycles focus among widgets.
func (c *Controller) HandleKey(ev platform.KeyEvent) {
	t := c.ActiveTab()
	if t == nil {
		return
	}

	switch {
	case t.find.open:
		c.routeFindKey(t, ev)
	case t.focusedWidget >= 0 && t.focusedWidget < len(t.Widgets):
		c.routeWidgetKey(t, ev)
	case t.urlBarFocused:
		c.routeURLBarKey(t, ev)
	default:
		c.routeShortcutKey(t, ev)
	}
}

func (c *Controller) routeFindKey(t *Tab, ev platform.KeyEvent) {
	switch {
	case ev.Code == keyEscape:
		c.CloseFind(t)
	case ev.Code == keyEnter && ev.Shift:
		c.FindPrev(t)
	case ev.Code == keyEnter:
		c.FindNext(t)
	case ev.Code == keyBackspace:
		if n := len(t.find.query); n > 0 {
			c.SetFindQuery(t, t.find.query[:n-1])
		}
	case ev.Char != 0:
		c.SetFindQuery(t, t.find.query+string(ev.Char))
	}
}

func (c *Controller) routeWidgetKey(t *Tab, ev platform.KeyEvent) {
	if ev.Code == keyTab {
		c.cycleFocus(t, 1)
		return
	}
	w := t.Widgets[t.focusedWidget]
	switch w.Blueprint.Kind {
	case formmodel.WidgetCheckbox, formmodel.WidgetRadio:
		if ev.Char == ' ' || ev.Code == keyEnter {
			w.Runtime.Checked = !w.Runtime.Checked
			if w.Runtime.Checked {
				formmodel.ApplyRadioExclusion(t.Widgets, w)
			}
		}
	case formmodel.WidgetSelect:
		switch ev.Code {
		case keyArrowDown:
			if w.Runtime.SelectedIndex < len(w.Blueprint.Options)-1 {
				w.Runtime.SelectedIndex++
			}
		case keyArrowUp:
			if w.Runtime.SelectedIndex > 0 {
				w.Runtime.SelectedIndex--
			}
		}
	case formmodel.WidgetSubmit, formmodel.WidgetButton:
		if ev.Code == keyEnter {
			c.submitForm(t, w.Blueprint.FormIndex)
		}
	default: // text input, password, textarea
		switch ev.Code {
		case keyBackspace:
			if w.Runtime.Cursor > 0 {
				w.Runtime.Value = w.Runtime.Value[:w.Runtime.Cursor-1] + w.Runtime.Value[w.Runtime.Cursor:]
				w.Runtime.Cursor--
			}
		case keyArrowLeft:
			if w.Runtime.Cursor > 0 {
				w.Runtime.Cursor--
			}
		case keyArrowRight:
			if w.Runtime.Cursor < len(w.Runtime.Value) {
				w.Runtime.Cursor++
			}
		case keyEnter:
			if w.Blueprint.Kind == formmodel.WidgetTextInput || w.Blueprint.Kind == formmodel.WidgetPassword {
				c.submitForm(t, w.Blueprint.FormIndex)
			}
		case keyTab:
			c.cycleFocus(t, 1)
		default:
			if ev.Char != 0 {
				w.Runtime.Value = w.Runtime.Value[:w.Runtime.Cursor] + string(ev.Char) + w.Runtime.Value[w.Runtime.Cursor:]
				w.Runtime.Cursor++
			}
		}
	}
}

func (c *Controller) routeURLBarKey(t *Tab, ev platform.KeyEvent) {
	switch ev.Code {
	case keyEnter:
		dest := t.urlBarText
		t.urlBarFocused = false
		c.Navigate(t, dest)
	case keyEscape:
		t.urlBarFocused = false
		t.urlBarText = ""
	case keyBackspace:
		if n := len(t.urlBarText); n > 0 {
			t.urlBarText = t.urlBarText[:n-1]
		}
	default:
		if ev.Char != 0 {
			t.urlBarText += string(ev.Char)
		}
	}
}

// routeShortcutKey implements the scroll/navigation shortcuts (spec §4.5
// "scroll/navigation shortcuts"): arrows/page keys scroll, history keys
// move through Back/Forward, F5 reloads, Ctrl+F opens find, Tab focuses
// the first widget.
func (c *Controller) routeShortcutKey(t *Tab, ev platform.KeyEvent) {
	const lineHeight = 20
	switch {
	case ev.Code == keyArrowDown:
		t.ScrollY += lineHeight
	case ev.Code == keyArrowUp:
		if t.ScrollY >= lineHeight {
			t.ScrollY -= lineHeight
		} else {
			t.ScrollY = 0
		}
	case ev.Code == keyPageDown:
		t.ScrollY += c.ViewportHeight
	case ev.Code == keyPageUp:
		if t.ScrollY >= c.ViewportHeight {
			t.ScrollY -= c.ViewportHeight
		} else {
			t.ScrollY = 0
		}
	case ev.Code == keyF5:
		c.Reload(t)
	case ev.Char == 'f' && ev.Ctrl:
		c.OpenFind(t)
	case ev.Code == keyBackspace && ev.Alt, ev.Code == keyArrowLeft && ev.Alt:
		c.Back(t)
	case ev.Code == keyArrowRight && ev.Alt:
		c.Forward(t)
	case ev.Code == keyTab:
		c.cycleFocus(t, 1)
	}
	if t.Layout != nil {
		if max := t.Layout.MaxScrollY(c.ViewportHeight); t.ScrollY > max {
			t.ScrollY = max
		}
	}
}

// cycleFocus moves focus to the next (dir=1) or previous (dir=-1) widget,
// wrapping around; -1 means "no widget focused".
func (c *Controller) cycleFocus(t *Tab, dir int) {
	if len(t.Widgets) == 0 {
		t.focusedWidget = -1
		return
	}
	next := t.focusedWidget + dir
	if next >= len(t.Widgets) {
		next = 0
	} else if next < 0 {
		next = len(t.Widgets) - 1
	}
	t.focusedWidget = next
}

func (c *Controller) submitForm(t *Tab, formIndex int) {
	if formIndex < 0 || formIndex >= len(t.Forms) {
		return
	}
	form := t.Forms[formIndex]
	fields := formmodel.SerializeFields(t.Widgets, formIndex)
	u := urlx.Resolve(t.URL, form.Action)
	switch form.Method {
	case "POST":
		body := []byte(formmodel.EncodePOSTBody(fields))
		c.startHTTPFetch(t, u, "POST", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, body)
	default:
		if query := formmodel.EncodeGETQuery(fields); query != "" {
			u.Query = query
			u.Raw = ""
		}
		c.startHTTPFetch(t, u, "GET", nil, nil)
	}
}

// HandlePointer dispatches a pointer event: a button-down hit-tests the
// current layout's widgets first (focusing the one hit) and then its link
// spans (navigating to the one hit) (spec §4.5 rule 5, §3.5's
// "hit-test(x, y) returns at most one span"). An open find bar or a focused
// widget does not intercept pointer events.
func (c *Controller) HandlePointer(ev platform.PointerEvent) {
	t := c.ActiveTab()
	if t == nil || ev.Type != platform.PointerDown || t.Layout == nil {
		return
	}
	y := ev.Y + t.ScrollY

	if idx, ok := hitTestWidget(t, ev.X, y); ok {
		t.focusedWidget = idx
		return
	}
	if href, ok := hitTestSpan(t, ev.X, y); ok {
		t.focusedWidget = -1
		c.Navigate(t, href)
	}
}

func hitTestWidget(t *Tab, x, y int) (int, bool) {
	for i, w := range t.Widgets {
		if x >= w.X && x < w.X+w.W && y >= w.Y && y < w.Y+w.H {
			return i, true
		}
	}
	return -1, false
}

func hitTestSpan(t *Tab, x, y int) (string, bool) {
	for _, line := range t.Layout.Lines {
		if y < line.Y || y >= line.Y+line.Height {
			continue
		}
		for _, span := range line.Spans {
			w := len(span.Text) * 7
			if span.Href != "" && x >= span.X && x < span.X+w {
				return span.Href, true
			}
		}
	}
	return "", false
}

