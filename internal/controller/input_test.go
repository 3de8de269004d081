package controller

import (
	"testing"

	"github.com/loomweb/loom/internal/platform"
)

func TestTabKeyCyclesWidgetFocus(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<form><input name=a><input name=b></form>")
	if len(tab.Widgets) != 2 {
		t.Fatalf("len(Widgets) = %d, want 2", len(tab.Widgets))
	}

	c.HandleKey(platform.KeyEvent{Code: keyTab})
	if tab.focusedWidget != 0 {
		t.Fatalf("focusedWidget after first Tab = %d, want 0", tab.focusedWidget)
	}
	c.HandleKey(platform.KeyEvent{Code: keyTab})
	if tab.focusedWidget != 1 {
		t.Fatalf("focusedWidget after second Tab = %d, want 1", tab.focusedWidget)
	}
	c.HandleKey(platform.KeyEvent{Code: keyTab})
	if tab.focusedWidget != 0 {
		t.Fatalf("focusedWidget after wrapping Tab = %d, want 0", tab.focusedWidget)
	}
}

func TestTypingIntoFocusedTextWidget(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<form><input name=q></form>")
	c.HandleKey(platform.KeyEvent{Code: keyTab})

	for _, r := range "hi" {
		c.HandleKey(platform.KeyEvent{Char: r})
	}
	if tab.Widgets[0].Runtime.Value != "hi" {
		t.Fatalf("widget value = %q, want %q", tab.Widgets[0].Runtime.Value, "hi")
	}

	c.HandleKey(platform.KeyEvent{Code: keyBackspace})
	if tab.Widgets[0].Runtime.Value != "h" {
		t.Fatalf("widget value after backspace = %q, want %q", tab.Widgets[0].Runtime.Value, "h")
	}
}

func TestCheckboxToggleBySpace(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<form><input type=checkbox name=agree></form>")
	c.HandleKey(platform.KeyEvent{Code: keyTab})

	c.HandleKey(platform.KeyEvent{Char: ' '})
	if !tab.Widgets[0].Runtime.Checked {
		t.Fatal("expected checkbox to be checked after space")
	}
	c.HandleKey(platform.KeyEvent{Char: ' '})
	if tab.Widgets[0].Runtime.Checked {
		t.Fatal("expected checkbox to be unchecked after second space")
	}
}

func TestScrollShortcutsClampToContentExtent(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>short</p>")

	c.HandleKey(platform.KeyEvent{Code: keyArrowUp})
	if tab.ScrollY != 0 {
		t.Errorf("ScrollY after ArrowUp at top = %d, want 0", tab.ScrollY)
	}

	for i := 0; i < 1000; i++ {
		c.HandleKey(platform.KeyEvent{Code: keyArrowDown})
	}
	max := tab.Layout.MaxScrollY(c.ViewportHeight)
	if tab.ScrollY != max {
		t.Errorf("ScrollY after scrolling past bottom = %d, want clamp to %d", tab.ScrollY, max)
	}
}

func TestPointerClickHitTestsLink(t *testing.T) {
	c, f := setupController(t)
	f.responses["http://dest.test/"] = Response{Status: 200, Body: []byte("<body>landed</body>")}
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<a href=\"http://dest.test/\">go</a>")

	var x, y int
	var found bool
	for _, line := range tab.Layout.Lines {
		for _, span := range line.Spans {
			if span.Href != "" {
				x, y = span.X, line.Y
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a link span in the laid-out page")
	}
	c.HandlePointer(platform.PointerEvent{Type: platform.PointerDown, X: x, Y: y - tab.ScrollY})
	if got := tab.URL.String(); got != "http://dest.test/" {
		t.Fatalf("URL after clicking the link = %q, want %q", got, "http://dest.test/")
	}
}
