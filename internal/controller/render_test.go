package controller

import "testing"

func TestRenderReturnsFalseWithNoLayout(t *testing.T) {
	c, _ := setupController(t)
	if c.Render(noopCanvas{}, 0) {
		t.Error("expected Render to report no change before any navigation")
	}
}

func TestRenderReturnsTrueAfterNavigate(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>hello</p>")
	if !c.Render(noopCanvas{}, 0) {
		t.Error("expected Render to report a change once layout is populated")
	}
}

func TestColorFromHexParsesNamedAndHex(t *testing.T) {
	if colorFromHex("red") != namedColors["red"] {
		t.Error("expected named color lookup to match")
	}
	if got := colorFromHex("#00ff00"); got != 0x00ff00FF {
		t.Errorf("colorFromHex(#00ff00) = %#x, want 0x00ff00ff", uint32(got))
	}
	if colorFromHex("not-a-color") != 0x000000FF {
		t.Error("expected unrecognized color to fall back to black")
	}
}
