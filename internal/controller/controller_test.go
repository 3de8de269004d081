package controller

import (
	"testing"

	"github.com/loomweb/loom/internal/platform"
)

// fakeFetcher serves canned responses keyed by URL, standing in for
// TLSFetcher in tests the same way mockAgent stands in for a real model
// backend.
type fakeFetcher struct {
	responses map[string]Response
	err       map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]Response{}, err: map[string]error{}}
}

func (f *fakeFetcher) Fetch(method, url string, headers map[string]string, body []byte) (Response, error) {
	if err, ok := f.err[url]; ok {
		return Response{}, err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return Response{Status: 404, Body: []byte("not found")}, nil
}

func setupController(t *testing.T) (*Controller, *fakeFetcher) {
	t.Helper()
	f := newFakeFetcher()
	c := New(f, nil, 640, 480)
	return c, f
}

// waitFetch polls render() until the active tab's fetch resolves, bounded
// so a bug never hangs the test suite.
func waitFetch(t *testing.T, c *Controller) {
	t.Helper()
	for i := 0; i < 100; i++ {
		tab := c.ActiveTab()
		if tab.activeFetch == nil {
			return
		}
		c.Render(noopCanvas{}, int64(i))
	}
	t.Fatal("fetch never resolved")
}

func TestNewTabStartsBlank(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	if tab == nil {
		t.Fatal("expected an initial tab")
	}
	if tab.URL != nil {
		t.Errorf("fresh tab URL = %v, want nil", tab.URL)
	}
}

func TestNavigateDataURLRendersSynchronously(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<h1>Hello</h1>")
	if tab.Layout == nil {
		t.Fatal("expected layout to be populated synchronously for a data: URL")
	}
	if tab.Doc == nil || tab.Doc.Body == nil {
		t.Fatal("expected a parsed document")
	}
}

func TestNavigateHTTPFetchesAndLaysOut(t *testing.T) {
	c, f := setupController(t)
	f.responses["http://example.test/"] = Response{
		Status: 200,
		Body:   []byte("<html><body><p>hi there</p></body></html>"),
	}
	tab := c.ActiveTab()
	c.Navigate(tab, "http://example.test/")
	waitFetch(t, c)

	if tab.Layout == nil {
		t.Fatal("expected layout after fetch resolves")
	}
	if len(tab.Layout.Lines) == 0 {
		t.Fatal("expected at least one rendered line")
	}
}

func TestNavigateFollowsRedirect(t *testing.T) {
	c, f := setupController(t)
	f.responses["http://a.test/"] = Response{
		Status:  301,
		Headers: map[string]string{"Location": "http://b.test/"},
	}
	f.responses["http://b.test/"] = Response{
		Status: 200,
		Body:   []byte("<html><body>landed</body></html>"),
	}
	tab := c.ActiveTab()
	c.Navigate(tab, "http://a.test/")
	waitFetch(t, c)

	if tab.URL.String() != "http://b.test/" {
		t.Errorf("tab.URL = %q, want http://b.test/", tab.URL.String())
	}
}

func TestHistoryBackAndForward(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,one")
	c.Navigate(tab, "data:text/html,two")
	if len(tab.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(tab.History))
	}
	c.Back(tab)
	if tab.HistoryIdx != 0 {
		t.Errorf("HistoryIdx after Back = %d, want 0", tab.HistoryIdx)
	}
	c.Forward(tab)
	if tab.HistoryIdx != 1 {
		t.Errorf("HistoryIdx after Forward = %d, want 1", tab.HistoryIdx)
	}
}

func TestHistoryTruncatesForwardOnFreshNavigate(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,one")
	c.Navigate(tab, "data:text/html,two")
	c.Back(tab)
	c.Navigate(tab, "data:text/html,three")
	if len(tab.History) != 2 {
		t.Fatalf("len(History) = %d, want 2 (forward entry dropped)", len(tab.History))
	}
}

func TestCloseTabCancelsActiveFetch(t *testing.T) {
	c, f := setupController(t)
	f.responses["http://slow.test/"] = Response{Status: 200, Body: []byte("ok")}
	tab := c.ActiveTab()
	c.Navigate(tab, "http://slow.test/")
	if tab.activeFetch == nil {
		t.Fatal("expected an active fetch immediately after navigating")
	}
	h := tab.activeFetch
	c.CloseTab(0)
	if len(c.Tabs()) != 0 {
		t.Fatalf("len(Tabs()) = %d, want 0", len(c.Tabs()))
	}
	if !h.isCancelled() {
		t.Error("expected CloseTab to cancel the tab's active fetch")
	}
}

type noopCanvas struct{}

func (noopCanvas) FillRect(x, y, w, h int, color platform.Color)          {}
func (noopCanvas) DrawRect(x, y, w, h int, color platform.Color)          {}
func (noopCanvas) DrawLine(x0, y0, x1, y1 int, color platform.Color)      {}
func (noopCanvas) SetPixel(x, y int, color platform.Color)                {}
func (noopCanvas) DrawText(x, y int, text string, color platform.Color)  {}
func (noopCanvas) DrawTextScaled(x, y int, text string, color platform.Color, scale float64) {}
