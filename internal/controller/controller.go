// Package controller implements the single-reactor navigation/fetch/input
// orchestrator (spec §4.5, §5): one synchronous render(canvas) entry point
// per frame, a finite-state fetch per tab, input routing in priority
// order, and find-in-page.
//
// Grounded on the teacher's internal/timeline package (internal/timeline/
// loop.go's ticker-driven Engine.Run poll loop is the structural model for
// the single-reactor "at most one blocking network call per frame"
// invariant spec §5 requires) and on internal/ws/client.go's reconnect
// state-transition shape, adapted here from connection state to fetch
// state (Pending → Resolved|Failed|Cancelled, per spec §9's "Coroutines /
// async" design note).
package controller

import (
	"sync"

	"github.com/google/uuid"
	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/formmodel"
	"github.com/loomweb/loom/internal/html"
	"github.com/loomweb/loom/internal/jshost"
	"github.com/loomweb/loom/internal/layout"
	"github.com/loomweb/loom/internal/overrides"
	"github.com/loomweb/loom/internal/platform"
	"github.com/loomweb/loom/internal/security"
	"github.com/loomweb/loom/internal/tlsclient"
	"github.com/loomweb/loom/internal/urlx"
)

// HistoryEntry is one navigation-history record (spec §3.7).
type HistoryEntry struct {
	URL   string
	Title string
}

// Tab is a self-contained navigation/layout snapshot (spec §3.7).
type Tab struct {
	mu sync.Mutex

	ID         string
	URL        *urlx.URL
	Title      string
	History    []HistoryEntry
	HistoryIdx int

	Layout  *layout.LayoutResult
	ScrollY int
	Doc     *html.Document
	Forms   []formmodel.FormState
	Widgets []*formmodel.PositionedWidget

	ImageCache   map[string][]byte
	BGImageCache map[string][]byte
	Favicon      string

	ScriptHost  jshost.JsHost
	VarRegistry *css.VarRegistry

	activeFetch      *fetchHandle
	pendingRedirects int
	statusCode       int
	statusErr        error

	focusedWidget int // index into Widgets, -1 if none
	find          findState

	urlBarFocused bool
	urlBarText    string
}

// FocusURLBar gives the URL bar input priority (spec §4.5 rule 3),
// seeding its editable text from the tab's current location.
func (c *Controller) FocusURLBar(t *Tab) {
	t.urlBarFocused = true
	t.focusedWidget = -1
	if t.URL != nil {
		t.urlBarText = t.URL.String()
	}
}

func newTab(id string) *Tab {
	return &Tab{
		ID:            id,
		ImageCache:    map[string][]byte{},
		BGImageCache:  map[string][]byte{},
		VarRegistry:   css.NewVarRegistry(),
		focusedWidget: -1,
	}
}

// Controller owns every tab plus the process-wide shared resources spec §5
// names: the blob store (internal/urlx) and the TLS session ticket cache.
// Redirect depth is counted per tab (Tab.pendingRedirects), not here. Only
// one tab is ever "active" for input routing at a time.
type Controller struct {
	mu       sync.Mutex
	tabs     []*Tab
	current  int

	Fetcher      Fetcher
	TicketCache  *tlsclient.TicketCache
	RateLimiters *OriginRateLimiters

	ViewportWidth  int
	ViewportHeight int

	Platform  platform.FileSystem
	Overrides *overrides.Manager // nil when local developer overrides are disabled
	Security  *security.Manager  // nil when saved-credential autofill/passkeys are disabled

	pendingRerenders map[string]bool // tab ID → rerender requested this turn
}

// SetSecurity wires the saved-credential/passkey manager into the
// controller so tabEnv's CredentialsGet/CredentialsStore (the JS host's
// navigator.credentials bridge, SPEC_FULL.md §3.3) have somewhere to read
// from and persist to.
func (c *Controller) SetSecurity(m *security.Manager) {
	c.Security = m
}

// SetOverrides wires a local-overrides manager into the controller and
// registers its invalidation callback: a changed override file for the
// active tab's origin forces the same per-origin cache flush a hard
// reload performs, then re-navigates so the edited override takes effect
// immediately (SPEC_FULL.md §3.4).
func (c *Controller) SetOverrides(m *overrides.Manager) {
	c.Overrides = m
	if m == nil {
		return
	}
	m.OnInvalidate(func(origin string) {
		c.mu.Lock()
		tabs := make([]*Tab, len(c.tabs))
		copy(tabs, c.tabs)
		c.mu.Unlock()
		for _, t := range tabs {
			t.mu.Lock()
			matches := t.URL != nil && !t.URL.Opaque() && overrides.EncodeOrigin(t.URL.Origin()) == origin
			t.mu.Unlock()
			if matches {
				c.HardReload(t)
			}
		}
	})
}

// New returns a Controller with one initial blank tab.
func New(fetcher Fetcher, ticketCache *tlsclient.TicketCache, viewportW, viewportH int) *Controller {
	if ticketCache == nil {
		ticketCache = tlsclient.NewTicketCache()
	}
	c := &Controller{
		Fetcher:          fetcher,
		TicketCache:      ticketCache,
		RateLimiters:     NewOriginRateLimiters(),
		ViewportWidth:    viewportW,
		ViewportHeight:   viewportH,
		pendingRerenders: map[string]bool{},
	}
	c.NewTab()
	return c
}

// NewTab opens a fresh blank tab, makes it current, and returns it.
func (c *Controller) NewTab() *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := newTab(uuid.NewString())
	c.tabs = append(c.tabs, t)
	c.current = len(c.tabs) - 1
	return t
}

// CloseTab closes the tab at index i, cancelling any outstanding fetch
// (spec §5 "Cancellation": closing the tab cancels it).
func (c *Controller) CloseTab(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.tabs) {
		return
	}
	if c.tabs[i].activeFetch != nil {
		c.tabs[i].activeFetch.cancel()
	}
	if c.tabs[i].ScriptHost != nil {
		c.tabs[i].ScriptHost.Dispose()
	}
	c.tabs = append(c.tabs[:i], c.tabs[i+1:]...)
	if c.current >= len(c.tabs) {
		c.current = len(c.tabs) - 1
	}
}

// ActiveTab returns the tab input routing and rendering currently target.
func (c *Controller) ActiveTab() *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 || c.current >= len(c.tabs) {
		return nil
	}
	return c.tabs[c.current]
}

// SetActiveTab switches the current tab index.
func (c *Controller) SetActiveTab(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= 0 && i < len(c.tabs) {
		c.current = i
	}
}

// TabByID returns the tab with the given ID, or nil if no such tab is
// open. Used by the devtools server to target a specific tab without
// disturbing which tab is active for local input routing.
func (c *Controller) TabByID(id string) *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// SetActiveTabByID makes the tab with the given ID active, reporting
// whether it was found.
func (c *Controller) SetActiveTabByID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tabs {
		if t.ID == id {
			c.current = i
			return true
		}
	}
	return false
}

// Tabs returns every open tab, in order.
func (c *Controller) Tabs() []*Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Tab, len(c.tabs))
	copy(out, c.tabs)
	return out
}

// requestRerender marks a tab as needing its next render() call to repaint,
// even though nothing changed this tick by direct user input (spec §9: a
// resolved background fetch — here, a linked stylesheet settling — must
// defer its repaint to the next reactor turn rather than render
// re-entrantly from the fetching goroutine).
func (c *Controller) requestRerender(tabID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingRerenders[tabID] = true
}

// takeRerender reports and clears whether tabID has a deferred rerender
// pending, consumed once per render() call.
func (c *Controller) takeRerender(tabID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pendingRerenders[tabID]
	delete(c.pendingRerenders, tabID)
	return pending
}
