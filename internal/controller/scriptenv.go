package controller

import (
	"fmt"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/formmodel"
	"github.com/loomweb/loom/internal/html"
	"github.com/loomweb/loom/internal/jshost"
	"github.com/loomweb/loom/internal/layout"
	"github.com/loomweb/loom/internal/logger"
)

// tabEnv implements jshost.Env against one Tab's live document, re-running
// cascade and layout whenever a script mutation needs to be reflected on
// screen (spec §4.5's <script> environment list).
type tabEnv struct {
	c   *Controller
	t   *Tab
	ids map[string]*html.Node
}

var _ jshost.Env = (*tabEnv)(nil)

func newTabEnv(c *Controller, t *Tab) *tabEnv {
	e := &tabEnv{c: c, t: t, ids: map[string]*html.Node{}}
	e.reindex()
	return e
}

// nodeID returns a stable opaque identifier for n, derived from its
// pointer identity — the Document tree carries no ID of its own (spec
// §3.3 leaves node addressing to collaborators), so the environment mints
// one each time it indexes the tree.
func nodeID(n *html.Node) string {
	return fmt.Sprintf("n%p", n)
}

// reindex assigns an opaque ID to every element node so QuerySelector
// results stay addressable across a Rerender.
func (e *tabEnv) reindex() {
	e.ids = map[string]*html.Node{}
	if e.t.Doc == nil || e.t.Doc.Body == nil {
		return
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.TagName != "" {
			e.ids[nodeID(n)] = n
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(e.t.Doc.Body)
}

func (e *tabEnv) QuerySelector(selector string) (string, bool) {
	sel := css.ParseSelector(selector)
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.TagName != "" && css.Matches(sel, n, &css.MatchContext{}) {
			found = n
			return
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	if e.t.Doc != nil && e.t.Doc.Body != nil {
		walk(e.t.Doc.Body)
	}
	if found == nil {
		return "", false
	}
	return nodeID(found), true
}

// SetInnerHTML replaces nodeID's children with a fresh subtree parsed from
// innerHTML, reusing the tree constructor by wrapping the fragment in a
// throwaway <body> (spec §4.2's absorb-malformed-input parser is just as
// happy fed a fragment as a full document).
func (e *tabEnv) SetInnerHTML(nodeID string, innerHTML string) {
	n, ok := e.ids[nodeID]
	if !ok {
		return
	}
	frag := html.Parse(innerHTML)
	n.Children = nil
	if frag.Body != nil {
		for _, ch := range frag.Body.Children {
			ch.Parent = n
			n.Children = append(n.Children, ch)
		}
	}
	e.Rerender()
}

func (e *tabEnv) SetAttribute(nodeID, name, value string) {
	n, ok := e.ids[nodeID]
	if !ok {
		return
	}
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, html.Attr{Name: name, Value: value})
}

func (e *tabEnv) GetAttribute(nodeID, name string) (string, bool) {
	n, ok := e.ids[nodeID]
	if !ok {
		return "", false
	}
	return n.Attr(name)
}

func (e *tabEnv) widgetFor(id string) *formmodel.PositionedWidget {
	n, ok := e.ids[id]
	if !ok {
		return nil
	}
	name, _ := n.Attr("name")
	if name == "" {
		return nil
	}
	for _, w := range e.t.Widgets {
		if w.Blueprint.Name == name {
			return w
		}
	}
	return nil
}

func (e *tabEnv) WidgetValue(nodeID string) (string, bool) {
	w := e.widgetFor(nodeID)
	if w == nil {
		return "", false
	}
	return w.Runtime.Value, true
}

func (e *tabEnv) SetWidgetValue(nodeID, value string) {
	if w := e.widgetFor(nodeID); w != nil {
		w.Runtime.Value = value
	}
}

func (e *tabEnv) WidgetRuntime(nodeID string) (*formmodel.RuntimeState, bool) {
	w := e.widgetFor(nodeID)
	if w == nil {
		return nil, false
	}
	return &w.Runtime, true
}

func (e *tabEnv) SetTimer(delayMs int64, repeat bool, callbackID string) string {
	// Timer scheduling is owned by the DummyHost itself; the environment
	// only needs to hand back a stable identifier.
	return callbackID
}

func (e *tabEnv) ClearTimer(timerID string) {}

func (e *tabEnv) RequestAnimationFrame(callbackID string) string { return callbackID }

func (e *tabEnv) CancelAnimationFrame(handle string) {}

func (e *tabEnv) Fetch(method, url string, headers map[string]string, body []byte, callbackID string) string {
	h := newFetchHandle()
	go func() {
		resp, err := e.c.Fetcher.Fetch(method, url, headers, body)
		if err != nil {
			h.resolve(FetchFailed, Response{}, classifyFetchError(err))
			return
		}
		h.resolve(FetchResolved, resp, nil)
	}()
	return h.id
}

func (e *tabEnv) CancelFetch(handle string) {}

func (e *tabEnv) Alert(message string) {
	logger.Log.Info("script alert", "tab", e.t.ID, "message", message)
}

func (e *tabEnv) Confirm(message string) bool {
	logger.Log.Info("script confirm (auto-dismissed)", "tab", e.t.ID, "message", message)
	return false
}

func (e *tabEnv) Prompt(message, defaultValue string) (string, bool) {
	return defaultValue, false
}

func (e *tabEnv) ScrollBy(dx, dy int) {
	e.t.ScrollY += dy
	if e.t.ScrollY < 0 {
		e.t.ScrollY = 0
	}
}

func (e *tabEnv) ScrollTo(x, y int) {
	if y < 0 {
		y = 0
	}
	e.t.ScrollY = y
}

// Rerender re-runs cascade and layout against the current (possibly
// script-mutated) document tree, then re-indexes node IDs and defers the
// visible repaint to the next tick (spec §5: "rerender must be deferred
// until after the current reactor turn completes").
func (e *tabEnv) Rerender() {
	if e.t.Doc == nil {
		return
	}
	rules := css.Parse(e.t.Doc.Stylesheet, e.t.VarRegistry)
	layout.ApplyStyles(e.t.Doc, rules, &css.MatchContext{})
	e.t.Layout = layout.Layout(e.t.Doc, e.c.ViewportWidth)
	e.t.Widgets = e.t.Layout.Widgets
	e.reindex()
	e.c.requestRerender(e.t.ID)
}

// CredentialsGet answers navigator.credentials.get() with the first saved
// credential scoped to the tab's current origin, if any (SPEC_FULL.md
// §3.3's autofill bridge). It returns ok=false whenever there's no
// security.Manager wired in, no navigated origin yet, or nothing saved.
func (e *tabEnv) CredentialsGet() (username, secret string, ok bool) {
	if e.c.Security == nil || e.t.URL == nil || e.t.URL.Opaque() {
		return "", "", false
	}
	creds, err := e.c.Security.Autofill(e.t.URL.Origin())
	if err != nil || len(creds) == 0 {
		return "", "", false
	}
	return creds[0].Username, creds[0].Secret, true
}

// CredentialsStore answers navigator.credentials.store(), persisting
// username/secret scoped to the tab's current origin for future
// CredentialsGet calls.
func (e *tabEnv) CredentialsStore(username, secret string) {
	if e.c.Security == nil || e.t.URL == nil || e.t.URL.Opaque() {
		return
	}
	origin := e.t.URL.Origin()
	if err := e.c.Security.SaveCredential(origin+"|"+username, origin, username, secret); err != nil {
		logger.Log.Error("store credential", "tab", e.t.ID, "error", err)
	}
}

func (e *tabEnv) Log(level, message string) {
	switch level {
	case "error":
		logger.Log.Error("script log", "tab", e.t.ID, "message", message)
	case "warn":
		logger.Log.Warn("script log", "tab", e.t.ID, "message", message)
	default:
		logger.Log.Debug("script log", "tab", e.t.ID, "message", message)
	}
}
