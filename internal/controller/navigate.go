package controller

import (
	"fmt"
	"strings"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/errs"
	"github.com/loomweb/loom/internal/html"
	"github.com/loomweb/loom/internal/jshost"
	"github.com/loomweb/loom/internal/layout"
	"github.com/loomweb/loom/internal/logger"
	"github.com/loomweb/loom/internal/urlx"
)

const maxRedirects = 5

// Navigate drives a full navigation pass for the active tab (spec §4.5):
// cancel any outstanding fetch, flush per-page caches, append to history
// (truncating forward entries), then dispatch by scheme.
func (c *Controller) Navigate(t *Tab, rawURL string) {
	if t.activeFetch != nil {
		t.activeFetch.cancel()
		t.activeFetch = nil
	}
	t.pendingRedirects = 0
	t.ImageCache = map[string][]byte{}
	t.BGImageCache = map[string][]byte{}
	t.VarRegistry = css.NewVarRegistry()

	u := urlx.Parse(rawURL)

	if t.HistoryIdx < len(t.History)-1 {
		t.History = t.History[:t.HistoryIdx+1]
	}
	t.History = append(t.History, HistoryEntry{URL: u.String()})
	t.HistoryIdx = len(t.History) - 1
	t.URL = u

	switch u.Scheme {
	case urlx.SchemeAbout:
		c.renderAboutPage(t, u)
	case urlx.SchemeData:
		c.renderInlineBody(t, string(u.Body), u)
	case urlx.SchemeBlob:
		c.renderBlob(t, u)
	case urlx.SchemeHTTP, urlx.SchemeHTTPS:
		c.startHTTPFetch(t, u, "GET", nil, nil)
	default:
		c.renderErrorPage(t, fmt.Errorf("unrecognized URL scheme: %s", rawURL))
	}
}

// HardReload is identical to Reload but invalidates every per-origin cache
// first (spec §4.5 "Hard reload"): the ticket cache entry and the tab's
// image/stylesheet caches for the current origin.
func (c *Controller) HardReload(t *Tab) {
	if t.URL != nil && !t.URL.Opaque() {
		c.TicketCache.Evict(t.URL.Host)
	}
	t.ImageCache = map[string][]byte{}
	t.BGImageCache = map[string][]byte{}
	c.Navigate(t, t.URL.String())
}

// Reload re-navigates to the tab's current URL without cache invalidation.
func (c *Controller) Reload(t *Tab) {
	if t.URL == nil {
		return
	}
	c.Navigate(t, t.URL.String())
}

// Back moves the tab's history cursor back one entry, if possible.
func (c *Controller) Back(t *Tab) {
	if t.HistoryIdx <= 0 {
		return
	}
	t.HistoryIdx--
	c.navigateToHistoryEntry(t)
}

// Forward moves the tab's history cursor forward one entry, if possible.
func (c *Controller) Forward(t *Tab) {
	if t.HistoryIdx >= len(t.History)-1 {
		return
	}
	t.HistoryIdx++
	c.navigateToHistoryEntry(t)
}

func (c *Controller) navigateToHistoryEntry(t *Tab) {
	entry := t.History[t.HistoryIdx]
	// Dispatch without mutating history again: replicate Navigate's render
	// dispatch directly rather than calling Navigate (which would append a
	// new entry and truncate the forward list we just walked into).
	u := urlx.Parse(entry.URL)
	t.URL = u
	switch u.Scheme {
	case urlx.SchemeAbout:
		c.renderAboutPage(t, u)
	case urlx.SchemeData:
		c.renderInlineBody(t, string(u.Body), u)
	case urlx.SchemeBlob:
		c.renderBlob(t, u)
	case urlx.SchemeHTTP, urlx.SchemeHTTPS:
		c.startHTTPFetch(t, u, "GET", nil, nil)
	}
}

func (c *Controller) renderAboutPage(t *Tab, u *urlx.URL) {
	body := aboutPageBody(strings.TrimPrefix(u.Path, "//"))
	c.renderInlineBody(t, body, u)
}

func aboutPageBody(page string) string {
	switch page {
	case "blank", "":
		return ""
	default:
		return "<h1>about:" + page + "</h1><p>This page is handled by host chrome, outside the engine core.</p>"
	}
}

func (c *Controller) renderBlob(t *Tab, u *urlx.URL) {
	mediaType, body, ok := urlx.LookupBlob(u.Path)
	if !ok {
		c.renderErrorPage(t, fmt.Errorf("blob not found: %s", u.Raw))
		return
	}
	if strings.HasPrefix(mediaType, "text/html") || mediaType == "" {
		c.renderInlineBody(t, string(body), u)
		return
	}
	// Non-HTML blobs (images, etc.) render as a single placeholder
	// resource reference (spec §7 rule 5: resource errors/placeholders
	// never abort the pipeline).
	c.renderInlineBody(t, fmt.Sprintf("<img src=%q>", u.Raw), u)
}

// renderInlineBody runs the synchronous HTML→CSS→layout pipeline against
// literal markup (about:/data:/blob: pages, and the final step of an HTTP
// fetch once the body is in hand).
func (c *Controller) renderInlineBody(t *Tab, htmlSrc string, base *urlx.URL) {
	if t.ScriptHost != nil {
		t.ScriptHost.Dispose()
		t.ScriptHost = nil
	}

	doc := html.Parse(htmlSrc)
	t.Doc = doc
	t.Forms = doc.Forms
	t.Title = doc.Title
	if doc.BaseHref != "" {
		base = urlx.Resolve(base, doc.BaseHref)
	}
	t.Favicon = resolveFavicon(doc, base)

	scripts := doc.Scripts
	if c.Overrides != nil && !base.Opaque() {
		origin := base.Origin()
		if overrideCSS := c.Overrides.CSSFor(origin); overrideCSS != "" {
			doc.Stylesheet += "\n" + overrideCSS
		}
		if overrideJS := c.Overrides.ScriptFor(origin); overrideJS != "" {
			scripts = append(append([]string{}, scripts...), overrideJS)
		}
	}

	rules := css.Parse(doc.Stylesheet, t.VarRegistry)
	layout.ApplyStyles(doc, rules, &css.MatchContext{})
	t.Layout = layout.Layout(doc, c.ViewportWidth)
	t.Widgets = t.Layout.Widgets
	t.ScrollY = 0
	t.focusedWidget = -1

	if len(doc.StylesheetHrefs) > 0 {
		c.fetchLinkedStylesheets(t, doc, base, rules)
	}
	if len(scripts) > 0 {
		t.ScriptHost = jshost.Create(scripts, newTabEnv(c, t))
	}
}

func resolveFavicon(doc *html.Document, base *urlx.URL) string {
	if doc.FaviconHref == "" {
		return ""
	}
	return urlx.Resolve(base, doc.FaviconHref).String()
}

func (c *Controller) renderErrorPage(t *Tab, err error) {
	logger.Log.Error("navigation failed", "err", err)
	t.statusErr = err
	body := "<h1>This page could not be loaded</h1><p>" + err.Error() + "</p>"
	doc := html.Parse(body)
	t.Doc = doc
	t.Title = "Error"
	layout.ApplyStyles(doc, nil, &css.MatchContext{})
	t.Layout = layout.Layout(doc, c.ViewportWidth)
}

// classifyFetchError wraps every low-level fetch error, TLS handshake and
// record failures included, in errs.ErrTransportFailed; it never returns
// errs.ErrProtocolViolation.
func classifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errs.ErrTransportFailed, err)
}
