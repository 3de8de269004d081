package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/loomweb/loom/internal/css"
	"github.com/loomweb/loom/internal/errs"
	"github.com/loomweb/loom/internal/html"
	"github.com/loomweb/loom/internal/layout"
	"github.com/loomweb/loom/internal/logger"
	"github.com/loomweb/loom/internal/tlsclient"
	"github.com/loomweb/loom/internal/urlx"
)

// netTransport adapts a net.Conn to the tlsclient.Transport interface
// (spec §5 "below TLS"): one TCP connection, read/write with a per-call
// deadline rather than a blocking stream.
type netTransport struct {
	conn net.Conn
}

func dialTransport(host string, port int, timeout time.Duration) (*netTransport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &netTransport{conn: conn}, nil
}

func (t *netTransport) Send(b []byte) error {
	_, err := t.conn.Write(b)
	return err
}

func (t *netTransport) Recv(timeout time.Duration) ([]byte, error) {
	t.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 16384)
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return buf[:n], nil
}

func (t *netTransport) Close() error {
	return t.conn.Close()
}

// TLSFetcher is the real network-boundary Fetcher (spec §6): it dials a raw
// TCP connection, drives internal/tlsclient's handshake over it for https
// origins, and speaks plain HTTP/1.1 framing on top, reusing the process
// ticket cache for resumption across requests to the same host.
type TLSFetcher struct {
	TicketCache *tlsclient.TicketCache
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// NewTLSFetcher returns a fetcher sharing cache with the controller.
func NewTLSFetcher(cache *tlsclient.TicketCache) *TLSFetcher {
	return &TLSFetcher{
		TicketCache: cache,
		DialTimeout: 10 * time.Second,
		ReadTimeout: 10 * time.Second,
	}
}

func (f *TLSFetcher) Fetch(method, rawURL string, headers map[string]string, body []byte) (Response, error) {
	u := urlx.Parse(rawURL)
	if u.Opaque() {
		return Response{}, fmt.Errorf("tlsfetch: not an origin-ful URL: %s", rawURL)
	}
	port := u.Port
	if port == 0 {
		if u.Scheme == urlx.SchemeHTTPS {
			port = 443
		} else {
			port = 80
		}
	}

	transport, err := dialTransport(u.Host, port, f.DialTimeout)
	if err != nil {
		return Response{}, err
	}
	defer transport.Close()

	var reader *bufio.Reader
	if u.Scheme == urlx.SchemeHTTPS {
		client := tlsclient.NewClient(transport, f.TicketCache)
		if err := client.Handshake(u.Host, f.ReadTimeout); err != nil {
			return Response{}, err
		}
		req := buildRequest(method, u, headers, body)
		if err := client.Write(req); err != nil {
			return Response{}, err
		}
		reader = bufio.NewReader(&clientReader{client: client, timeout: f.ReadTimeout})
	} else {
		req := buildRequest(method, u, headers, body)
		if _, err := transport.conn.Write(req); err != nil {
			return Response{}, err
		}
		reader = bufio.NewReader(transport.conn)
	}

	resp, err := http.ReadResponse(reader, &http.Request{Method: method})
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	out := Response{
		Status:   resp.StatusCode,
		Headers:  map[string]string{},
		Body:     respBody,
		FinalURL: rawURL,
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	return out, nil
}

func buildRequest(method string, u *urlx.URL, headers map[string]string, body []byte) []byte {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Query != "" {
		path += "?" + u.Query
	}
	req := fmt.Sprintf("%s %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n", method, path, u.Host)
	for k, v := range headers {
		req += k + ": " + v + "\r\n"
	}
	if len(body) > 0 {
		req += fmt.Sprintf("Content-Length: %d\r\n", len(body))
	}
	req += "\r\n"
	out := []byte(req)
	out = append(out, body...)
	return out
}

// clientReader adapts tlsclient.Client's record-at-a-time Read into an
// io.Reader bufio.NewReader can drive.
type clientReader struct {
	client  *tlsclient.Client
	timeout time.Duration
	pending []byte
}

func (r *clientReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		b, err := r.client.Read(r.timeout)
		if err != nil {
			return 0, err
		}
		r.pending = b
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// startHTTPFetch begins an async fetch for the active navigation (spec
// §4.5/§9): a fetchHandle is created immediately, the actual network call
// runs on its own goroutine, and the controller's render loop polls the
// handle once per tick in pollNavigation.
func (c *Controller) startHTTPFetch(t *Tab, u *urlx.URL, method string, headers map[string]string, body []byte) {
	h := newFetchHandle()
	t.activeFetch = h
	go func() {
		resp, err := c.Fetcher.Fetch(method, u.String(), headers, body)
		if err != nil {
			h.resolve(FetchFailed, Response{}, classifyFetchError(err))
			return
		}
		h.resolve(FetchResolved, resp, nil)
	}()
}

// pollNavigation is called once per reactor tick (from render.go) to drain
// any fetch that has reached a terminal state, following redirects and
// finally handing the body to renderInlineBody.
func (c *Controller) pollNavigation(t *Tab) {
	if t.activeFetch == nil {
		return
	}
	state, resp, err := t.activeFetch.Poll()
	switch state {
	case FetchPending:
		return
	case FetchCancelled:
		t.activeFetch = nil
		return
	case FetchFailed:
		t.activeFetch = nil
		c.renderErrorPage(t, err)
		return
	case FetchResolved:
		t.activeFetch = nil
		c.handleHTTPResponse(t, t.URL, resp, t.pendingRedirects)
	}
}

// handleHTTPResponse consumes one resolved fetch: following a redirect
// spawns the next hop's fetchHandle and returns (pollNavigation picks it up
// next tick); anything else hands the body to the HTML pipeline.
func (c *Controller) handleHTTPResponse(t *Tab, requested *urlx.URL, resp Response, redirectCount int) {
	if resp.Status >= 300 && resp.Status < 400 {
		loc := resp.Headers["Location"]
		if loc == "" {
			c.renderErrorPage(t, fmt.Errorf("redirect with no Location header"))
			return
		}
		if redirectCount >= maxRedirects {
			c.renderErrorPage(t, errs.ErrRedirectLimitExceeded)
			return
		}
		next := urlx.Resolve(requested, loc)
		t.URL = next
		c.startHTTPFetch(t, next, "GET", nil, nil)
		t.pendingRedirects = redirectCount + 1
		return
	}

	t.statusCode = resp.Status
	t.pendingRedirects = 0
	c.renderInlineBody(t, string(resp.Body), requested)
}

// fetchLinkedStylesheets resolves and fetches every <link rel=stylesheet
// href> the tree constructor collected, respecting per-origin rate limits
// (spec §3.5/§4.5), then folds their rules in with the already-applied
// inline stylesheet and re-runs cascade + layout once every sheet has
// settled (or failed — a broken stylesheet fetch is absorbed, spec §7 rule
// 5, never aborting the page).
func (c *Controller) fetchLinkedStylesheets(t *Tab, doc *html.Document, base *urlx.URL, inlineRules []css.Rule) {
	hrefs := doc.StylesheetHrefs
	results := make([][]css.Rule, len(hrefs))
	var wg sync.WaitGroup
	for i, href := range hrefs {
		u := urlx.Resolve(base, href)
		wg.Add(1)
		go func(i int, u *urlx.URL) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.RateLimiters.Wait(ctx, u.Origin()); err != nil {
				return
			}
			resp, err := c.Fetcher.Fetch("GET", u.String(), nil, nil)
			if err != nil || resp.Status >= 400 {
				logger.Log.Warn("stylesheet fetch failed", "url", u.String(), "err", err)
				return
			}
			results[i] = css.Parse(string(resp.Body), t.VarRegistry)
		}(i, u)
	}

	go func() {
		wg.Wait()
		t.mu.Lock()
		defer t.mu.Unlock()
		all := append([]css.Rule{}, inlineRules...)
		for _, rs := range results {
			all = append(all, rs...)
		}
		layout.ApplyStyles(t.Doc, all, &css.MatchContext{})
		t.Layout = layout.Layout(t.Doc, c.ViewportWidth)
		t.Widgets = t.Layout.Widgets
		c.requestRerender(t.ID)
	}()
}
