package devtools

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/loomweb/loom/internal/controller"
	"github.com/loomweb/loom/internal/html"
	"github.com/loomweb/loom/internal/logger"
	"github.com/loomweb/loom/internal/platform"
	"github.com/loomweb/loom/internal/preview"
)

const (
	writeTimeout = 10 * time.Second
	authTimeout  = 5 * time.Second
)

// Server exposes the devtools protocol over WebSocket against a single
// running Controller, the way the teacher's relay.Server exposes the
// wing/client protocol against its session store.
type Server struct {
	Controller *controller.Controller

	signingKey *ecdsa.PrivateKey

	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{} // tab ID → connected inspectors
}

type subscriber struct {
	conn *websocket.Conn
}

// NewServer returns a devtools server wired to c that signs with key. Pass
// nil for key to mint a freshly generated, ephemeral one.
func NewServer(c *controller.Controller, key *ecdsa.PrivateKey) (*Server, error) {
	if key == nil {
		var err error
		key, err = GenerateSigningKey()
		if err != nil {
			return nil, err
		}
	}
	return &Server{
		Controller:  c,
		signingKey:  key,
		subscribers: map[string]map[*subscriber]struct{}{},
	}, nil
}

// IssueToken mints a session token scoped to tabID, to be handed to a
// trusted local inspector out of band.
func (s *Server) IssueToken(tabID string, ttl time.Duration) (string, error) {
	return IssueSessionToken(s.signingKey, tabID, ttl)
}

// RegisterRoutes wires the devtools WebSocket endpoint onto mux, matching
// the teacher's "GET /ws/..." method-prefixed registration style.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /devtools/ws", s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	token := r.URL.Query().Get("token")
	claims, err := ValidateSessionToken(&s.signingKey.PublicKey, token)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "invalid devtools token")
		return
	}

	sub := &subscriber{conn: conn}
	ctx := r.Context()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.writeError(ctx, conn, "", "malformed envelope")
			continue
		}
		tabID := env.TabID
		if tabID == "" {
			tabID = claims.TabID
		}
		s.dispatch(ctx, conn, sub, tabID, env, data)
	}

	s.unsubscribeAll(sub)
	conn.Close(websocket.StatusNormalClosure, "closing")
}

func (s *Server) dispatch(ctx context.Context, conn *websocket.Conn, sub *subscriber, tabID string, env Envelope, raw []byte) {
	tab := s.Controller.TabByID(tabID)

	switch env.Type {
	case TypeInspectDocument:
		if tab == nil || tab.Doc == nil {
			s.writeError(ctx, conn, env.ID, "tab has no document")
			return
		}
		s.write(ctx, conn, DocumentResult{
			Type:  TypeDocumentResult,
			Title: tab.Title,
			Head:  snapshotNode(tab.Doc.Head),
			Body:  snapshotNode(tab.Doc.Body),
		})

	case TypeInspectStyles:
		if tab == nil || tab.Doc == nil {
			s.writeError(ctx, conn, env.ID, "tab has no document")
			return
		}
		styles := map[string]map[string]string{}
		collectStyles(tab.Doc.Body, "body", styles)
		s.write(ctx, conn, StylesResult{Type: TypeStylesResult, Styles: styles})

	case TypeInspectLayout:
		if tab == nil || tab.Layout == nil {
			s.writeError(ctx, conn, env.ID, "tab has no layout")
			return
		}
		s.write(ctx, conn, layoutPayload(tab))

	case TypeInspectPreview:
		if tab == nil || tab.Layout == nil {
			s.writeError(ctx, conn, env.ID, "tab has no layout")
			return
		}
		var p PreviewPayload
		json.Unmarshal(raw, &p)
		if p.Cols <= 0 {
			p.Cols = 100
		}
		if p.Rows <= 0 {
			p.Rows = 40
		}
		renderer := preview.New(p.Cols, p.Rows)
		ansi := renderer.Render(tab.Layout, tab.ScrollY)
		renderer.Close()
		s.write(ctx, conn, PreviewResult{Type: TypePreviewResult, ANSI: ansi})

	case TypeNavigate:
		var p NavigatePayload
		if err := json.Unmarshal(raw, &p); err != nil || tab == nil {
			s.writeError(ctx, conn, env.ID, "invalid navigate payload")
			return
		}
		s.Controller.Navigate(tab, p.URL)
		s.write(ctx, conn, AckPayload{Type: TypeAck, ReplyTo: env.ID})
		s.notifyUpdated(tab)

	case TypeInputKey:
		var p InputKeyPayload
		if err := json.Unmarshal(raw, &p); err != nil || tab == nil {
			s.writeError(ctx, conn, env.ID, "invalid key payload")
			return
		}
		s.Controller.SetActiveTabByID(tab.ID)
		s.Controller.HandleKey(platform.KeyEvent{Char: p.Char, Code: p.Code, Ctrl: p.Ctrl, Shift: p.Shift, Alt: p.Alt})
		s.write(ctx, conn, AckPayload{Type: TypeAck, ReplyTo: env.ID})
		s.notifyUpdated(tab)

	case TypeInputPointer:
		var p InputPointerPayload
		if err := json.Unmarshal(raw, &p); err != nil || tab == nil {
			s.writeError(ctx, conn, env.ID, "invalid pointer payload")
			return
		}
		s.Controller.SetActiveTabByID(tab.ID)
		s.Controller.HandlePointer(platform.PointerEvent{Type: platform.PointerEventType(p.Kind), X: p.X, Y: p.Y, Button: p.Button})
		s.write(ctx, conn, AckPayload{Type: TypeAck, ReplyTo: env.ID})
		s.notifyUpdated(tab)

	case TypeSubscribe:
		s.subscribe(tabID, sub)
		s.write(ctx, conn, AckPayload{Type: TypeAck, ReplyTo: env.ID})

	case TypeUnsubscribe:
		s.unsubscribe(tabID, sub)
		s.write(ctx, conn, AckPayload{Type: TypeAck, ReplyTo: env.ID})

	default:
		s.writeError(ctx, conn, env.ID, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (s *Server) subscribe(tabID string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.subscribers[tabID]
	if !ok {
		set = map[*subscriber]struct{}{}
		s.subscribers[tabID] = set
	}
	set[sub] = struct{}{}
}

func (s *Server) unsubscribe(tabID string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers[tabID], sub)
}

func (s *Server) unsubscribeAll(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.subscribers {
		delete(set, sub)
	}
}

// notifyUpdated pushes a tab.updated event to every connection subscribed
// to tab.ID, so an attached inspector can refresh without polling.
func (s *Server) notifyUpdated(tab *controller.Tab) {
	if tab == nil {
		return
	}
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers[tab.ID]))
	for sub := range s.subscribers[tab.ID] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	url := ""
	if tab.URL != nil {
		url = tab.URL.String()
	}
	payload := TabUpdatedPayload{Type: TypeTabUpdated, TabID: tab.ID, URL: url, Title: tab.Title}
	for _, sub := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		s.write(ctx, sub.conn, payload)
		cancel()
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		logger.Log.Debug("devtools write failed", "err", err)
	}
}

func (s *Server) writeError(ctx context.Context, conn *websocket.Conn, replyTo, message string) {
	s.write(ctx, conn, ErrorPayload{Type: TypeError, ReplyTo: replyTo, Message: message})
}

func snapshotNode(n *html.Node) NodeSnapshot {
	if n == nil {
		return NodeSnapshot{}
	}
	snap := NodeSnapshot{
		Tag:     n.TagName,
		Text:    n.Text,
		ID:      n.ID,
		Classes: n.Classes,
		Style:   n.Style,
	}
	if len(n.Attrs) > 0 {
		snap.Attrs = make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			snap.Attrs[a.Name] = a.Value
		}
	}
	for _, child := range n.Children {
		snap.Children = append(snap.Children, snapshotNode(child))
	}
	return snap
}

func collectStyles(n *html.Node, path string, out map[string]map[string]string) {
	if n == nil {
		return
	}
	if len(n.Style) > 0 {
		out[path] = n.Style
	}
	for i, child := range n.Children {
		collectStyles(child, fmt.Sprintf("%s.%d", path, i), out)
	}
}

func layoutPayload(tab *controller.Tab) LayoutResultPayload {
	lr := tab.Layout
	out := LayoutResultPayload{
		Type:          TypeLayoutResult,
		ContentHeight: lr.ContentHeight(),
		WidgetCount:   len(lr.Widgets),
	}
	for _, line := range lr.Lines {
		lv := RenderedLineView{Y: line.Y, Height: line.Height}
		for _, span := range line.Spans {
			lv.Spans = append(lv.Spans, RenderedSpanView{
				X: span.X, Text: span.Text, Color: span.Color, FontScale: span.FontScale,
				Bold: span.Bold, Italic: span.Italic, Href: span.Href, SearchHit: span.SearchHit,
			})
		}
		out.Lines = append(out.Lines, lv)
	}
	return out
}
