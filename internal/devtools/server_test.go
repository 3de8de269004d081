package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/loomweb/loom/internal/controller"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(method, url string, headers map[string]string, body []byte) (controller.Response, error) {
	return controller.Response{Status: 404, Body: []byte("not found")}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Server, string) {
	t.Helper()
	c := controller.New(fakeFetcher{}, nil, 640, 480)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>hello world</p>")

	s, err := NewServer(c, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	token, err := s.IssueToken(tab.ID, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return srv, s, token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/devtools/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestInspectDocumentReturnsParsedTree(t *testing.T) {
	srv, _, token := newTestServer(t)
	defer srv.Close()
	conn := dial(t, srv, token)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	req, _ := json.Marshal(Envelope{Type: TypeInspectDocument, ID: "1"})
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var result DocumentResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Type != TypeDocumentResult {
		t.Fatalf("type = %q, want %q", result.Type, TypeDocumentResult)
	}
	if len(result.Body.Children) == 0 {
		t.Fatal("expected body to have children")
	}
}

func TestInspectLayoutReturnsRenderedLines(t *testing.T) {
	srv, _, token := newTestServer(t)
	defer srv.Close()
	conn := dial(t, srv, token)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	req, _ := json.Marshal(Envelope{Type: TypeInspectLayout, ID: "2"})
	conn.Write(ctx, websocket.MessageText, req)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var result LayoutResultPayload
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Lines) == 0 {
		t.Fatal("expected at least one rendered line")
	}
}

func TestInspectPreviewReturnsANSI(t *testing.T) {
	srv, _, token := newTestServer(t)
	defer srv.Close()
	conn := dial(t, srv, token)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	req, _ := json.Marshal(PreviewPayload{Type: TypeInspectPreview, Cols: 40, Rows: 10})
	conn.Write(ctx, websocket.MessageText, req)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var result PreviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Type != TypePreviewResult {
		t.Fatalf("type = %q, want %q", result.Type, TypePreviewResult)
	}
	if !strings.Contains(result.ANSI, "hello") {
		t.Errorf("expected rendered ANSI to contain page text, got:\n%s", result.ANSI)
	}
}

func TestInvalidTokenIsRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/devtools/ws?token=garbage"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return
	}
	// Accept() completes the WebSocket handshake before the token is
	// validated, so rejection surfaces as an immediate close rather than a
	// failed dial; either way the connection must not stay usable.
	if _, _, err := conn.Read(ctx); err == nil {
		t.Fatal("expected the server to close the connection for an invalid token")
	}
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	srv, _, token := newTestServer(t)
	defer srv.Close()
	conn := dial(t, srv, token)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	req, _ := json.Marshal(Envelope{Type: "bogus.type", ID: "3"})
	conn.Write(ctx, websocket.MessageText, req)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var result ErrorPayload
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Type != TypeError {
		t.Fatalf("type = %q, want %q", result.Type, TypeError)
	}
}
