// Package devtools implements a WebSocket+JSON remote-debugging protocol
// for a running loomd reactor: inspect the document tree, computed
// styles, and layout result of any tab, and fire synthetic input into it.
//
// Grounded on the teacher's internal/ws/protocol.go Envelope{Type}
// wrapper plus sibling typed-message structs, each carrying its own Type
// field so a single json.Unmarshal-then-switch can dispatch without a
// second decode pass.
package devtools

// Message type identifiers, named after the document/layout/input
// concepts they carry rather than any particular wire position.
const (
	TypeInspectDocument = "inspect.document"
	TypeInspectStyles   = "inspect.styles"
	TypeInspectLayout   = "inspect.layout"
	TypeInspectPreview  = "inspect.preview"
	TypeDocumentResult  = "document.result"
	TypeStylesResult    = "styles.result"
	TypeLayoutResult    = "layout.result"
	TypePreviewResult   = "preview.result"

	TypeNavigate     = "nav.goto"
	TypeInputKey     = "input.key"
	TypeInputPointer = "input.pointer"

	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeTabUpdated  = "tab.updated"

	TypeAck   = "ack"
	TypeError = "error"
)

// Envelope wraps every devtools message with a type field for routing,
// mirroring the wing↔relay wire shape: decode the envelope first, then
// re-decode the same bytes into the type-specific struct the switch picks.
type Envelope struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"` // client-assigned, echoed back on the matching result/ack
	TabID string `json:"tab_id,omitempty"`
}

// NavigatePayload requests a navigation on the named tab.
type NavigatePayload struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// InputKeyPayload fires a synthetic key event.
type InputKeyPayload struct {
	Type  string `json:"type"`
	Char  rune   `json:"char"`
	Code  int    `json:"code"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
}

// InputPointerPayload fires a synthetic pointer event.
type InputPointerPayload struct {
	Type   string `json:"type"`
	Kind   int    `json:"kind"` // platform.PointerEventType
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button int    `json:"button"`
}

// NodeSnapshot is a JSON-safe projection of one html.Node and its
// children, deep enough for an inspector tree view without exposing the
// live *html.Node pointers themselves.
type NodeSnapshot struct {
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	ID       string            `json:"id,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Children []NodeSnapshot    `json:"children,omitempty"`
}

// DocumentResult answers TypeInspectDocument.
type DocumentResult struct {
	Type  string       `json:"type"`
	Title string       `json:"title"`
	Head  NodeSnapshot `json:"head"`
	Body  NodeSnapshot `json:"body"`
}

// StylesResult answers TypeInspectStyles: the computed style bag for
// every node, keyed by the same path-based node reference the document
// snapshot implies (index path from the body root).
type StylesResult struct {
	Type   string                       `json:"type"`
	Styles map[string]map[string]string `json:"styles"`
}

// RenderedSpanView is a JSON-safe projection of layout.RenderedSpan.
type RenderedSpanView struct {
	X         int     `json:"x"`
	Text      string  `json:"text"`
	Color     string  `json:"color"`
	FontScale float64 `json:"font_scale"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Href      string  `json:"href,omitempty"`
	SearchHit bool    `json:"search_hit,omitempty"`
}

// RenderedLineView is a JSON-safe projection of layout.RenderedLine.
type RenderedLineView struct {
	Y      int                `json:"y"`
	Height int                `json:"height"`
	Spans  []RenderedSpanView `json:"spans"`
}

// LayoutResultPayload answers TypeInspectLayout.
type LayoutResultPayload struct {
	Type          string             `json:"type"`
	Lines         []RenderedLineView `json:"lines"`
	ContentHeight int                `json:"content_height"`
	WidgetCount   int                `json:"widget_count"`
}

// PreviewPayload requests an ANSI terminal screenshot of a tab's current
// layout (SPEC_FULL.md §3.6 "ANSI terminal preview renderer"), rendered
// at the requested character-grid size.
type PreviewPayload struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// PreviewResult answers TypeInspectPreview with the rendered ANSI text.
type PreviewResult struct {
	Type string `json:"type"`
	ANSI string `json:"ansi"`
}

// TabUpdatedPayload is pushed to every subscriber of a tab after its
// layout changes (navigation completed, fetch resolved, script mutated
// the DOM), so an attached inspector can refresh without polling.
type TabUpdatedPayload struct {
	Type  string `json:"type"`
	TabID string `json:"tab_id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ErrorPayload reports a malformed request or an inspection failure.
type ErrorPayload struct {
	Type    string `json:"type"`
	ReplyTo string `json:"reply_to,omitempty"`
	Message string `json:"message"`
}

// AckPayload confirms a fire-and-forget request (navigate, input).
type AckPayload struct {
	Type    string `json:"type"`
	ReplyTo string `json:"reply_to,omitempty"`
}
