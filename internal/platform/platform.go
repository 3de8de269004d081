// Package platform defines the host-platform boundary (spec §6): the
// collaborators the engine core depends on but does not implement —
// pixel canvas, window manager, input source, and filesystem. Production
// code wires these to real OS/GUI facilities; tests wire them to the fakes
// in platformtest.
package platform

// Color is a packed 0xRRGGBBAA color, matching how the cascade engine
// resolves CSS color values into a single comparable value.
type Color uint32

// CursorKind selects the pointer glyph the window manager displays.
type CursorKind int

const (
	CursorDefault CursorKind = iota
	CursorPointer
	CursorText
	CursorWait
)

// Canvas is the pixel surface the layout engine's paint list is drawn onto.
// The core never rasterizes glyphs itself — draw_text is a host primitive,
// matching spec §6's external-interfaces boundary.
type Canvas interface {
	FillRect(x, y, w, h int, color Color)
	DrawRect(x, y, w, h int, color Color)
	DrawLine(x0, y0, x1, y1 int, color Color)
	SetPixel(x, y int, color Color)
	DrawText(x, y int, text string, color Color)
	DrawTextScaled(x, y int, text string, color Color, scale float64)
}

// WindowManager exposes the one piece of host chrome the core controls
// directly: the cursor shape under the pointer.
type WindowManager interface {
	SetCursor(kind CursorKind)
}

// KeyEvent is a single keyboard event delivered by the host's event source.
type KeyEvent struct {
	Char    rune
	Code    int // extended/virtual key code, for non-printable keys
	Ctrl    bool
	Shift   bool
	Alt     bool
}

// PointerEventType distinguishes button-down, button-up, and motion.
type PointerEventType int

const (
	PointerDown PointerEventType = iota
	PointerUp
	PointerMove
)

// PointerEvent is a single pointer event delivered by the host's event source.
type PointerEvent struct {
	Type   PointerEventType
	X, Y   int
	Button int
}

// FileSystem abstracts the handful of filesystem operations the core needs
// for downloads and "print to file" (spec §6): a real OS filesystem in
// production, an in-memory fake in tests.
type FileSystem interface {
	Mkdir(path string) error
	Write(path string, data []byte) error
	Read(path string) ([]byte, bool)
}

// OSFileSystem implements FileSystem over the real filesystem.
type OSFileSystem struct{}

// NewOSFileSystem returns the production FileSystem implementation.
func NewOSFileSystem() *OSFileSystem { return &OSFileSystem{} }
