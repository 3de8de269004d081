// Package platformtest provides in-memory fakes for the platform boundary
// interfaces, mirroring the teacher's internal/mocks package: each fake
// records calls and state so tests can assert on both without a real GUI,
// window manager, or filesystem.
package platformtest

import "github.com/loomweb/loom/internal/platform"

// Rect is one recorded fill/draw-rect call, kept for assertions in layout
// and paint tests.
type Rect struct {
	X, Y, W, H int
	Color      platform.Color
}

// TextCall is one recorded draw-text call.
type TextCall struct {
	X, Y  int
	Text  string
	Color platform.Color
	Scale float64
}

// FakeCanvas records every draw call instead of rasterizing, so tests can
// assert the paint list without a real pixel buffer.
type FakeCanvas struct {
	Fills  []Rect
	Rects  []Rect
	Lines  []Rect // reuses Rect shape as (x0,y0)-(x1,y1)
	Pixels []Rect
	Texts  []TextCall
}

func NewFakeCanvas() *FakeCanvas { return &FakeCanvas{} }

func (c *FakeCanvas) FillRect(x, y, w, h int, color platform.Color) {
	c.Fills = append(c.Fills, Rect{x, y, w, h, color})
}

func (c *FakeCanvas) DrawRect(x, y, w, h int, color platform.Color) {
	c.Rects = append(c.Rects, Rect{x, y, w, h, color})
}

func (c *FakeCanvas) DrawLine(x0, y0, x1, y1 int, color platform.Color) {
	c.Lines = append(c.Lines, Rect{x0, y0, x1, y1, color})
}

func (c *FakeCanvas) SetPixel(x, y int, color platform.Color) {
	c.Pixels = append(c.Pixels, Rect{x, y, 0, 0, color})
}

func (c *FakeCanvas) DrawText(x, y int, text string, color platform.Color) {
	c.Texts = append(c.Texts, TextCall{x, y, text, color, 1})
}

func (c *FakeCanvas) DrawTextScaled(x, y int, text string, color platform.Color, scale float64) {
	c.Texts = append(c.Texts, TextCall{x, y, text, color, scale})
}

// FakeWindowManager records the most recent cursor kind requested.
type FakeWindowManager struct {
	Cursor platform.CursorKind
	Calls  int
}

func (w *FakeWindowManager) SetCursor(kind platform.CursorKind) {
	w.Cursor = kind
	w.Calls++
}

// FakeFileSystem is an in-memory FileSystem, avoiding real disk I/O in tests
// of the download and print-to-file paths.
type FakeFileSystem struct {
	files map[string][]byte
	dirs  map[string]bool
}

func NewFakeFileSystem() *FakeFileSystem {
	return &FakeFileSystem{files: make(map[string][]byte), dirs: make(map[string]bool)}
}

func (fs *FakeFileSystem) Mkdir(path string) error {
	fs.dirs[path] = true
	return nil
}

func (fs *FakeFileSystem) Write(path string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	fs.files[path] = cp
	return nil
}

func (fs *FakeFileSystem) Read(path string) ([]byte, bool) {
	data, ok := fs.files[path]
	return data, ok
}
