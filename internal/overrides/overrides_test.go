package overrides

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeOriginFilesystemSafe(t *testing.T) {
	got := EncodeOrigin("https://example.com")
	if got != "https---example.com" {
		t.Errorf("EncodeOrigin = %q", got)
	}
}

func TestCSSForAndScriptForAbsent(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if css := m.CSSFor("https://example.com"); css != "" {
		t.Errorf("CSSFor absent = %q, want empty", css)
	}
}

func TestCSSForReadsFile(t *testing.T) {
	dir := t.TempDir()
	origin := "https://example.com"
	path := filepath.Join(dir, EncodeOrigin(origin)+".css")
	if err := os.WriteFile(path, []byte("body { color: red }"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if css := m.CSSFor(origin); css != "body { color: red }" {
		t.Errorf("CSSFor = %q", css)
	}
}

func TestInvalidateFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	origin := "https://example.com"
	path := filepath.Join(dir, EncodeOrigin(origin)+".css")

	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	got := make(chan string, 1)
	m.OnInvalidate(func(origin string) {
		select {
		case got <- origin:
		default:
		}
	})

	if err := os.WriteFile(path, []byte("p { color: blue }"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case origin := <-got:
		if decoded := EncodeOrigin("https://example.com"); origin != decoded {
			t.Errorf("invalidated origin = %q, want %q", origin, decoded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for invalidation callback")
	}
}
