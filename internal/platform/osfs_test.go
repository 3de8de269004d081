package platform

import (
	"path/filepath"
	"testing"
)

func TestOSFileSystemWriteReadRoundTrip(t *testing.T) {
	fs := NewOSFileSystem()
	path := filepath.Join(t.TempDir(), "nested", "page.txt")

	if err := fs.Write(path, []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, ok := fs.Read(path)
	if !ok {
		t.Fatal("Read reported missing file just written")
	}
	if string(data) != "hello" {
		t.Errorf("Read = %q, want %q", data, "hello")
	}
}

func TestOSFileSystemReadMissing(t *testing.T) {
	fs := NewOSFileSystem()
	if _, ok := fs.Read(filepath.Join(t.TempDir(), "missing.txt")); ok {
		t.Error("Read reported a file that doesn't exist as present")
	}
}

func TestOSFileSystemMkdir(t *testing.T) {
	fs := NewOSFileSystem()
	dir := filepath.Join(t.TempDir(), "downloads")
	if err := fs.Mkdir(dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, ok := fs.Read(dir); ok {
		t.Error("Read should not treat a directory as readable file content")
	}
}
