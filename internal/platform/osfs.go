package platform

import (
	"os"
	"path/filepath"
)

func (fs *OSFileSystem) Mkdir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (fs *OSFileSystem) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (fs *OSFileSystem) Read(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
