package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesProfileOverUser(t *testing.T) {
	dir := t.TempDir()
	userDir := filepath.Join(dir, "user")
	profileDir := filepath.Join(dir, "profile")
	os.MkdirAll(userDir, 0o755)
	os.MkdirAll(profileDir, 0o755)

	os.WriteFile(filepath.Join(userDir, "settings.json"), []byte(`{"home_page":"https://user.example","viewport_width":800}`), 0o644)
	os.WriteFile(filepath.Join(profileDir, "settings.json"), []byte(`{"home_page":"https://profile.example"}`), 0o644)
	os.WriteFile(filepath.Join(userDir, "flags.yaml"), []byte("disable_script: true\n"), 0o644)

	m := NewManager()
	if err := m.Load(userDir, profileDir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := m.Settings()
	if s.HomePage != "https://profile.example" {
		t.Errorf("home page = %q, want profile override", s.HomePage)
	}
	if s.ViewportWidth != 800 {
		t.Errorf("viewport width = %d, want user-level fallback 800", s.ViewportWidth)
	}
	if s.ViewportHeight != 1080 {
		t.Errorf("viewport height = %d, want default 1080", s.ViewportHeight)
	}
	if !m.Flags().DisableScript {
		t.Error("expected disable_script flag to be true")
	}
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	m := NewManager()
	if err := m.Load(filepath.Join(dir, "nouser"), filepath.Join(dir, "noprofile")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Settings().HomePage != "about:blank" {
		t.Errorf("home page = %q, want default", m.Settings().HomePage)
	}
}
