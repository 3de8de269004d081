package config

import (
	"os"
	"path/filepath"
)

// UserConfigDir returns the per-user profile directory (~/.loom),
// grounded on the teacher's config.GetUserConfigDir.
func UserConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loom"), nil
}

// EnsureDirs creates dir and its "profiles" and "overrides" subdirectories
// if they do not already exist.
func EnsureDirs(dir string) error {
	for _, sub := range []string{"", "profiles", "overrides"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}
