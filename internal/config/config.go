// Package config implements the engine's settings layer (SPEC_FULL.md §1
// "Configuration"): a user-level settings.json merged with a per-profile
// override file, plus a yaml.v3-encoded flags.yaml for "about:config"-style
// feature flags.
//
// Grounded on the teacher's internal/config/config.go + paths.go: the same
// two-layer JSON load-and-merge shape (user config overridden by a
// project/profile config), generalized here from wingthing's agent/UI
// settings to a browser profile's settings, plus the same zero-value-means-
// "use the other layer" merge rule for scalar fields.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the merged, effective configuration for one profile.
type Settings struct {
	HomePage               string `json:"home_page,omitempty"`
	DownloadDir            string `json:"download_dir,omitempty"`
	ViewportWidth          int    `json:"viewport_width,omitempty"`
	ViewportHeight         int    `json:"viewport_height,omitempty"`
	SessionTicketCacheTTLS int    `json:"session_ticket_cache_ttl_seconds,omitempty"`
	DevtoolsAddr           string `json:"devtools_addr,omitempty"`
}

// Flags is the "about:config" style feature-flag set (SPEC_FULL.md §1).
type Flags struct {
	DisableScript  bool `yaml:"disable_script"`
	ForceHTTP11    bool `yaml:"force_http_1_1"`
	DisableImages  bool `yaml:"disable_images"`
	DisableDevtools bool `yaml:"disable_devtools"`
}

// Manager loads and merges a user-level settings.json with a per-profile
// override file, exactly as the teacher's Manager merges user and project
// config (project/profile overrides user, user overrides built-in
// defaults).
type Manager struct {
	user    Settings
	profile Settings
	merged  Settings
	flags   Flags
}

func defaults() Settings {
	return Settings{
		HomePage:               "about:blank",
		ViewportWidth:          1920,
		ViewportHeight:         1080,
		SessionTicketCacheTTLS: 7 * 24 * 3600,
	}
}

// NewManager returns a Manager seeded with the built-in defaults.
func NewManager() *Manager {
	return &Manager{merged: defaults()}
}

// Load reads userDir/settings.json and profileDir/settings.json (either
// may be absent) plus userDir/flags.yaml, then recomputes the merge.
func (m *Manager) Load(userDir, profileDir string) error {
	if err := loadJSON(filepath.Join(userDir, "settings.json"), &m.user); err != nil {
		return err
	}
	if err := loadJSON(filepath.Join(profileDir, "settings.json"), &m.profile); err != nil {
		return err
	}
	if err := loadYAML(filepath.Join(userDir, "flags.yaml"), &m.flags); err != nil {
		return err
	}
	m.merge()
	return nil
}

func loadJSON(path string, out *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func loadYAML(path string, out *Flags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (m *Manager) merge() {
	d := defaults()
	m.merged = Settings{
		HomePage:               firstNonEmpty(m.profile.HomePage, m.user.HomePage, d.HomePage),
		DownloadDir:            firstNonEmpty(m.profile.DownloadDir, m.user.DownloadDir, d.DownloadDir),
		ViewportWidth:          firstNonZero(m.profile.ViewportWidth, m.user.ViewportWidth, d.ViewportWidth),
		ViewportHeight:         firstNonZero(m.profile.ViewportHeight, m.user.ViewportHeight, d.ViewportHeight),
		SessionTicketCacheTTLS: firstNonZero(m.profile.SessionTicketCacheTTLS, m.user.SessionTicketCacheTTLS, d.SessionTicketCacheTTLS),
		DevtoolsAddr:           firstNonEmpty(m.profile.DevtoolsAddr, m.user.DevtoolsAddr, "127.0.0.1:9876"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Settings returns the merged, effective settings.
func (m *Manager) Settings() Settings { return m.merged }

// Flags returns the loaded feature flags.
func (m *Manager) Flags() Flags { return m.flags }

// SaveUserSettings writes m.user back to userDir/settings.json.
func (m *Manager) SaveUserSettings(userDir string) error {
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.user, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(userDir, "settings.json"), data, 0o644)
}

// SetHomePage updates the in-memory user settings and recomputes the merge.
// Callers persist with SaveUserSettings.
func (m *Manager) SetHomePage(url string) {
	m.user.HomePage = url
	m.merge()
}
