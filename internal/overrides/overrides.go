// Package overrides implements the "local developer overrides" feature
// (SPEC_FULL.md §3.4): a watched directory of per-origin CSS/script files
// that a developer can drop in to patch a page without touching the
// server, the same invalidation path hard reload uses (spec §4.5).
//
// Files are named "<origin>.css" and "<origin>.js" where origin is the
// page's scheme+host (e.g. "https---example.com", slashes and colons
// replaced with "-" since they are not portable in filenames). Grounded
// on fsnotify watching a directory of hot-reloadable files, and on the
// teacher's internal/skill package's file-driven load pattern
// (skill.Load/LoadState read small on-disk files into in-memory structs
// on demand rather than keeping a live parse tree); the watch-and-
// invalidate loop itself has no teacher analogue (the teacher never
// watches a directory for changes), so it is built directly on
// fsnotify's documented Watcher/Events shape.
package overrides

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/loomweb/loom/internal/logger"
)

// Manager watches dir for per-origin override files and calls an
// invalidation callback when one changes, so the controller can drop the
// affected origin's cached layout/stylesheet the same way hard reload
// does.
type Manager struct {
	dir     string
	watcher *fsnotify.Watcher

	mu         sync.Mutex
	invalidate func(origin string)

	done chan struct{}
}

// EncodeOrigin turns "https://example.com" into a filesystem-safe stem.
// The watcher reports changes by that same encoded stem; nothing decodes
// it back into an origin.
func EncodeOrigin(origin string) string {
	r := strings.NewReplacer("://", "---", ":", "-", "/", "-")
	return r.Replace(origin)
}

// New starts watching dir (created if absent) for override file changes.
// It returns immediately; invalidations are delivered asynchronously to
// whatever callback OnInvalidate registers.
func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	m := &Manager{dir: dir, watcher: w, done: make(chan struct{})}
	go m.watchLoop()
	return m, nil
}

// OnInvalidate registers fn to be called every time an override file under
// dir is created, written, renamed, or removed. fn receives the affected
// origin in EncodeOrigin form (the file name without its extension).
func (m *Manager) OnInvalidate(fn func(origin string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidate = fn
}

func (m *Manager) watchLoop() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			origin := originFromPath(ev.Name)
			if origin == "" {
				continue
			}
			m.mu.Lock()
			fn := m.invalidate
			m.mu.Unlock()
			if fn != nil {
				fn(origin)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Warn("overrides watcher error", "err", err)
		case <-m.done:
			return
		}
	}
}

func originFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".css" && ext != ".js" {
		return ""
	}
	return strings.TrimSuffix(base, ext)
}

// CSSFor returns the override stylesheet text for origin, or "" if none
// is present (spec §7: resource absence is never an error, just absent
// content).
func (m *Manager) CSSFor(origin string) string {
	return m.readFile(EncodeOrigin(origin) + ".css")
}

// ScriptFor returns the override script text for origin, or "" if none
// is present.
func (m *Manager) ScriptFor(origin string) string {
	return m.readFile(EncodeOrigin(origin) + ".js")
}

func (m *Manager) readFile(name string) string {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}

// Close stops the watcher.
func (m *Manager) Close() error {
	close(m.done)
	return m.watcher.Close()
}
