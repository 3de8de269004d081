package jshost

import (
	"fmt"
	"strconv"
	"strings"
)

// timer is a pending one-shot or repeating callback registered through Env.
type timer struct {
	delayMs    int64
	repeat     bool
	nextFireMs int64
	callbackID string
	cancelled  bool
}

// DummyHost is a keyword-triggered stand-in for a real JS engine. It scans
// each script's source for a handful of recognized directives and performs
// the corresponding Env calls, the same trigger-phrase approach the
// teacher's DummyProvider.Chat uses to fake an LLM without one wired in:
// a single script line like "set-text #status ready" drives a concrete,
// observable Env call instead of requiring a real interpreter.
type DummyHost struct {
	env        Env
	scripts    []string
	timers     map[string]*timer
	timerSeq   int
	rafs       map[string]bool
	disposed   bool
}

// NewDummyHost builds a DummyHost and runs each script's top-level
// directives immediately, mirroring a real engine's initial synchronous
// execution pass.
func NewDummyHost(scripts []string, env Env) *DummyHost {
	h := &DummyHost{
		env:     env,
		scripts: scripts,
		timers:  make(map[string]*timer),
		rafs:    make(map[string]bool),
	}
	for _, src := range scripts {
		h.runDirectives(src)
	}
	return h
}

// runDirectives interprets one script's recognized line-oriented
// directives. Unrecognized lines are logged as warnings through Env.Log, not
// errors — a script made of entirely unrecognized lines changes nothing
// else, matching spec §7 rule 6
// ("script errors... do not abort layout or navigation").
func (h *DummyHost) runDirectives(src string) {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		h.runLine(line)
	}
}

func (h *DummyHost) runLine(line string) {
	switch {
	case strings.HasPrefix(line, "set-text "):
		h.handleSetText(strings.TrimPrefix(line, "set-text "))
	case strings.HasPrefix(line, "set-timer "):
		h.handleSetTimer(strings.TrimPrefix(line, "set-timer "))
	case strings.HasPrefix(line, "alert "):
		h.env.Alert(strings.TrimPrefix(line, "alert "))
	case strings.HasPrefix(line, "fetch "):
		h.handleFetch(strings.TrimPrefix(line, "fetch "))
	case strings.HasPrefix(line, "log "):
		h.env.Log("info", strings.TrimPrefix(line, "log "))
	case strings.HasPrefix(line, "credentials-get "):
		h.handleCredentialsGet(strings.TrimPrefix(line, "credentials-get "))
	case strings.HasPrefix(line, "credentials-store "):
		h.handleCredentialsStore(strings.TrimPrefix(line, "credentials-store "))
	default:
		h.env.Log("warn", fmt.Sprintf("unrecognized script directive: %q", line))
	}
}

// handleSetText implements "set-text <selector> <text...>".
func (h *DummyHost) handleSetText(rest string) {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return
	}
	nodeID, ok := h.env.QuerySelector(parts[0])
	if !ok {
		h.env.Log("warn", "set-text: no match for "+parts[0])
		return
	}
	h.env.SetInnerHTML(nodeID, parts[1])
	h.env.Rerender()
}

// handleSetTimer implements "set-timer <delay_ms> <callback_id>".
func (h *DummyHost) handleSetTimer(rest string) {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return
	}
	delayMs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.env.Log("warn", "set-timer: bad delay "+parts[0])
		return
	}
	handle := h.env.SetTimer(delayMs, false, parts[1])
	h.timerSeq++
	h.timers[handle] = &timer{delayMs: delayMs, callbackID: parts[1]}
}

// handleCredentialsGet implements "credentials-get <selector>": fills the
// matched node's widget value with the origin's saved username, the
// autofill prompt a password <input> triggers (SPEC_FULL.md §3.3).
func (h *DummyHost) handleCredentialsGet(selector string) {
	username, _, ok := h.env.CredentialsGet()
	if !ok {
		return
	}
	nodeID, ok := h.env.QuerySelector(selector)
	if !ok {
		h.env.Log("warn", "credentials-get: no match for "+selector)
		return
	}
	h.env.SetWidgetValue(nodeID, username)
}

// handleCredentialsStore implements "credentials-store <username> <secret>".
func (h *DummyHost) handleCredentialsStore(rest string) {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return
	}
	h.env.CredentialsStore(parts[0], parts[1])
}

// handleFetch implements "fetch <url> <callback_id>".
func (h *DummyHost) handleFetch(rest string) {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return
	}
	h.env.Fetch("GET", parts[0], nil, nil, parts[1])
}

// Tick advances no scheduler state of its own: timer scheduling is owned
// by Env (SetTimer/ClearTimer), since the controller — not the script
// host — is what actually drives the reactor clock. DummyHost's Tick exists
// only to satisfy the JsHost interface and does nothing.
func (h *DummyHost) Tick(nowMs int64) {
	if h.disposed {
		return
	}
}

// FireEvent looks for a matching "on-<kind> <node_id>: <directive>" line
// across every registered script and, if found, runs its directive.
func (h *DummyHost) FireEvent(targetID string, kind EventKind, payload map[string]any) {
	if h.disposed {
		return
	}
	prefix := fmt.Sprintf("on-%s %s: ", kind, targetID)
	for _, src := range h.scripts {
		for _, line := range strings.Split(src, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, prefix) {
				h.runLine(strings.TrimPrefix(line, prefix))
			}
		}
	}
}

// Dispose cancels every timer and rAF callback this host owns.
func (h *DummyHost) Dispose() {
	if h.disposed {
		return
	}
	h.disposed = true
	for id := range h.timers {
		h.env.ClearTimer(id)
	}
	for id := range h.rafs {
		h.env.CancelAnimationFrame(id)
	}
}
