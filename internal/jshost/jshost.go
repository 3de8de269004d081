// Package jshost defines the JS host boundary (spec §6): the collaborator
// that owns page script execution, timers, and the DOM/fetch/dialog API
// surface exposed to scripts. The core never embeds a JavaScript engine
// itself — create/tick/fire_event/dispose is the entire contract, matching
// spec §6's "above controller" boundary list.
//
// Grounded on the teacher's internal/llm package: a Provider interface, a
// factory picking between a real and a dummy implementation, and a
// keyword-triggered dummy used for integration tests without a real engine
// wired up. Here the "real" side (an embedded JS engine) is out of scope —
// only the interface and the dummy are implemented, the same shape the
// teacher used before wiring in its real Anthropic/OpenAI clients.
package jshost

import "github.com/loomweb/loom/internal/formmodel"

// EventKind identifies the kind of DOM event fire_event delivers.
type EventKind string

const (
	EventClick  EventKind = "click"
	EventInput  EventKind = "input"
	EventChange EventKind = "change"
	EventSubmit EventKind = "submit"
	EventLoad   EventKind = "load"
	EventKeydown EventKind = "keydown"
)

// JsHost is the running script environment for one document (spec §6).
type JsHost interface {
	// Tick advances timers and animation-frame callbacks to now_ms,
	// invoking any that have come due (spec §5 "driven by the reactor
	// through a tick(now_ms) entry point").
	Tick(nowMs int64)

	// FireEvent delivers a DOM event to a script-registered listener on
	// targetID, if any is registered.
	FireEvent(targetID string, kind EventKind, payload map[string]any)

	// Dispose releases every timer, pending fetch, and open WebSocket
	// owned by this host. Called on navigation and tab close.
	Dispose()
}

// Env is the environment a JsHost is created with: DOM mutation, timers,
// fetch, dialogs, scroll, and widget-value accessors (spec §4.5's
// <script> environment list), plus a log sink for script errors (spec §7
// rule 6: script errors are isolated and logged, never fatal).
type Env interface {
	// QuerySelector resolves a CSS selector against the live document,
	// returning an opaque node ID a script can address in later calls.
	QuerySelector(selector string) (nodeID string, ok bool)

	// SetInnerHTML replaces a node's content. The host calls Rerender
	// afterward so the controller knows to re-layout.
	SetInnerHTML(nodeID string, html string)

	// SetAttribute/GetAttribute mutate/read a DOM attribute.
	SetAttribute(nodeID, name, value string)
	GetAttribute(nodeID, name string) (string, bool)

	// WidgetValue/SetWidgetValue read and write a form widget's runtime
	// value (spec §4.5's "widget-value accessors").
	WidgetValue(nodeID string) (string, bool)
	SetWidgetValue(nodeID, value string)
	WidgetRuntime(nodeID string) (*formmodel.RuntimeState, bool)

	// SetTimer schedules a one-shot (repeat=false) or repeating timer;
	// callbackID names a script-side callback the host invokes with no
	// arguments when the timer fires. ClearTimer cancels it.
	SetTimer(delayMs int64, repeat bool, callbackID string) (timerID string)
	ClearTimer(timerID string)

	// RequestAnimationFrame registers a callback for the next Tick and
	// returns a handle CancelAnimationFrame can use to withdraw it.
	RequestAnimationFrame(callbackID string) (handle string)
	CancelAnimationFrame(handle string)

	// Fetch issues an asynchronous network fetch; the host supplies a
	// callback ID the controller invokes with the response once it
	// completes on a future reactor tick (spec §5 "modeled as a callback
	// delivered on a future reactor tick").
	Fetch(method, url string, headers map[string]string, body []byte, callbackID string) (handle string)
	CancelFetch(handle string)

	// Alert, Confirm, and Prompt implement the three blocking dialog
	// primitives scripts expect; Confirm/Prompt return the user's choice.
	Alert(message string)
	Confirm(message string) bool
	Prompt(message, defaultValue string) (string, bool)

	// ScrollBy/ScrollTo move the viewport, mirroring the controller's own
	// scroll handling (spec §4.5 input routing).
	ScrollBy(dx, dy int)
	ScrollTo(x, y int)

	// Rerender asks the controller to re-layout body_html-equivalent
	// mutations accumulated since the last call (spec §4.5's
	// "rerender(body_html) callback").
	Rerender()

	// Log receives script console output and runtime errors. Per spec §7
	// rule 6, script errors are logged here and never abort layout or
	// navigation.
	Log(level, message string)

	// CredentialsGet answers a navigator.credentials.get()-equivalent call:
	// the first saved credential scoped to the document's origin, if any
	// (SPEC_FULL.md §3.3's saved-credential autofill bridge).
	CredentialsGet() (username, secret string, ok bool)

	// CredentialsStore answers navigator.credentials.store(), persisting a
	// new origin-scoped credential for future autofill.
	CredentialsStore(username, secret string)
}

// Create builds a JsHost for the given script sources and environment
// (spec §6: `create(script_list, env) → JsHost`). No real JS engine is
// wired in; Create always returns the dummy implementation, the same
// bootstrap state the teacher's llm.NewProvider was in before its real
// providers existed.
func Create(scripts []string, env Env) JsHost {
	return NewDummyHost(scripts, env)
}
