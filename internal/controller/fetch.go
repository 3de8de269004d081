package controller

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Response is what the fetch collaborator returns (spec §6, Network
// boundary): "Given a URL and method + body... {status, headers,
// body_bytes, final_url}". The core depends only on Content-Type,
// Location, and the status code.
type Response struct {
	Status   int
	Headers  map[string]string
	Body     []byte
	FinalURL string
}

// Fetcher is the network boundary collaborator (spec §6). A real
// implementation dials out over TLS (internal/controller/httpfetch.go's
// TLSFetcher); tests supply an in-memory fake.
type Fetcher interface {
	Fetch(method, url string, headers map[string]string, body []byte) (Response, error)
}

// FetchState is the finite-state value the controller polls once per
// reactor tick (spec §9 "Coroutines / async" design note): "fetches should
// be modeled as a finite-state Pending → Resolved(response) | Failed(err) |
// Cancelled value."
type FetchState int

const (
	FetchPending FetchState = iota
	FetchResolved
	FetchFailed
	FetchCancelled
)

// fetchHandle tracks one in-flight, cancellable fetch (spec §5
// Cancellation: "Every outstanding fetch carries a cancellation handle").
type fetchHandle struct {
	id        string
	cancelled atomic.Bool
	mu        sync.Mutex
	state     FetchState
	response  Response
	err       error
	done      chan struct{}
}

func newFetchHandle() *fetchHandle {
	return &fetchHandle{id: uuid.NewString(), done: make(chan struct{})}
}

func (h *fetchHandle) cancel() {
	h.cancelled.Store(true)
}

func (h *fetchHandle) isCancelled() bool {
	return h.cancelled.Load()
}

// resolve records a terminal state, unless the handle was already
// cancelled — a cancelled fetch's callback is never invoked (spec §5).
func (h *fetchHandle) resolve(state FetchState, resp Response, err error) {
	if h.isCancelled() {
		h.mu.Lock()
		h.state = FetchCancelled
		h.mu.Unlock()
		close(h.done)
		return
	}
	h.mu.Lock()
	h.state = state
	h.response = resp
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Poll returns the handle's current terminal state (or FetchPending while
// in flight), draining it exactly once per spec §9's poll-once-per-tick
// model.
func (h *fetchHandle) Poll() (FetchState, Response, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.state, h.response, h.err
	default:
		return FetchPending, Response{}, nil
	}
}
