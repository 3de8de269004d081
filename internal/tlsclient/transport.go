// Package tlsclient implements a minimal TLS 1.3 client (spec §4.1):
// record layer, handshake state machine, key schedule, AEAD dispatch, and a
// session ticket cache, sitting directly above a raw byte-stream transport.
// Grounded on the teacher's internal/auth package (X25519 + HKDF + AEAD key
// derivation, same crypto/ecdh + golang.org/x/crypto/hkdf combination,
// generalized here from one fixed derivation into the full TLS 1.3 key
// schedule) and internal/relay/session_cache.go (expiring map-backed cache
// shape, adapted for ticket storage instead of session-token validation).
package tlsclient

import "time"

// Transport is the raw byte-stream collaborator TLS sits above (spec §5,
// "below TLS"): one outbound TCP-like connection, owned and driven entirely
// by the caller. The core never retries or redials at this layer.
type Transport interface {
	// Send writes b in full or returns an error.
	Send(b []byte) error
	// Recv waits up to timeout for more bytes. A nil, nil return means the
	// timeout elapsed with nothing available — not an error.
	Recv(timeout time.Duration) ([]byte, error)
	Close() error
}
