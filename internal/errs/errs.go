// Package errs defines the sentinel errors for the error taxonomy (spec
// §7): one sentinel per fatal/reportable category, so callers at the
// controller boundary can distinguish them with errors.Is rather than
// string matching. Parse errors and resource errors are deliberately
// absent — per spec §7 rules 4 and 5 they are always local and recoverable
// and never surface past the parser/layout engine that encountered them.
//
// Grounded on the teacher's internal/ws/client.go, which declares
// ErrAuthRejected as a single package-level sentinel checked by the
// caller after Run returns; this package generalizes that one-sentinel-
// per-category shape across the taxonomy spec §7 names.
package errs

import (
	"errors"
	"strconv"
)

// ErrProtocolViolation covers TLS alerts, malformed records, and
// unexpected handshake messages (spec §7 rule 1). Fatal to the
// connection; surfaced to the controller as a single "connection failed"
// reason, with the history entry retained.
var ErrProtocolViolation = errors.New("connection failed")

// ErrTransportFailed covers connect failure, recv timeout, and DNS
// failure reported by the fetch collaborator (spec §7 rule 2). The
// controller responds by showing a synthesized error page.
var ErrTransportFailed = errors.New("fetch failed")

// ErrRedirectLimitExceeded is raised when a fetch follows more than the
// five redirects spec §6 permits; treated as a transport-class failure.
var ErrRedirectLimitExceeded = errors.New("too many redirects")

// ErrScriptFault marks an error raised from within the JS host (spec §7
// rule 6). It is always logged via Env.Log and never propagated past the
// controller's script-error boundary — never returned from navigate or
// fetch.
var ErrScriptFault = errors.New("script error")

// HTTPStatusError wraps an HTTP response with status >= 400 (spec §7
// rule 3). Unlike the other sentinels, the response body is still
// rendered; this error exists only so the controller can display the
// status code in the status bar without re-deriving it from the response.
type HTTPStatusError struct {
	Status int
	URL    string
}

func (e *HTTPStatusError) Error() string {
	return "http status " + strconv.Itoa(e.Status) + ": " + e.URL
}
