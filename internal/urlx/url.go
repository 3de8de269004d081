// Package urlx implements the URL data model and resolver (spec §3.1,
// §4.?): absolute/relative joining and scheme dispatch for http, https,
// about, data, and blob. This is hand-rolled rather than built on net/url
// because the spec's scheme set (about:, data:, blob:) and its
// opaque-vs-origin-ful distinction have no analogue in net/url, and no pack
// example imports a URL library that models this — the closest match,
// net/url itself, treats every scheme generically and would force the
// custom dispatch logic back out into a second layer anyway (see
// DESIGN.md).
package urlx

import "strings"

// Scheme is the closed set of schemes the core understands.
type Scheme int

const (
	SchemeUnknown Scheme = iota
	SchemeHTTP
	SchemeHTTPS
	SchemeAbout
	SchemeData
	SchemeBlob
)

func (s Scheme) String() string {
	switch s {
	case SchemeHTTP:
		return "http"
	case SchemeHTTPS:
		return "https"
	case SchemeAbout:
		return "about"
	case SchemeData:
		return "data"
	case SchemeBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// URL is the core's URL value (spec §3.1).
type URL struct {
	Scheme Scheme
	Host   string
	Port   int
	Path   string
	Query  string
	Frag   string

	// data: payload
	MediaType string
	Body      []byte // decoded bytes (base64) or raw text bytes

	// Raw is the original string this URL was parsed from, used for
	// display and for blob: lookups.
	Raw string
}

// Opaque reports whether the URL is opaque (about/data/blob) rather than
// origin-ful (http/https). Only origin-ful URLs are ever handed to the
// network stack (spec §3.1 invariant).
func (u *URL) Opaque() bool {
	return u.Scheme == SchemeAbout || u.Scheme == SchemeData || u.Scheme == SchemeBlob
}

// Origin returns the (scheme, host, port) triple used for cache and cookie
// partitioning. Opaque URLs have no origin.
func (u *URL) Origin() string {
	if u.Opaque() {
		return ""
	}
	return u.Scheme.String() + "://" + u.Host + ":" + portOrDefault(u)
}

func portOrDefault(u *URL) string {
	if u.Port != 0 {
		return itoa(u.Port)
	}
	if u.Scheme == SchemeHTTPS {
		return "443"
	}
	return "80"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// String reconstructs a displayable form of the URL.
func (u *URL) String() string {
	if u.Raw != "" {
		return u.Raw
	}
	var b strings.Builder
	b.WriteString(u.Scheme.String())
	b.WriteString("://")
	b.WriteString(u.Host)
	if u.Port != 0 {
		b.WriteByte(':')
		b.WriteString(itoa(u.Port))
	}
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Frag != "" {
		b.WriteByte('#')
		b.WriteString(u.Frag)
	}
	return b.String()
}
