package codec

import "strings"

// unreservedForm reports whether b may appear unescaped in an
// application/x-www-form-urlencoded value (spec §6): [A-Za-z0-9-_.~].
func unreservedForm(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	}
	return false
}

// FormEncode percent-encodes s for application/x-www-form-urlencoded,
// mapping spaces to '+' as spec §6 requires.
func FormEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case unreservedForm(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigit(c >> 4))
			b.WriteByte(hexDigit(c & 0xf))
		}
	}
	return b.String()
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}

// FormDecode reverses FormEncode: '+' becomes a space, %XX becomes the
// decoded byte. Malformed escapes are passed through literally rather than
// erroring, matching the parser-layer's absorb-malformed-input policy.
func FormDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
		case '%':
			if i+2 < len(s) {
				hi, okHi := fromHex(s[i+1])
				lo, okLo := fromHex(s[i+2])
				if okHi && okLo {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
			b.WriteByte('%')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// unreservedURL reports whether b may appear unescaped in a generic
// percent-encoded URL component (RFC 3986 unreserved set, plus the
// sub-delims commonly left raw in data: URL text payloads).
func unreservedURL(b byte) bool {
	if unreservedForm(b) {
		return true
	}
	switch b {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/', '?':
		return true
	}
	return false
}

// PercentEncode percent-encodes s for use in a URL component, leaving the
// unreserved and sub-delim set untouched (unlike FormEncode, spaces become
// %20, not '+').
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedURL(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(hexDigit(c >> 4))
			b.WriteByte(hexDigit(c & 0xf))
		}
	}
	return b.String()
}

// PercentDecode reverses percent-encoding without the form '+'→' ' mapping.
func PercentDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := fromHex(s[i+1])
			lo, okLo := fromHex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
