package urlx

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/loomweb/loom/internal/codec"
)

// Parse parses an absolute URL string. It never errors: malformed input is
// salvaged best-effort, per the parser error-handling policy (spec §7.4) —
// unresolvable input comes back as a best-guess URL with SchemeUnknown
// rather than a propagated error.
func Parse(raw string) *URL {
	scheme, rest, ok := splitScheme(raw)
	if !ok {
		return &URL{Scheme: SchemeUnknown, Raw: raw, Path: raw}
	}

	switch scheme {
	case "http", "https":
		return parseOriginURL(scheme, rest, raw)
	case "about":
		return &URL{Scheme: SchemeAbout, Path: rest, Raw: raw}
	case "data":
		return parseDataURL(rest, raw)
	case "blob":
		return &URL{Scheme: SchemeBlob, Path: rest, Raw: raw}
	default:
		return &URL{Scheme: SchemeUnknown, Raw: raw, Path: raw}
	}
}

func splitScheme(raw string) (scheme, rest string, ok bool) {
	idx := strings.Index(raw, ":")
	if idx <= 0 {
		return "", "", false
	}
	s := raw[:idx]
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.') {
			return "", "", false
		}
	}
	return strings.ToLower(s), raw[idx+1:], true
}

func parseOriginURL(scheme, rest, raw string) *URL {
	u := &URL{Raw: raw}
	if scheme == "https" {
		u.Scheme = SchemeHTTPS
	} else {
		u.Scheme = SchemeHTTP
	}

	rest = strings.TrimPrefix(rest, "//")

	// Split off fragment, then query, then the authority+path.
	authorityAndPath := rest
	if i := strings.IndexByte(authorityAndPath, '#'); i >= 0 {
		u.Frag = authorityAndPath[i+1:]
		authorityAndPath = authorityAndPath[:i]
	}
	if i := strings.IndexByte(authorityAndPath, '?'); i >= 0 {
		u.Query = authorityAndPath[i+1:]
		authorityAndPath = authorityAndPath[:i]
	}

	authority := authorityAndPath
	path := "/"
	if i := strings.IndexByte(authorityAndPath, '/'); i >= 0 {
		authority = authorityAndPath[:i]
		path = authorityAndPath[i:]
	}
	u.Path = path

	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		if port, err := strconv.Atoi(authority[i+1:]); err == nil {
			u.Port = port
			authority = authority[:i]
		}
	}
	u.Host = authority
	return u
}

// parseDataURL parses "data:[media-type][;base64],<body>" per RFC 2397
// (spec §6).
func parseDataURL(rest, raw string) *URL {
	u := &URL{Scheme: SchemeData, Raw: raw, MediaType: "text/plain;charset=US-ASCII"}

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		// No comma: malformed; salvage as an empty body.
		u.MediaType = rest
		return u
	}
	meta := rest[:comma]
	body := rest[comma+1:]

	isBase64 := false
	if strings.HasSuffix(meta, ";base64") {
		isBase64 = true
		meta = strings.TrimSuffix(meta, ";base64")
	}
	if meta != "" {
		u.MediaType = meta
	}

	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			// Try without padding as a recovery attempt; absorb failure
			// otherwise rather than erroring (spec §7.4).
			if decoded2, err2 := base64.RawStdEncoding.DecodeString(body); err2 == nil {
				decoded = decoded2
			}
		}
		u.Body = decoded
	} else {
		u.Body = []byte(codec.PercentDecode(body))
	}
	return u
}

// Resolve joins href against base the way a browser resolves an anchor's
// href or a <link>/<script> src, implementing the three cases spec §8's
// end-to-end scenario #6 requires: relative paths, protocol-relative
// ("//host/path"), and fragment-only references.
func Resolve(base *URL, href string) *URL {
	if href == "" {
		return base
	}

	// Fragment-only reference.
	if strings.HasPrefix(href, "#") {
		cp := *base
		cp.Frag = href[1:]
		cp.Raw = ""
		return &cp
	}

	// Absolute URL (has its own scheme).
	if _, _, ok := splitScheme(href); ok && hasKnownScheme(href) {
		return Parse(href)
	}

	if base == nil || base.Opaque() {
		return Parse(href)
	}

	cp := *base
	cp.Frag = ""
	cp.Query = ""
	cp.Raw = ""

	switch {
	case strings.HasPrefix(href, "//"):
		// Protocol-relative: keep scheme, replace authority+path+query+frag.
		resolved := parseOriginURL(cp.Scheme.String(), href, "")
		resolved.Raw = ""
		return resolved
	case strings.HasPrefix(href, "/"):
		cp.Path = splitPath(href).path
		cp.Query = splitPath(href).query
		cp.Frag = splitPath(href).frag
		return &cp
	default:
		pq := splitPath(href)
		cp.Path = joinRelative(base.Path, pq.path)
		cp.Query = pq.query
		cp.Frag = pq.frag
		return &cp
	}
}

func hasKnownScheme(href string) bool {
	scheme, _, ok := splitScheme(href)
	if !ok {
		return false
	}
	switch scheme {
	case "http", "https", "about", "data", "blob":
		return true
	}
	return false
}

type pathQueryFrag struct{ path, query, frag string }

func splitPath(s string) pathQueryFrag {
	var out pathQueryFrag
	if i := strings.IndexByte(s, '#'); i >= 0 {
		out.frag = s[i+1:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		out.query = s[i+1:]
		s = s[:i]
	}
	out.path = s
	return out
}

// joinRelative resolves a relative path reference against a base path,
// applying "." and ".." segments (RFC 3986 §5.3), e.g. base "/x/y" + ".."
// + "/z" → "/z".
func joinRelative(basePath, ref string) string {
	dir := basePath
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		dir = dir[:i+1]
	} else {
		dir = "/"
	}

	combined := dir + ref
	segments := strings.Split(combined, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	result := "/" + strings.Join(out, "/")
	if strings.HasSuffix(combined, "/") && result != "/" {
		result += "/"
	}
	return result
}
