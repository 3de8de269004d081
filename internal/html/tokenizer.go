package html

import "strings"

// TokenKind distinguishes the four token shapes the tokenizer emits (spec
// §4.2): "(open tag, close tag, self-closing tag, text)".
type TokenKind int

const (
	TokenOpenTag TokenKind = iota
	TokenCloseTag
	TokenSelfClosingTag
	TokenText
)

// Token is one scanner output unit.
type Token struct {
	Kind  TokenKind
	Tag   string // uppercase, for the three tag kinds
	Attrs []Attr
	Text  string // for TokenText
}

// tokenizer is a single-pass scanner over UTF-8 text. It never errors:
// malformed markup is consumed and passed through, per the corpus's
// absorb-and-continue parsing discipline.
type tokenizer struct {
	src      string
	pos      int
	rawUntil string // uppercase end-tag name while in raw-text mode, "" otherwise
}

func newTokenizer(src string) *tokenizer {
	return &tokenizer{src: src}
}

// next returns the next token, or ok=false at end of input.
func (t *tokenizer) next() (Token, bool) {
	if t.rawUntil != "" {
		return t.nextRawText()
	}
	if t.pos >= len(t.src) {
		return Token{}, false
	}
	if t.src[t.pos] != '<' {
		return t.nextText()
	}
	return t.nextTag()
}

func (t *tokenizer) nextText() (Token, bool) {
	start := t.pos
	for t.pos < len(t.src) && t.src[t.pos] != '<' {
		t.pos++
	}
	raw := t.src[start:t.pos]
	if raw == "" {
		return Token{}, false
	}
	return Token{Kind: TokenText, Text: decodeEntities(raw)}, true
}

// nextRawText consumes text verbatim (no entity decoding, no nested tags)
// until the matching end tag, per spec §4.2's script/style raw-text mode.
func (t *tokenizer) nextRawText() (Token, bool) {
	closeTag := "</" + strings.ToLower(t.rawUntil)
	idx := indexFold(t.src[t.pos:], closeTag)
	var text string
	if idx < 0 {
		text = t.src[t.pos:]
		t.pos = len(t.src)
	} else {
		text = t.src[t.pos : t.pos+idx]
		t.pos += idx
	}
	t.rawUntil = ""
	if text == "" {
		return t.next()
	}
	return Token{Kind: TokenText, Text: text}, true
}

func indexFold(haystack, needleLower string) int {
	lower := strings.ToLower(haystack)
	return strings.Index(lower, needleLower)
}

// nextTag handles comments, doctypes, processing instructions (all
// skipped), and open/close/self-closing element tags.
func (t *tokenizer) nextTag() (Token, bool) {
	rest := t.src[t.pos:]

	switch {
	case strings.HasPrefix(rest, "<!--"):
		t.skipComment()
		return t.next()
	case strings.HasPrefix(rest, "<!"):
		t.skipUntilGT()
		return t.next()
	case strings.HasPrefix(rest, "<?"):
		t.skipUntilGT()
		return t.next()
	case strings.HasPrefix(rest, "</"):
		return t.scanCloseTag()
	default:
		return t.scanOpenTag()
	}
}

func (t *tokenizer) skipComment() {
	end := strings.Index(t.src[t.pos:], "-->")
	if end < 0 {
		t.pos = len(t.src)
		return
	}
	t.pos += end + len("-->")
}

func (t *tokenizer) skipUntilGT() {
	end := strings.IndexByte(t.src[t.pos:], '>')
	if end < 0 {
		t.pos = len(t.src)
		return
	}
	t.pos += end + 1
}

func (t *tokenizer) scanCloseTag() (Token, bool) {
	t.pos += 2 // "</"
	start := t.pos
	for t.pos < len(t.src) && t.src[t.pos] != '>' {
		t.pos++
	}
	name := strings.TrimSpace(t.src[start:t.pos])
	if t.pos < len(t.src) {
		t.pos++ // consume '>'
	}
	if name == "" {
		return t.next()
	}
	return Token{Kind: TokenCloseTag, Tag: strings.ToUpper(name)}, true
}

func (t *tokenizer) scanOpenTag() (Token, bool) {
	t.pos++ // "<"
	start := t.pos
	for t.pos < len(t.src) && !isTagNameBoundary(t.src[t.pos]) {
		t.pos++
	}
	name := t.src[start:t.pos]
	if name == "" {
		// "<" followed by something that isn't a name at all: treat as
		// literal text rather than aborting (malformed input, absorbed).
		return Token{Kind: TokenText, Text: "<"}, true
	}

	attrs, selfClosing := t.scanAttrs()

	upper := strings.ToUpper(name)
	if rawTextElements[upper] {
		t.rawUntil = upper
	}
	if selfClosing || voidElements[upper] {
		return Token{Kind: TokenSelfClosingTag, Tag: upper, Attrs: attrs}, true
	}
	return Token{Kind: TokenOpenTag, Tag: upper, Attrs: attrs}, true
}

func isTagNameBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '>' || b == '/'
}

// scanAttrs consumes attribute pairs up to and including the closing '>',
// accepting unquoted, single-, and double-quoted values (spec §4.2).
func (t *tokenizer) scanAttrs() (attrs []Attr, selfClosing bool) {
	for t.pos < len(t.src) {
		t.skipSpace()
		if t.pos >= len(t.src) {
			break
		}
		if t.src[t.pos] == '>' {
			t.pos++
			break
		}
		if t.src[t.pos] == '/' {
			selfClosing = true
			t.pos++
			continue
		}

		nameStart := t.pos
		for t.pos < len(t.src) && !isAttrNameBoundary(t.src[t.pos]) {
			t.pos++
		}
		name := t.src[nameStart:t.pos]
		if name == "" {
			t.pos++
			continue
		}

		t.skipSpace()
		value := ""
		if t.pos < len(t.src) && t.src[t.pos] == '=' {
			t.pos++
			t.skipSpace()
			value = t.scanAttrValue()
		}
		attrs = append(attrs, Attr{Name: name, Value: decodeEntities(value)})
	}
	return attrs, selfClosing
}

func isAttrNameBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '=' || b == '>' || b == '/'
}

func (t *tokenizer) scanAttrValue() string {
	if t.pos >= len(t.src) {
		return ""
	}
	switch t.src[t.pos] {
	case '"', '\'':
		quote := t.src[t.pos]
		t.pos++
		start := t.pos
		for t.pos < len(t.src) && t.src[t.pos] != quote {
			t.pos++
		}
		value := t.src[start:t.pos]
		if t.pos < len(t.src) {
			t.pos++ // consume closing quote
		}
		return value
	default:
		start := t.pos
		for t.pos < len(t.src) && t.src[t.pos] != ' ' && t.src[t.pos] != '\t' && t.src[t.pos] != '\n' && t.src[t.pos] != '>' {
			t.pos++
		}
		return t.src[start:t.pos]
	}
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.src) && (t.src[t.pos] == ' ' || t.src[t.pos] == '\t' || t.src[t.pos] == '\n' || t.src[t.pos] == '\r') {
		t.pos++
	}
}
