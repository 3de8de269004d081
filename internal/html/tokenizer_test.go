package html

import "testing"

func collectTokens(src string) []Token {
	tok := newTokenizer(src)
	var out []Token
	for {
		t, ok := tok.next()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}

func TestTokenizerBasicTags(t *testing.T) {
	toks := collectTokens("<p>hi</p>")
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(toks), toks)
	}
	if toks[0].Kind != TokenOpenTag || toks[0].Tag != "P" {
		t.Fatalf("unexpected first token: %+v", toks[0])
	}
	if toks[1].Kind != TokenText || toks[1].Text != "hi" {
		t.Fatalf("unexpected text token: %+v", toks[1])
	}
	if toks[2].Kind != TokenCloseTag || toks[2].Tag != "P" {
		t.Fatalf("unexpected close token: %+v", toks[2])
	}
}

func TestTokenizerVoidElementIsSelfClosing(t *testing.T) {
	toks := collectTokens(`<img src="a.png">`)
	if len(toks) != 1 || toks[0].Kind != TokenSelfClosingTag {
		t.Fatalf("expected one self-closing token, got %+v", toks)
	}
	if v, _ := attrVal(toks[0].Attrs, "src"); v != "a.png" {
		t.Fatalf("src = %q", v)
	}
}

func attrVal(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func TestTokenizerRawTextModeIgnoresTags(t *testing.T) {
	toks := collectTokens(`<script>if (a < b) { x(); }</script>`)
	var texts []string
	for _, tk := range toks {
		if tk.Kind == TokenText {
			texts = append(texts, tk.Text)
		}
	}
	if len(texts) != 1 || texts[0] != "if (a < b) { x(); }" {
		t.Fatalf("unexpected raw text capture: %+v", texts)
	}
}

func TestTokenizerSkipsComments(t *testing.T) {
	toks := collectTokens("<p><!-- comment --></p>")
	if len(toks) != 2 {
		t.Fatalf("expected comment to be skipped, got %+v", toks)
	}
}

func TestTokenizerAttributeQuoteStyles(t *testing.T) {
	toks := collectTokens(`<div a="x" b='y' c=z>`)
	if len(toks) != 1 {
		t.Fatalf("expected 1 token, got %+v", toks)
	}
	a, _ := attrVal(toks[0].Attrs, "a")
	b, _ := attrVal(toks[0].Attrs, "b")
	c, _ := attrVal(toks[0].Attrs, "c")
	if a != "x" || b != "y" || c != "z" {
		t.Fatalf("attrs = %q %q %q", a, b, c)
	}
}

func TestDecodeEntities(t *testing.T) {
	cases := map[string]string{
		"a &amp; b":  "a & b",
		"&lt;x&gt;":  "<x>",
		"&#39;":      "'",
		"&#x41;":     "A",
		"&nbsp;":     " ",
		"&unknown;":  "&unknown;",
	}
	for in, want := range cases {
		if got := decodeEntities(in); got != want {
			t.Errorf("decodeEntities(%q) = %q, want %q", in, got, want)
		}
	}
}
