package urlx

import "testing"

func TestParseOriginURL(t *testing.T) {
	u := Parse("https://a.example/x/y?q=1#frag")
	if u.Scheme != SchemeHTTPS || u.Host != "a.example" || u.Path != "/x/y" || u.Query != "q=1" || u.Frag != "frag" {
		t.Fatalf("unexpected parse: %+v", u)
	}
	if u.Opaque() {
		t.Fatal("http(s) URL must not be opaque")
	}
	if got, want := u.Origin(), "https://a.example:443"; got != want {
		t.Fatalf("Origin() = %q, want %q", got, want)
	}
}

func TestParseWithExplicitPort(t *testing.T) {
	u := Parse("http://h:8080/s")
	if u.Host != "h" || u.Port != 8080 {
		t.Fatalf("unexpected parse: %+v", u)
	}
	if got, want := u.Origin(), "http://h:8080"; got != want {
		t.Fatalf("Origin() = %q, want %q", got, want)
	}
}

func TestParseAbout(t *testing.T) {
	u := Parse("about:blank")
	if u.Scheme != SchemeAbout || !u.Opaque() || u.Path != "blank" {
		t.Fatalf("unexpected parse: %+v", u)
	}
}

func TestParseDataURLBase64(t *testing.T) {
	u := Parse("data:text/plain;base64,aGVsbG8=")
	if u.Scheme != SchemeData || u.MediaType != "text/plain" || string(u.Body) != "hello" {
		t.Fatalf("unexpected parse: %+v body=%q", u, u.Body)
	}
}

func TestParseDataURLPlain(t *testing.T) {
	u := Parse("data:,hello%20world")
	if string(u.Body) != "hello world" {
		t.Fatalf("body = %q", u.Body)
	}
}

func TestResolveRelativeDotDot(t *testing.T) {
	base := Parse("https://a.example/x/y")
	got := Resolve(base, "../z")
	if want := "https://a.example/z"; got.String() != want {
		t.Fatalf("Resolve = %q, want %q", got.String(), want)
	}
}

func TestResolveProtocolRelative(t *testing.T) {
	base := Parse("https://a.example/x/y")
	got := Resolve(base, "//b.example/q")
	if want := "https://b.example/q"; got.String() != want {
		t.Fatalf("Resolve = %q, want %q", got.String(), want)
	}
}

func TestResolveFragmentOnly(t *testing.T) {
	base := Parse("https://a.example/x/y")
	got := Resolve(base, "#top")
	if want := "https://a.example/x/y#top"; got.String() != want {
		t.Fatalf("Resolve = %q, want %q", got.String(), want)
	}
}

func TestResolveAbsolutePath(t *testing.T) {
	base := Parse("https://a.example/x/y")
	got := Resolve(base, "/z/w")
	if want := "https://a.example/z/w"; got.String() != want {
		t.Fatalf("Resolve = %q, want %q", got.String(), want)
	}
}

func TestResolveAbsoluteURL(t *testing.T) {
	base := Parse("https://a.example/x/y")
	got := Resolve(base, "https://c.example/p")
	if want := "https://c.example/p"; got.String() != want {
		t.Fatalf("Resolve = %q, want %q", got.String(), want)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	u := RegisterBlob("image/png", []byte{1, 2, 3})
	if u.Scheme != SchemeBlob || !u.Opaque() {
		t.Fatalf("unexpected blob URL: %+v", u)
	}
	mt, body, ok := LookupBlob(u.Path)
	if !ok || mt != "image/png" || len(body) != 3 {
		t.Fatalf("LookupBlob = %q %v %v", mt, body, ok)
	}
	RevokeBlob(u.Path)
	if _, _, ok := LookupBlob(u.Path); ok {
		t.Fatal("expected blob to be revoked")
	}
}
