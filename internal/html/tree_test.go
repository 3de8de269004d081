package html

import "testing"

func TestParseMinimalDocument(t *testing.T) {
	doc := Parse(`<html><head><title>Hi</title></head><body><p class="a">hello <b>world</b></p></body></html>`)
	if doc.Title != "Hi" {
		t.Fatalf("Title = %q", doc.Title)
	}
	if len(doc.Body.Children) != 1 || doc.Body.Children[0].TagName != "P" {
		t.Fatalf("unexpected body children: %+v", doc.Body.Children)
	}
	p := doc.Body.Children[0]
	if !p.HasClass("a") {
		t.Fatal("expected p.a")
	}
	if len(p.Children) != 2 {
		t.Fatalf("expected text + <b>, got %d children", len(p.Children))
	}
}

func TestParseFormAndWidgets(t *testing.T) {
	doc := Parse(`<form action="/s" method="get"><input name="q" value="x"><input type="checkbox" name="c" checked></form>`)
	if len(doc.Forms) != 1 || doc.Forms[0].Action != "/s" || doc.Forms[0].Method != "GET" {
		t.Fatalf("unexpected forms: %+v", doc.Forms)
	}
	if len(doc.Widgets) != 2 {
		t.Fatalf("expected 2 widgets, got %d", len(doc.Widgets))
	}
	if doc.Widgets[0].Name != "q" || doc.Widgets[0].DefaultValue != "x" {
		t.Fatalf("widget 0 = %+v", doc.Widgets[0])
	}
	if doc.Widgets[1].FormIndex != 0 {
		t.Fatalf("widget 1 form index = %d", doc.Widgets[1].FormIndex)
	}
}

func TestParseExtractions(t *testing.T) {
	doc := Parse(`<head><base href="https://a.example/"><link rel="stylesheet" href="s.css"><link rel="icon" href="f.ico"><style>p{color:red}</style></head><body><script>var x=1;</script></body>`)
	if doc.BaseHref != "https://a.example/" {
		t.Fatalf("BaseHref = %q", doc.BaseHref)
	}
	if len(doc.StylesheetHrefs) != 1 || doc.StylesheetHrefs[0] != "s.css" {
		t.Fatalf("StylesheetHrefs = %+v", doc.StylesheetHrefs)
	}
	if doc.FaviconHref != "f.ico" {
		t.Fatalf("FaviconHref = %q", doc.FaviconHref)
	}
	if doc.Stylesheet != "p{color:red}" {
		t.Fatalf("Stylesheet = %q", doc.Stylesheet)
	}
	if len(doc.Scripts) != 1 || doc.Scripts[0] != "var x=1;" {
		t.Fatalf("Scripts = %+v", doc.Scripts)
	}
}

func TestParseVoidElementsDoNotNest(t *testing.T) {
	doc := Parse(`<p>line1<br>line2</p>`)
	p := doc.Body.Children[0]
	if len(p.Children) != 3 {
		t.Fatalf("expected text, br, text; got %d children: %+v", len(p.Children), p.Children)
	}
	if p.Children[1].TagName != "BR" {
		t.Fatalf("expected BR at index 1, got %+v", p.Children[1])
	}
}

func TestResolvePseudoContent(t *testing.T) {
	n := newElement("A")
	setAttrsAndCaches(n, []Attr{{Name: "href", Value: "x.html"}})
	counters := NewCounterSet()
	counters.Increment("item", 1)

	got := ResolvePseudoContent(n, `open-quote "note: " attr(href) counter(item) close-quote`, counters)
	want := `"note: x.html1"`
	if got != want {
		t.Fatalf("ResolvePseudoContent = %q, want %q", got, want)
	}
}
