package css

import (
	"math"
	"testing"

	"github.com/loomweb/loom/internal/html"
)

func TestParseBasicRule(t *testing.T) {
	rules := Parse(`p { color: red; font-size: 12px; }`, NewVarRegistry())
	if len(rules) != 1 {
		t.Fatalf("want 1 rule, got %d", len(rules))
	}
	if rules[0].Declarations["color"] != "red" {
		t.Fatalf("color = %q", rules[0].Declarations["color"])
	}
	if len(rules[0].Selectors) != 1 || rules[0].Selectors[0].Compounds[0][0].name != "P" {
		t.Fatalf("unexpected selector parse: %+v", rules[0].Selectors)
	}
}

func TestParseSkipsAtRulesAndFlattensMedia(t *testing.T) {
	src := `
	@charset "utf-8";
	@import url(foo.css);
	@media (min-width: 10px) {
		div { color: blue; }
	}
	`
	rules := Parse(src, NewVarRegistry())
	if len(rules) != 1 {
		t.Fatalf("want 1 rule flattened out of @media, got %d", len(rules))
	}
	if rules[0].Declarations["color"] != "blue" {
		t.Fatalf("color = %q", rules[0].Declarations["color"])
	}
}

func TestParseImportantAndCustomProperties(t *testing.T) {
	reg := NewVarRegistry()
	src := `:root { --brand: teal; } p { color: var(--brand, black) !important; }`
	rules := Parse(src, reg)
	var pRule *Rule
	for i := range rules {
		if len(rules[i].Declarations) == 0 && len(rules[i].Important) == 0 {
			continue
		}
		if len(rules[i].Important) > 0 {
			pRule = &rules[i]
		}
	}
	if pRule == nil {
		t.Fatalf("expected a rule with !important declarations")
	}
	if pRule.Important["color"] != "teal" {
		t.Fatalf("color = %q, want teal (resolved from --brand)", pRule.Important["color"])
	}
}

func TestParseSelectorList(t *testing.T) {
	rules := Parse(`h1, h2.big { color: red; }`, NewVarRegistry())
	if len(rules) != 1 || len(rules[0].Selectors) != 2 {
		t.Fatalf("want 1 rule with 2 selectors, got %+v", rules)
	}
}

func buildSimpleTree() *html.Node {
	doc := html.Parse(`<body><p class="x">hello</p></body>`)
	var p *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Kind == html.NodeElement && n.TagName == "P" {
			p = n
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(doc.Body)
	return p
}

// TestCascadeOrderScenario validates the cascade-order example: a bare type
// selector, a more specific class selector, a later !important type rule,
// and an inline declaration, should resolve to the !important value.
func TestCascadeOrderScenario(t *testing.T) {
	src := `p { color: red; } p.x { color: blue; } p { color: green !important; }`
	rules := Parse(src, NewVarRegistry())
	idx := NewRuleIndex(rules)

	p := buildSimpleTree()
	p.Attrs = append(p.Attrs, html.Attr{Name: "style", Value: "color: yellow"})

	computed := ComputeStyle(p, StyleBag{}, idx, nil)
	if computed["color"] != "green" {
		t.Fatalf("color = %q, want green (sheet !important beats inline non-important)", computed["color"])
	}
}

func TestCascadeInlineBeatsSheetWhenNoImportant(t *testing.T) {
	src := `p { color: red; }`
	rules := Parse(src, NewVarRegistry())
	idx := NewRuleIndex(rules)

	p := buildSimpleTree()
	p.Attrs = append(p.Attrs, html.Attr{Name: "style", Value: "color: yellow"})

	computed := ComputeStyle(p, StyleBag{}, idx, nil)
	if computed["color"] != "yellow" {
		t.Fatalf("color = %q, want yellow (inline beats non-important sheet rule)", computed["color"])
	}
}

func TestCascadeSpecificityOrdersSheetRules(t *testing.T) {
	src := `p { color: red; } p.x { color: blue; }`
	rules := Parse(src, NewVarRegistry())
	idx := NewRuleIndex(rules)

	p := buildSimpleTree()
	computed := ComputeStyle(p, StyleBag{}, idx, nil)
	if computed["color"] != "blue" {
		t.Fatalf("color = %q, want blue (class selector outranks bare type)", computed["color"])
	}
}

func TestCascadeInheritance(t *testing.T) {
	parent := StyleBag{"color": "red", "font-size": "10px", "cursor": "pointer"}
	idx := NewRuleIndex(nil)
	p := buildSimpleTree()
	computed := ComputeStyle(p, parent, idx, nil)
	if computed["color"] != "red" || computed["font-size"] != "10px" {
		t.Fatalf("expected inherited color/font-size, got %+v", computed)
	}
}

func TestComputeStyleIgnoresPseudoElementRules(t *testing.T) {
	src := `p { color: red; } p::before { color: blue; content: "» "; }`
	rules := Parse(src, NewVarRegistry())
	idx := NewRuleIndex(rules)

	p := buildSimpleTree()
	computed := ComputeStyle(p, StyleBag{}, idx, nil)
	if computed["color"] != "red" {
		t.Fatalf("color = %q, want red (a ::before rule must not style the host element)", computed["color"])
	}
	if _, ok := computed["content"]; ok {
		t.Fatalf("host element style picked up a content declaration meant for ::before: %+v", computed)
	}
}

func TestComputePseudoStyleResolvesBeforeAndAfter(t *testing.T) {
	src := `p::before { content: "« "; color: blue; } p::after { content: " »"; }`
	rules := Parse(src, NewVarRegistry())
	idx := NewRuleIndex(rules)

	p := buildSimpleTree()

	before, ok := ComputePseudoStyle(p, idx, nil, "before")
	if !ok {
		t.Fatal("expected a ::before rule to match")
	}
	if before["content"] != `"« "` && before["content"] != "« " {
		t.Errorf("before content = %q", before["content"])
	}
	if before["color"] != "blue" {
		t.Errorf("before color = %q, want blue", before["color"])
	}

	after, ok := ComputePseudoStyle(p, idx, nil, "after")
	if !ok {
		t.Fatal("expected a ::after rule to match")
	}
	if after["content"] == "" {
		t.Error("after content is empty")
	}

	if _, ok := ComputePseudoStyle(p, idx, nil, "first-line"); ok {
		t.Error("no ::first-line rule was declared; expected ok=false")
	}
}

func TestSelectorAttributeForms(t *testing.T) {
	doc := html.Parse(`<body><a href="https://example.com/page" class="ext" data-x="foo bar baz"></a></body>`)
	var a *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Kind == html.NodeElement && n.TagName == "A" {
			a = n
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(doc.Body)

	cases := []struct {
		sel  string
		want bool
	}{
		{`a[href]`, true},
		{`a[href^="https://"]`, true},
		{`a[href$="page"]`, true},
		{`a[href*="example"]`, true},
		{`a[data-x~="bar"]`, true},
		{`a[data-x~="nope"]`, false},
		{`a.ext`, true},
		{`a.missing`, false},
	}
	for _, c := range cases {
		got := Matches(ParseSelector(c.sel), a, nil)
		if got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.sel, got, c.want)
		}
	}
}

func TestSelectorStructuralPseudos(t *testing.T) {
	doc := html.Parse(`<body><ul><li>a</li><li>b</li><li>c</li></ul></body>`)
	var items []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Kind == html.NodeElement && n.TagName == "LI" {
			items = append(items, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(doc.Body)
	if len(items) != 3 {
		t.Fatalf("want 3 <li>, got %d", len(items))
	}
	if !Matches(ParseSelector("li:first-child"), items[0], nil) {
		t.Error("first item should match :first-child")
	}
	if !Matches(ParseSelector("li:last-child"), items[2], nil) {
		t.Error("last item should match :last-child")
	}
	if !Matches(ParseSelector("li:nth-child(2)"), items[1], nil) {
		t.Error("second item should match :nth-child(2)")
	}
	if !Matches(ParseSelector("li:nth-child(odd)"), items[0], nil) {
		t.Error("first item should match :nth-child(odd)")
	}
}

func TestSelectorCombinators(t *testing.T) {
	doc := html.Parse(`<body><div><p class="a"></p><p class="b"></p></div></body>`)
	var a, b *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Kind == html.NodeElement && n.TagName == "P" {
			if n.HasClass("a") {
				a = n
			}
			if n.HasClass("b") {
				b = n
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(doc.Body)

	if !Matches(ParseSelector("div p"), a, nil) {
		t.Error("descendant combinator should match")
	}
	if !Matches(ParseSelector("div > p"), a, nil) {
		t.Error("child combinator should match")
	}
	if !Matches(ParseSelector("p.a + p"), b, nil) {
		t.Error("adjacent sibling combinator should match")
	}
	if !Matches(ParseSelector("p.a ~ p"), b, nil) {
		t.Error("general sibling combinator should match")
	}
}

func TestSelectorLogicalPseudos(t *testing.T) {
	doc := html.Parse(`<body><p class="a"></p><p class="b"></p></body>`)
	var a, b *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Kind == html.NodeElement && n.TagName == "P" {
			if n.HasClass("a") {
				a = n
			}
			if n.HasClass("b") {
				b = n
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(doc.Body)

	if !Matches(ParseSelector("p:not(.b)"), a, nil) {
		t.Error(":not(.b) should match p.a")
	}
	if Matches(ParseSelector("p:not(.b)"), b, nil) {
		t.Error(":not(.b) should not match p.b")
	}
	if !Matches(ParseSelector("p:is(.a, .b)"), b, nil) {
		t.Error(":is(.a, .b) should match p.b")
	}
}

func TestResolveLengthUnits(t *testing.T) {
	ctx := LengthContext{FontSizePx: 16, RootFontSizePx: 16, ViewportWidth: 800, ViewportHeight: 600, CharWidthPx: 8}
	cases := map[string]float64{
		"10px": 10,
		"2em":  32,
		"2rem": 32,
		"1pt":  96.0 / 72.0,
		"50vw": 400,
		"50vh": 300,
		"4ch":  32,
		"50%":  50,
	}
	for expr, want := range cases {
		got := ResolveLength(expr, ctx)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("ResolveLength(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestResolveLengthCalc(t *testing.T) {
	ctx := LengthContext{FontSizePx: 16, RootFontSizePx: 16}
	got := ResolveLength("calc(10px + 2em)", ctx)
	if math.Abs(got-42) > 1e-9 {
		t.Fatalf("calc(10px + 2em) = %v, want 42", got)
	}
	got = ResolveLength("calc(100px / 4)", ctx)
	if math.Abs(got-25) > 1e-9 {
		t.Fatalf("calc(100px / 4) = %v, want 25", got)
	}
}

func TestResolveLengthMinMaxClamp(t *testing.T) {
	ctx := LengthContext{}
	if got := ResolveLength("min(10px, 20px)", ctx); got != 10 {
		t.Errorf("min = %v, want 10", got)
	}
	if got := ResolveLength("max(10px, 20px)", ctx); got != 20 {
		t.Errorf("max = %v, want 20", got)
	}
	if got := ResolveLength("clamp(10px, 5px, 20px)", ctx); got != 10 {
		t.Errorf("clamp low = %v, want 10", got)
	}
	if got := ResolveLength("clamp(10px, 30px, 20px)", ctx); got != 20 {
		t.Errorf("clamp high = %v, want 20", got)
	}
}

func TestResolveLengthUnrecognizedYieldsNaN(t *testing.T) {
	got := ResolveLength("fit-content", LengthContext{})
	if !math.IsNaN(got) {
		t.Fatalf("got %v, want NaN", got)
	}
}

func TestVarRegistryFallback(t *testing.T) {
	reg := NewVarRegistry()
	got := reg.ResolveVars("var(--missing, salmon)")
	if got != "salmon" {
		t.Fatalf("got %q, want fallback salmon", got)
	}
	reg.Set("--accent", "coral")
	got = reg.ResolveVars("var(--accent, salmon)")
	if got != "coral" {
		t.Fatalf("got %q, want registered coral", got)
	}
}

func TestRuleIndexBucketing(t *testing.T) {
	rules := Parse(`#hero{color:red} .card{color:blue} div{color:green} *{color:black}`, NewVarRegistry())
	idx := NewRuleIndex(rules)
	n := &html.Node{Kind: html.NodeElement, TagName: "DIV", ID: "hero", Classes: []string{"card"}}
	candidates := idx.Candidates(n)
	if len(candidates) != 4 {
		t.Fatalf("want 4 candidates (id+class+tag+universal), got %d", len(candidates))
	}
}
