package html

import (
	"strings"

	"github.com/loomweb/loom/internal/formmodel"
)

// Parse tokenizes and tree-constructs src into a Document (spec §4.2).
// Malformed markup is absorbed; Parse never errors.
func Parse(src string) *Document {
	head := &Node{Kind: NodeFragment, TagName: "HEAD"}
	body := &Node{Kind: NodeFragment, TagName: "BODY"}
	doc := &Document{Head: head, Body: body}

	tb := &treeBuilder{stack: []*Node{body}, currentFormIdx: -1}

	tok := newTokenizer(src)
	for {
		t, ok := tok.next()
		if !ok {
			break
		}
		tb.handle(doc, t)
	}
	return doc
}

func (tb *treeBuilder) handle(doc *Document, t Token) {
	switch t.Kind {
	case TokenText:
		tb.handleText(doc, t)
	case TokenOpenTag:
		tb.handleOpenTag(doc, t)
	case TokenSelfClosingTag:
		tb.handleSelfClosingOrVoid(doc, t)
	case TokenCloseTag:
		tb.handleCloseTag(doc, t)
	}
}

func (tb *treeBuilder) handleText(doc *Document, t Token) {
	switch {
	case tb.inTitle:
		tb.titleAccum += t.Text
		doc.Title = strings.TrimSpace(tb.titleAccum)
	case tb.inStyle:
		doc.Stylesheet += t.Text
	case tb.inScript:
		tb.scriptAccum += t.Text
	default:
		n := &Node{Kind: NodeText, Text: t.Text}
		tb.top().appendChild(n)
	}
}

func (tb *treeBuilder) handleOpenTag(doc *Document, t Token) {
	switch t.Tag {
	case "HTML", "BODY":
		return // implicit wrapper; not inserted as its own node (spec §4.2)
	case "HEAD":
		tb.inHead = true
		return
	case "TITLE":
		tb.inTitle = true
		tb.titleAccum = ""
		return
	case "STYLE":
		tb.inStyle = true
		return
	case "SCRIPT":
		tb.inScript = true
		tb.scriptAccum = ""
		return
	case "FORM":
		n := newElement(t.Tag)
		setAttrsAndCaches(n, t.Attrs)
		tb.push(n)
		action, _ := n.Attr("action")
		method, _ := n.Attr("method")
		if method == "" {
			method = "GET"
		}
		enctype, _ := n.Attr("enctype")
		doc.Forms = append(doc.Forms, formmodel.FormState{
			Action:  action,
			Method:  strings.ToUpper(method),
			Enctype: enctype,
		})
		tb.currentFormIdx = len(doc.Forms) - 1
		return
	}

	n := newElement(t.Tag)
	setAttrsAndCaches(n, t.Attrs)
	tb.extract(doc, n)
	tb.push(n)
}

func (tb *treeBuilder) handleSelfClosingOrVoid(doc *Document, t Token) {
	n := newElement(t.Tag)
	setAttrsAndCaches(n, t.Attrs)
	tb.extract(doc, n)
	tb.top().appendChild(n)
}

func (tb *treeBuilder) handleCloseTag(doc *Document, t Token) {
	switch t.Tag {
	case "HTML", "BODY":
		return
	case "HEAD":
		tb.inHead = false
		return
	case "TITLE":
		tb.inTitle = false
		return
	case "STYLE":
		tb.inStyle = false
		return
	case "SCRIPT":
		tb.inScript = false
		if s := strings.TrimSpace(tb.scriptAccum); s != "" {
			doc.Scripts = append(doc.Scripts, tb.scriptAccum)
		}
		return
	case "FORM":
		tb.popTo("FORM")
		tb.currentFormIdx = -1
		return
	}
	tb.popTo(t.Tag)
}

// extract performs the side-effect extractions spec §4.2 names: forms
// (handled in handleOpenTag), widgets, stylesheet hrefs, scripts, base
// href, and favicon href.
func (tb *treeBuilder) extract(doc *Document, n *Node) {
	switch n.TagName {
	case "INPUT", "TEXTAREA", "SELECT", "BUTTON":
		doc.Widgets = append(doc.Widgets, blueprintFor(n, tb.currentFormIdx))
	case "LINK":
		rel, _ := n.Attr("rel")
		href, _ := n.Attr("href")
		switch strings.ToLower(rel) {
		case "stylesheet":
			doc.StylesheetHrefs = append(doc.StylesheetHrefs, href)
		case "icon", "shortcut icon":
			doc.FaviconHref = href
		}
	case "BASE":
		if href, ok := n.Attr("href"); ok {
			doc.BaseHref = href
		}
	}
}

func blueprintFor(n *Node, formIdx int) formmodel.Blueprint {
	name, _ := n.Attr("name")
	switch n.TagName {
	case "TEXTAREA":
		return formmodel.Blueprint{Kind: formmodel.WidgetTextarea, Name: name, FormIndex: formIdx}
	case "SELECT":
		return formmodel.Blueprint{Kind: formmodel.WidgetSelect, Name: name, FormIndex: formIdx}
	case "BUTTON":
		typ, _ := n.Attr("type")
		if strings.EqualFold(typ, "submit") || typ == "" {
			return formmodel.Blueprint{Kind: formmodel.WidgetSubmit, Name: name, FormIndex: formIdx}
		}
		return formmodel.Blueprint{Kind: formmodel.WidgetButton, Name: name, FormIndex: formIdx}
	default: // INPUT
		typ, _ := n.Attr("type")
		value, _ := n.Attr("value")
		kind := formmodel.WidgetTextInput
		switch strings.ToLower(typ) {
		case "password":
			kind = formmodel.WidgetPassword
		case "checkbox":
			kind = formmodel.WidgetCheckbox
		case "radio":
			kind = formmodel.WidgetRadio
		case "submit":
			kind = formmodel.WidgetSubmit
		case "button":
			kind = formmodel.WidgetButton
		}
		return formmodel.Blueprint{Kind: kind, Name: name, DefaultValue: value, FormIndex: formIdx}
	}
}

// ParseOptions builds a SELECT element's option list from its child
// <option> elements (each option's value attribute, else its text). Parse
// does not call it, so the SELECT blueprints Parse records carry no
// Options.
func ParseOptions(selectNode *Node) []string {
	var opts []string
	for _, c := range selectNode.Children {
		if c.Kind == NodeElement && c.TagName == "OPTION" {
			if v, ok := c.Attr("value"); ok {
				opts = append(opts, v)
			} else {
				opts = append(opts, textContent(c))
			}
		}
	}
	return opts
}

func textContent(n *Node) string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind == NodeText {
			b.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
