package html

import "github.com/loomweb/loom/internal/formmodel"

// Document owns the two root subtrees (spec §3.3) plus the extractions the
// tree constructor performs as a side effect (spec §4.2).
type Document struct {
	Head *Node
	Body *Node

	Forms           []formmodel.FormState
	Widgets         []formmodel.Blueprint
	Stylesheet      string // concatenated inline <style> text
	StylesheetHrefs []string
	Scripts         []string
	BaseHref        string
	FaviconHref     string
	Title           string
}

// treeBuilder drives the stack-of-open-elements construction (spec §4.2).
type treeBuilder struct {
	doc *Document

	stack          []*Node // open element stack; [0] is Head or Body
	inHead         bool
	currentFormIdx int
	inTitle        bool
	titleAccum     string
	inStyle        bool
	inScript       bool
	scriptAccum    string
}

func (tb *treeBuilder) top() *Node {
	return tb.stack[len(tb.stack)-1]
}

func (tb *treeBuilder) push(n *Node) {
	tb.top().appendChild(n)
	tb.stack = append(tb.stack, n)
}

func (tb *treeBuilder) pop() {
	if len(tb.stack) > 1 {
		tb.stack = tb.stack[:len(tb.stack)-1]
	}
}

// popTo pops elements off the stack until (and including) the nearest
// element named tag, per the HTML tree-construction "generate implied end
// tags" pattern, simplified: unmatched close tags are absorbed as no-ops
// (spec §7 absorb-malformed-input policy).
func (tb *treeBuilder) popTo(tag string) {
	for i := len(tb.stack) - 1; i >= 1; i-- {
		if tb.stack[i].TagName == tag {
			tb.stack = tb.stack[:i]
			return
		}
	}
}
