package controller

import (
	"strings"

	"github.com/loomweb/loom/internal/layout"
)

// findHit is one matched span, addressed by its position in the current
// LayoutResult so scroll-into-view and highlighting can find it again
// after the user moves between hits (spec §8 scenario 4).
type findHit struct {
	lineIdx int
	spanIdx int
}

// findState is the find-in-page bar's live state, owned by Tab. It is
// re-derived from scratch on every query change rather than kept
// incrementally in sync with layout — find-in-page is cheap enough
// (a linear scan of rendered spans) that incremental maintenance would
// only add bugs (spec §4.4 "Find-in-page").
type findState struct {
	open    bool
	query   string
	hits    []findHit
	current int
}

// OpenFind shows the find bar for t, seeding it with the tab's last query.
func (c *Controller) OpenFind(t *Tab) {
	t.find.open = true
}

// CloseFind hides the find bar and clears highlighting.
func (c *Controller) CloseFind(t *Tab) {
	t.find.open = false
	t.find.hits = nil
	clearSearchHits(t.Layout)
}

// SetFindQuery re-scans the tab's rendered spans for query (lowercased
// substring match, spec §4.4) and highlights the first hit.
func (c *Controller) SetFindQuery(t *Tab, query string) {
	t.find.query = query
	t.find.current = 0
	t.find.hits = nil
	clearSearchHits(t.Layout)
	if query == "" || t.Layout == nil {
		return
	}
	lower := strings.ToLower(query)
	for li, line := range t.Layout.Lines {
		for si, span := range line.Spans {
			if strings.Contains(strings.ToLower(span.Text), lower) {
				t.find.hits = append(t.find.hits, findHit{lineIdx: li, spanIdx: si})
			}
		}
	}
	c.highlightCurrentHit(t)
}

// FindNext and FindPrev cycle through hits, wrapping at either end (spec
// §8 scenario 4: "n advances find_cur from 0 → 1; n again wraps to 0").
func (c *Controller) FindNext(t *Tab) {
	if len(t.find.hits) == 0 {
		return
	}
	t.find.current = (t.find.current + 1) % len(t.find.hits)
	c.highlightCurrentHit(t)
}

func (c *Controller) FindPrev(t *Tab) {
	if len(t.find.hits) == 0 {
		return
	}
	t.find.current = (t.find.current - 1 + len(t.find.hits)) % len(t.find.hits)
	c.highlightCurrentHit(t)
}

// highlightCurrentHit marks every matched span's SearchHit flag and scrolls
// the current hit into view.
func (c *Controller) highlightCurrentHit(t *Tab) {
	clearSearchHits(t.Layout)
	if len(t.find.hits) == 0 || t.Layout == nil {
		return
	}
	for _, h := range t.find.hits {
		t.Layout.Lines[h.lineIdx].Spans[h.spanIdx].SearchHit = true
	}
	cur := t.find.hits[t.find.current]
	line := t.Layout.Lines[cur.lineIdx]
	if line.Y < t.ScrollY {
		t.ScrollY = line.Y
	} else if line.Y+line.Height > t.ScrollY+c.ViewportHeight {
		t.ScrollY = line.Y + line.Height - c.ViewportHeight
	}
}

// clearSearchHits resets every span's SearchHit flag, a no-op when lr is
// nil (a tab with no layout yet, e.g. mid-navigation).
func clearSearchHits(lr *layout.LayoutResult) {
	if lr == nil {
		return
	}
	for li := range lr.Lines {
		for si := range lr.Lines[li].Spans {
			lr.Lines[li].Spans[si].SearchHit = false
		}
	}
}
