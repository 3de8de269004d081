package controller

import "testing"

func TestFindLocatesAndCyclesHits(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>aaa bbb aaa ccc</p>")

	c.OpenFind(tab)
	c.SetFindQuery(tab, "aaa")
	if len(tab.find.hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(tab.find.hits))
	}
	if tab.find.current != 0 {
		t.Fatalf("initial current = %d, want 0", tab.find.current)
	}

	c.FindNext(tab)
	if tab.find.current != 1 {
		t.Fatalf("current after FindNext = %d, want 1", tab.find.current)
	}

	c.FindNext(tab)
	if tab.find.current != 0 {
		t.Fatalf("current after wrapping FindNext = %d, want 0", tab.find.current)
	}
}

func TestFindCloseClearsHighlighting(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>needle needle</p>")
	c.OpenFind(tab)
	c.SetFindQuery(tab, "needle")

	c.CloseFind(tab)
	if tab.find.open {
		t.Error("expected find bar to be closed")
	}
	for _, line := range tab.Layout.Lines {
		for _, span := range line.Spans {
			if span.SearchHit {
				t.Error("expected no spans to remain highlighted after CloseFind")
			}
		}
	}
}

func TestFindEmptyQueryClearsHits(t *testing.T) {
	c, _ := setupController(t)
	tab := c.ActiveTab()
	c.Navigate(tab, "data:text/html,<p>abc abc</p>")
	c.OpenFind(tab)
	c.SetFindQuery(tab, "abc")
	if len(tab.find.hits) == 0 {
		t.Fatal("expected hits for non-empty query")
	}
	c.SetFindQuery(tab, "")
	if len(tab.find.hits) != 0 {
		t.Errorf("len(hits) after empty query = %d, want 0", len(tab.find.hits))
	}
}
