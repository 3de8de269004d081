package store

import "time"

// HistoryEntry is one persisted navigation-history row for a tab, mirroring
// the in-memory HistoryEntry the controller's Tab.History keeps (spec §3.7).
type HistoryEntry struct {
	Seq       int
	URL       string
	Title     string
	VisitedAt time.Time
}

// AppendHistory records a new history entry at the end of tabID's
// sequence, matching the controller's "appends to history (truncating
// forward entries)" navigation step (spec §4.5). Truncation of forward
// entries is the controller's responsibility via TruncateHistoryAfter;
// this call only appends.
func (s *Store) AppendHistory(tabID string, seq int, url, title string) error {
	_, err := s.db.Exec(`INSERT INTO nav_history (tab_id, seq, url, title) VALUES (?, ?, ?, ?)`,
		tabID, seq, url, title)
	return err
}

// TruncateHistoryAfter deletes every entry for tabID with seq > afterSeq,
// the persisted half of "truncating forward entries" on a fresh navigate.
func (s *Store) TruncateHistoryAfter(tabID string, afterSeq int) error {
	_, err := s.db.Exec(`DELETE FROM nav_history WHERE tab_id = ? AND seq > ?`, tabID, afterSeq)
	return err
}

// LoadHistory returns tabID's persisted history in sequence order.
func (s *Store) LoadHistory(tabID string) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT seq, url, title, visited_at FROM nav_history WHERE tab_id = ? ORDER BY seq ASC`, tabID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var visitedAt string
		if err := rows.Scan(&e.Seq, &e.URL, &e.Title, &visitedAt); err != nil {
			return nil, err
		}
		e.VisitedAt, _ = time.Parse("2006-01-02 15:04:05", visitedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
