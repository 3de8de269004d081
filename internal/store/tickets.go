package store

import (
	"time"

	"github.com/loomweb/loom/internal/tlsclient"
)

// SaveTicket persists one session ticket entry (spec.md §3.2), the
// supplemented "persistent TLS session ticket cache" SPEC_FULL.md §3.1
// names.
func (s *Store) SaveTicket(hostname string, e tlsclient.TicketEntry) error {
	_, err := s.db.Exec(`INSERT INTO session_tickets
		(hostname, ticket, resumption_secret, lifetime_seconds, age_add, stored_at, cipher_suite)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hostname) DO UPDATE SET
			ticket = excluded.ticket,
			resumption_secret = excluded.resumption_secret,
			lifetime_seconds = excluded.lifetime_seconds,
			age_add = excluded.age_add,
			stored_at = excluded.stored_at,
			cipher_suite = excluded.cipher_suite`,
		hostname, e.Ticket, e.ResumptionSecret, int64(e.Lifetime/time.Second), e.AgeAdd,
		e.StoredAt.UTC().Format(time.RFC3339), int(e.CipherSuite))
	return err
}

// LoadTickets reads every persisted ticket into a fresh in-memory
// TicketCache, applying the same TTL-on-read expiry check the cache
// itself performs (entries past their lifetime are silently skipped,
// matching spec §3.2's "entries expire when now - stored-at > lifetime").
func (s *Store) LoadTickets() (*tlsclient.TicketCache, error) {
	cache := tlsclient.NewTicketCache()
	rows, err := s.db.Query(`SELECT hostname, ticket, resumption_secret, lifetime_seconds, age_add, stored_at, cipher_suite FROM session_tickets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var hostname, storedAtStr string
		var ticket, secret []byte
		var lifetimeSeconds int64
		var ageAdd uint32
		var cipherSuite int
		if err := rows.Scan(&hostname, &ticket, &secret, &lifetimeSeconds, &ageAdd, &storedAtStr, &cipherSuite); err != nil {
			return nil, err
		}
		storedAt, err := time.Parse(time.RFC3339, storedAtStr)
		if err != nil {
			continue
		}
		cache.Store(hostname, tlsclient.TicketEntry{
			Ticket:           ticket,
			ResumptionSecret: secret,
			Lifetime:         time.Duration(lifetimeSeconds) * time.Second,
			AgeAdd:           ageAdd,
			StoredAt:         storedAt,
			CipherSuite:      tlsclient.CipherSuite(cipherSuite),
		})
	}
	return cache, rows.Err()
}

// EvictTicket removes a persisted ticket, e.g. after a hard reload
// invalidates every per-origin cache (spec §4.5).
func (s *Store) EvictTicket(hostname string) error {
	_, err := s.db.Exec(`DELETE FROM session_tickets WHERE hostname = ?`, hostname)
	return err
}
