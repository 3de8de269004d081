package tlsclient

import (
	"sync"
	"time"
)

// TicketEntry is one cached session ticket (spec §3.2): "mapping hostname →
// (ticket-bytes, resumption-secret, lifetime, age-add, stored-at,
// cipher-suite); entries expire when now - stored-at > lifetime."
type TicketEntry struct {
	Ticket           []byte
	ResumptionSecret []byte
	Lifetime         time.Duration
	AgeAdd           uint32
	StoredAt         time.Time
	CipherSuite      CipherSuite
}

func (e TicketEntry) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.Lifetime
}

// TicketCache is the process-wide per-host session ticket cache (spec §5:
// "process-wide... mutated concurrently in principle; since the reactor is
// single-threaded, all mutations are serialized"). Grounded on the
// teacher's internal/relay.SessionCache (mutex-guarded map keyed by a
// string, entries carrying a fetchedAt timestamp used for expiry).
type TicketCache struct {
	mu      sync.Mutex
	entries map[string]TicketEntry
}

// NewTicketCache returns an empty cache.
func NewTicketCache() *TicketCache {
	return &TicketCache{entries: make(map[string]TicketEntry)}
}

// Store records (or replaces) the ticket for hostname.
func (c *TicketCache) Store(hostname string, entry TicketEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hostname] = entry
}

// Lookup returns the cached ticket for hostname if present and unexpired.
func (c *TicketCache) Lookup(hostname string) (TicketEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hostname]
	if !ok || e.expired(time.Now()) {
		return TicketEntry{}, false
	}
	return e, true
}

// Evict drops hostname's cached ticket, if any.
func (c *TicketCache) Evict(hostname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hostname)
}
