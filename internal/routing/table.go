package routing

import (
	"sync"
	"time"

	"github.com/LK4D4/trylock"
	"github.com/sparedge/sparedge/internal/node"
)

// Entry is the last-known state of one neighbor, rebuilt from discovery
// heartbeats. Entries are ephemeral and never persisted.
type Entry struct {
	ID         string
	Coord      node.Coordinate
	Endpoint   string
	FreeVcpus  int
	FreeMemory int
	UpdatedAt  time.Time
	Emergency  bool
}

// Table maps neighbor identities to reachable endpoints and advertised free
// capacity. Entries older than the TTL are excluded from Candidates but kept
// until the eviction sweep, so a briefly silent neighbor is not forgotten.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl        time.Duration
	evictAfter time.Duration

	// sweepMu keeps concurrent sweeps from piling up without ever blocking
	// heartbeat upserts.
	sweepMu trylock.Mutex
}

func NewTable(ttl, evictAfter time.Duration) *Table {
	return &Table{
		entries:    make(map[string]*Entry),
		ttl:        ttl,
		evictAfter: evictAfter,
	}
}

// Upsert records a heartbeat from a neighbor.
func (t *Table) Upsert(id string, coord node.Coordinate, endpoint string, freeVcpus, freeMemory int, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = &Entry{ID: id}
		t.entries[id] = e
	}
	e.Coord = coord
	e.Endpoint = endpoint
	e.FreeVcpus = freeVcpus
	e.FreeMemory = freeMemory
	e.UpdatedAt = ts
}

// Remove drops a neighbor, e.g. after it deregisters.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Candidates returns a snapshot of the neighbors whose advertised free
// capacity covers the requested resources and whose last heartbeat is fresh.
// An entry with age exactly equal to the TTL is still fresh. In-emergency
// neighbors are excluded. The snapshot is a copy; callers may reorder it.
// staleOnly reports whether some neighbor was excluded solely because its
// heartbeat aged out.
func (t *Table) Candidates(minVcpus, minMemory int, now time.Time) (candidates []Entry, staleOnly bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	candidates = make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Emergency {
			continue
		}
		if e.FreeVcpus < minVcpus || e.FreeMemory < minMemory {
			continue
		}
		if now.Sub(e.UpdatedAt) > t.ttl {
			staleOnly = true
			continue
		}
		candidates = append(candidates, *e)
	}
	return candidates, staleOnly
}

// Len returns the number of known neighbors, stale ones included.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// MarkEmergencyArea flags every neighbor within radius of center. Flagged
// neighbors are skipped by Candidates until ClearEmergency.
func (t *Table) MarkEmergencyArea(center node.Coordinate, radius float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		e.Emergency = e.Coord.Distance(center) <= radius
	}
}

func (t *Table) ClearEmergency() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		e.Emergency = false
	}
}

// Sweep removes entries whose last heartbeat is older than the eviction age.
// Returns the number of evicted entries. If another sweep is in progress the
// call is a no-op.
func (t *Table) Sweep(now time.Time) int {
	if !t.sweepMu.TryLock() {
		return 0
	}
	defer t.sweepMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, e := range t.entries {
		if now.Sub(e.UpdatedAt) > t.evictAfter {
			delete(t.entries, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs periodic eviction sweeps until the returned stop function
// is called.
func (t *Table) StartSweeper(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				t.Sweep(now)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
