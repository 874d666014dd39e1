// Package session holds one operator's in-progress reconciliation: pending
// base counts, physical counts, and expiry corrections accumulate in memory
// and hit the shared store only at commit.
package session

import (
	"sort"
	"sync"
	"time"

	"kitstock/internal/address"
	"kitstock/internal/cascade"
	"kitstock/internal/reconcile"
)

// Session is one operator's working set. A session is single-operator by
// contract; the mutex only guards against sloppy transport reuse.
type Session struct {
	ID        string
	Scenario  int
	Operator  string
	StartedAt time.Time

	mu     sync.Mutex
	rows   []cascade.Row
	counts map[address.StockAddress]reconcile.Count
}

func newSession(id string, scenarioID int, operator string, startedAt time.Time) *Session {
	return &Session{
		ID:        id,
		Scenario:  scenarioID,
		Operator:  operator,
		StartedAt: startedAt,
		counts:    make(map[address.StockAddress]reconcile.Count),
	}
}

// UpsertRow adds or replaces a working-set row, matched by code and own
// instance, then recomputes the whole cascade.
func (s *Session) UpsertRow(row cascade.Row) []cascade.Zeroing {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.rows {
		if s.rows[i].Code == row.Code && s.rows[i].Instance == row.Instance && s.rows[i].Kind == row.Kind {
			s.rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		s.rows = append(s.rows, row)
	}
	return cascade.Recompute(s.rows)
}

// Rows returns a copy of the working set with effective quantities current.
func (s *Session) Rows() []cascade.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cascade.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// EnterCount records a physical count for an address. Re-entering a count
// for the same address replaces the earlier one.
func (s *Session) EnterCount(addr address.StockAddress, physical int, remarks string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counts[addr]
	c.Address = addr
	c.Physical = physical
	c.Remarks = remarks
	s.counts[addr] = c
}

// CorrectExpiry records an expiry correction for an address already counted
// or about to be.
func (s *Session) CorrectExpiry(addr address.StockAddress, expiry address.Expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counts[addr]
	c.Address = addr
	c.CorrectedExpiry = expiry
	c.Corrected = true
	s.counts[addr] = c
}

// PendingCounts returns the count batch in deterministic address order.
func (s *Session) PendingCounts() []reconcile.Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Session) pendingLocked() []reconcile.Count {
	out := make([]reconcile.Count, 0, len(s.counts))
	for _, c := range s.counts {
		out = append(out, c)
	}
	sortCounts(out)
	return out
}

// rebase clears committed expiry corrections so a second commit with no
// further edits plans zero movement. A count follows its stock: when the
// whole counted quantity moved to the corrected expiry the count retargets
// there; in a split the counted quantity stayed on the old line, so the
// count keeps its old address and the correction is simply dropped.
func (s *Session) rebase(outcomes []reconcile.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := make(map[address.StockAddress]bool, len(outcomes))
	for _, o := range outcomes {
		moved[o.Address] = o.Moved
	}

	rebased := make(map[address.StockAddress]reconcile.Count, len(s.counts))
	for _, c := range s.counts {
		if c.Corrected {
			if moved[c.Address] {
				c.Address.Expiry = c.CorrectedExpiry
			}
			c.CorrectedExpiry = address.NoExpiry
			c.Corrected = false
		}
		rebased[c.Address] = c
	}
	s.counts = rebased
}

func sortCounts(counts []reconcile.Count) {
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Address.Encode() < counts[j].Address.Encode()
	})
}
