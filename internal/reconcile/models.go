// Package reconcile converts physical counts into ledger movements: the
// bake-in step that brings the ledger back in line with what is actually on
// the shelf, including expiry-driven batch splitting.
package reconcile

import (
	"fmt"

	"kitstock/internal/address"
)

// Count is one line of the physical count, as entered by the operator.
type Count struct {
	Address  address.StockAddress
	Physical int
	// CorrectedExpiry replaces the line's expiry when Corrected is set. A
	// correction equal to the current expiry is treated as no correction.
	CorrectedExpiry address.Expiry
	Corrected       bool
	Remarks         string
}

// corrected reports whether the count really moves the line to a new expiry.
func (c Count) corrected() bool {
	return c.Corrected && c.CorrectedExpiry != c.Address.Expiry
}

// effectiveExpiry is the expiry the counted stock should end up under.
func (c Count) effectiveExpiry() address.Expiry {
	if c.Corrected {
		return c.CorrectedExpiry
	}
	return c.Address.Expiry
}

// Movement is one planned ledger delta. Quantity is always positive; the
// direction says which counter it lands on.
type Movement struct {
	Address  address.StockAddress
	Receive  bool
	Quantity int
	// Discrepancy is physical minus old final for the counted line, recorded
	// on every movement the line produced.
	Discrepancy int
	Reason      string
	Remarks     string
}

// Failure is one rejected count line. Failures are collected across the
// whole batch so the operator can fix everything in one pass.
type Failure struct {
	Address address.StockAddress
	Item    string
	Reason  string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Item, f.Reason)
}

// Outcome reports where a corrected count's stock ended up. In a split the
// counted quantity stays on the old line and only the excess moves, so the
// caller must not retarget its count to the corrected expiry.
type Outcome struct {
	// Address is the count's address as entered.
	Address address.StockAddress
	// Moved is true when the whole counted quantity now lives under the
	// corrected expiry (the move and move-plus-surplus cases).
	Moved bool
}

// Result summarizes one applied commit batch.
type Result struct {
	// DocumentReference ties every movement and audit record of the batch
	// together.
	DocumentReference string
	Movements         []Movement
	// Outcomes carries one entry per count that corrected its expiry.
	Outcomes []Outcome
}
