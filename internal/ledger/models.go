// Package ledger is the stock ledger: one line per physical batch, with
// cumulative receipt and withdrawal counters. The final quantity is always
// derived on read; it is never stored where it could drift.
package ledger

import "kitstock/internal/address"

// StockLine is one ledger entry. The address is its identity; QtyIn and
// QtyOut only ever grow.
type StockLine struct {
	Address address.StockAddress
	// OwnerTreecode optionally records the structural position for in-box
	// stock; informational, not part of the address identity.
	OwnerTreecode string
	QtyIn         int
	QtyOut        int
}

// Final returns the derived final quantity, qty_in - qty_out.
func (l StockLine) Final() int {
	return l.QtyIn - l.QtyOut
}
