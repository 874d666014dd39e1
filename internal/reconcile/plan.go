package reconcile

import (
	"context"
	"errors"
	"fmt"

	"kitstock/internal/address"
	"kitstock/internal/ledger"
	"kitstock/pkg/platform/sentinel"
)

// Plan turns the count batch into ledger movements without touching the
// store. Counting an unknown address creates its line on apply; counting a
// corrected expiry splits or moves the batch. Re-planning with unchanged
// inputs after an apply yields an empty plan.
//
// Alongside the movements, Plan reports an Outcome for every corrected count
// so the caller knows whether the counted stock moved to the new expiry or
// stayed on the old line.
func Plan(ctx context.Context, store ledger.Store, counts []Count) ([]Movement, []Outcome, error) {
	var (
		movements []Movement
		outcomes  []Outcome
	)

	for _, c := range counts {
		line, err := store.Get(ctx, c.Address)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			movements = append(movements, planUnknown(c)...)
			if c.corrected() {
				// The line is created directly under the corrected expiry.
				outcomes = append(outcomes, Outcome{Address: c.Address, Moved: true})
			}
		case err != nil:
			return nil, nil, fmt.Errorf("load line %s: %w", c.Address.Encode(), err)
		default:
			movements = append(movements, planLine(line, c)...)
			if c.corrected() {
				outcomes = append(outcomes, Outcome{Address: c.Address, Moved: c.Physical >= line.Final()})
			}
		}
	}

	return movements, outcomes, nil
}

func planUnknown(c Count) []Movement {
	if c.Physical <= 0 {
		return nil
	}
	return []Movement{{
		Address:     retarget(c.Address, c.effectiveExpiry()),
		Receive:     true,
		Quantity:    c.Physical,
		Discrepancy: c.Physical,
		Reason:      "count against unknown address",
		Remarks:     c.Remarks,
	}}
}

func planLine(line ledger.StockLine, c Count) []Movement {
	oldFinal := line.Final()
	discrepancy := c.Physical - oldFinal

	if !c.corrected() {
		switch {
		case discrepancy > 0:
			return []Movement{{
				Address:     line.Address,
				Receive:     true,
				Quantity:    discrepancy,
				Discrepancy: discrepancy,
				Reason:      "found surplus",
				Remarks:     c.Remarks,
			}}
		case discrepancy < 0:
			return []Movement{{
				Address:     line.Address,
				Quantity:    -discrepancy,
				Discrepancy: discrepancy,
				Reason:      "shrinkage",
				Remarks:     c.Remarks,
			}}
		default:
			return nil
		}
	}

	newAddr := retarget(line.Address, c.CorrectedExpiry)
	var movements []Movement

	// The old line either keeps the counted quantity (split) or closes to
	// zero (move); the corrected-expiry line receives the rest.
	withdrawn := oldFinal
	received := c.Physical
	if c.Physical < oldFinal {
		withdrawn = oldFinal - c.Physical
		received = oldFinal - c.Physical
	}

	if withdrawn > 0 {
		movements = append(movements, Movement{
			Address:     line.Address,
			Quantity:    withdrawn,
			Discrepancy: discrepancy,
			Reason:      "expiry correction",
			Remarks:     c.Remarks,
		})
	}
	if received > 0 {
		movements = append(movements, Movement{
			Address:     newAddr,
			Receive:     true,
			Quantity:    received,
			Discrepancy: discrepancy,
			Reason:      "expiry correction",
			Remarks:     c.Remarks,
		})
	}
	return movements
}

func retarget(addr address.StockAddress, expiry address.Expiry) address.StockAddress {
	addr.Expiry = expiry
	return addr
}
