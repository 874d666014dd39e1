package treecode

import "kitstock/pkg/derrors"

// Slot allocation scans the live codes in a scope and hands out the smallest
// unused segment, so deleted slots are reclaimed. Sibling uniqueness is
// always scoped by the owning segment prefix: primary slots per scenario,
// secondary slots per scenario+primary, tertiary slots per
// scenario+primary+secondary.

// NextPrimary returns the smallest free primary slot in the scenario as
// SSPPP000000.
func NextPrimary(existing []Treecode, scenario int) (Treecode, error) {
	used := make(map[int]bool, len(existing))
	for _, tc := range existing {
		if tc.Scenario == scenario {
			used[tc.Primary] = true
		}
	}
	slot, err := smallestFree(used, "primary")
	if err != nil {
		return Treecode{}, err
	}
	return Treecode{Scenario: scenario, Primary: slot}, nil
}

// NextSecondary returns the smallest free secondary slot under
// scenario+primary as SSPPPMMM000.
func NextSecondary(existing []Treecode, scenario, primary int) (Treecode, error) {
	used := make(map[int]bool, len(existing))
	for _, tc := range existing {
		if tc.Scenario == scenario && tc.Primary == primary && tc.Secondary != 0 {
			used[tc.Secondary] = true
		}
	}
	slot, err := smallestFree(used, "secondary")
	if err != nil {
		return Treecode{}, err
	}
	return Treecode{Scenario: scenario, Primary: primary, Secondary: slot}, nil
}

// NextTertiary returns the smallest free tertiary slot under
// scenario+primary+secondary.
func NextTertiary(existing []Treecode, scenario, primary, secondary int) (Treecode, error) {
	used := make(map[int]bool, len(existing))
	for _, tc := range existing {
		if tc.Scenario == scenario && tc.Primary == primary && tc.Secondary == secondary && tc.Tertiary != 0 {
			used[tc.Tertiary] = true
		}
	}
	slot, err := smallestFree(used, "tertiary")
	if err != nil {
		return Treecode{}, err
	}
	return Treecode{Scenario: scenario, Primary: primary, Secondary: secondary, Tertiary: slot}, nil
}

func smallestFree(used map[int]bool, level string) (int, error) {
	for slot := 1; slot <= MaxSlot; slot++ {
		if !used[slot] {
			return slot, nil
		}
	}
	return 0, derrors.Newf(derrors.CodeAddressSpaceExhausted,
		"all %d %s slots are live", MaxSlot, level)
}
