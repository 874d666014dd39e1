// Package treecode implements the fixed-width hierarchical structural
// address for composition nodes: two scenario digits followed by three
// 3-digit slot segments (primary, secondary, tertiary). Unused tail segments
// are zero. Parent/child relationships are expressed purely through segment
// prefixes; no node stores a parent pointer.
package treecode

import (
	"fmt"
	"strconv"

	"kitstock/pkg/derrors"
)

// Level is the depth of a node in the composition hierarchy.
type Level int

const (
	LevelPrimary Level = iota + 1
	LevelSecondary
	LevelTertiary
)

func (l Level) String() string {
	switch l {
	case LevelPrimary:
		return "primary"
	case LevelSecondary:
		return "secondary"
	case LevelTertiary:
		return "tertiary"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

const (
	// MaxScenario bounds the two-digit scenario segment.
	MaxScenario = 99
	// MaxSlot bounds each three-digit slot segment; each scope holds at
	// most 999 live entries.
	MaxSlot = 999

	encodedLen = 11
)

// Treecode is the parsed structural address. The zero value is invalid.
type Treecode struct {
	Scenario  int // 01..99
	Primary   int // 001..999
	Secondary int // 000 when unused
	Tertiary  int // 000 when unused
}

// New validates segment ranges and tail consistency.
func New(scenario, primary, secondary, tertiary int) (Treecode, error) {
	tc := Treecode{Scenario: scenario, Primary: primary, Secondary: secondary, Tertiary: tertiary}
	if err := tc.validate(); err != nil {
		return Treecode{}, err
	}
	return tc, nil
}

func (t Treecode) validate() error {
	switch {
	case t.Scenario < 1 || t.Scenario > MaxScenario:
		return fmt.Errorf("scenario segment %d out of range 1..%d", t.Scenario, MaxScenario)
	case t.Primary < 1 || t.Primary > MaxSlot:
		return fmt.Errorf("primary segment %d out of range 1..%d", t.Primary, MaxSlot)
	case t.Secondary < 0 || t.Secondary > MaxSlot:
		return fmt.Errorf("secondary segment %d out of range 0..%d", t.Secondary, MaxSlot)
	case t.Tertiary < 0 || t.Tertiary > MaxSlot:
		return fmt.Errorf("tertiary segment %d out of range 0..%d", t.Tertiary, MaxSlot)
	case t.Tertiary != 0 && t.Secondary == 0:
		return fmt.Errorf("tertiary segment set while secondary is zero")
	}
	return nil
}

// Parse decodes the 11-digit fixed-width form.
func Parse(s string) (Treecode, error) {
	if len(s) != encodedLen {
		return Treecode{}, derrors.Newf(derrors.CodeMalformedAddress,
			"treecode %q must be %d digits", s, encodedLen)
	}
	segs := [4]int{}
	for i, span := range [4][2]int{{0, 2}, {2, 5}, {5, 8}, {8, 11}} {
		n, err := strconv.Atoi(s[span[0]:span[1]])
		if err != nil {
			return Treecode{}, derrors.Newf(derrors.CodeMalformedAddress,
				"treecode %q has non-numeric segment %q", s, s[span[0]:span[1]])
		}
		segs[i] = n
	}
	tc := Treecode{Scenario: segs[0], Primary: segs[1], Secondary: segs[2], Tertiary: segs[3]}
	if err := tc.validate(); err != nil {
		return Treecode{}, derrors.Wrap(err, derrors.CodeMalformedAddress, "bad treecode")
	}
	return tc, nil
}

// String renders the fixed-width form, e.g. 01001002000.
func (t Treecode) String() string {
	return fmt.Sprintf("%02d%03d%03d%03d", t.Scenario, t.Primary, t.Secondary, t.Tertiary)
}

// Level returns the depth implied by the deepest non-zero slot segment.
func (t Treecode) Level() Level {
	switch {
	case t.Tertiary != 0:
		return LevelTertiary
	case t.Secondary != 0:
		return LevelSecondary
	default:
		return LevelPrimary
	}
}

// Parent returns the treecode one level up, or false at primary level.
func (t Treecode) Parent() (Treecode, bool) {
	switch t.Level() {
	case LevelTertiary:
		return Treecode{Scenario: t.Scenario, Primary: t.Primary, Secondary: t.Secondary}, true
	case LevelSecondary:
		return Treecode{Scenario: t.Scenario, Primary: t.Primary}, true
	default:
		return Treecode{}, false
	}
}

// Contains reports whether other sits in t's subtree (self-inclusive). The
// comparison walks the fixed segments, so 01001002000 does not swallow
// 01001002100-style near-misses the way a raw string prefix would.
func (t Treecode) Contains(other Treecode) bool {
	if t.Scenario != other.Scenario || t.Primary != other.Primary {
		return false
	}
	if t.Secondary != 0 && t.Secondary != other.Secondary {
		return false
	}
	if t.Tertiary != 0 && t.Tertiary != other.Tertiary {
		return false
	}
	return true
}

// ChildOf reports whether t is a direct child of parent: same prefix, one
// additional non-zero segment.
func (t Treecode) ChildOf(parent Treecode) bool {
	p, ok := t.Parent()
	return ok && p == parent
}
