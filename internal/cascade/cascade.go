// Package cascade computes effective quantities for a working set of rows
// under a physical kit or module instance. A container is a single physical
// object: it is either present (factor 1) or absent (factor 0), and that
// binary gate multiplies down the tree.
package cascade

import (
	"fmt"

	"kitstock/internal/catalog"
)

const (
	// DefaultInstance is assumed when a row does not number its owning kit:
	// a working set is loaded under one kit, so an unnumbered row belongs
	// to it.
	DefaultInstance = 1
	// NoModule marks an item that sits directly in the kit. Modules are an
	// optional level, so such an item has no module gate at all.
	NoModule = 0
)

// Row is one line of the working set. KIT and MODULE rows key the factor
// tables by their own Instance; MODULE and ITEM rows reference the instances
// that contain them.
type Row struct {
	Kind           catalog.Kind
	Code           string
	Instance       int // own instance id, KIT and MODULE rows
	KitInstance    int // owning kit instance, 0 means DefaultInstance
	ModuleInstance int // owning module instance, NoModule for kit-level items
	BaseCount      int
	Effective      int
}

// Zeroing reports a row whose positive base count was forced to zero by an
// absent container above it.
type Zeroing struct {
	Code     string
	Kind     catalog.Kind
	Instance int
	// Cause names the absent container that gated the row out.
	Cause string
}

func (z Zeroing) String() string {
	return fmt.Sprintf("%s %s zeroed by %s", z.Kind, z.Code, z.Cause)
}

// Recompute runs the full cascade over the working set in place and returns
// every zeroing it caused. The whole set is always recomputed: a single edit
// can invalidate an entire subtree.
//
// Rows zeroed by an absent container also have their base count reset to
// zero, so a later recomputation triggered by an unrelated edit does not
// report the same zeroing again.
func Recompute(rows []Row) []Zeroing {
	var zeroings []Zeroing
	// Resetting a module's base count changes its own factor, which can gate
	// further rows, so passes repeat until nothing new is zeroed.
	for {
		z := pass(rows)
		if len(z) == 0 {
			return zeroings
		}
		zeroings = append(zeroings, z...)
	}
}

func pass(rows []Row) []Zeroing {
	kitFactor := make(map[int]int)
	moduleFactor := make(map[int]int)

	for i := range rows {
		if rows[i].Kind != catalog.KindKit {
			continue
		}
		rows[i].Effective = rows[i].BaseCount
		kitFactor[instanceOrDefault(rows[i].Instance)] = presence(rows[i].BaseCount)
	}

	var zeroings []Zeroing

	for i := range rows {
		if rows[i].Kind != catalog.KindModule {
			continue
		}
		kf := factor(kitFactor, rows[i].KitInstance)
		moduleFactor[instanceOrDefault(rows[i].Instance)] = presence(rows[i].BaseCount) * kf

		effective := rows[i].BaseCount * kf
		if effective == 0 && rows[i].BaseCount > 0 {
			zeroings = append(zeroings, Zeroing{
				Code:     rows[i].Code,
				Kind:     rows[i].Kind,
				Instance: rows[i].Instance,
				Cause:    fmt.Sprintf("kit instance %d", instanceOrDefault(rows[i].KitInstance)),
			})
			rows[i].BaseCount = 0
		}
		rows[i].Effective = effective
	}

	for i := range rows {
		if rows[i].Kind != catalog.KindItem {
			continue
		}
		kf := factor(kitFactor, rows[i].KitInstance)
		// A kit-level item answers only to its kit.
		mf := 1
		if rows[i].ModuleInstance != NoModule {
			mf = factor(moduleFactor, rows[i].ModuleInstance)
		}

		effective := rows[i].BaseCount * mf * kf
		if effective == 0 && rows[i].BaseCount > 0 {
			cause := fmt.Sprintf("kit instance %d", instanceOrDefault(rows[i].KitInstance))
			if mf == 0 {
				cause = fmt.Sprintf("module instance %d", rows[i].ModuleInstance)
			}
			zeroings = append(zeroings, Zeroing{
				Code:     rows[i].Code,
				Kind:     rows[i].Kind,
				Instance: rows[i].Instance,
				Cause:    cause,
			})
			rows[i].BaseCount = 0
		}
		rows[i].Effective = effective
	}

	return zeroings
}

func presence(baseCount int) int {
	if baseCount > 0 {
		return 1
	}
	return 0
}

func instanceOrDefault(instance int) int {
	if instance == 0 {
		return DefaultInstance
	}
	return instance
}

// factor looks up a container factor, defaulting to present when the working
// set has no row for the named instance.
func factor(factors map[int]int, instance int) int {
	f, ok := factors[instanceOrDefault(instance)]
	if !ok {
		return 1
	}
	return f
}
