package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/internal/catalog"
)

func workingSet() []Row {
	return []Row{
		{Kind: catalog.KindKit, Code: "KMEDMTRAU1", Instance: 1, BaseCount: 1},
		{Kind: catalog.KindModule, Code: "MMEDMDRE1", Instance: 1, KitInstance: 1, BaseCount: 1},
		{Kind: catalog.KindItem, Code: "DINJATRS1V", KitInstance: 1, ModuleInstance: 1, BaseCount: 50},
		{Kind: catalog.KindItem, Code: "DEXTSCALP1", KitInstance: 1, BaseCount: 20},
	}
}

func TestPresentContainersPassQuantitiesThrough(t *testing.T) {
	rows := workingSet()

	zeroings := Recompute(rows)

	require.Empty(t, zeroings)
	assert.Equal(t, 1, rows[0].Effective)
	assert.Equal(t, 1, rows[1].Effective)
	assert.Equal(t, 50, rows[2].Effective)
	assert.Equal(t, 20, rows[3].Effective)
}

func TestAbsentKitZeroesWholeSubtree(t *testing.T) {
	rows := workingSet()
	rows[0].BaseCount = 0

	zeroings := Recompute(rows)

	for _, r := range rows {
		assert.Zero(t, r.Effective, "row %s", r.Code)
	}
	// Module and both items all had positive base counts.
	require.Len(t, zeroings, 3)
	assert.Equal(t, "MMEDMDRE1", zeroings[0].Code)
	assert.Contains(t, zeroings[0].Cause, "kit instance 1")
}

func TestAbsentModuleZeroesOnlyItsItems(t *testing.T) {
	rows := workingSet()
	rows[1].BaseCount = 0

	zeroings := Recompute(rows)

	assert.Equal(t, 1, rows[0].Effective)
	assert.Zero(t, rows[1].Effective)
	assert.Zero(t, rows[2].Effective, "item inside the module")
	assert.Equal(t, 20, rows[3].Effective, "item directly under the kit")

	require.Len(t, zeroings, 1)
	assert.Equal(t, "DINJATRS1V", zeroings[0].Code)
	assert.Contains(t, zeroings[0].Cause, "module instance 1")
}

func TestZeroingResetsBaseCountSoItIsNotReEmitted(t *testing.T) {
	rows := workingSet()
	rows[0].BaseCount = 0

	first := Recompute(rows)
	require.NotEmpty(t, first)

	second := Recompute(rows)
	assert.Empty(t, second)
}

func TestMissingInstanceDefaultsToPresent(t *testing.T) {
	// No kit or module rows in the set at all: items stand alone.
	rows := []Row{
		{Kind: catalog.KindItem, Code: "DEXTSCALP1", BaseCount: 12},
	}

	zeroings := Recompute(rows)

	require.Empty(t, zeroings)
	assert.Equal(t, 12, rows[0].Effective)
}

func TestKitLevelItemIgnoresModuleFactors(t *testing.T) {
	rows := []Row{
		{Kind: catalog.KindKit, Code: "KMEDMTRAU1", Instance: 1, BaseCount: 1},
		{Kind: catalog.KindModule, Code: "MMEDMDRE1", Instance: 1, KitInstance: 1, BaseCount: 0},
		{Kind: catalog.KindModule, Code: "MMEDMDRE1", Instance: 2, KitInstance: 1, BaseCount: 1},
		{Kind: catalog.KindItem, Code: "DINJATRS1V", KitInstance: 1, ModuleInstance: 2, BaseCount: 50},
		{Kind: catalog.KindItem, Code: "DEXTSCALP1", KitInstance: 1, ModuleInstance: NoModule, BaseCount: 20},
	}

	zeroings := Recompute(rows)

	require.Empty(t, zeroings)
	assert.Equal(t, 50, rows[3].Effective, "gated by its own present module")
	assert.Equal(t, 20, rows[4].Effective, "no module gates a kit-level item")
}

func TestFactorsAreKeyedByInstance(t *testing.T) {
	rows := []Row{
		{Kind: catalog.KindKit, Code: "KMEDMTRAU1", Instance: 1, BaseCount: 0},
		{Kind: catalog.KindKit, Code: "KMEDMTRAU1", Instance: 2, BaseCount: 1},
		{Kind: catalog.KindItem, Code: "DINJATRS1V", KitInstance: 1, BaseCount: 50},
		{Kind: catalog.KindItem, Code: "DINJATRS1V", KitInstance: 2, BaseCount: 50},
	}

	zeroings := Recompute(rows)

	assert.Zero(t, rows[2].Effective)
	assert.Equal(t, 50, rows[3].Effective)
	require.Len(t, zeroings, 1)
	assert.Equal(t, "kit instance 1", zeroings[0].Cause)
}

func BenchmarkRecompute(b *testing.B) {
	rows := make([]Row, 0, 1+10+10*40)
	rows = append(rows, Row{Kind: catalog.KindKit, Code: "KMEDMTRAU1", Instance: 1, BaseCount: 1})
	for m := 1; m <= 10; m++ {
		rows = append(rows, Row{
			Kind: catalog.KindModule, Code: "MMEDMDRE1M", Instance: m, KitInstance: 1,
			BaseCount: m % 2, // half the modules absent, forcing zeroing passes
		})
		for i := 0; i < 40; i++ {
			rows = append(rows, Row{
				Kind: catalog.KindItem, Code: "DEXTSCALP1",
				ModuleInstance: m, KitInstance: 1, BaseCount: 25,
			})
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		work := make([]Row, len(rows))
		copy(work, rows)
		Recompute(work)
	}
}
