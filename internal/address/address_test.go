package address

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/pkg/derrors"
)

func TestEncodeBulkForm(t *testing.T) {
	addr := StockAddress{
		Scenario: 1,
		Kit:      "KMEDMTRAU1",
		Module:   "MMEDMDRE1",
		Item:     "DINJATRS1V",
		StdQty:   50,
		Expiry:   "2025-06-30",
	}
	assert.Equal(t, "1|KMEDMTRAU1|MMEDMDRE1|DINJATRS1V|50|2025-06-30", addr.Encode())
}

func TestEncodeSubstitutesSentinels(t *testing.T) {
	addr := StockAddress{Scenario: 2, Item: "DEXTSCALP1", StdQty: 10}
	assert.Equal(t, "2|NA|NA|DEXTSCALP1|10|NA", addr.Encode())
}

func TestEncodeTrackedForm(t *testing.T) {
	addr := StockAddress{
		Scenario:       1,
		Kit:            "KMEDMTRAU1",
		Module:         "MMEDMDRE1",
		Item:           "DINJATRS1V",
		StdQty:         50,
		Expiry:         "2025-06-30",
		KitInstance:    3,
		ModuleInstance: 1,
	}
	assert.Equal(t, "1|KMEDMTRAU1|MMEDMDRE1|DINJATRS1V|50|2025-06-30|3|1", addr.Encode())
}

func TestEncodeAppendsInstancesWhenAnyPresent(t *testing.T) {
	addr := StockAddress{Scenario: 1, Item: "DINJATRS1V", StdQty: 5, KitInstance: 2}
	assert.Equal(t, "1|NA|NA|DINJATRS1V|5|NA|2|NA", addr.Encode())
}

func TestEncodeTrackedForcesEightFields(t *testing.T) {
	addr := StockAddress{Scenario: 1, Item: "DINJATRS1V", StdQty: 5}
	assert.Equal(t, "1|NA|NA|DINJATRS1V|5|NA|NA|NA", addr.EncodeTracked())
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]StockAddress{
		"bulk full": {
			Scenario: 1, Kit: "KMEDMTRAU1", Module: "MMEDMDRE1",
			Item: "DINJATRS1V", StdQty: 50, Expiry: "2025-06-30",
		},
		"bulk sparse": {
			Scenario: 14, Item: "DEXTSCALP1", StdQty: 1,
		},
		"tracked full": {
			Scenario: 3, Kit: "KMEDMTRAU1", Module: "MMEDMDRE1",
			Item: "DINJATRS1V", StdQty: 50, Expiry: "2027-01-31",
			KitInstance: 2, ModuleInstance: 7,
		},
		"tracked kit only": {
			Scenario: 3, Kit: "KMEDMTRAU1", Item: "DINJATRS1V",
			StdQty: 20, KitInstance: 1,
		},
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(want.Encode())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestValidateRejectsUnencodableCodes(t *testing.T) {
	cases := map[string]StockAddress{
		"delimiter in item":   {Scenario: 1, Item: "DINJ|ATRS1V", StdQty: 5},
		"delimiter in kit":    {Scenario: 1, Kit: "KMED|TRAU1", Item: "DINJATRS1V", StdQty: 5},
		"delimiter in module": {Scenario: 1, Module: "MMED|DRE1", Item: "DINJATRS1V", StdQty: 5},
		"sentinel as kit":     {Scenario: 1, Kit: "NA", Item: "DINJATRS1V", StdQty: 5},
	}
	for name, addr := range cases {
		t.Run(name, func(t *testing.T) {
			err := addr.Validate()
			require.Error(t, err)
			assert.True(t, derrors.HasCode(err, derrors.CodeMalformedAddress))
		})
	}

	ok := StockAddress{Scenario: 1, Kit: "KMEDMTRAU1", Item: "DINJATRS1V", StdQty: 5}
	assert.NoError(t, ok.Validate())
}

func TestDecodeRejectsBadFieldCount(t *testing.T) {
	for _, in := range []string{"", "1|2|3", "1|2|3|4|5|6|7", "1|2|3|4|5|6|7|8|9"} {
		_, err := Decode(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, derrors.HasCode(err, derrors.CodeMalformedAddress))
	}
}

func TestDecodeRejectsNonNumericQuantity(t *testing.T) {
	_, err := Decode("1|NA|NA|DINJATRS1V|fifty|NA")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeMalformedAddress))
}

func TestDecodeRejectsBadInstance(t *testing.T) {
	_, err := Decode("1|NA|NA|DINJATRS1V|5|NA|0|NA")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeMalformedAddress))
}

func TestExpiryAfter(t *testing.T) {
	e, err := ParseExpiry("2026-09-01")
	require.NoError(t, err)

	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	assert.True(t, e.After(now))
	assert.False(t, e.After(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, NoExpiry.After(now))
}

func TestParseExpiryRejectsGarbage(t *testing.T) {
	_, err := ParseExpiry("30/06/2025")
	require.Error(t, err)
}
