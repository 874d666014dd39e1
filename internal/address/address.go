// Package address defines the stock address: the composite identity of one
// ledger batch. The structured StockAddress value is the canonical in-memory
// identity; the delimited string form exists only for the persistence
// boundary and external collaborators.
package address

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kitstock/pkg/derrors"
)

const (
	// Delimiter joins encoded address fields.
	Delimiter = "|"

	// Sentinel stands in for an absent optional field. Absent fields are
	// always written explicitly, never omitted.
	Sentinel = "NA"

	// NoInstance marks stock that is not packed into a physical container.
	// Instance numbers are 1-based.
	NoInstance = 0

	bulkFields    = 6
	trackedFields = 8

	expiryLayout = "2006-01-02"
)

// Expiry is a calendar date in ISO form, or the zero value for stock with no
// expiry. Kept as a string so addresses stay comparable and usable as map
// keys without time.Time equality pitfalls.
type Expiry string

// NoExpiry is the absent-expiry value.
const NoExpiry Expiry = ""

// ParseExpiry validates an ISO date string. An empty input returns NoExpiry.
func ParseExpiry(s string) (Expiry, error) {
	if s == "" || s == Sentinel {
		return NoExpiry, nil
	}
	if _, err := time.Parse(expiryLayout, s); err != nil {
		return NoExpiry, fmt.Errorf("parse expiry %q: %w", s, err)
	}
	return Expiry(s), nil
}

// IsZero reports whether no expiry is set.
func (e Expiry) IsZero() bool { return e == NoExpiry }

// Time returns the expiry as a time.Time at midnight UTC.
func (e Expiry) Time() (time.Time, bool) {
	if e.IsZero() {
		return time.Time{}, false
	}
	t, err := time.Parse(expiryLayout, string(e))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// After reports whether the expiry is strictly after t's calendar date.
func (e Expiry) After(t time.Time) bool {
	et, ok := e.Time()
	if !ok {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return et.After(day)
}

// StockAddress identifies one ledger batch. A bulk (on-shelf) address has six
// logical fields; instance-tracked (in-box) stock adds the kit and module
// instance numbers.
type StockAddress struct {
	Scenario       int
	Kit            string // owning kit catalog code, "" for none
	Module         string // owning module catalog code, "" for none
	Item           string
	StdQty         int
	Expiry         Expiry
	KitInstance    int // NoInstance for bulk stock
	ModuleInstance int // NoInstance for bulk stock
}

// Tracked reports whether the address carries instance numbers.
func (a StockAddress) Tracked() bool {
	return a.KitInstance != NoInstance || a.ModuleInstance != NoInstance
}

// Validate rejects field values the codec cannot round-trip: a catalog code
// containing the delimiter would shift every later field on decode, and the
// sentinel would read back as an absent field.
func (a StockAddress) Validate() error {
	for _, code := range []string{a.Kit, a.Module, a.Item} {
		if strings.Contains(code, Delimiter) {
			return derrors.Newf(derrors.CodeMalformedAddress,
				"code %q contains the address delimiter", code)
		}
		if code == Sentinel {
			return derrors.Newf(derrors.CodeMalformedAddress,
				"code %q collides with the absent-field sentinel", code)
		}
	}
	return nil
}

// Encode renders the delimited persistence form. Instance fields are appended
// only when at least one instance number is present; EncodeTracked forces the
// 8-field form regardless. Field values must satisfy Validate for the
// round-trip contract to hold.
func (a StockAddress) Encode() string {
	return a.encode(a.Tracked())
}

// EncodeTracked renders the 8-field form even when both instances are absent.
func (a StockAddress) EncodeTracked() string {
	return a.encode(true)
}

func (a StockAddress) encode(tracked bool) string {
	fields := make([]string, 0, trackedFields)
	fields = append(fields,
		strconv.Itoa(a.Scenario),
		orSentinel(a.Kit),
		orSentinel(a.Module),
		a.Item,
		strconv.Itoa(a.StdQty),
		orSentinel(string(a.Expiry)),
	)
	if tracked {
		fields = append(fields, instanceField(a.KitInstance), instanceField(a.ModuleInstance))
	}
	return strings.Join(fields, Delimiter)
}

// Decode parses either address form back into the structured value.
func Decode(s string) (StockAddress, error) {
	fields := strings.Split(s, Delimiter)
	if len(fields) != bulkFields && len(fields) != trackedFields {
		return StockAddress{}, derrors.Newf(derrors.CodeMalformedAddress,
			"expected %d or %d fields, got %d in %q", bulkFields, trackedFields, len(fields), s)
	}

	scenario, err := strconv.Atoi(fields[0])
	if err != nil {
		return StockAddress{}, derrors.Newf(derrors.CodeMalformedAddress, "scenario %q is not numeric", fields[0])
	}
	stdQty, err := strconv.Atoi(fields[4])
	if err != nil {
		return StockAddress{}, derrors.Newf(derrors.CodeMalformedAddress, "standard quantity %q is not numeric", fields[4])
	}
	expiry, err := ParseExpiry(fields[5])
	if err != nil {
		return StockAddress{}, derrors.Wrap(err, derrors.CodeMalformedAddress, "bad expiry field")
	}

	addr := StockAddress{
		Scenario: scenario,
		Kit:      fromSentinel(fields[1]),
		Module:   fromSentinel(fields[2]),
		Item:     fields[3],
		StdQty:   stdQty,
		Expiry:   expiry,
	}

	if len(fields) == trackedFields {
		if addr.KitInstance, err = parseInstance(fields[6]); err != nil {
			return StockAddress{}, err
		}
		if addr.ModuleInstance, err = parseInstance(fields[7]); err != nil {
			return StockAddress{}, err
		}
	}
	return addr, nil
}

func parseInstance(field string) (int, error) {
	if field == Sentinel {
		return NoInstance, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil || n < 1 {
		return 0, derrors.Newf(derrors.CodeMalformedAddress, "instance number %q is not a positive integer", field)
	}
	return n, nil
}

func instanceField(n int) string {
	if n == NoInstance {
		return Sentinel
	}
	return strconv.Itoa(n)
}

func orSentinel(s string) string {
	if s == "" {
		return Sentinel
	}
	return s
}

func fromSentinel(s string) string {
	if s == Sentinel {
		return ""
	}
	return s
}
