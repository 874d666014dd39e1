// Package shared holds payload types used by more than one handler package.
package shared

import (
	"kitstock/internal/address"
	"kitstock/pkg/derrors"
)

// AddressPayload is the wire form of a stock address. Optional fields are
// zero-valued when absent, mirroring the structured type.
type AddressPayload struct {
	Scenario       int    `json:"scenario"`
	Kit            string `json:"kit,omitempty"`
	Module         string `json:"module,omitempty"`
	Item           string `json:"item"`
	StdQty         int    `json:"std_qty"`
	Expiry         string `json:"expiry,omitempty"`
	KitInstance    int    `json:"kit_instance,omitempty"`
	ModuleInstance int    `json:"module_instance,omitempty"`
}

// ToAddress validates and converts the payload.
func (p AddressPayload) ToAddress() (address.StockAddress, error) {
	expiry, err := address.ParseExpiry(p.Expiry)
	if err != nil {
		return address.StockAddress{}, derrors.Wrap(err, derrors.CodeMalformedAddress, "invalid expiry")
	}
	if p.Item == "" {
		return address.StockAddress{}, derrors.New(derrors.CodeMalformedAddress, "item code is required")
	}
	addr := address.StockAddress{
		Scenario:       p.Scenario,
		Kit:            p.Kit,
		Module:         p.Module,
		Item:           p.Item,
		StdQty:         p.StdQty,
		Expiry:         expiry,
		KitInstance:    p.KitInstance,
		ModuleInstance: p.ModuleInstance,
	}
	if err := addr.Validate(); err != nil {
		return address.StockAddress{}, err
	}
	return addr, nil
}

// FromAddress converts a structured address to its wire form.
func FromAddress(a address.StockAddress) AddressPayload {
	return AddressPayload{
		Scenario:       a.Scenario,
		Kit:            a.Kit,
		Module:         a.Module,
		Item:           a.Item,
		StdQty:         a.StdQty,
		Expiry:         string(a.Expiry),
		KitInstance:    a.KitInstance,
		ModuleInstance: a.ModuleInstance,
	}
}
