// Package formatter renders structured addresses as single display strings.
package formatter

import "github.com/cecil-the-coder/address-provider-kit/pkg/types"

// Separator joins the postal code and the address text.
const Separator = ", "

// Format renders a as "<postal code>, <address>", or just the address when the postal
// code is blank. It returns "" when a is nil or its address is blank; a postal code
// alone never produces output.
func Format(a *types.AddressData) string {
	if !a.HasAddress() {
		return ""
	}
	if types.IsBlank(a.PostalCode) {
		return a.Address
	}
	return a.PostalCode + Separator + a.Address
}

// FormatAll formats each address and drops blank results, preserving order.
func FormatAll(addresses []types.AddressData) []string {
	out := make([]string, 0, len(addresses))
	for i := range addresses {
		if s := Format(&addresses[i]); !types.IsBlank(s) {
			out = append(out, s)
		}
	}
	return out
}
