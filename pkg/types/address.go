package types

import "strings"

// Well-known attribute keys. Providers may set any other keys; the core never reads them.
const (
	AttrLatitude     = "geo_lat"
	AttrLongitude    = "geo_lon"
	AttrCountry      = "country"
	AttrRegion       = "region"
	AttrCity         = "city"
	AttrStreet       = "street"
	AttrHouse        = "house"
	AttrDistanceKM   = "distance_km"
	AttrMatchedAlias = "matched_alias"
)

// AddressData is the structured result of an address lookup.
//
// An AddressData with a blank Address is "no result". Instances are built by a provider for a
// single call and are not modified by the dispatcher after they are returned.
type AddressData struct {
	Address    string                 `json:"address" yaml:"address"`
	PostalCode string                 `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Source     string                 `json:"source,omitempty" yaml:"source,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// HasAddress reports whether the address text is non-blank.
func (a *AddressData) HasAddress() bool {
	return a != nil && !IsBlank(a.Address)
}

// Attribute returns the named attribute if present.
func (a *AddressData) Attribute(key string) (interface{}, bool) {
	if a == nil || a.Attributes == nil {
		return nil, false
	}
	v, ok := a.Attributes[key]
	return v, ok
}

// Clone returns a copy whose attribute map can be modified independently.
func (a *AddressData) Clone() *AddressData {
	if a == nil {
		return nil
	}
	c := *a
	if a.Attributes != nil {
		c.Attributes = make(map[string]interface{}, len(a.Attributes))
		for k, v := range a.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// IsBlank reports whether s is empty or contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
