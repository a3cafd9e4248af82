package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   "))
	assert.True(t, IsBlank("\t\n"))
	assert.False(t, IsBlank(" a "))
}

func TestAddressData_HasAddress(t *testing.T) {
	var nilAddr *AddressData
	assert.False(t, nilAddr.HasAddress())
	assert.False(t, (&AddressData{Address: "  ", PostalCode: "12345"}).HasAddress())
	assert.True(t, (&AddressData{Address: "Main St 1"}).HasAddress())
}

func TestAddressData_CloneIsIndependent(t *testing.T) {
	orig := &AddressData{Address: "Main St 1", Attributes: map[string]interface{}{AttrCity: "Springfield"}}
	clone := orig.Clone()
	clone.Attributes[AttrCity] = "Shelbyville"

	v, ok := orig.Attribute(AttrCity)
	assert.True(t, ok)
	assert.Equal(t, "Springfield", v)

	var nilAddr *AddressData
	assert.Nil(t, nilAddr.Clone())
	_, ok = nilAddr.Attribute(AttrCity)
	assert.False(t, ok)
}

type detailsOnly struct{}

func (detailsOnly) Name() string        { return "details-only" }
func (detailsOnly) Type() ProviderType  { return ProviderTypeMock }
func (detailsOnly) Description() string { return "" }
func (detailsOnly) LookupDetails(context.Context, string) (*AddressData, error) {
	return nil, nil
}

func TestCapabilities(t *testing.T) {
	p := detailsOnly{}
	assert.True(t, Supports(p, OperationDetails))
	assert.False(t, Supports(p, OperationSuggestByText))
	assert.Equal(t, []Operation{OperationDetails}, Capabilities(p))
	assert.False(t, Supports(p, Operation("bogus")))
}

type reporting struct{ detailsOnly }

func (reporting) ProviderStatus() interface{} { return "ok" }

type wrapper struct {
	detailsOnly
	inner Provider
}

func (w wrapper) Unwrap() Provider { return w.inner }

func TestStatusOf(t *testing.T) {
	assert.Nil(t, StatusOf(nil))
	assert.Nil(t, StatusOf(detailsOnly{}))
	assert.Equal(t, "ok", StatusOf(reporting{}))
	assert.Equal(t, "ok", StatusOf(wrapper{inner: wrapper{inner: reporting{}}}))
	assert.Nil(t, StatusOf(wrapper{}))
}
