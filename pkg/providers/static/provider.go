// Package static implements an address provider backed by an in-memory gazetteer
// loaded from YAML. It supports every lookup operation and needs no network access.
package static

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// DefaultMaxDistanceKM bounds coordinate suggestions when max_distance_km is not set.
const DefaultMaxDistanceKM = 1.0

const earthRadiusKM = 6371.0

// Provider answers lookups from a fixed list of known addresses
type Provider struct {
	name          string
	description   string
	entries       []indexed
	maxDistanceKM float64
}

// New creates a static provider over the given entries
func New(name string, entries []Entry, maxDistanceKM float64) *Provider {
	if maxDistanceKM <= 0 {
		maxDistanceKM = DefaultMaxDistanceKM
	}
	return &Provider{
		name:          name,
		description:   fmt.Sprintf("Static gazetteer with %d addresses", len(entries)),
		entries:       index(entries),
		maxDistanceKM: maxDistanceKM,
	}
}

// NewFromConfig creates a static provider. Entries come from the "file" option;
// "max_distance_km" bounds coordinate suggestions.
func NewFromConfig(cfg types.ProviderConfig) (*Provider, error) {
	file := cfg.StringOption("file", "")
	if file == "" {
		return nil, fmt.Errorf("static provider %s: option \"file\" is required", cfg.Name)
	}
	g, err := LoadGazetteer(file)
	if err != nil {
		return nil, fmt.Errorf("static provider %s: %w", cfg.Name, err)
	}
	p := New(cfg.Name, g.Entries, cfg.FloatOption("max_distance_km", DefaultMaxDistanceKM))
	if cfg.Description != "" {
		p.description = cfg.Description
	}
	return p, nil
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeStatic }
func (p *Provider) Description() string      { return p.description }

// Len returns the number of known addresses
func (p *Provider) Len() int { return len(p.entries) }

// LookupDetails returns the entry whose address or alias equals raw after normalization
func (p *Provider) LookupDetails(ctx context.Context, raw string) (*types.AddressData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := normalize(raw)
	if query == "" {
		return nil, nil
	}
	for _, ix := range p.entries {
		if k := ix.exact(query); k >= 0 {
			res := p.toAddress(ix.entry)
			if k > 0 {
				res.Attributes[types.AttrMatchedAlias] = ix.entry.Aliases[aliasIndex(ix, k)]
			}
			return res, nil
		}
	}
	return nil, nil
}

// LookupExtendedDetails returns the full entry for a previously suggested address
func (p *Provider) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) (*types.AddressData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if selected == nil {
		return nil, nil
	}
	query := normalize(selected.Address)
	if query == "" {
		return nil, nil
	}
	for _, ix := range p.entries {
		if ix.exact(query) < 0 {
			continue
		}
		if selected.PostalCode != "" && ix.entry.PostalCode != "" && selected.PostalCode != ix.entry.PostalCode {
			continue
		}
		return p.toAddress(ix.entry), nil
	}
	return nil, nil
}

// SuggestByText returns up to count entries matching every word of raw by prefix.
// Exact matches come first; otherwise gazetteer order is kept.
func (p *Provider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := normalize(raw)
	if query == "" || count <= 0 {
		return nil, nil
	}
	queryTokens := strings.Fields(query)

	var exact, partial []types.AddressData
	for _, ix := range p.entries {
		switch {
		case ix.exact(query) >= 0:
			exact = append(exact, *p.toAddress(ix.entry))
		case ix.contains(queryTokens):
			partial = append(partial, *p.toAddress(ix.entry))
		}
	}
	out := append(exact, partial...)
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

// SuggestByCoordinates returns up to count entries within the distance bound, nearest first
func (p *Provider) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) ([]types.AddressData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 || math.IsNaN(lat) || math.IsNaN(lon) {
		return nil, nil
	}

	type hit struct {
		entry    Entry
		distance float64
	}
	var hits []hit
	for _, ix := range p.entries {
		e := ix.entry
		if e.Lat == nil {
			continue
		}
		if d := haversineKM(lat, lon, *e.Lat, *e.Lon); d <= p.maxDistanceKM {
			hits = append(hits, hit{entry: e, distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > count {
		hits = hits[:count]
	}

	out := make([]types.AddressData, 0, len(hits))
	for _, h := range hits {
		a := p.toAddress(h.entry)
		a.Attributes[types.AttrDistanceKM] = math.Round(h.distance*1000) / 1000
		out = append(out, *a)
	}
	return out, nil
}

// toAddress builds a fresh result so callers never share entry state.
func (p *Provider) toAddress(e Entry) *types.AddressData {
	attrs := make(map[string]interface{}, len(e.Attributes)+2)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	if e.Lat != nil {
		attrs[types.AttrLatitude] = *e.Lat
		attrs[types.AttrLongitude] = *e.Lon
	}
	return &types.AddressData{
		Address:    e.Address,
		PostalCode: e.PostalCode,
		Source:     p.name,
		Attributes: attrs,
	}
}

// aliasIndex maps a key index back to the alias it came from, skipping blank aliases.
func aliasIndex(ix indexed, key int) int {
	seen := 0
	for i, a := range ix.entry.Aliases {
		if normalize(a) == "" {
			continue
		}
		seen++
		if seen == key {
			return i
		}
	}
	return 0
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}
