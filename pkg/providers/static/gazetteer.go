package static

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Entry is one known address in a gazetteer file
type Entry struct {
	Address    string                 `yaml:"address"`
	PostalCode string                 `yaml:"postal_code,omitempty"`
	Aliases    []string               `yaml:"aliases,omitempty"`
	Lat        *float64               `yaml:"lat,omitempty"`
	Lon        *float64               `yaml:"lon,omitempty"`
	Attributes map[string]interface{} `yaml:"attributes,omitempty"`
}

// Gazetteer is the YAML document read by LoadGazetteer
type Gazetteer struct {
	Entries []Entry `yaml:"entries"`
}

// LoadGazetteer reads a gazetteer from a YAML file
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer %s: %w", path, err)
	}
	return ParseGazetteer(data)
}

// ParseGazetteer decodes and validates gazetteer YAML
func ParseGazetteer(data []byte) (*Gazetteer, error) {
	var g Gazetteer
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer: %w", err)
	}
	for i, e := range g.Entries {
		if types.IsBlank(e.Address) {
			return nil, fmt.Errorf("gazetteer entry %d has no address", i)
		}
		if (e.Lat == nil) != (e.Lon == nil) {
			return nil, fmt.Errorf("gazetteer entry %q must set both lat and lon", e.Address)
		}
		if e.Lat != nil && (*e.Lat < -90 || *e.Lat > 90 || *e.Lon < -180 || *e.Lon > 180) {
			return nil, fmt.Errorf("gazetteer entry %q has coordinates out of range", e.Address)
		}
	}
	return &g, nil
}

// normalize lowercases s, turns punctuation into spaces and collapses whitespace.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// indexed is an entry with precomputed match keys.
type indexed struct {
	entry  Entry
	keys   []string   // normalized address followed by normalized aliases
	tokens [][]string // tokens per key
}

func index(entries []Entry) []indexed {
	out := make([]indexed, 0, len(entries))
	for _, e := range entries {
		if normalize(e.Address) == "" {
			continue
		}
		ix := indexed{entry: e}
		for _, k := range append([]string{e.Address}, e.Aliases...) {
			n := normalize(k)
			if n == "" {
				continue
			}
			ix.keys = append(ix.keys, n)
			ix.tokens = append(ix.tokens, strings.Fields(n))
		}
		out = append(out, ix)
	}
	return out
}

// exact returns the key index equal to query, or -1.
func (ix indexed) exact(query string) int {
	for i, k := range ix.keys {
		if k == query {
			return i
		}
	}
	return -1
}

// contains reports whether every query token is a prefix of some token of one key.
func (ix indexed) contains(queryTokens []string) bool {
	for _, tokens := range ix.tokens {
		if allPrefixed(queryTokens, tokens) {
			return true
		}
	}
	return false
}

func allPrefixed(query, tokens []string) bool {
	for _, q := range query {
		found := false
		for _, t := range tokens {
			if strings.HasPrefix(t, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
