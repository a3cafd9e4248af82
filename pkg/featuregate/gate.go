// Package featuregate provides the on/off switch for the address normalization subsystem.
// Gates are read once per call, so a change takes effect on the next lookup.
package featuregate

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// Gate reports whether address normalization is enabled.
type Gate interface {
	Enabled() bool
}

// Static is a gate with a fixed value.
type Static bool

// Enabled returns the fixed value.
func (s Static) Enabled() bool { return bool(s) }

// Toggle is a gate that can be switched at runtime. The zero value is disabled.
type Toggle struct {
	enabled atomic.Bool
}

// NewToggle creates a toggle with the given initial state.
func NewToggle(enabled bool) *Toggle {
	t := &Toggle{}
	t.enabled.Store(enabled)
	return t
}

// Enabled returns the current state.
func (t *Toggle) Enabled() bool { return t.enabled.Load() }

// Set changes the state and returns the previous one.
func (t *Toggle) Set(enabled bool) bool { return t.enabled.Swap(enabled) }

// Env reads a boolean environment variable on every call.
// Unset or unparsable values yield Fallback, or Default when Fallback is nil.
type Env struct {
	Name     string
	Default  bool
	Fallback Gate
}

// Enabled parses the variable with ParseSwitch.
func (e Env) Enabled() bool {
	raw, ok := os.LookupEnv(e.Name)
	if !ok {
		return e.fallback()
	}
	v, err := ParseSwitch(raw)
	if err != nil {
		return e.fallback()
	}
	return v
}

func (e Env) fallback() bool {
	if e.Fallback != nil {
		return e.Fallback.Enabled()
	}
	return e.Default
}

// ParseSwitch accepts the strconv.ParseBool forms plus on/off and yes/no.
func ParseSwitch(raw string) (bool, error) {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// Func adapts a function to the Gate interface.
type Func func() bool

// Enabled calls f.
func (f Func) Enabled() bool { return f() }
