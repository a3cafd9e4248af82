// Package keymanager rotates API keys for network-backed address providers.
// Keys are handed out round-robin; a key that fails authentication or hits a rate
// limit is put into exponential backoff and the next key is tried.
package keymanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// maxFailoverAttempts bounds how many keys one operation may try.
const maxFailoverAttempts = 3

// KeyManager manages multiple API keys with load balancing and failover
type KeyManager struct {
	providerName string
	keys         []string
	currentIndex uint32 // Atomic counter for round-robin
	keyHealth    map[string]*keyHealth
	mu           sync.RWMutex
	now          func() time.Time
}

// keyHealth tracks the health status of an individual API key
type keyHealth struct {
	failureCount int
	lastFailure  time.Time
	lastSuccess  time.Time
	isHealthy    bool
	backoffUntil time.Time
}

// KeyStatus is a read-only view of one key's health. The key itself is masked.
type KeyStatus struct {
	Key          string    `json:"key"`
	Healthy      bool      `json:"healthy"`
	FailureCount int       `json:"failure_count"`
	BackoffUntil time.Time `json:"backoff_until,omitempty"`
}

// NewKeyManager creates a new multi-key manager. It returns nil when keys is empty.
// Duplicate and blank keys are dropped.
func NewKeyManager(providerName string, keys []string) *KeyManager {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if types.IsBlank(k) || seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, k)
	}
	if len(unique) == 0 {
		return nil
	}

	manager := &KeyManager{
		providerName: providerName,
		keys:         unique,
		keyHealth:    make(map[string]*keyHealth, len(unique)),
		now:          time.Now,
	}
	for _, key := range unique {
		manager.keyHealth[key] = &keyHealth{isHealthy: true}
	}
	return manager
}

// ExecuteWithFailover runs operation with the next available key. Authentication and
// rate-limit failures put the key into backoff and the operation is retried with
// another key; any other error is returned immediately.
func (m *KeyManager) ExecuteWithFailover(ctx context.Context, operation func(ctx context.Context, key string) error) error {
	if m == nil || len(m.keys) == 0 {
		return fmt.Errorf("no API keys configured for %s", m.name())
	}

	var lastErr error
	attemptsLimit := min(len(m.keys), maxFailoverAttempts)

	for attempt := 0; attempt < attemptsLimit; attempt++ {
		key, err := m.GetNextKey()
		if err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s: all API keys failed, last error: %w", m.providerName, lastErr)
			}
			return types.NewAuthError(m.providerName, err.Error())
		}

		err = operation(ctx, key)
		if err == nil {
			m.ReportSuccess(key)
			return nil
		}
		if !isKeyFailure(err) {
			return err
		}

		lastErr = err
		m.ReportFailure(key, err)
		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("%s: all %d failover attempts failed, last error: %w",
		m.providerName, attemptsLimit, lastErr)
}

func isKeyFailure(err error) bool {
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == types.ErrCodeAuthentication || pe.Code == types.ErrCodeRateLimit
}

// GetNextKey returns the next available API key using round-robin load balancing
func (m *KeyManager) GetNextKey() (string, error) {
	if m == nil || len(m.keys) == 0 {
		return "", fmt.Errorf("no API keys configured for %s", m.name())
	}

	keysLen := uint32(len(m.keys)) // #nosec G115 -- keys slice won't exceed uint32 max
	startIndex := (atomic.AddUint32(&m.currentIndex, 1) - 1) % keysLen

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := 0; i < len(m.keys); i++ {
		key := m.keys[(int(startIndex)+i)%len(m.keys)]
		if m.isKeyAvailable(m.keyHealth[key]) {
			return key, nil
		}
	}

	return "", fmt.Errorf("all %d API keys for %s are currently unavailable", len(m.keys), m.providerName)
}

// isKeyAvailable checks if a key is available (not in backoff)
func (m *KeyManager) isKeyAvailable(health *keyHealth) bool {
	return health == nil || !m.now().Before(health.backoffUntil)
}

// ReportSuccess reports that an API call succeeded with this key
func (m *KeyManager) ReportSuccess(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	health, exists := m.keyHealth[key]
	if !exists {
		return
	}

	health.lastSuccess = m.now()
	health.failureCount = 0
	health.isHealthy = true
	health.backoffUntil = time.Time{}
}

// ReportFailure reports that an API call failed with this key.
// A rate-limit error with RetryAfter sets the backoff directly.
func (m *KeyManager) ReportFailure(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	health, exists := m.keyHealth[key]
	if !exists {
		return
	}

	now := m.now()
	health.lastFailure = now
	health.failureCount++

	// Exponential backoff: 1s, 2s, 4s, ... max 60s
	shift := health.failureCount - 1
	if shift > 6 {
		shift = 6
	}
	backoff := time.Duration(1<<uint(shift)) * time.Second // #nosec G115 -- shift is capped at 6
	if backoff > time.Minute {
		backoff = time.Minute
	}

	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		backoff = time.Duration(pe.RetryAfter) * time.Second
	}
	health.backoffUntil = now.Add(backoff)

	if health.failureCount >= 3 {
		health.isHealthy = false
	}
}

// GetKeys returns a copy of the keys slice
func (m *KeyManager) GetKeys() []string {
	if m == nil {
		return nil
	}
	return append([]string{}, m.keys...)
}

// Status returns the health of every key in configuration order
func (m *KeyManager) Status() []KeyStatus {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]KeyStatus, 0, len(m.keys))
	for _, key := range m.keys {
		h := m.keyHealth[key]
		out = append(out, KeyStatus{
			Key:          mask(key),
			Healthy:      h.isHealthy,
			FailureCount: h.failureCount,
			BackoffUntil: h.backoffUntil,
		})
	}
	return out
}

func (m *KeyManager) name() string {
	if m == nil {
		return "provider"
	}
	return m.providerName
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
