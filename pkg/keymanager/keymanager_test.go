package keymanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// TestNewKeyManager tests the creation of a new KeyManager
func TestNewKeyManager(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		wantKeys []string
	}{
		{"single key", []string{"key1"}, []string{"key1"}},
		{"multiple keys", []string{"key1", "key2", "key3"}, []string{"key1", "key2", "key3"}},
		{"duplicates and blanks dropped", []string{"key1", " ", "key1", "key2"}, []string{"key1", "key2"}},
		{"empty", []string{}, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewKeyManager("remote", tt.keys)
			if tt.wantKeys == nil {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.wantKeys, m.GetKeys())
		})
	}
}

func TestGetNextKey_RoundRobin(t *testing.T) {
	m := NewKeyManager("remote", []string{"a", "b", "c"})

	var got []string
	for i := 0; i < 4; i++ {
		key, err := m.GetNextKey()
		require.NoError(t, err)
		got = append(got, key)
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestGetNextKey_SkipsKeysInBackoff(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewKeyManager("remote", []string{"a", "b"})
	m.now = func() time.Time { return now }

	m.ReportFailure("a", types.NewAuthError("remote", "bad key"))
	for i := 0; i < 3; i++ {
		key, err := m.GetNextKey()
		require.NoError(t, err)
		assert.Equal(t, "b", key)
	}

	m.ReportFailure("b", types.NewAuthError("remote", "bad key"))
	_, err := m.GetNextKey()
	assert.Error(t, err)

	now = now.Add(2 * time.Second)
	_, err = m.GetNextKey()
	assert.NoError(t, err)
}

func TestReportFailure_BackoffGrowsAndRetryAfterWins(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewKeyManager("remote", []string{"a"})
	m.now = func() time.Time { return now }

	m.ReportFailure("a", errors.New("x"))
	assert.Equal(t, now.Add(time.Second), m.Status()[0].BackoffUntil)

	m.ReportFailure("a", errors.New("x"))
	assert.Equal(t, now.Add(2*time.Second), m.Status()[0].BackoffUntil)

	m.ReportFailure("a", types.NewRateLimitError("remote", 30))
	status := m.Status()[0]
	assert.Equal(t, now.Add(30*time.Second), status.BackoffUntil)
	assert.False(t, status.Healthy)
	assert.Equal(t, 3, status.FailureCount)

	m.ReportSuccess("a")
	status = m.Status()[0]
	assert.True(t, status.Healthy)
	assert.Equal(t, 0, status.FailureCount)
	assert.True(t, status.BackoffUntil.IsZero())
}

func TestExecuteWithFailover(t *testing.T) {
	t.Run("fails over on auth error", func(t *testing.T) {
		m := NewKeyManager("remote", []string{"bad", "good"})
		var used []string
		err := m.ExecuteWithFailover(context.Background(), func(ctx context.Context, key string) error {
			used = append(used, key)
			if key == "bad" {
				return types.NewAuthError("remote", "invalid key")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"bad", "good"}, used)
	})

	t.Run("other errors are returned immediately", func(t *testing.T) {
		m := NewKeyManager("remote", []string{"a", "b"})
		notFound := types.NewProviderError("remote", types.ErrCodeNotFound, "missing")
		calls := 0
		err := m.ExecuteWithFailover(context.Background(), func(ctx context.Context, key string) error {
			calls++
			return notFound
		})
		assert.Same(t, notFound, err)
		assert.Equal(t, 1, calls)
		assert.True(t, m.Status()[0].Healthy)
	})

	t.Run("all keys fail", func(t *testing.T) {
		m := NewKeyManager("remote", []string{"a", "b"})
		err := m.ExecuteWithFailover(context.Background(), func(ctx context.Context, key string) error {
			return types.NewRateLimitError("remote", 0)
		})
		require.Error(t, err)
		assert.Equal(t, types.ErrCodeRateLimit, types.ErrorCodeOf(err))
		assert.Contains(t, err.Error(), "all 2 failover attempts failed")
	})

	t.Run("nil manager", func(t *testing.T) {
		var m *KeyManager
		err := m.ExecuteWithFailover(context.Background(), func(ctx context.Context, key string) error { return nil })
		assert.Error(t, err)
	})
}

func TestStatusMasksKeys(t *testing.T) {
	m := NewKeyManager("remote", []string{"abc", "secret-1234"})
	status := m.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "****", status[0].Key)
	assert.Equal(t, "****1234", status[1].Key)
}

func TestConcurrentAccess(t *testing.T) {
	m := NewKeyManager("remote", []string{"a", "b", "c"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := m.GetNextKey()
			if err != nil {
				return
			}
			if i%2 == 0 {
				m.ReportSuccess(key)
			} else {
				m.ReportFailure(key, errors.New("x"))
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.Status(), 3)
}
