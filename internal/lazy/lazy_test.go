package lazy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_LoadsOnce(t *testing.T) {
	calls := 0
	v := New(func(ctx context.Context) (string, error) {
		calls++
		return "registry", nil
	})

	assert.False(t, v.Loaded())

	for i := 0; i < 3; i++ {
		got, err := v.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "registry", got)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, v.Loaded())
}

func TestValue_RetriesAfterError(t *testing.T) {
	calls := 0
	v := New(func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("registry file missing")
		}
		return 42, nil
	})

	_, err := v.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, v.Loaded())

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestValue_Reset(t *testing.T) {
	calls := 0
	v := New(func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	first, _ := v.Get(context.Background())
	v.Reset()
	second, _ := v.Get(context.Background())

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestValue_ConcurrentGetLoadsOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	v := New(func(ctx context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return calls, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 1, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
