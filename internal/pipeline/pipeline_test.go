package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesEveryItem(t *testing.T) {
	keys := []string{"a", "b", "c"}
	var mu sync.Mutex
	written := map[string]string{}

	result := Run(context.Background(), "default", "tools", keys, 2,
		func(_ context.Context, k string) (string, error) { return k, nil },
		nil,
		func(_ context.Context, k string, v string) error {
			mu.Lock()
			defer mu.Unlock()
			written[k] = v
			return nil
		},
	)

	require.NoError(t, result.Err())
	assert.Equal(t, 3, result.Written)
	assert.Equal(t, map[string]string{"a": "a", "b": "b", "c": "c"}, written)
}

func TestRun_AppliesTransformsInOrder(t *testing.T) {
	var got string
	result := Run(context.Background(), "default", "agents", []string{"x"}, 1,
		func(_ context.Context, k string) (string, error) { return k, nil },
		[]Transformer[string]{
			func(s string) (string, error) { return s + "1", nil },
			func(s string) (string, error) { return s + "2", nil },
		},
		func(_ context.Context, _ string, v string) error { got = v; return nil },
	)

	require.NoError(t, result.Err())
	assert.Equal(t, "x12", got)
}

func TestRun_ItemFailureDoesNotCancelSiblings(t *testing.T) {
	keys := []string{"a", "b", "c"}
	var successCount int32

	result := Run(context.Background(), "default", "workflows", keys, 3,
		func(_ context.Context, k string) (string, error) {
			if k == "b" {
				return "", errors.New("boom")
			}
			return k, nil
		},
		nil,
		func(_ context.Context, _ string, _ string) error {
			atomic.AddInt32(&successCount, 1)
			return nil
		},
	)

	assert.Equal(t, int32(2), successCount)
	assert.Equal(t, 2, result.Written)
	require.Len(t, result.Errors, 1)
	assert.Error(t, result.Err())
	assert.True(t, strings.Contains(result.Err().Error(), "1 item(s) failed"))
}

func TestRun_LoadErrorIsCollected(t *testing.T) {
	result := Run(context.Background(), "default", "tools", []string{"t1"}, 1,
		func(_ context.Context, k string) (string, error) { return k, nil },
		nil,
		func(_ context.Context, _ string, _ string) error { return errors.New("write failed") },
	)

	assert.Equal(t, 0, result.Written)
	require.Len(t, result.Errors, 1)
}

func TestRun_ConcurrencyIsBounded(t *testing.T) {
	var current, max int32
	keys := make([]string, 20)
	for i := range keys {
		keys[i] = "k"
	}

	Run(context.Background(), "default", "tools", keys, 3,
		func(_ context.Context, k string) (string, error) {
			n := atomic.AddInt32(&current, 1)
			defer atomic.AddInt32(&current, -1)
			for {
				m := atomic.LoadInt32(&max)
				if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
					break
				}
			}
			return k, nil
		},
		nil,
		func(_ context.Context, _ string, _ string) error { return nil },
	)

	assert.LessOrEqual(t, int(atomic.LoadInt32(&max)), 3)
}

func TestRun_CancelledContextStopsNewItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Run(ctx, "default", "tools", []string{"a", "b"}, 1,
		func(_ context.Context, k string) (string, error) { return k, nil },
		nil,
		func(_ context.Context, _ string, _ string) error { return nil },
	)

	assert.Equal(t, 0, result.Written)
	assert.Len(t, result.Errors, 2)
}
