package orchestrator

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool, err := NewWorkerPool(2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer pool.Shutdown(time.Second)

	assert.Equal(t, 2, pool.Capacity())

	var (
		wg       sync.WaitGroup
		running  atomic.Int32
		maxSeen  atomic.Int32
		finished atomic.Int32
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				seen := maxSeen.Load()
				if n <= seen || maxSeen.CompareAndSwap(seen, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			finished.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(6), finished.Load())
	assert.LessOrEqual(t, maxSeen.Load(), int32(2))
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool, err := NewWorkerPool(1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	pool.Shutdown(time.Second)

	err = pool.Submit(func() {})
	assert.ErrorIs(t, err, ants.ErrPoolClosed)
}
