package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySend_FullQueueReturnsErrQueueFull(t *testing.T) {
	q := NewQueue[int](2)
	require.NoError(t, q.TrySend(1))
	require.NoError(t, q.TrySend(2))
	assert.ErrorIs(t, q.TrySend(3), ErrQueueFull)
}

func TestTrySend_ClosedQueueReturnsErrQueueClosed(t *testing.T) {
	q := NewQueue[int](2)
	q.Close()
	assert.ErrorIs(t, q.TrySend(1), ErrQueueClosed)
}

func TestDrain_FlushesOnMaxRecords(t *testing.T) {
	q := NewQueue[int](10)
	var mu sync.Mutex
	var flushed [][]int

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		Drain(ctx, q, time.Hour, 3, func(batch []int) error {
			mu.Lock()
			cp := append([]int(nil), batch...)
			flushed = append(flushed, cp)
			mu.Unlock()
			return nil
		})
		close(done)
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.TrySend(i))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 1
	}, time.Second, 10*time.Millisecond)

	q.Close()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 1)
	assert.Equal(t, []int{0, 1, 2}, flushed[0])
}

func TestDrain_FlushesOnWindowAndOnClose(t *testing.T) {
	q := NewQueue[int](10)
	var mu sync.Mutex
	var flushed [][]int

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		Drain(ctx, q, 20*time.Millisecond, 100, func(batch []int) error {
			mu.Lock()
			cp := append([]int(nil), batch...)
			flushed = append(flushed, cp)
			mu.Unlock()
			return nil
		})
		close(done)
	}()

	require.NoError(t, q.TrySend(42))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, q.TrySend(7))
	q.Close()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 2)
	assert.Equal(t, []int{42}, flushed[0])
	assert.Equal(t, []int{7}, flushed[1])
}
