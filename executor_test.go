package connpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecutorRunBlocksUntilDone(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	var ran bool
	e.Run(context.Background(), func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		ran = true
	})
	require.True(t, ran)
}

func TestExecutorIsCurrentInline(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	var nested bool
	e.Run(context.Background(), func(ctx context.Context) {
		require.True(t, e.IsCurrent(ctx))
		// A nested Run on the same Executor, carrying the marked ctx, must
		// execute inline rather than deadlock against the single worker.
		e.Run(ctx, func(ctx context.Context) {
			nested = true
		})
	})
	require.True(t, nested)
}

func TestExecutorSerializesWork(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Run(context.Background(), func(ctx context.Context) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	require.Len(t, order, 5)
}

func TestExecutorGoFireAndForget(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	done := make(chan struct{})
	e.Go(context.Background(), func(ctx context.Context) {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go closure never ran")
	}
}

func TestExecutorDistinctExecutorsNotCurrent(t *testing.T) {
	e1 := NewExecutor()
	e2 := NewExecutor()
	defer e1.Close()
	defer e2.Close()

	e1.Run(context.Background(), func(ctx context.Context) {
		require.True(t, e1.IsCurrent(ctx))
		require.False(t, e2.IsCurrent(ctx))
	})
}
