package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingPool_RunsSubmittedJobs(t *testing.T) {
	pool := NewWorkingPool(2, 8)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	done := make(chan struct{})
	err := pool.SubmitJob(func(context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never executed")
	}

	cancel()
	wg.Wait()
}

func TestWorkingPool_SubmitAfterShutdownErrorsInsteadOfPanicking(t *testing.T) {
	pool := NewWorkingPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	cancel()
	wg.Wait()

	err := pool.SubmitJob(func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestWorkingPool_SubmitFailsFastWhenQueueFull(t *testing.T) {
	// Pool never started: nothing drains the queue.
	pool := NewWorkingPool(1, 1)

	require.NoError(t, pool.SubmitJob(func(context.Context) error { return nil }))
	assert.Error(t, pool.SubmitJob(func(context.Context) error { return nil }))
}
