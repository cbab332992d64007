package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_GoDoesNotBlockWhenSaturated(t *testing.T) {
	e := NewExecutor(context.Background(), 1, time.Minute)
	release := make(chan struct{})
	var ran atomic.Int32

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Go("t", func(ctx context.Context) {
			ran.Add(1)
			<-release
		}))
	}
	assert.Less(t, time.Since(start), time.Second)

	// only one job holds the single slot
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, ran.Load())

	close(release)
	require.Eventually(t, func() bool { return ran.Load() == 5 }, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestExecutor_TaskTimeout(t *testing.T) {
	e := NewExecutor(context.Background(), 2, 20*time.Millisecond)
	got := make(chan error, 1)

	require.NoError(t, e.Go("t", func(ctx context.Context) {
		<-ctx.Done()
		got <- ctx.Err()
	}))

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled by its deadline")
	}
}

func TestExecutor_ShutdownCancelsRunningAndQueued(t *testing.T) {
	e := NewExecutor(context.Background(), 1, time.Minute)
	errs := make(chan error, 2)
	started := make(chan struct{})

	require.NoError(t, e.Go("running", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		errs <- ctx.Err()
	}))
	<-started
	require.NoError(t, e.Go("queued", func(ctx context.Context) {
		errs <- ctx.Err()
	}))

	require.NoError(t, e.Shutdown(context.Background()))
	close(errs)

	var n int
	for err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestExecutor_GoAfterShutdown(t *testing.T) {
	e := NewExecutor(context.Background(), 1, time.Minute)
	require.NoError(t, e.Shutdown(context.Background()))

	err := e.Go("t", func(context.Context) {})
	assert.ErrorIs(t, err, ErrExecutorClosed)
}

func TestExecutor_RecoversPanic(t *testing.T) {
	e := NewExecutor(context.Background(), 1, time.Minute)
	done := make(chan struct{})

	require.NoError(t, e.Go("boom", func(context.Context) {
		panic("boom")
	}))
	require.NoError(t, e.Go("after", func(context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after panic")
	}
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestExecutor_ShutdownBoundedByContext(t *testing.T) {
	e := NewExecutor(context.Background(), 1, time.Minute)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, e.Go("stubborn", func(context.Context) {
		<-release
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := e.Shutdown(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
