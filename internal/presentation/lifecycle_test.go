package presentation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatOnStarted(t *testing.T) {
	lc := NewLifecycle()
	var running, runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		RepeatOnStarted(ctx, lc, func(ctx context.Context) {
			runs.Add(1)
			running.Add(1)
			<-ctx.Done()
			running.Add(-1)
		})
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, runs.Load(), "block does not run while stopped")

	lc.Start()
	require.Eventually(t, func() bool { return running.Load() == 1 }, time.Second, 5*time.Millisecond)
	lc.Start()

	lc.Stop()
	require.Eventually(t, func() bool { return running.Load() == 0 }, time.Second, 5*time.Millisecond)

	lc.Start()
	require.Eventually(t, func() bool { return runs.Load() == 2 && running.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, running.Load(), "block is cancelled on exit")
}

func TestObserveAsEvents_RedeliversPendingOnResume(t *testing.T) {
	lc := NewLifecycle()
	ch := newCoinListEvents()
	rec := &eventRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		// does not acknowledge, so the event stays pending
		ObserveAsEvents(ctx, lc, ch, rec.record)
	}()

	ch.Publish(errorEvent("boom"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "nothing is delivered while stopped")

	lc.Start()
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	lc.Stop()
	lc.Start()
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestObserveAsEvents_AcknowledgedNotRedelivered(t *testing.T) {
	lc := NewLifecycle()
	lc.Start()
	ch := newCoinListEvents()
	rec := &eventRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ObserveAsEvents(ctx, lc, ch, func(e CoinListEvent) {
			ch.Reset()
			rec.record(e)
		})
	}()

	ch.Publish(errorEvent("boom"))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	lc.Stop()
	lc.Start()
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)

	cancel()
	<-done
}
