package presentation

import (
	"context"
	"sync"
)

// Lifecycle tracks whether the screen is visible. The UI calls Start when it
// becomes visible and Stop when it is hidden.
type Lifecycle struct {
	state *StateFlow[lifecycleState]
}

// generation counts Start calls so that a Stop/Start pair collapsed by
// conflation still reads as a restart.
type lifecycleState struct {
	started    bool
	generation uint64
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: NewStateFlow(lifecycleState{})}
}

// Start is a no-op when already started.
func (l *Lifecycle) Start() {
	l.state.Update(func(s lifecycleState) lifecycleState {
		if s.started {
			return s
		}
		return lifecycleState{started: true, generation: s.generation + 1}
	})
}

func (l *Lifecycle) Stop() {
	l.state.Update(func(s lifecycleState) lifecycleState {
		s.started = false
		return s
	})
}

func (l *Lifecycle) Started() bool {
	return l.state.Value().started
}

// RepeatOnStarted runs block every time the lifecycle enters the started
// state. The context handed to block is cancelled when the lifecycle stops
// or ctx is done; RepeatOnStarted waits for block to return before starting
// it again, and returns once ctx is done.
func RepeatOnStarted(ctx context.Context, lc *Lifecycle, block func(ctx context.Context)) {
	sub := lc.state.Subscribe()
	defer sub.Close()

	var (
		wg         sync.WaitGroup
		cancel     context.CancelFunc
		generation uint64
	)
	stop := func() {
		if cancel != nil {
			cancel()
			wg.Wait()
			cancel = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-sub.C():
			if !ok {
				return
			}
			if !state.started {
				stop()
				continue
			}
			if cancel != nil && state.generation == generation {
				continue
			}
			stop()
			generation = state.generation
			var blockCtx context.Context
			blockCtx, cancel = context.WithCancel(ctx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				block(blockCtx)
			}()
		}
	}
}

// ObserveAsEvents delivers events from ch to onEvent while lc is started.
// Each restart re-subscribes, so an event that is still pending when the
// screen comes back is delivered again.
func ObserveAsEvents[T any](ctx context.Context, lc *Lifecycle, ch *EventChannel[T], onEvent func(T)) {
	RepeatOnStarted(ctx, lc, func(ctx context.Context) {
		ch.Observe(ctx, onEvent)
	})
}
