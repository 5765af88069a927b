package presentation

import "context"

// EventChannel carries at most one pending one-shot event.
//
// Publish overwrites whatever is pending. Observers see the pending event
// when they subscribe and every event published afterwards, until the
// consumer acknowledges it with Reset.
type EventChannel[T any] struct {
	flow      *StateFlow[T]
	nothing   T
	isNothing func(T) bool
}

func NewEventChannel[T any](nothing T, isNothing func(T) bool) *EventChannel[T] {
	return &EventChannel[T]{
		flow:      NewStateFlow(nothing),
		nothing:   nothing,
		isNothing: isNothing,
	}
}

func (c *EventChannel[T]) Publish(event T) {
	c.flow.Set(event)
}

// Reset acknowledges the pending event. Resetting an empty channel is a no-op.
func (c *EventChannel[T]) Reset() {
	c.flow.Update(func(current T) T {
		if c.isNothing(current) {
			return current
		}
		return c.nothing
	})
}

// Value returns the pending event, or the nothing sentinel.
func (c *EventChannel[T]) Value() T {
	return c.flow.Value()
}

func (c *EventChannel[T]) Pending() (T, bool) {
	v := c.flow.Value()
	return v, !c.isNothing(v)
}

// Observe calls onEvent for the pending event and every later one until ctx
// is done. Nothing values are skipped. onEvent runs on the observing
// goroutine and should call Reset before doing anything that can block.
func (c *EventChannel[T]) Observe(ctx context.Context, onEvent func(T)) {
	sub := c.flow.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			if c.isNothing(event) {
				continue
			}
			onEvent(event)
		}
	}
}
