// Package presentation holds the screen state of the coin tracker and the
// controller that keeps it in sync with the remote data source.
//
// State is published as immutable snapshots through StateFlow. Writers go
// through Update, which serialises read-modify-write cycles; readers get
// whole snapshots and never see a partially applied change. One-shot
// notifications travel through EventChannel and are acknowledged with Reset.
package presentation

import (
	"sync"

	"github.com/google/uuid"
)

// StateFlow holds the latest value of T and pushes it to subscribers.
//
// Values stored in a StateFlow must be treated as immutable: Update receives
// the current snapshot and returns a new one.
type StateFlow[T any] struct {
	mu          sync.Mutex
	value       T
	subscribers map[uuid.UUID]*Subscription[T]
}

// Subscription receives values published on a StateFlow.
//
// Delivery is conflated: the channel buffers only the latest undelivered
// value, so a slow reader skips intermediate snapshots but always ends up
// with the newest one.
type Subscription[T any] struct {
	id     uuid.UUID
	ch     chan T
	flow   *StateFlow[T]
	closed bool
}

func NewStateFlow[T any](initial T) *StateFlow[T] {
	return &StateFlow[T]{
		value:       initial,
		subscribers: make(map[uuid.UUID]*Subscription[T]),
	}
}

func (f *StateFlow[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *StateFlow[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publish(v)
}

// Update atomically replaces the current value with fn(current) and returns
// the new value. fn must not call back into the same StateFlow.
func (f *StateFlow[T]) Update(fn func(T) T) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := fn(f.value)
	f.publish(next)
	return next
}

// Subscribe registers a new subscription that immediately holds the current value.
func (f *StateFlow[T]) Subscribe() *Subscription[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &Subscription[T]{
		id:   uuid.New(),
		ch:   make(chan T, 1),
		flow: f,
	}
	sub.ch <- f.value
	f.subscribers[sub.id] = sub
	return sub
}

// publish must be called with f.mu held.
func (f *StateFlow[T]) publish(v T) {
	f.value = v
	for _, sub := range f.subscribers {
		select {
		case sub.ch <- v:
		default:
			// drop the stale value, keep the newest
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- v
		}
	}
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close stops delivery and closes the channel. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.flow.mu.Lock()
	defer s.flow.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.flow.subscribers, s.id)
	close(s.ch)
}
