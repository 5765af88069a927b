package ui

import (
	"sync"
	"time"
)

// toastDuration matches a short platform toast.
const toastDuration = 2 * time.Second

// toast shows a single transient message; a newer message replaces the old one.
type toast struct {
	mu      sync.Mutex
	message string
	until   time.Time
}

func (t *toast) show(message string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = message
	t.until = now.Add(toastDuration)
}

func (t *toast) current(now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.message == "" || !now.Before(t.until) {
		return "", false
	}
	return t.message, true
}
