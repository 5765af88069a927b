package presentation

import "cryptotracker/internal"

// CoinListEvent is a one-shot notification for the coin list screen.
type CoinListEvent interface {
	isCoinListEvent()
}

// NothingEvent means no notification is pending.
type NothingEvent struct{}

type ErrorEvent struct {
	Err *internal.DataError
}

func (NothingEvent) isCoinListEvent() {}
func (ErrorEvent) isCoinListEvent()   {}

// Message is the user-facing text of the error.
func (e ErrorEvent) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func isNothingEvent(e CoinListEvent) bool {
	if e == nil {
		return true
	}
	_, ok := e.(NothingEvent)
	return ok
}

func newCoinListEvents() *EventChannel[CoinListEvent] {
	return NewEventChannel[CoinListEvent](NothingEvent{}, isNothingEvent)
}
