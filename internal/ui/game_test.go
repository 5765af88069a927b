package ui

import (
	"sync"
	"testing"
	"time"

	"cryptotracker/internal"
	"cryptotracker/internal/presentation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScreen backs the game with real flows and records actions
type fakeScreen struct {
	state  *presentation.StateFlow[presentation.CoinListState]
	events *presentation.EventChannel[presentation.CoinListEvent]

	mu      sync.Mutex
	actions []presentation.CoinListAction
	resets  int
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{
		state: presentation.NewStateFlow(presentation.CoinListState{}),
		events: presentation.NewEventChannel[presentation.CoinListEvent](presentation.NothingEvent{}, func(e presentation.CoinListEvent) bool {
			_, ok := e.(presentation.NothingEvent)
			return ok
		}),
	}
}

func (f *fakeScreen) SubscribeState() *presentation.Subscription[presentation.CoinListState] {
	return f.state.Subscribe()
}

func (f *fakeScreen) Events() *presentation.EventChannel[presentation.CoinListEvent] {
	return f.events
}

func (f *fakeScreen) OnAction(action presentation.CoinListAction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeScreen) ResetEvents() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
	f.events.Reset()
}

func TestGame_ErrorEventShowsToastAndResets(t *testing.T) {
	screen := newFakeScreen()
	g := newGame(screen, nil, 1, 20)
	defer g.Close()

	screen.events.Publish(presentation.ErrorEvent{Err: &internal.DataError{Message: "network down"}})
	event, pending := screen.events.Pending()
	require.True(t, pending)

	g.onEvent(event)

	assert.Equal(t, 1, screen.resets)
	_, pending = screen.events.Pending()
	assert.False(t, pending, "event is acknowledged")

	msg, ok := g.toast.current(time.Now())
	assert.True(t, ok)
	assert.Equal(t, "network down", msg)
}

func TestGame_PollStateKeepsNewest(t *testing.T) {
	screen := newFakeScreen()
	g := newGame(screen, nil, 1, 20)
	defer g.Close()

	assert.False(t, g.state.IsLoading)

	screen.state.Set(presentation.CoinListState{IsLoading: true})
	screen.state.Set(presentation.CoinListState{Coins: []presentation.CoinUi{{ID: "bitcoin"}}})
	g.pollState()

	assert.False(t, g.state.IsLoading)
	require.Len(t, g.state.Coins, 1)
	assert.Equal(t, "bitcoin", g.state.Coins[0].ID)
}

func TestRowText(t *testing.T) {
	coin := presentation.CoinUi{
		Rank:              1,
		Symbol:            "BTC",
		PriceUsd:          presentation.DisplayableNumber{Value: 50000, Formatted: "50,000.00"},
		ChangePercent24Hr: presentation.DisplayableNumber{Value: -1.5, Formatted: "-1.50"},
	}

	assert.Equal(t, "#1   BTC    $50,000.00  -1.50%", rowText(coin))
	assert.Equal(t, downColor, changeColor(-1.5))
	assert.Equal(t, upColor, changeColor(0.1))
	assert.Equal(t, textColor, changeColor(0))
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "3PM 10/18", axisLabel("3PM\n10/18"))
}
