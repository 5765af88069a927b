package presentation

import (
	"context"
	"sync"
	"time"

	"cryptotracker/internal"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultHistoryWindow = 5 * 24 * time.Hour

// ControllerConfig holds configuration parameters for CoinListController.
type ControllerConfig struct {
	HistoryWindow time.Duration    // Length of the trailing history window ending now
	Location      *time.Location   // Zone used for chart hours and labels
	Now           func() time.Time // Clock, replaceable in tests
}

func (cfg ControllerConfig) withDefaults() ControllerConfig {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// CoinListController owns the coin list screen state and its event channel.
//
// All state changes go through state.Update, so every observer sees complete
// snapshots. Fetches run on their own goroutines and report back through the
// same path. Work is bound to the controller's session context and stops on
// Close.
type CoinListController struct {
	cfg    ControllerConfig
	source internal.CoinDataSource
	state  *StateFlow[CoinListState]
	events *EventChannel[CoinListEvent]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	loading       int                // in-flight LoadCoins calls
	historySeq    uint64             // id of the latest history request
	cancelHistory context.CancelFunc // cancels the latest history request
}

// NewCoinListController creates the controller and starts the initial coin load.
func NewCoinListController(ctx context.Context, source internal.CoinDataSource, cfg ControllerConfig) *CoinListController {
	ctx, cancel := context.WithCancel(ctx)
	c := &CoinListController{
		cfg:    cfg.withDefaults(),
		source: source,
		state:  NewStateFlow(CoinListState{Coins: []CoinUi{}}),
		events: newCoinListEvents(),
		ctx:    ctx,
		cancel: cancel,
	}
	c.LoadCoins()
	return c
}

// State returns the current snapshot.
func (c *CoinListController) State() CoinListState {
	return c.state.Value()
}

func (c *CoinListController) SubscribeState() *Subscription[CoinListState] {
	return c.state.Subscribe()
}

func (c *CoinListController) Events() *EventChannel[CoinListEvent] {
	return c.events
}

// ResetEvents acknowledges the pending event.
func (c *CoinListController) ResetEvents() {
	c.events.Reset()
}

// LoadCoins fetches the coin list in the background. IsLoading stays set
// until every outstanding load has finished; each successful load replaces
// the whole list.
func (c *CoinListController) LoadCoins() {
	c.state.Update(func(s CoinListState) CoinListState {
		c.mu.Lock()
		c.loading++
		c.mu.Unlock()
		return s.withLoading(true)
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		log.Debug().Msg("loading coins")
		coins, err := c.source.GetCoins(c.ctx)

		var coinUis []CoinUi
		if err == nil {
			coinUis = make([]CoinUi, 0, len(coins))
			for _, coin := range coins {
				coinUis = append(coinUis, ToCoinUi(coin))
			}
		}

		c.state.Update(func(s CoinListState) CoinListState {
			c.mu.Lock()
			c.loading--
			s = s.withLoading(c.loading > 0)
			c.mu.Unlock()
			if err != nil {
				return s
			}
			return s.withCoins(coinUis)
		})

		if err != nil {
			if !internal.IsCanceled(err) {
				c.publishError("load coins", err)
			}
			return
		}
		log.Info().Int("coins", len(coinUis)).Msg("coins loaded")
	}()
}

// OnAction handles a user action. The state change for a selection is
// applied before OnAction returns; the history fetch continues in the
// background.
func (c *CoinListController) OnAction(action CoinListAction) {
	switch a := action.(type) {
	case CoinSelected:
		c.selectCoin(a.Coin)
	case Back:
		c.clearSelection()
	default:
		log.Warn().Type("action", action).Msg("unhandled coin list action")
	}
}

func (c *CoinListController) selectCoin(coin CoinUi) {
	selected := coin.WithHistory([]DataPoint{})
	c.state.Update(func(s CoinListState) CoinListState {
		return s.withSelected(&selected)
	})

	now := c.cfg.Now()
	c.loadHistory(coin.ID, now.Add(-c.cfg.HistoryWindow), now)
}

func (c *CoinListController) clearSelection() {
	c.mu.Lock()
	c.historySeq++
	if c.cancelHistory != nil {
		c.cancelHistory()
		c.cancelHistory = nil
	}
	c.mu.Unlock()

	c.state.Update(func(s CoinListState) CoinListState {
		return s.withSelected(nil)
	})
}

// loadHistory fetches the price history of coinID and merges it into the
// selection. A newer request cancels this one, and the result is dropped
// unless coinID is still the selected coin.
func (c *CoinListController) loadHistory(coinID string, start, end time.Time) {
	ctx, cancel := context.WithCancel(c.ctx)

	c.mu.Lock()
	if c.cancelHistory != nil {
		c.cancelHistory()
	}
	c.historySeq++
	seq := c.historySeq
	c.cancelHistory = cancel
	c.mu.Unlock()

	logger := log.With().Str("coin", coinID).Uint64("request", seq).Logger()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		history, err := c.source.GetCoinHistory(ctx, coinID, start, end)
		if err != nil {
			if internal.IsCanceled(err) || ctx.Err() != nil {
				logger.Debug().Msg("history request superseded")
				return
			}
			c.publishError("load history", err)
			return
		}

		points := ToDataPoints(history, c.cfg.Location)

		merged := false
		c.state.Update(func(s CoinListState) CoinListState {
			if !c.isLatestHistory(seq) || !s.IsSelected(coinID) {
				return s
			}
			selected := s.SelectedCoin.WithHistory(points)
			merged = true
			return s.withSelected(&selected)
		})

		if !merged {
			logger.Debug().Msg("discarding stale history")
			return
		}
		logger.Debug().Int("points", len(points)).Msg("history loaded")
	}()
}

func (c *CoinListController) isLatestHistory(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historySeq == seq
}

// ApplyPrices updates the price of every listed coin found in prices, and of
// the selected coin. Price history is left untouched.
func (c *CoinListController) ApplyPrices(prices map[string]decimal.Decimal) {
	if len(prices) == 0 {
		return
	}
	c.state.Update(func(s CoinListState) CoinListState {
		coins := make([]CoinUi, len(s.Coins))
		for i, coin := range s.Coins {
			if price, ok := prices[coin.ID]; ok {
				coin = coin.WithPrice(price)
			}
			coins[i] = coin
		}
		s = s.withCoins(coins)

		if s.SelectedCoin != nil {
			if price, ok := prices[s.SelectedCoin.ID]; ok {
				selected := s.SelectedCoin.WithPrice(price)
				s = s.withSelected(&selected)
			}
		}
		return s
	})
}

func (c *CoinListController) publishError(op string, err error) {
	dataErr := internal.AsDataError(err)
	log.Error().Str("op", op).Str("error", dataErr.Detail()).Msg("coin data request failed")
	c.events.Publish(ErrorEvent{Err: dataErr})
}

// Close cancels in-flight requests and waits for them to finish.
func (c *CoinListController) Close() {
	c.cancel()
	c.wg.Wait()
}
