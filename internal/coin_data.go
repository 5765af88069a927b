package internal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Coin is a tracked asset as reported by the remote data source.
type Coin struct {
	ID                string
	Rank              int
	Name              string
	Symbol            string
	MarketCapUsd      decimal.Decimal
	PriceUsd          decimal.Decimal
	ChangePercent24Hr decimal.Decimal
}

type PricePoint struct {
	PriceUsd decimal.Decimal
	DateTime time.Time
}

// CoinDataSource is the remote side of the coin list screen. Every non-nil
// error returned by an implementation is a *DataError.
type CoinDataSource interface {
	GetCoins(ctx context.Context) ([]Coin, error)
	GetCoinHistory(ctx context.Context, coinID string, start, end time.Time) ([]PricePoint, error)
}
