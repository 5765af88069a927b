package presentation

import (
	"sort"
	"time"

	"cryptotracker/internal"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// priceLabelLayout renders an hour with AM/PM above the month/day, e.g. "3PM\n10/18".
const priceLabelLayout = "3PM\n1/2"

var numberPrinter = message.NewPrinter(language.English)

// DisplayableNumber keeps a value together with its on-screen text.
type DisplayableNumber struct {
	Value     float64
	Formatted string
}

func toDisplayableNumber(d decimal.Decimal) DisplayableNumber {
	v := d.InexactFloat64()
	return DisplayableNumber{
		Value:     v,
		Formatted: numberPrinter.Sprintf("%.2f", v),
	}
}

// DataPoint is one chart sample: X is the hour of day, Y the price.
type DataPoint struct {
	X      float64
	Y      float64
	XLabel string
}

type CoinUi struct {
	ID                string
	Rank              int
	Name              string
	Symbol            string
	MarketCapUsd      DisplayableNumber
	PriceUsd          DisplayableNumber
	ChangePercent24Hr DisplayableNumber
	CoinPriceHistory  []DataPoint
}

func ToCoinUi(coin internal.Coin) CoinUi {
	return CoinUi{
		ID:                coin.ID,
		Rank:              coin.Rank,
		Name:              coin.Name,
		Symbol:            coin.Symbol,
		MarketCapUsd:      toDisplayableNumber(coin.MarketCapUsd),
		PriceUsd:          toDisplayableNumber(coin.PriceUsd),
		ChangePercent24Hr: toDisplayableNumber(coin.ChangePercent24Hr),
		CoinPriceHistory:  []DataPoint{},
	}
}

// WithHistory returns a copy of c carrying history.
func (c CoinUi) WithHistory(history []DataPoint) CoinUi {
	c.CoinPriceHistory = history
	return c
}

// WithPrice returns a copy of c priced at price.
func (c CoinUi) WithPrice(price decimal.Decimal) CoinUi {
	c.PriceUsd = toDisplayableNumber(price)
	return c
}

// ToDataPoints orders history by time and maps it to chart points in loc.
// The input slice is not modified.
func ToDataPoints(history []internal.PricePoint, loc *time.Location) []DataPoint {
	if loc == nil {
		loc = time.Local
	}

	sorted := make([]internal.PricePoint, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateTime.Before(sorted[j].DateTime)
	})

	points := make([]DataPoint, 0, len(sorted))
	for _, p := range sorted {
		t := p.DateTime.In(loc)
		points = append(points, DataPoint{
			X:      float64(t.Hour()),
			Y:      p.PriceUsd.InexactFloat64(),
			XLabel: t.Format(priceLabelLayout),
		})
	}
	return points
}
