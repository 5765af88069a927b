package presentation

// CoinListState is the full state of the coin list screen. A published
// CoinListState is never mutated; every change produces a new value.
type CoinListState struct {
	IsLoading    bool
	Coins        []CoinUi
	SelectedCoin *CoinUi
}

func (s CoinListState) withLoading(loading bool) CoinListState {
	s.IsLoading = loading
	return s
}

func (s CoinListState) withCoins(coins []CoinUi) CoinListState {
	s.Coins = coins
	return s
}

func (s CoinListState) withSelected(coin *CoinUi) CoinListState {
	s.SelectedCoin = coin
	return s
}

// IsSelected reports whether the coin with id is the selected one.
func (s CoinListState) IsSelected(id string) bool {
	return s.SelectedCoin != nil && s.SelectedCoin.ID == id
}
