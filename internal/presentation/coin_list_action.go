package presentation

// CoinListAction is a user intent dispatched to CoinListController.OnAction.
type CoinListAction interface {
	isCoinListAction()
}

type CoinSelected struct {
	Coin CoinUi
}

// Back clears the current selection.
type Back struct{}

func (CoinSelected) isCoinListAction() {}
func (Back) isCoinListAction()         {}
