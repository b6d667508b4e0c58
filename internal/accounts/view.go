package accounts

import (
	"time"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// AccountView is the JSON form of an account record. Quantities are decimal
// strings with up to 18 fractional digits.
type AccountView struct {
	Address string    `json:"address"`
	Balance string    `json:"balance"`
	Deposit string    `json:"deposit"`
	AsOf    time.Time `json:"as_of"`
}

// EventView is the JSON form of a Transfer event.
type EventView struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Amount string    `json:"amount"`
	At     time.Time `json:"at"`
}

// NewEventView renders ev for API responses.
func NewEventView(ev ledger.Event) EventView {
	return EventView{
		ID:     ev.ID.String(),
		From:   ev.From.Hex(),
		To:     ev.To.Hex(),
		Amount: amount.Format(ev.Amount),
		At:     ev.At,
	}
}

// NewAccountView renders a Summary for API responses.
func NewAccountView(s Summary) AccountView {
	return AccountView{
		Address: s.Address.Hex(),
		Balance: amount.Format(s.Account.Balance),
		Deposit: amount.Format(s.Account.Deposit),
		AsOf:    s.AsOf,
	}
}
