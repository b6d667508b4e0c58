package issuance

import "github.com/curation-ledger/curation_ledger/internal/accounts"

// MintRequest issues shares backed by a deposit.
type MintRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Deposit string `json:"deposit"`
}

// BurnRequest destroys shares of an account.
type BurnRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// IssuanceResponse is returned by both mint and burn.
type IssuanceResponse struct {
	Transfer    accounts.EventView   `json:"transfer"`
	Account     accounts.AccountView `json:"account"`
	TotalSupply string               `json:"total_supply"`
	Released    string               `json:"released_deposit,omitempty"`
}
