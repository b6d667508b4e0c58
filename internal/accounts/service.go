package accounts

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Ledger is the read side of the ledger engine.
type Ledger interface {
	Governor() common.Address
	Account(ctx context.Context, addr common.Address) (ledger.Account, error)
	TotalSupply(ctx context.Context) (uint256.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error)
	ValueOf(ctx context.Context, addr common.Address, amt uint256.Int) (uint256.Int, error)
	History(ctx context.Context, addr common.Address, limit int) ([]ledger.Event, error)
}

// Token describes the share token.
type Token struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Governor string `json:"governor"`
}

// Summary is an account record at a point in time.
type Summary struct {
	Address common.Address
	Account ledger.Account
	AsOf    time.Time
}

// Service answers balance, deposit and history queries.
type Service struct {
	ledger Ledger
	token  Token
}

// NewService builds an accounts service over the ledger read API.
func NewService(l Ledger, name, symbol string) *Service {
	return &Service{
		ledger: l,
		token: Token{
			Name:     name,
			Symbol:   symbol,
			Decimals: amount.Decimals,
			Governor: l.Governor().Hex(),
		},
	}
}

// Token returns the token metadata.
func (s *Service) Token() Token {
	return s.token
}

// Summary returns the balance and deposit of addr.
func (s *Service) Summary(ctx context.Context, addr common.Address) (Summary, error) {
	acc, err := s.ledger.Account(ctx, addr)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Address: addr, Account: acc, AsOf: time.Now().UTC()}, nil
}

// ValueOf returns the deposit backing amt shares of addr.
func (s *Service) ValueOf(ctx context.Context, addr common.Address, amt uint256.Int) (uint256.Int, error) {
	return s.ledger.ValueOf(ctx, addr, amt)
}

// TotalSupply returns the sum of all share balances.
func (s *Service) TotalSupply(ctx context.Context) (uint256.Int, error) {
	return s.ledger.TotalSupply(ctx)
}

// Allowance returns how many shares spender may still move out of owner.
func (s *Service) Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error) {
	return s.ledger.Allowance(ctx, owner, spender)
}

// History lists Transfer events touching addr, newest first.
func (s *Service) History(ctx context.Context, addr common.Address, limit int) ([]ledger.Event, error) {
	return s.ledger.History(ctx, addr, limit)
}
