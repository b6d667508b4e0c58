package issuance

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Ledger is the governor-facing write side of the ledger engine.
type Ledger interface {
	Mint(ctx context.Context, caller, account common.Address, amt, deposit uint256.Int) (ledger.Receipt, error)
	BurnFrom(ctx context.Context, caller, account common.Address, amt uint256.Int) (ledger.Receipt, error)
}

// Service issues and retires shares. Only the ledger governor may call it
// successfully; the check itself lives in the engine.
type Service struct {
	ledger Ledger
}

// NewService prepares an issuance service.
func NewService(l Ledger) *Service {
	return &Service{ledger: l}
}

// MintInput captures a share issuance.
type MintInput struct {
	Caller  common.Address
	Account common.Address
	Amount  uint256.Int
	Deposit uint256.Int
}

// BurnInput captures a share retirement.
type BurnInput struct {
	Caller  common.Address
	Account common.Address
	Amount  uint256.Int
}

// Result is the outcome of a mint or burn.
type Result struct {
	Event       ledger.Event
	Account     ledger.Account
	TotalSupply uint256.Int
	// Released is the deposit removed by a burn.
	Released    uint256.Int
	CompletedAt time.Time
}

// Mint issues shares to an account together with their deposit.
func (s *Service) Mint(ctx context.Context, in MintInput) (Result, error) {
	r, err := s.ledger.Mint(ctx, in.Caller, in.Account, in.Amount, in.Deposit)
	if err != nil {
		return Result{}, err
	}
	return Result{Event: r.Event, Account: r.ToAccount, TotalSupply: r.TotalSupply, CompletedAt: r.At}, nil
}

// Burn destroys shares and reports the deposit released with them.
func (s *Service) Burn(ctx context.Context, in BurnInput) (Result, error) {
	r, err := s.ledger.BurnFrom(ctx, in.Caller, in.Account, in.Amount)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Event:       r.Event,
		Account:     r.FromAccount,
		TotalSupply: r.TotalSupply,
		Released:    r.Released,
		CompletedAt: r.At,
	}, nil
}
