package transfers

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Ledger is the holder-facing write side of the ledger engine.
type Ledger interface {
	Transfer(ctx context.Context, from, to common.Address, amt uint256.Int) (ledger.Receipt, error)
	TransferFrom(ctx context.Context, spender, from, to common.Address, amt uint256.Int) (ledger.Receipt, error)
	Approve(ctx context.Context, owner, spender common.Address, value uint256.Int) error
	IncreaseAllowance(ctx context.Context, owner, spender common.Address, added uint256.Int) (uint256.Int, error)
	DecreaseAllowance(ctx context.Context, owner, spender common.Address, subtracted uint256.Int) (uint256.Int, error)
}

// Service moves shares between holders on behalf of authenticated callers.
type Service struct {
	ledger Ledger
}

// NewService constructs a transfer service.
func NewService(l Ledger) *Service {
	return &Service{ledger: l}
}

// TransferInput moves Amount shares from Caller to To.
type TransferInput struct {
	Caller common.Address
	To     common.Address
	Amount uint256.Int
}

// DelegatedTransferInput moves Amount shares from From to To using Caller's
// allowance over From.
type DelegatedTransferInput struct {
	Caller common.Address
	From   common.Address
	To     common.Address
	Amount uint256.Int
}

// AllowanceInput sets or adjusts the allowance Owner grants Spender.
type AllowanceInput struct {
	Owner   common.Address
	Spender common.Address
	Amount  uint256.Int
}

// Result describes a committed transfer and both accounts as that commit left
// them.
type Result struct {
	Event       ledger.Event
	From        ledger.Account
	To          ledger.Account
	CompletedAt time.Time
}

// Transfer moves shares and their proportional deposit out of the caller.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (Result, error) {
	r, err := s.ledger.Transfer(ctx, in.Caller, in.To, in.Amount)
	if err != nil {
		return Result{}, err
	}
	return newResult(r), nil
}

// TransferFrom spends the caller's allowance over From.
func (s *Service) TransferFrom(ctx context.Context, in DelegatedTransferInput) (Result, error) {
	r, err := s.ledger.TransferFrom(ctx, in.Caller, in.From, in.To, in.Amount)
	if err != nil {
		return Result{}, err
	}
	return newResult(r), nil
}

// Approve replaces the allowance and returns it.
func (s *Service) Approve(ctx context.Context, in AllowanceInput) (uint256.Int, error) {
	if err := s.ledger.Approve(ctx, in.Owner, in.Spender, in.Amount); err != nil {
		return uint256.Int{}, err
	}
	return in.Amount, nil
}

// IncreaseAllowance adds to the allowance and returns the new value.
func (s *Service) IncreaseAllowance(ctx context.Context, in AllowanceInput) (uint256.Int, error) {
	return s.ledger.IncreaseAllowance(ctx, in.Owner, in.Spender, in.Amount)
}

// DecreaseAllowance subtracts from the allowance and returns the new value.
// It fails instead of going below zero.
func (s *Service) DecreaseAllowance(ctx context.Context, in AllowanceInput) (uint256.Int, error) {
	return s.ledger.DecreaseAllowance(ctx, in.Owner, in.Spender, in.Amount)
}

func newResult(r ledger.Receipt) Result {
	return Result{Event: r.Event, From: r.FromAccount, To: r.ToAccount, CompletedAt: r.At}
}
