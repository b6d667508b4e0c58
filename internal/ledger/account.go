package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/amount"
)

// Account is the per-holder record. Deposit is the capital backing attributed
// to the Balance shares.
type Account struct {
	Balance uint256.Int
	Deposit uint256.Int
}

// IsZero reports whether the record equals the implicit default of an absent
// account.
func (a Account) IsZero() bool {
	return a.Balance.IsZero() && a.Deposit.IsZero()
}

// ValueOf returns floor(Deposit * amt / Balance), the deposit attributable to
// amt shares of this account.
func (a Account) ValueOf(amt uint256.Int) (uint256.Int, error) {
	if amt.Gt(&a.Balance) {
		return uint256.Int{}, ErrInsufficientBalance
	}
	if amt.IsZero() {
		return uint256.Int{}, nil
	}
	return amount.MulDiv(a.Deposit, amt, a.Balance)
}

// Release removes amt shares and their proportional deposit, returning the
// remaining record and the deposit removed. Releasing the whole balance takes
// the whole deposit so no rounding dust is left behind.
func (a Account) Release(amt uint256.Int) (Account, uint256.Int, error) {
	if amt.Gt(&a.Balance) {
		return a, uint256.Int{}, ErrInsufficientBalance
	}
	if amt.Eq(&a.Balance) {
		return Account{}, a.Deposit, nil
	}

	delta, err := a.ValueOf(amt)
	if err != nil {
		return a, uint256.Int{}, err
	}

	var rest Account
	rest.Balance.Sub(&a.Balance, &amt)
	rest.Deposit.Sub(&a.Deposit, &delta)
	return rest, delta, nil
}

// Credit adds shares and deposit to the account.
func (a Account) Credit(shares, deposit uint256.Int) (Account, error) {
	balance, err := amount.Add(a.Balance, shares)
	if err != nil {
		return a, ErrAmountOverflow
	}
	backing, err := amount.Add(a.Deposit, deposit)
	if err != nil {
		return a, ErrAmountOverflow
	}
	return Account{Balance: balance, Deposit: backing}, nil
}

// ParseAddress parses a 0x-prefixed hex account identifier.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAccount, s)
	}
	return common.HexToAddress(s), nil
}

func overflowErr(err error) error {
	if errors.Is(err, amount.ErrOverflow) {
		return ErrAmountOverflow
	}
	return err
}
