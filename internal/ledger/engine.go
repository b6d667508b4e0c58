package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/amount"
)

const defaultHistoryLimit = 100

// Options configures an Engine. Governor is required; the rest is optional.
type Options struct {
	Governor common.Address
	Sink     EventSink
	Observer Observer
	Logger   *slog.Logger
}

// Engine applies mint, burn and transfer to a Store, keeping every account's
// deposit proportional to its balance.
type Engine struct {
	store    Store
	governor common.Address
	sink     EventSink
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine builds an engine over the provided store.
func NewEngine(store Store, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if opts.Governor == ZeroAddress {
		return nil, fmt.Errorf("governor address is required")
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:    store,
		governor: opts.Governor,
		sink:     opts.Sink,
		observer: opts.Observer,
		logger:   opts.Logger,
		now:      time.Now,
	}, nil
}

// Governor returns the account allowed to mint and burn.
func (e *Engine) Governor() common.Address {
	return e.governor
}

// Account returns the balance and deposit of addr.
func (e *Engine) Account(ctx context.Context, addr common.Address) (Account, error) {
	var acc Account
	err := e.store.View(ctx, func(r Reader) error {
		var err error
		acc, err = r.Account(ctx, addr)
		return err
	})
	return acc, err
}

// BalanceOf returns the share balance of addr.
func (e *Engine) BalanceOf(ctx context.Context, addr common.Address) (uint256.Int, error) {
	acc, err := e.Account(ctx, addr)
	return acc.Balance, err
}

// Deposits returns the deposit attributed to addr.
func (e *Engine) Deposits(ctx context.Context, addr common.Address) (uint256.Int, error) {
	acc, err := e.Account(ctx, addr)
	return acc.Deposit, err
}

// TotalSupply returns the sum of all balances.
func (e *Engine) TotalSupply(ctx context.Context) (uint256.Int, error) {
	var supply uint256.Int
	err := e.store.View(ctx, func(r Reader) error {
		var err error
		supply, err = r.TotalSupply(ctx)
		return err
	})
	return supply, err
}

// Allowance returns how many shares spender may still move out of owner.
func (e *Engine) Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error) {
	var value uint256.Int
	err := e.store.View(ctx, func(r Reader) error {
		var err error
		value, err = r.Allowance(ctx, owner, spender)
		return err
	})
	return value, err
}

// ValueOf returns the deposit proportionally attributable to amt shares of
// addr's balance, truncated toward zero.
func (e *Engine) ValueOf(ctx context.Context, addr common.Address, amt uint256.Int) (uint256.Int, error) {
	var value uint256.Int
	err := e.store.View(ctx, func(r Reader) error {
		acc, err := r.Account(ctx, addr)
		if err != nil {
			return err
		}
		value, err = acc.ValueOf(amt)
		return err
	})
	return value, err
}

// History returns the most recent Transfer events involving addr, newest first.
func (e *Engine) History(ctx context.Context, addr common.Address, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return e.store.History(ctx, addr, limit)
}

// Mint issues amt shares to account together with deposit. The added deposit
// is not checked against the account's existing ratio.
func (e *Engine) Mint(ctx context.Context, caller, account common.Address, amt, deposit uint256.Int) (Receipt, error) {
	return e.mutate(ctx, OpMint, func(w Writer) (Receipt, error) {
		if caller != e.governor {
			return Receipt{}, ErrUnauthorized
		}
		if account == ZeroAddress {
			return Receipt{}, ErrInvalidAccount
		}
		if amt.IsZero() && !deposit.IsZero() {
			return Receipt{}, ErrDepositWithoutBalance
		}

		supply, err := w.TotalSupply(ctx)
		if err != nil {
			return Receipt{}, err
		}
		supply, err = amount.Add(supply, amt)
		if err != nil {
			return Receipt{}, overflowErr(err)
		}

		acc, err := w.Account(ctx, account)
		if err != nil {
			return Receipt{}, err
		}
		acc, err = acc.Credit(amt, deposit)
		if err != nil {
			return Receipt{}, err
		}

		if err := w.PutAccount(ctx, account, acc); err != nil {
			return Receipt{}, err
		}
		if err := w.PutTotalSupply(ctx, supply); err != nil {
			return Receipt{}, err
		}
		return Receipt{
			Event:       e.newEvent(ZeroAddress, account, amt),
			ToAccount:   acc,
			TotalSupply: supply,
		}, nil
	})
}

// BurnFrom destroys amt shares of account and releases their proportional
// deposit, reported as Receipt.Released.
func (e *Engine) BurnFrom(ctx context.Context, caller, account common.Address, amt uint256.Int) (Receipt, error) {
	return e.mutate(ctx, OpBurn, func(w Writer) (Receipt, error) {
		if caller != e.governor {
			return Receipt{}, ErrUnauthorized
		}
		if account == ZeroAddress {
			return Receipt{}, ErrInvalidAccount
		}

		acc, err := w.Account(ctx, account)
		if err != nil {
			return Receipt{}, err
		}
		rest, delta, err := acc.Release(amt)
		if err != nil {
			return Receipt{}, err
		}

		supply, err := w.TotalSupply(ctx)
		if err != nil {
			return Receipt{}, err
		}
		supply, err = amount.Sub(supply, amt)
		if err != nil {
			return Receipt{}, fmt.Errorf("total supply below burned amount: %w", err)
		}

		if err := w.PutAccount(ctx, account, rest); err != nil {
			return Receipt{}, err
		}
		if err := w.PutTotalSupply(ctx, supply); err != nil {
			return Receipt{}, err
		}
		return Receipt{
			Event:       e.newEvent(account, ZeroAddress, amt),
			FromAccount: rest,
			TotalSupply: supply,
			Released:    delta,
		}, nil
	})
}

// Transfer moves amt shares and their proportional deposit from one holder to
// another.
func (e *Engine) Transfer(ctx context.Context, from, to common.Address, amt uint256.Int) (Receipt, error) {
	return e.mutate(ctx, OpTransfer, func(w Writer) (Receipt, error) {
		return e.move(ctx, w, from, to, amt)
	})
}

// TransferFrom moves shares out of from on behalf of spender, consuming
// spender's allowance.
func (e *Engine) TransferFrom(ctx context.Context, spender, from, to common.Address, amt uint256.Int) (Receipt, error) {
	return e.mutate(ctx, OpTransferFrom, func(w Writer) (Receipt, error) {
		if spender == ZeroAddress {
			return Receipt{}, ErrInvalidAccount
		}

		allowed, err := w.Allowance(ctx, from, spender)
		if err != nil {
			return Receipt{}, err
		}
		remaining, err := amount.Sub(allowed, amt)
		if err != nil {
			return Receipt{}, ErrInsufficientAllowance
		}

		r, err := e.move(ctx, w, from, to, amt)
		if err != nil {
			return Receipt{}, err
		}
		if err := w.PutAllowance(ctx, from, spender, remaining); err != nil {
			return Receipt{}, err
		}
		return r, nil
	})
}

// Approve sets the allowance of spender over owner's shares.
func (e *Engine) Approve(ctx context.Context, owner, spender common.Address, value uint256.Int) error {
	return e.update(ctx, OpApprove, func(w Writer) error {
		if owner == ZeroAddress || spender == ZeroAddress {
			return ErrInvalidAccount
		}
		return w.PutAllowance(ctx, owner, spender, value)
	})
}

// IncreaseAllowance raises the allowance of spender over owner's shares by added.
func (e *Engine) IncreaseAllowance(ctx context.Context, owner, spender common.Address, added uint256.Int) (uint256.Int, error) {
	var value uint256.Int
	err := e.update(ctx, OpIncreaseAllowance, func(w Writer) error {
		if owner == ZeroAddress || spender == ZeroAddress {
			return ErrInvalidAccount
		}
		current, err := w.Allowance(ctx, owner, spender)
		if err != nil {
			return err
		}
		value, err = amount.Add(current, added)
		if err != nil {
			return overflowErr(err)
		}
		return w.PutAllowance(ctx, owner, spender, value)
	})
	return value, err
}

// DecreaseAllowance lowers the allowance of spender over owner's shares by
// subtracted. It fails rather than clamping at zero.
func (e *Engine) DecreaseAllowance(ctx context.Context, owner, spender common.Address, subtracted uint256.Int) (uint256.Int, error) {
	var value uint256.Int
	err := e.update(ctx, OpDecreaseAllowance, func(w Writer) error {
		if owner == ZeroAddress || spender == ZeroAddress {
			return ErrInvalidAccount
		}
		current, err := w.Allowance(ctx, owner, spender)
		if err != nil {
			return err
		}
		value, err = amount.Sub(current, subtracted)
		if err != nil {
			return ErrInsufficientAllowance
		}
		return w.PutAllowance(ctx, owner, spender, value)
	})
	return value, err
}

// move debits from and credits to inside an open transaction. When from == to
// the second read observes the debit, so the account ends where it started.
func (e *Engine) move(ctx context.Context, w Writer, from, to common.Address, amt uint256.Int) (Receipt, error) {
	if from == ZeroAddress || to == ZeroAddress {
		return Receipt{}, ErrInvalidAccount
	}

	src, err := w.Account(ctx, from)
	if err != nil {
		return Receipt{}, err
	}
	rest, delta, err := src.Release(amt)
	if err != nil {
		return Receipt{}, err
	}
	if err := w.PutAccount(ctx, from, rest); err != nil {
		return Receipt{}, err
	}

	dst, err := w.Account(ctx, to)
	if err != nil {
		return Receipt{}, err
	}
	dst, err = dst.Credit(amt, delta)
	if err != nil {
		return Receipt{}, err
	}
	if err := w.PutAccount(ctx, to, dst); err != nil {
		return Receipt{}, err
	}

	supply, err := w.TotalSupply(ctx)
	if err != nil {
		return Receipt{}, err
	}
	if from == to {
		rest = dst
	}
	return Receipt{
		Event:       e.newEvent(from, to, amt),
		FromAccount: rest,
		ToAccount:   dst,
		TotalSupply: supply,
		Released:    delta,
	}, nil
}

func (e *Engine) mutate(ctx context.Context, op string, fn func(Writer) (Receipt, error)) (Receipt, error) {
	var r Receipt
	err := e.store.Update(ctx, func(w Writer) error {
		var err error
		r, err = fn(w)
		if err != nil {
			return err
		}
		return w.AppendEvent(ctx, r.Event)
	})
	e.observer.ObserveOperation(op, err)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}

	e.publish(ctx, r.Event)
	return r, nil
}

func (e *Engine) update(ctx context.Context, op string, fn func(Writer) error) error {
	err := e.store.Update(ctx, fn)
	e.observer.ObserveOperation(op, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, ev); err != nil {
		e.logger.Warn("publish transfer event",
			slog.String("event_id", ev.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (e *Engine) newEvent(from, to common.Address, amt uint256.Int) Event {
	return Event{
		ID:     uuid.New(),
		From:   from,
		To:     to,
		Amount: amt,
		At:     e.now().UTC(),
	}
}
