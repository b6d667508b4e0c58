package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

var (
	// ErrUnauthorized occurs when a caller other than the governor attempts to
	// mint or burn.
	ErrUnauthorized = errors.New("only governor can call")

	// ErrInsufficientBalance occurs when a requested amount exceeds the
	// account's current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance occurs when a delegated transfer or allowance
	// decrease exceeds the approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInvalidAccount is returned when the zero address is used where a real
	// account is required.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrDepositWithoutBalance rejects a mint that would attach deposit to an
	// account without issuing any shares.
	ErrDepositWithoutBalance = errors.New("deposit without balance")

	// ErrAmountOverflow is returned when a quantity would not fit in 256 bits.
	ErrAmountOverflow = errors.New("amount overflow")
)

// ZeroAddress is the null identifier used as the source of mints and the
// destination of burns.
var ZeroAddress = common.Address{}

const (
	OpMint              = "mint"
	OpBurn              = "burn"
	OpTransfer          = "transfer"
	OpTransferFrom      = "transfer_from"
	OpApprove           = "approve"
	OpIncreaseAllowance = "increase_allowance"
	OpDecreaseAllowance = "decrease_allowance"
)

// Event is the Transfer event emitted once per successful mutating operation.
// Amount is the share amount moved, never the deposit delta.
type Event struct {
	ID     uuid.UUID
	From   common.Address
	To     common.Address
	Amount uint256.Int
	At     time.Time
}

// Receipt is a committed Transfer event together with the state it left
// behind, read inside the same transaction. The zero address side of a mint
// or burn reports a zero Account.
type Receipt struct {
	Event
	FromAccount Account
	ToAccount   Account
	TotalSupply uint256.Int
	// Released is the deposit debited from the source with the shares.
	Released uint256.Int
}

// Reader exposes the read side of a store transaction. Absent accounts and
// allowances read as zero.
type Reader interface {
	Account(ctx context.Context, addr common.Address) (Account, error)
	TotalSupply(ctx context.Context) (uint256.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error)
}

// Writer is a Reader that also stages mutations. Reads observe the writes
// staged earlier in the same transaction. Zero-valued accounts and allowances
// are removed rather than stored.
type Writer interface {
	Reader
	PutAccount(ctx context.Context, addr common.Address, acc Account) error
	PutTotalSupply(ctx context.Context, supply uint256.Int) error
	PutAllowance(ctx context.Context, owner, spender common.Address, value uint256.Int) error
	AppendEvent(ctx context.Context, ev Event) error
}

// Store defines the contract implemented by ledger backends (memory,
// Postgres). Update runs fn with exclusive access to the whole ledger and
// applies its writes only if fn returns nil.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error
	History(ctx context.Context, account common.Address, limit int) ([]Event, error)
}

// EventSink receives Transfer events after the operation has committed.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// Observer is notified once per mutating operation with its outcome.
type Observer interface {
	ObserveOperation(op string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error) {}
