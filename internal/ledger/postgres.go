package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerLockKey identifies the transaction-scoped advisory lock that
// serialises every mutating operation across service instances.
const ledgerLockKey int64 = 0x67637300

// PostgresStore persists accounts, allowances and the Transfer journal in
// PostgreSQL. Quantities are stored as NUMERIC(78,0) base units.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// View runs fn inside a read-only repeatable-read transaction so every read
// sees the same snapshot.
func (s *PostgresStore) View(ctx context.Context, fn func(Reader) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update runs fn while holding the ledger advisory lock and commits only when
// fn succeeds.
func (s *PostgresStore) Update(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// History returns the newest Transfer events touching account.
func (s *PostgresStore) History(ctx context.Context, account common.Address, limit int) ([]Event, error) {
	const query = `
        SELECT id, from_address, to_address, amount::text, created_at
        FROM transfer_events
        WHERE from_address = $1 OR to_address = $1
        ORDER BY seq DESC
        LIMIT $2`
	rows, err := s.db.Query(ctx, query, account.Bytes(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			id        uuid.UUID
			from, to  []byte
			amt       string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &from, &to, &amt, &createdAt); err != nil {
			return nil, err
		}
		value, err := parseNumeric(amt)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{
			ID:     id,
			From:   common.BytesToAddress(from),
			To:     common.BytesToAddress(to),
			Amount: value,
			At:     createdAt.UTC(),
		})
	}
	return events, rows.Err()
}

type postgresTx struct {
	tx pgx.Tx
}

func (p *postgresTx) Account(ctx context.Context, addr common.Address) (Account, error) {
	const query = `SELECT balance::text, deposit::text FROM accounts WHERE address = $1`
	var balance, deposit string
	if err := p.tx.QueryRow(ctx, query, addr.Bytes()).Scan(&balance, &deposit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, nil
		}
		return Account{}, err
	}

	var (
		acc Account
		err error
	)
	if acc.Balance, err = parseNumeric(balance); err != nil {
		return Account{}, err
	}
	if acc.Deposit, err = parseNumeric(deposit); err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (p *postgresTx) TotalSupply(ctx context.Context) (uint256.Int, error) {
	const query = `SELECT total_supply::text FROM ledger_state WHERE id = 1`
	var supply string
	if err := p.tx.QueryRow(ctx, query).Scan(&supply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uint256.Int{}, nil
		}
		return uint256.Int{}, err
	}
	return parseNumeric(supply)
}

func (p *postgresTx) Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error) {
	const query = `SELECT amount::text FROM allowances WHERE owner = $1 AND spender = $2`
	var value string
	if err := p.tx.QueryRow(ctx, query, owner.Bytes(), spender.Bytes()).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uint256.Int{}, nil
		}
		return uint256.Int{}, err
	}
	return parseNumeric(value)
}

func (p *postgresTx) PutAccount(ctx context.Context, addr common.Address, acc Account) error {
	if acc.IsZero() {
		_, err := p.tx.Exec(ctx, `DELETE FROM accounts WHERE address = $1`, addr.Bytes())
		return err
	}
	_, err := p.tx.Exec(ctx, `INSERT INTO accounts (address, balance, deposit, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (address) DO UPDATE
        SET balance = EXCLUDED.balance, deposit = EXCLUDED.deposit, updated_at = EXCLUDED.updated_at`,
		addr.Bytes(), toNumeric(acc.Balance), toNumeric(acc.Deposit))
	return err
}

func (p *postgresTx) PutTotalSupply(ctx context.Context, supply uint256.Int) error {
	_, err := p.tx.Exec(ctx, `INSERT INTO ledger_state (id, total_supply) VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET total_supply = EXCLUDED.total_supply`, toNumeric(supply))
	return err
}

func (p *postgresTx) PutAllowance(ctx context.Context, owner, spender common.Address, value uint256.Int) error {
	if value.IsZero() {
		_, err := p.tx.Exec(ctx, `DELETE FROM allowances WHERE owner = $1 AND spender = $2`, owner.Bytes(), spender.Bytes())
		return err
	}
	_, err := p.tx.Exec(ctx, `INSERT INTO allowances (owner, spender, amount) VALUES ($1, $2, $3)
        ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`,
		owner.Bytes(), spender.Bytes(), toNumeric(value))
	return err
}

func (p *postgresTx) AppendEvent(ctx context.Context, ev Event) error {
	_, err := p.tx.Exec(ctx, `INSERT INTO transfer_events (id, from_address, to_address, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.From.Bytes(), ev.To.Bytes(), toNumeric(ev.Amount), ev.At)
	return err
}

func toNumeric(v uint256.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: v.ToBig(), Exp: 0, Valid: true}
}

func parseNumeric(s string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("decode stored amount %q: %w", s, err)
	}
	return *v, nil
}
