package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists principals.
type Repository interface {
	Create(ctx context.Context, p Principal) error
	FindByAddress(ctx context.Context, addr common.Address) (Principal, error)
	UpdateTokenVersion(ctx context.Context, addr common.Address, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new principal.
func (r *PostgresRepository) Create(ctx context.Context, p Principal) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return fmt.Errorf("principal id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO principals (id, address, secret_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5)`, id, p.Address.Bytes(), string(p.SecretHash), p.TokenVersion, p.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrPrincipalExists
	}
	return err
}

// FindByAddress fetches the principal bound to addr.
func (r *PostgresRepository) FindByAddress(ctx context.Context, addr common.Address) (Principal, error) {
	row := r.db.QueryRow(ctx, `SELECT id, address, secret_hash, token_version, created_at
        FROM principals WHERE address = $1`, addr.Bytes())
	var (
		id        uuid.UUID
		raw       []byte
		hash      string
		createdAt time.Time
		p         Principal
	)
	if err := row.Scan(&id, &raw, &hash, &p.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrPrincipalNotFound
		}
		return Principal{}, err
	}
	p.ID = id.String()
	p.Address = common.BytesToAddress(raw)
	p.SecretHash = []byte(hash)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// UpdateTokenVersion stores the principal's current token version.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, addr common.Address, version int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE principals SET token_version = $1 WHERE address = $2`, version, addr.Bytes())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}
