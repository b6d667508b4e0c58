package identity

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

const minSecretLength = 8

// Service manages principal lifecycle.
type Service struct {
	repo     Repository
	reserved map[common.Address]struct{}
}

// NewService creates a new identity service. Reserved addresses, such as the
// governor, can only be seeded through Ensure and never claimed by Register.
func NewService(repo Repository, reserved ...common.Address) *Service {
	set := make(map[common.Address]struct{}, len(reserved))
	for _, addr := range reserved {
		set[addr] = struct{}{}
	}
	return &Service{repo: repo, reserved: set}
}

// Register binds an account address to a bcrypt-hashed secret once the
// caller proves control of the address key. Each address can be registered
// once.
func (s *Service) Register(ctx context.Context, reg Registration) (Principal, error) {
	addr, err := s.validate(reg.Credentials)
	if err != nil {
		return Principal{}, err
	}
	if _, ok := s.reserved[addr]; ok {
		return Principal{}, ErrReservedAddress
	}
	if err := verifyOwnership(addr, reg.Secret, reg.Signature); err != nil {
		return Principal{}, err
	}
	return s.create(ctx, addr, reg.Secret)
}

// Ensure registers the principal unless one already exists for the address.
// It trusts its caller and is used to seed the governor from configuration.
func (s *Service) Ensure(ctx context.Context, creds Credentials) error {
	addr, err := s.validate(creds)
	if err != nil {
		return err
	}
	_, err = s.create(ctx, addr, creds.Secret)
	if errors.Is(err, ErrPrincipalExists) {
		return nil
	}
	return err
}

func (s *Service) validate(creds Credentials) (common.Address, error) {
	addr, err := ledger.ParseAddress(creds.Address)
	if err != nil {
		return common.Address{}, err
	}
	if addr == ledger.ZeroAddress {
		return common.Address{}, ledger.ErrInvalidAccount
	}
	if len(creds.Secret) < minSecretLength {
		return common.Address{}, ErrWeakSecret
	}
	return addr, nil
}

func (s *Service) create(ctx context.Context, addr common.Address, secret string) (Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, err
	}

	p := Principal{
		ID:         uuid.New().String(),
		Address:    addr,
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Authenticate verifies credentials. Unknown addresses and wrong secrets are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Principal, error) {
	addr, err := ledger.ParseAddress(creds.Address)
	if err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	p, err := s.repo.FindByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	if err := bcrypt.CompareHashAndPassword(p.SecretHash, []byte(creds.Secret)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return p, nil
}

// Lookup returns the principal for addr.
func (s *Service) Lookup(ctx context.Context, addr common.Address) (Principal, error) {
	return s.repo.FindByAddress(ctx, addr)
}
