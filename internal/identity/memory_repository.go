package identity

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type memoryRepository struct {
	mu         sync.RWMutex
	principals map[common.Address]Principal
}

// NewMemoryRepository builds an in-memory principal store for development and
// tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{principals: make(map[common.Address]Principal)}
}

func (r *memoryRepository) Create(_ context.Context, p Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.principals[p.Address]; exists {
		return ErrPrincipalExists
	}
	r.principals[p.Address] = p
	return nil
}

func (r *memoryRepository) FindByAddress(_ context.Context, addr common.Address) (Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.principals[addr]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, addr common.Address, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[addr]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.TokenVersion = version
	r.principals[addr] = p
	return nil
}
