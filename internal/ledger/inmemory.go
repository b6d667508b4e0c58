package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sasha-s/go-deadlock"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// MemoryStore is a concurrency-safe in-memory Store useful for development and
// unit tests. A single writer lock serialises every Update.
type MemoryStore struct {
	mu         deadlock.RWMutex
	accounts   map[common.Address]Account
	allowances map[allowanceKey]uint256.Int
	supply     uint256.Int
	events     []Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[common.Address]Account),
		allowances: make(map[allowanceKey]uint256.Int),
	}
}

func (s *MemoryStore) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(memoryReader{s: s})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		memoryReader: memoryReader{s: s},
		accounts:     make(map[common.Address]Account),
		allowances:   make(map[allowanceKey]uint256.Int),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) History(ctx context.Context, account common.Address, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := s.events[i]
		if ev.From == account || ev.To == account {
			out = append(out, ev)
		}
	}
	return out, nil
}

type memoryReader struct {
	s *MemoryStore
}

func (r memoryReader) Account(_ context.Context, addr common.Address) (Account, error) {
	return r.s.accounts[addr], nil
}

func (r memoryReader) TotalSupply(_ context.Context) (uint256.Int, error) {
	return r.s.supply, nil
}

func (r memoryReader) Allowance(_ context.Context, owner, spender common.Address) (uint256.Int, error) {
	return r.s.allowances[allowanceKey{owner: owner, spender: spender}], nil
}

// memoryTx stages writes on top of the store; nothing reaches the store maps
// until commit.
type memoryTx struct {
	memoryReader
	accounts   map[common.Address]Account
	allowances map[allowanceKey]uint256.Int
	supply     *uint256.Int
	events     []Event
}

func (tx *memoryTx) Account(ctx context.Context, addr common.Address) (Account, error) {
	if acc, ok := tx.accounts[addr]; ok {
		return acc, nil
	}
	return tx.memoryReader.Account(ctx, addr)
}

func (tx *memoryTx) TotalSupply(ctx context.Context) (uint256.Int, error) {
	if tx.supply != nil {
		return *tx.supply, nil
	}
	return tx.memoryReader.TotalSupply(ctx)
}

func (tx *memoryTx) Allowance(ctx context.Context, owner, spender common.Address) (uint256.Int, error) {
	if v, ok := tx.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return v, nil
	}
	return tx.memoryReader.Allowance(ctx, owner, spender)
}

func (tx *memoryTx) PutAccount(_ context.Context, addr common.Address, acc Account) error {
	tx.accounts[addr] = acc
	return nil
}

func (tx *memoryTx) PutTotalSupply(_ context.Context, supply uint256.Int) error {
	tx.supply = &supply
	return nil
}

func (tx *memoryTx) PutAllowance(_ context.Context, owner, spender common.Address, value uint256.Int) error {
	tx.allowances[allowanceKey{owner: owner, spender: spender}] = value
	return nil
}

func (tx *memoryTx) AppendEvent(_ context.Context, ev Event) error {
	tx.events = append(tx.events, ev)
	return nil
}

func (tx *memoryTx) commit() {
	for addr, acc := range tx.accounts {
		if acc.IsZero() {
			delete(tx.s.accounts, addr)
			continue
		}
		tx.s.accounts[addr] = acc
	}
	for key, v := range tx.allowances {
		if v.IsZero() {
			delete(tx.s.allowances, key)
			continue
		}
		tx.s.allowances[key] = v
	}
	if tx.supply != nil {
		tx.s.supply = *tx.supply
	}
	tx.s.events = append(tx.s.events, tx.events...)
}
