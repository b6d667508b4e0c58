package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SeedAccount is a test helper that writes an account record directly into an
// in-memory store, keeping the total supply consistent.
func SeedAccount(store Store, addr common.Address, acc Account) {
	mem, ok := store.(*MemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()

	prev := mem.accounts[addr]
	var supply uint256.Int
	supply.Sub(&mem.supply, &prev.Balance)
	supply.Add(&supply, &acc.Balance)
	mem.supply = supply

	if acc.IsZero() {
		delete(mem.accounts, addr)
		return
	}
	mem.accounts[addr] = acc
}
