package identity

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrPrincipalExists    = errors.New("principal already registered")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakSecret         = errors.New("secret must be at least 8 characters")
	ErrOwnershipProof     = errors.New("signature does not prove ownership of the address")
	ErrReservedAddress    = errors.New("address is reserved")
)

// Principal binds a ledger account address to a login secret.
type Principal struct {
	ID           string
	Address      common.Address
	SecretHash   []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Address string
	Secret  string
}

// Registration claims an address. Signature is a hex personal_sign signature
// over RegistrationMessage made with the account's key.
type Registration struct {
	Credentials
	Signature string
}
