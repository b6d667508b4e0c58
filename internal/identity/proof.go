package identity

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

// RegistrationMessage is the text a holder signs with the account key to
// claim addr. It commits to the secret's digest, so a captured signature
// cannot be replayed with a different secret.
func RegistrationMessage(addr common.Address, secret string) []byte {
	digest := crypto.Keccak256Hash([]byte(secret))
	return []byte(fmt.Sprintf("Register %s as a curation ledger principal.\nSecret digest: %s", addr.Hex(), digest.Hex()))
}

// signedMessageHash applies the personal_sign envelope to msg.
func signedMessageHash(msg []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return crypto.Keccak256([]byte(prefix), msg)
}

// verifyOwnership checks that signature is a personal_sign signature over
// RegistrationMessage(addr, secret) made by the key behind addr.
func verifyOwnership(addr common.Address, secret, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != signatureLength {
		return ErrOwnershipProof
	}
	// Wallets emit v as 27/28; recovery expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(signedMessageHash(RegistrationMessage(addr, secret)), sig)
	if err != nil {
		return ErrOwnershipProof
	}
	if crypto.PubkeyToAddress(*pub) != addr {
		return ErrOwnershipProof
	}
	return nil
}

// SignRegistration produces the signature Register expects from the holder
// of key for the given secret.
func SignRegistration(key *ecdsa.PrivateKey, secret string) (string, error) {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	sig, err := crypto.Sign(signedMessageHash(RegistrationMessage(addr, secret)), key)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
