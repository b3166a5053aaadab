package pkg

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NormalizeAccount validates a hex account address and returns its checksummed form,
// so the same account always maps to the same ledger key.
func NormalizeAccount(account string) (string, error) {
	if !common.IsHexAddress(account) {
		return "", fmt.Errorf("invalid account address %q", account)
	}

	addr := common.HexToAddress(account)
	if addr == (common.Address{}) {
		return "", fmt.Errorf("zero account address is not allowed")
	}

	return addr.Hex(), nil
}

// DeriveReferenceID derives the cross-ledger reference of a stake from the owning
// account and the per-stake salt.
func DeriveReferenceID(account, salt string) string {
	return crypto.Keccak256Hash(common.HexToAddress(account).Bytes(), []byte(salt)).Hex()
}
