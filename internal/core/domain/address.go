package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress returns whether addr is a well formed, non-zero hex address.
func IsValidAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}
	return common.HexToAddress(addr) != (common.Address{})
}

// NormalizeAddress returns the checksummed form of addr, used as storage key
// for anything indexed by address.
func NormalizeAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}

func validateAddress(addr string) (string, error) {
	if !IsValidAddress(addr) {
		return "", ErrInvalidAddress
	}
	return NormalizeAddress(addr), nil
}
