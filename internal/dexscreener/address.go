package dexscreener

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that an address is a well-formed Solana public key:
// base58-encoded, exactly 32 bytes.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("address %q is not valid base58: %w", addr, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address %q decodes to %d bytes, want 32", addr, len(raw))
	}
	return nil
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet keys are on-curve; program-derived addresses, pool state
// accounts included, are not.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
