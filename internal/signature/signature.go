// Package signature holds the ECDSA (r, s) result type and low-S
// canonicalization.
package signature

import "math/big"

// Result is an ECDSA signature over a 32-byte digest.
type Result struct {
	R *big.Int
	S *big.Int
}

// Normalize returns (r, s) with s moved into the lower half of the group
// order: if s > n/2 it is replaced by n - s. r is never changed and the
// arguments are not mutated.
func Normalize(r, s, n *big.Int) (*big.Int, *big.Int) {
	if !IsLowS(s, n) {
		return new(big.Int).Set(r), new(big.Int).Sub(n, s)
	}
	return new(big.Int).Set(r), new(big.Int).Set(s)
}

// IsLowS reports whether s <= n/2 (integer division).
func IsLowS(s, n *big.Int) bool {
	return s.Cmp(halfOrder(n)) <= 0
}

func halfOrder(n *big.Int) *big.Int {
	return new(big.Int).Rsh(n, 1)
}
