// Package ethsig turns an enclave (r, s) pair into an Ethereum-style
// recoverable signature by finding the recovery id (yParity) that maps back
// to the enclave address.
package ethsig

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrDigestLength = errors.New("ethsig: digest must be 32 bytes")
	ErrNoRecovery   = errors.New("ethsig: no recovery id matches the address")
)

// Compact returns the 65-byte R || S || V signature with V in {0, 1}.
func Compact(r, s *big.Int, v byte) []byte {
	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[crypto.RecoveryIDOffset] = v
	return sig
}

// RecoverParity tries both recovery ids and returns the one whose recovered
// address equals addr (compared case-insensitively).
func RecoverParity(digest []byte, r, s *big.Int, addr string) (byte, error) {
	if len(digest) != 32 {
		return 0, fmt.Errorf("%w, got %d", ErrDigestLength, len(digest))
	}

	for _, v := range []byte{0, 1} {
		pub, err := crypto.SigToPub(digest, Compact(r, s, v))
		if err != nil {
			continue
		}
		if strings.EqualFold(crypto.PubkeyToAddress(*pub).Hex(), addr) {
			return v, nil
		}
	}
	return 0, ErrNoRecovery
}

// Verify checks (r, s) against an uncompressed secp256k1 public key. It
// rejects high-S signatures, matching chain verifiers.
func Verify(pub, digest []byte, r, s *big.Int) bool {
	sig := Compact(r, s, 0)
	return crypto.VerifySignature(pub, digest, sig[:64])
}
