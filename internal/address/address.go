// Package address derives EVM chain addresses from uncompressed secp256k1
// public keys.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// Length is the size of a derived address in bytes.
	Length = 20
	// PublicKeyLength is the size of an uncompressed point: 0x04 || X || Y.
	PublicKeyLength = 65

	uncompressedPrefix = 0x04
)

var (
	ErrPublicKeyLength = errors.New("address: public key must be 65 bytes")
	ErrPublicKeyFormat = errors.New("address: public key must be uncompressed (0x04 prefix)")
	ErrInvalidAddress  = errors.New("address: invalid address")
)

// Bytes returns the low-order 20 bytes of Keccak256(pub[1:]).
func Bytes(pub []byte) ([]byte, error) {
	if len(pub) != PublicKeyLength {
		return nil, fmt.Errorf("%w, got %d", ErrPublicKeyLength, len(pub))
	}
	if pub[0] != uncompressedPrefix {
		return nil, ErrPublicKeyFormat
	}

	hash := hashKeccak256(pub[1:])
	return hash[len(hash)-Length:], nil
}

// Derive returns the address of pub as lowercase hex with a 0x prefix.
func Derive(pub []byte) (string, error) {
	addr, err := Bytes(pub)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(addr), nil
}

// Checksum renders an address in EIP-55 mixed case. Input may be in any case
// with or without the 0x prefix.
func Checksum(addr string) (string, error) {
	hexAddr := strings.ToLower(trimHexPrefix(addr))
	if len(hexAddr) != 2*Length {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if _, err := hex.DecodeString(hexAddr); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	hash := hashKeccak256([]byte(hexAddr))

	// Uppercase a letter when the matching nibble of the hash is >= 8.
	result := make([]byte, len(hexAddr))
	for i := 0; i < len(hexAddr); i++ {
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}

		c := hexAddr[i]
		if nibble >= 8 && c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		result[i] = c
	}
	return "0x" + string(result), nil
}

func hashKeccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// trimHexPrefix strips at most one leading 0x or 0X.
func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
