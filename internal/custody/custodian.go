// Package custody generates and exclusively holds the enclave signing key.
//
// A Custodian is created once at startup and is read-only afterwards. The
// private scalar has no accessor: the only operations that touch it are
// signing and the one-time public key derivation.
package custody

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/address"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/signature"
)

// keyPair is the curve-specific half of the custodian.
type keyPair interface {
	// sign returns an ASN.1 DER signature over a 32-byte digest.
	sign(digest []byte) ([]byte, error)
	// order is the group order n of the curve.
	order() *big.Int
	// uncompressed is the 65-byte 0x04 || X || Y public point.
	uncompressed() ([]byte, error)
}

// Custodian owns the process keypair and its derived public identity.
type Custodian struct {
	policy  Policy
	key     keyPair
	pub     []byte
	address string
}

// Generate creates the process keypair on the policy's curve using random,
// then derives and caches the public identity. A failure here means the
// enclave cannot run.
func Generate(policy Policy, random io.Reader) (*Custodian, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var (
		key keyPair
		err error
	)
	switch policy.Curve {
	case CurveSecp256k1:
		key, err = newSecp256k1Key(random)
	case CurveP256:
		key, err = newP256Key(random)
	}
	if err != nil {
		return nil, protocol.CryptoError("generate key", err)
	}

	pub, err := key.uncompressed()
	if err != nil {
		return nil, protocol.CryptoError("encode public key", err)
	}

	c := &Custodian{policy: policy, key: key, pub: pub}
	if policy.Address {
		c.address, err = address.Derive(pub)
		if err != nil {
			return nil, fmt.Errorf("failed to derive address: %w", err)
		}
	}
	return c, nil
}

// Policy returns the signing policy the custodian was created with.
func (c *Custodian) Policy() Policy {
	return c.policy
}

// PublicKey returns a copy of the uncompressed public point.
func (c *Custodian) PublicKey() []byte {
	out := make([]byte, len(c.pub))
	copy(out, c.pub)
	return out
}

// Address returns the derived chain address, or "" when the policy does not
// publish one.
func (c *Custodian) Address() string {
	return c.address
}

// Sign produces an ECDSA/SHA-256 signature over input. Under InputMessage the
// input is hashed here; under InputDigest it must be exactly DigestSize bytes
// and is signed without re-hashing. With LowS set the result is normalized.
func (c *Custodian) Sign(input []byte) (*signature.Result, error) {
	digest, err := c.digest(input)
	if err != nil {
		return nil, err
	}

	der, err := c.key.sign(digest)
	if err != nil {
		return nil, protocol.CryptoError("sign", err)
	}

	r, s, err := parseDER(der)
	if err != nil {
		return nil, protocol.CryptoError("decode signature", err)
	}

	if c.policy.LowS {
		r, s = signature.Normalize(r, s, c.key.order())
	}
	return &signature.Result{R: r, S: s}, nil
}

// Order returns the group order of the custodian's curve.
func (c *Custodian) Order() *big.Int {
	return new(big.Int).Set(c.key.order())
}

func (c *Custodian) digest(input []byte) ([]byte, error) {
	if c.policy.Input == InputMessage {
		h := sha256.Sum256(input)
		return h[:], nil
	}
	if len(input) != DigestSize {
		return nil, protocol.ValidationError(protocol.ErrDigestLength, fmt.Sprintf("got %d", len(input)))
	}
	return input, nil
}

// parseDER extracts R and S from SEQUENCE { INTEGER r, INTEGER s }.
func parseDER(der []byte) (*big.Int, *big.Int, error) {
	var (
		inner cryptobyte.String
		r     = new(big.Int)
		s     = new(big.Int)
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	return r, s, nil
}
