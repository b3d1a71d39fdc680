package custody

import (
	"errors"
	"fmt"
)

// Curve selects the elliptic curve of the enclave key.
type Curve string

const (
	CurveP256      Curve = "p256"
	CurveSecp256k1 Curve = "secp256k1"
)

// InputMode selects what the sign action receives.
type InputMode string

const (
	// InputMessage means the caller sends a raw message that is hashed with
	// SHA-256 inside the enclave.
	InputMessage InputMode = "message"
	// InputDigest means the caller sends a 32-byte digest that is signed as-is.
	InputDigest InputMode = "digest"
)

// DigestSize is the hash output length accepted under InputDigest.
const DigestSize = 32

var (
	ErrUnknownCurve     = errors.New("custody: unknown curve")
	ErrUnknownInputMode = errors.New("custody: unknown sign input mode")
	ErrAddressCurve     = errors.New("custody: address derivation requires secp256k1")
	ErrLowSRequired     = errors.New("custody: secp256k1 signatures are always low-S")
)

// Policy is the deployment-time signing configuration. It is fixed for the
// process lifetime.
type Policy struct {
	Curve   Curve
	Input   InputMode
	LowS    bool
	Address bool
}

// DefaultPolicy returns the conventional policy for a curve: secp256k1 signs
// caller-supplied digests with low-S and publishes an address; P-256 hashes
// raw messages and leaves s as produced.
func DefaultPolicy(curve Curve) Policy {
	if curve == CurveSecp256k1 {
		return Policy{Curve: curve, Input: InputDigest, LowS: true, Address: true}
	}
	return Policy{Curve: curve, Input: InputMessage}
}

// Validate checks the policy for unsupported combinations.
func (p Policy) Validate() error {
	switch p.Curve {
	case CurveP256, CurveSecp256k1:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCurve, p.Curve)
	}
	switch p.Input {
	case InputMessage, InputDigest:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInputMode, p.Input)
	}
	if p.Address && p.Curve != CurveSecp256k1 {
		return ErrAddressCurve
	}
	// btcec normalizes s on every signature.
	if p.Curve == CurveSecp256k1 && !p.LowS {
		return ErrLowSRequired
	}
	return nil
}
