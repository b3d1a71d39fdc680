package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies a failure that ends a single request cycle.
type Kind int

const (
	KindInternal Kind = iota
	KindProtocol
	KindValidation
	KindUnknownAction
	KindCrypto
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindValidation:
		return "validation"
	case KindUnknownAction:
		return "unknown_action"
	case KindCrypto:
		return "crypto"
	default:
		return "internal"
	}
}

// Sentinel errors - Decoding
var (
	ErrMalformedJSON = errors.New("malformed JSON request")
	ErrNotObject     = errors.New("request must be a JSON object")
	ErrReadRequest   = errors.New("failed to read request")
)

// Sentinel errors - Validation
var (
	ErrMissingField  = errors.New("missing field")
	ErrInvalidField  = errors.New("invalid field")
	ErrInvalidHex    = errors.New("invalid hex")
	ErrDigestLength  = errors.New("digest must be 32 bytes")
	ErrUnknownAction = errors.New("unknown action")
)

// Sentinel errors - Operations
var (
	ErrCrypto           = errors.New("cryptographic operation failed")
	ErrResponseTooLarge = errors.New("response exceeds message size limit")
	ErrInternal         = errors.New("internal error")
)

// Error is a classified request failure. Err is one of the sentinel errors
// above; Detail carries request-specific context for the wire message.
type Error struct {
	Kind   Kind
	Err    error
	Detail string
	Cause  error
}

// Error implements the error interface. The result is what the caller sees
// in the "error" field of the response.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// ProtocolError reports a payload that could not be decoded.
func ProtocolError(err error, cause error) *Error {
	e := &Error{Kind: KindProtocol, Err: err, Cause: cause}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// ValidationError reports a decoded request with missing or invalid input.
func ValidationError(err error, detail string) *Error {
	return &Error{Kind: KindValidation, Err: err, Detail: detail}
}

// UnknownActionError reports an unsupported or missing action.
func UnknownActionError() *Error {
	return &Error{Kind: KindUnknownAction, Err: ErrUnknownAction}
}

// CryptoError wraps a failure inside key generation or signing.
func CryptoError(op string, cause error) *Error {
	return &Error{Kind: KindCrypto, Err: ErrCrypto, Detail: op, Cause: cause}
}

// KindOf returns the classification of err, or KindInternal when err is not
// a *Error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindInternal
}
