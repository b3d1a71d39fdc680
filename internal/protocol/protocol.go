// Package protocol defines the JSON request/response contract spoken over the
// enclave channel, and the error taxonomy every request failure maps onto.
package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/signature"
)

// Channel constants
const (
	// MaxMessageSize bounds both the request read and the response write.
	MaxMessageSize = 4096
	DefaultPort    = 5000
)

// Actions
const (
	ActionGetPublicKey = "get_public_key"
	ActionSign         = "sign"
)

// Request is a single enclave request. Message stays raw until the sign
// action asks for it so a malformed message never fails other actions.
type Request struct {
	Action  string          `json:"action"`
	Message json.RawMessage `json:"message,omitempty"`
}

// NewPublicKeyRequest builds a get_public_key request.
func NewPublicKeyRequest() Request {
	return Request{Action: ActionGetPublicKey}
}

// NewSignRequest builds a sign request for a hex-encoded message.
func NewSignRequest(hexMessage string) Request {
	raw, _ := json.Marshal(hexMessage)
	return Request{Action: ActionSign, Message: raw}
}

// Response is the union of every enclave response shape. Empty fields are
// omitted so each action produces exactly its documented keys.
type Response struct {
	PublicKey string `json:"public_key,omitempty"`
	Address   string `json:"address,omitempty"`
	R         string `json:"r,omitempty"`
	S         string `json:"s,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the response carries an error.
func (r *Response) Failed() bool {
	return r.Error != ""
}

// DecodeRequest parses a request payload. Only non-JSON payloads and
// non-object documents fail here; an absent or non-string action decodes to
// an empty action and is rejected later as unknown.
func DecodeRequest(data []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Request{}, ProtocolError(ErrMalformedJSON, err)
	}
	if fields == nil {
		return Request{}, ProtocolError(ErrNotObject, nil)
	}

	var req Request
	if raw, ok := fields["action"]; ok {
		// Non-string actions fall through as unknown.
		_ = json.Unmarshal(raw, &req.Action)
	}
	req.Message = fields["message"]
	return req, nil
}

// MessageBytes returns the decoded sign payload. The message must be a JSON
// string of hex digits; a leading 0x is tolerated.
func (r Request) MessageBytes() ([]byte, error) {
	if len(r.Message) == 0 {
		return nil, ValidationError(ErrMissingField, "message")
	}

	var msg string
	if err := json.Unmarshal(r.Message, &msg); err != nil {
		return nil, ValidationError(ErrInvalidField, "message must be a hex string")
	}

	msg = trimHexPrefix(msg)
	data, err := hex.DecodeString(msg)
	if err != nil {
		return nil, ValidationError(ErrInvalidHex, err.Error())
	}
	return data, nil
}

// EncodeRequest serializes a request and enforces the channel size limit.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("request is %d bytes, limit is %d", len(data), MaxMessageSize)
	}
	return data, nil
}

// DecodeResponse parses a response payload.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// EncodeResponse serializes a response. A response that does not fit in a
// single channel buffer is replaced by an error response.
func EncodeResponse(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(ErrorResponse(&Error{Kind: KindInternal, Err: ErrInternal}))
		return data
	}
	if len(data) > MaxMessageSize {
		data, _ = json.Marshal(ErrorResponse(&Error{Kind: KindInternal, Err: ErrResponseTooLarge}))
	}
	return data
}

// PublicKeyResponse renders a public identity. address may be empty for
// variants without chain addressing.
func PublicKeyResponse(pub []byte, address string) Response {
	return Response{PublicKey: hex.EncodeToString(pub), Address: address}
}

// SignatureResponse renders (r, s) as 0x-prefixed minimal hex integers.
func SignatureResponse(sig *signature.Result) Response {
	return Response{R: hexutil.EncodeBig(sig.R), S: hexutil.EncodeBig(sig.S)}
}

// ErrorResponse converts any error into the uniform error shape. Unclassified
// errors are reported generically so internal details never reach the wire.
func ErrorResponse(err error) Response {
	var perr *Error
	if errors.As(err, &perr) {
		return Response{Error: perr.Error()}
	}
	return Response{Error: ErrInternal.Error()}
}

// trimHexPrefix strips at most one leading 0x or 0X.
func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
