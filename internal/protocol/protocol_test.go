package protocol

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/signature"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAction string
		wantKind   Kind
		wantErr    error
	}{
		{name: "public key", input: `{"action":"get_public_key"}`, wantAction: ActionGetPublicKey},
		{name: "sign", input: `{"action":"sign","message":"00"}`, wantAction: ActionSign},
		{name: "extra fields ignored", input: `{"action":"sign","message":"00","nonce":1}`, wantAction: ActionSign},
		{name: "missing action", input: `{"message":"00"}`, wantAction: ""},
		{name: "non-string action", input: `{"action":42}`, wantAction: ""},
		{name: "not json", input: `not json`, wantKind: KindProtocol, wantErr: ErrMalformedJSON},
		{name: "empty payload", input: ``, wantKind: KindProtocol, wantErr: ErrMalformedJSON},
		{name: "array", input: `["sign"]`, wantKind: KindProtocol, wantErr: ErrMalformedJSON},
		{name: "null", input: `null`, wantKind: KindProtocol, wantErr: ErrNotObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tt.input))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, req.Action)
		})
	}
}

func TestRequest_MessageBytes(t *testing.T) {
	decode := func(t *testing.T, input string) Request {
		t.Helper()
		req, err := DecodeRequest([]byte(input))
		require.NoError(t, err)
		return req
	}

	t.Run("decodes hex", func(t *testing.T) {
		msg, err := decode(t, `{"action":"sign","message":"deadBEEF"}`).MessageBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, msg)
	})

	t.Run("tolerates 0x prefix", func(t *testing.T) {
		msg, err := decode(t, `{"action":"sign","message":"0x0102"}`).MessageBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, msg)

		msg, err = decode(t, `{"action":"sign","message":"0XAB"}`).MessageBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xab}, msg)
	})

	t.Run("empty message is empty input", func(t *testing.T) {
		msg, err := decode(t, `{"action":"sign","message":""}`).MessageBytes()
		require.NoError(t, err)
		assert.Empty(t, msg)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := decode(t, `{"action":"sign"}`).MessageBytes()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("non-string message", func(t *testing.T) {
		_, err := decode(t, `{"action":"sign","message":123}`).MessageBytes()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidField)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("invalid hex", func(t *testing.T) {
		for _, msg := range []string{"zz", "abc", "0xg0", "0x0Xab", "0x0xab", "0X0x"} {
			_, err := decode(t, `{"action":"sign","message":"`+msg+`"}`).MessageBytes()
			require.Error(t, err, msg)
			assert.ErrorIs(t, err, ErrInvalidHex)
			assert.Equal(t, KindValidation, KindOf(err))
		}
	})
}

func TestEncodeRequest(t *testing.T) {
	t.Run("round trips through DecodeRequest", func(t *testing.T) {
		data, err := EncodeRequest(NewSignRequest("abcd"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"sign","message":"abcd"}`, string(data))

		req, err := DecodeRequest(data)
		require.NoError(t, err)
		msg, err := req.MessageBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xab, 0xcd}, msg)
	})

	t.Run("public key request has no message", func(t *testing.T) {
		data, err := EncodeRequest(NewPublicKeyRequest())
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"get_public_key"}`, string(data))
	})

	t.Run("rejects oversized request", func(t *testing.T) {
		_, err := EncodeRequest(NewSignRequest(strings.Repeat("00", MaxMessageSize)))
		assert.Error(t, err)
	})
}

func TestEncodeResponse(t *testing.T) {
	t.Run("omits empty fields", func(t *testing.T) {
		data := EncodeResponse(PublicKeyResponse([]byte{0x04, 0x01}, ""))
		assert.Equal(t, `{"public_key":"0401"}`, string(data))
	})

	t.Run("replaces oversized response", func(t *testing.T) {
		data := EncodeResponse(Response{PublicKey: strings.Repeat("a", MaxMessageSize)})
		var resp Response
		require.NoError(t, json.Unmarshal(data, &resp))
		assert.Equal(t, ErrResponseTooLarge.Error(), resp.Error)
	})
}

func TestSignatureResponse(t *testing.T) {
	resp := SignatureResponse(&signature.Result{R: big.NewInt(0x0abc), S: big.NewInt(1)})
	assert.Equal(t, "0xabc", resp.R)
	assert.Equal(t, "0x1", resp.S)
	assert.Equal(t, `{"r":"0xabc","s":"0x1"}`, string(EncodeResponse(resp)))
}

func TestErrorResponse(t *testing.T) {
	t.Run("unknown action has exact shape", func(t *testing.T) {
		data := EncodeResponse(ErrorResponse(UnknownActionError()))
		assert.Equal(t, `{"error":"unknown action"}`, string(data))
	})

	t.Run("classified errors keep their message", func(t *testing.T) {
		resp := ErrorResponse(ValidationError(ErrDigestLength, "got 31"))
		assert.Equal(t, "digest must be 32 bytes: got 31", resp.Error)
		assert.True(t, resp.Failed())
	})

	t.Run("unclassified errors are generic", func(t *testing.T) {
		resp := ErrorResponse(errors.New("disk on fire"))
		assert.Equal(t, "internal error", resp.Error)
	})
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"r":"0x1","s":"0x2"}`))
	require.NoError(t, err)
	assert.False(t, resp.Failed())
	assert.Equal(t, "0x1", resp.R)

	_, err = DecodeResponse([]byte(`{`))
	assert.Error(t, err)
}
