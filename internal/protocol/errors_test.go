package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	assert.Equal(t, "unknown action", UnknownActionError().Error())
	assert.Equal(t, "missing field: message", ValidationError(ErrMissingField, "message").Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("entropy exhausted")
	err := CryptoError("generate key", cause)

	assert.ErrorIs(t, err, ErrCrypto)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cryptographic operation failed: generate key", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"protocol", ProtocolError(ErrNotObject, nil), KindProtocol},
		{"validation", ValidationError(ErrInvalidHex, "x"), KindValidation},
		{"unknown action", UnknownActionError(), KindUnknownAction},
		{"crypto", CryptoError("sign", errors.New("boom")), KindCrypto},
		{"wrapped", fmt.Errorf("outer: %w", UnknownActionError()), KindUnknownAction},
		{"plain", errors.New("plain"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "unknown_action", KindUnknownAction.String())
	assert.Equal(t, "crypto", KindCrypto.String())
	assert.Equal(t, "internal", KindInternal.String())
}
