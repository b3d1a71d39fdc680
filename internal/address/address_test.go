package address

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	t.Run("matches known vector", func(t *testing.T) {
		// Private key 1 is the generator point.
		priv, _ := btcec.PrivKeyFromBytes(append(make([]byte, 31), 1))

		addr, err := Derive(priv.PubKey().SerializeUncompressed())
		require.NoError(t, err)
		assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", addr)
	})

	t.Run("matches go-ethereum", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		addr, err := Derive(crypto.FromECDSAPub(&key.PublicKey))
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()), addr)
		assert.Len(t, addr, 2+2*Length)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := Derive(make([]byte, 33))
		assert.ErrorIs(t, err, ErrPublicKeyLength)
	})

	t.Run("rejects compressed prefix", func(t *testing.T) {
		pub := make([]byte, PublicKeyLength)
		pub[0] = 0x02
		_, err := Derive(pub)
		assert.ErrorIs(t, err, ErrPublicKeyFormat)
	})
}

func TestBytes(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	addr, err := Bytes(crypto.FromECDSAPub(&key.PublicKey))
	require.NoError(t, err)
	assert.Len(t, addr, Length)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Bytes(), addr)
}

func TestChecksum(t *testing.T) {
	// EIP-55 reference vectors
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}

	for _, want := range vectors {
		t.Run(want, func(t *testing.T) {
			got, err := Checksum(strings.ToLower(want))
			require.NoError(t, err)
			assert.Equal(t, want, got)

			got, err = Checksum(strings.TrimPrefix(strings.ToUpper(want), "0X"))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("rejects bad input", func(t *testing.T) {
		for _, addr := range []string{"", "0x1234", "0x" + strings.Repeat("zz", Length), hex.EncodeToString(make([]byte, 21)),
			"0x0X" + strings.Repeat("ab", Length-1)} {
			_, err := Checksum(addr)
			assert.ErrorIs(t, err, ErrInvalidAddress, addr)
		}
	})
}
