package custody

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// maxKeygenAttempts bounds rejection sampling of secp256k1 scalars. A
// candidate is rejected with probability ~2^-128, so hitting the bound means
// the random source is broken.
const maxKeygenAttempts = 8

var errKeygenExhausted = errors.New("random source produced no valid scalar")

// secp256k1Key signs with btcec (RFC 6979 deterministic nonces).
type secp256k1Key struct {
	priv *btcec.PrivateKey
}

func newSecp256k1Key(random io.Reader) (*secp256k1Key, error) {
	buf := make([]byte, 32)
	defer secureZero(buf)

	for i := 0; i < maxKeygenAttempts; i++ {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, fmt.Errorf("failed to read randomness: %w", err)
		}

		var scalar btcec.ModNScalar
		if overflow := scalar.SetByteSlice(buf); overflow || scalar.IsZero() {
			continue
		}
		priv, _ := btcec.PrivKeyFromBytes(buf)
		return &secp256k1Key{priv: priv}, nil
	}
	return nil, errKeygenExhausted
}

func (k *secp256k1Key) sign(digest []byte) ([]byte, error) {
	return btcecdsa.Sign(k.priv, digest).Serialize(), nil
}

func (k *secp256k1Key) order() *big.Int {
	return btcec.S256().N
}

func (k *secp256k1Key) uncompressed() ([]byte, error) {
	return k.priv.PubKey().SerializeUncompressed(), nil
}

// p256Key signs with crypto/ecdsa using nonces drawn from random.
type p256Key struct {
	priv   *ecdsa.PrivateKey
	random io.Reader
}

func newP256Key(random io.Reader) (*p256Key, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), random)
	if err != nil {
		return nil, err
	}
	return &p256Key{priv: priv, random: random}, nil
}

func (k *p256Key) sign(digest []byte) ([]byte, error) {
	return ecdsa.SignASN1(k.random, k.priv, digest)
}

func (k *p256Key) order() *big.Int {
	return elliptic.P256().Params().N
}

func (k *p256Key) uncompressed() ([]byte, error) {
	pub, err := k.priv.PublicKey.ECDH()
	if err != nil {
		return nil, err
	}
	return pub.Bytes(), nil
}

// secureZero wipes sensitive data from memory.
func secureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
