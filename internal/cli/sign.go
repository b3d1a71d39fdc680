package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/sha3"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/ethsig"
)

// Local pre-hash choices for the sign command.
const (
	hashNone      = "none"
	hashSHA256    = "sha256"
	hashKeccak256 = "keccak256"
)

type signOutput struct {
	Message   string `json:"message"`
	R         string `json:"r"`
	S         string `json:"s"`
	V         *uint8 `json:"v,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func newSignCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Ask the enclave to sign a message or digest",
		Long: `Send a sign request to the enclave.

The payload is either --message (hex) or --data (UTF-8 text). With --hash the
payload is hashed locally first, which is how a 32-byte digest is produced
for enclaves running the digest sign policy.

With --recover the command also fetches the enclave address and finds the
recovery id, printing a 65-byte r || s || v signature ready for an EVM
transaction.

Examples:
  enclavectl sign --data "hello world"
  enclavectl sign --data "hello world" --hash keccak256 --recover`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := signPayload(v.GetString("message"), v.GetString("data"), v.GetString("hash"))
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd, v)
			defer cancel()

			c := newClient(v, cmd.ErrOrStderr())
			resp, err := c.Sign(ctx, hex.EncodeToString(payload))
			if err != nil {
				return err
			}
			if err := enclaveError(resp); err != nil {
				return err
			}

			out := signOutput{Message: hex.EncodeToString(payload), R: resp.R, S: resp.S}
			if v.GetBool("recover") {
				idResp, err := c.PublicKey(ctx)
				if err != nil {
					return err
				}
				if err := enclaveError(idResp); err != nil {
					return err
				}
				if idResp.Address == "" {
					return errors.New("enclave does not publish an address; --recover needs the address variant")
				}

				recovered, err := recoverSignature(payload, resp.R, resp.S, idResp.Address)
				if err != nil {
					return err
				}
				out.V = &recovered.v
				out.Signature = recovered.signature
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().String("message", "", "payload as hex")
	cmd.Flags().String("data", "", "payload as UTF-8 text")
	cmd.Flags().String("hash", hashNone, "hash the payload locally first (none, sha256, keccak256)")
	cmd.Flags().Bool("recover", false, "compute the recovery id against the enclave address")
	cmd.MarkFlagsMutuallyExclusive("message", "data")
	cmd.MarkFlagsOneRequired("message", "data")
	return cmd
}

// signPayload resolves the bytes to send from the command flags.
func signPayload(message, data, hash string) ([]byte, error) {
	var payload []byte
	if message != "" {
		var err error
		payload, err = hex.DecodeString(trimHexPrefix(message))
		if err != nil {
			return nil, fmt.Errorf("invalid --message: %w", err)
		}
	} else {
		payload = []byte(data)
	}

	switch hash {
	case hashNone, "":
		return payload, nil
	case hashSHA256:
		h := sha256.Sum256(payload)
		return h[:], nil
	case hashKeccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(payload)
		return h.Sum(nil), nil
	default:
		return nil, fmt.Errorf("unknown --hash %q", hash)
	}
}

type recovered struct {
	v         uint8
	signature string
}

func recoverSignature(digest []byte, rHex, sHex, addr string) (*recovered, error) {
	r, ok := parseHexInt(rHex)
	if !ok {
		return nil, fmt.Errorf("invalid r %q", rHex)
	}
	s, ok := parseHexInt(sHex)
	if !ok {
		return nil, fmt.Errorf("invalid s %q", sHex)
	}

	v, err := ethsig.RecoverParity(digest, r, s, addr)
	if err != nil {
		return nil, err
	}
	return &recovered{v: v, signature: hexutil.Encode(ethsig.Compact(r, s, v))}, nil
}

// parseHexInt accepts 0x-prefixed or bare hex, with or without leading zeros.
func parseHexInt(s string) (*big.Int, bool) {
	s = trimHexPrefix(s)
	if s == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok || n.Sign() <= 0 || n.BitLen() > 256 {
		return nil, false
	}
	return n, true
}

// trimHexPrefix strips at most one leading 0x or 0X.
func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
