package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

type recoverOutput struct {
	V         uint8  `json:"v"`
	Signature string `json:"signature"`
}

func newRecoverCommand() *cobra.Command {
	var digestHex, rHex, sHex, addr string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Find the recovery id for an enclave signature",
		Long: `Given a digest, the enclave's (r, s) and its address, find the recovery id
(yParity) that recovers the address and print the 65-byte signature.

This runs locally; it does not contact the enclave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := hex.DecodeString(trimHexPrefix(digestHex))
			if err != nil {
				return fmt.Errorf("invalid --digest: %w", err)
			}

			res, err := recoverSignature(digest, rHex, sHex, addr)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recoverOutput{V: res.v, Signature: res.signature})
		},
	}

	cmd.Flags().StringVar(&digestHex, "digest", "", "32-byte digest that was signed (hex)")
	cmd.Flags().StringVar(&rHex, "r", "", "signature r (0x hex)")
	cmd.Flags().StringVar(&sHex, "s", "", "signature s (0x hex)")
	cmd.Flags().StringVar(&addr, "address", "", "enclave address (0x hex)")
	for _, name := range []string{"digest", "r", "s", "address"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
