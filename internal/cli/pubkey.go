package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/address"
)

type pubkeyOutput struct {
	PublicKey       string `json:"public_key"`
	Address         string `json:"address,omitempty"`
	ChecksumAddress string `json:"checksum_address,omitempty"`
}

func newPubkeyCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey",
		Short: "Fetch the enclave public key (and address, if published)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd, v)
			defer cancel()

			resp, err := newClient(v, cmd.ErrOrStderr()).PublicKey(ctx)
			if err != nil {
				return err
			}
			if err := enclaveError(resp); err != nil {
				return err
			}

			out := pubkeyOutput{PublicKey: resp.PublicKey, Address: resp.Address}
			if resp.Address != "" {
				if out.ChecksumAddress, err = address.Checksum(resp.Address); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
