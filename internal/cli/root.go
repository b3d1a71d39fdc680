// Package cli implements enclavectl, the host-side command-line client for
// the enclave channel.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/client"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/transport"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the enclavectl command tree.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "enclavectl",
		Short: "Talk to the signing enclave over its channel",
		Long: `enclavectl sends get_public_key and sign requests straight to the enclave,
bypassing the HTTP relay. Run it on the enclave's parent instance.

Examples:
  # Fetch the enclave public key and address
  enclavectl pubkey --cid 16

  # Sign a 32-byte digest
  enclavectl sign --message 9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658

  # Against a local enclave started with transport=tcp
  enclavectl pubkey --transport tcp --tcp-addr 127.0.0.1:5000`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.String("transport", transport.KindVsock, "channel transport (vsock or tcp)")
	flags.Uint32("cid", 16, "enclave context id (vsock)")
	flags.Uint32("port", protocol.DefaultPort, "enclave port (vsock)")
	flags.String("tcp-addr", "127.0.0.1:5000", "enclave address (tcp)")
	flags.Duration("timeout", 10*time.Second, "request timeout")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newPubkeyCommand(v),
		newSignCommand(v),
		newRecoverCommand(),
	)
	return root
}

// newClient builds an enclave client from the bound flags.
func newClient(v *viper.Viper, w io.Writer) *client.Client {
	cfg := transport.DialConfig{
		Kind:      v.GetString("transport"),
		ContextID: v.GetUint32("cid"),
		Port:      v.GetUint32("port"),
		TCPAddr:   v.GetString("tcp-addr"),
		Timeout:   v.GetDuration("timeout"),
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.New(cfg, logger)
}

func requestContext(cmd *cobra.Command, v *viper.Viper) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
}

// printJSON writes data as indented JSON.
func printJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// enclaveError converts an enclave error response into a Go error.
func enclaveError(resp *protocol.Response) error {
	if resp.Failed() {
		return fmt.Errorf("enclave error: %s", resp.Error)
	}
	return nil
}
