// Package main is the entry point for the signing enclave. It generates the
// process keypair, then serves the enclave channel until terminated.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/config"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/custody"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/enclave"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.Logger(os.Stdout)
	slog.SetDefault(logger)

	policy, err := cfg.Enclave.Policy()
	if err != nil {
		logger.Error("Invalid signing policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Keygen happens before the listener opens.
	custodian, err := custody.Generate(policy, rand.Reader)
	if err != nil {
		logger.Error("Failed to generate keypair", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Enclave started",
		slog.String("curve", string(policy.Curve)),
		slog.String("sign_input", string(policy.Input)),
		slog.Bool("low_s", policy.LowS),
		slog.String("public_key", hex.EncodeToString(custodian.PublicKey())),
		slog.String("address", custodian.Address()),
	)

	ln, err := transport.Listen(cfg.Enclave.Listen())
	if err != nil {
		logger.Error("Failed to open listener", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := enclave.NewServer(custodian, enclave.Config{
		IOTimeout: cfg.Enclave.IOTimeout,
		Logger:    logger,
	})
	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("Enclave server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Enclave stopped")
}
