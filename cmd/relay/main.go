// Package main is the entry point for the HTTP relay that forwards wallet
// requests to the enclave.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/client"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/config"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/relay"
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

	enclaveClient := client.New(cfg.Relay.Dial(), logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := relay.NewRouter(relay.Config{
		Enclave:        enclaveClient,
		Logger:         logger,
		Registry:       registry,
		AllowedOrigins: cfg.Relay.AllowedOrigins,
		RequestTimeout: cfg.Relay.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.Relay.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Relay.ReadTimeout,
		WriteTimeout: cfg.Relay.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("Starting relay",
			slog.String("address", srv.Addr),
			slog.String("enclave", enclaveClient.Target()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Relay server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down relay...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Relay shutdown failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("Relay stopped")
}
