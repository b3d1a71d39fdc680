// Package main is the entry point for enclavectl, a command-line client for
// the enclave channel.
package main

import (
	"os"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
