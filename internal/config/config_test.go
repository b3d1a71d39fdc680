package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/custody"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/transport"
)

// chdirTemp runs the test from an empty directory so no stray config.yaml is
// picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secp256k1", cfg.Enclave.Curve)
	assert.Equal(t, transport.KindVsock, cfg.Enclave.Transport)
	assert.Equal(t, transport.ContextIDAny, cfg.Enclave.ContextID)
	assert.Equal(t, uint32(5000), cfg.Enclave.Port)
	assert.Zero(t, cfg.Enclave.IOTimeout)

	assert.Equal(t, ":8000", cfg.Relay.Listen)
	assert.Equal(t, uint32(16), cfg.Relay.EnclaveCID)
	assert.Equal(t, uint32(5000), cfg.Relay.EnclavePort)
	assert.Equal(t, 10*time.Second, cfg.Relay.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Relay.DialTimeout)
	assert.Equal(t, []string{"http://localhost:*"}, cfg.Relay.AllowedOrigins)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	policy, err := cfg.Enclave.Policy()
	require.NoError(t, err)
	assert.Equal(t, custody.DefaultPolicy(custody.CurveSecp256k1), policy)
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WALLET_ENCLAVE_CURVE", "p256")
	t.Setenv("WALLET_ENCLAVE_TRANSPORT", "tcp")
	t.Setenv("WALLET_ENCLAVE_TCP_ADDR", "127.0.0.1:6000")
	t.Setenv("WALLET_RELAY_LISTEN", ":9000")
	t.Setenv("WALLET_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "p256", cfg.Enclave.Curve)
	assert.Equal(t, ":9000", cfg.Relay.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)

	ln := cfg.Enclave.Listen()
	assert.Equal(t, transport.KindTCP, ln.Kind)
	assert.Equal(t, "127.0.0.1:6000", ln.TCPAddr)

	policy, err := cfg.Enclave.Policy()
	require.NoError(t, err)
	assert.Equal(t, custody.Policy{Curve: custody.CurveP256, Input: custody.InputMessage}, policy)
}

func TestLoad_PolicyOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WALLET_ENCLAVE_CURVE", "p256")
	t.Setenv("WALLET_ENCLAVE_SIGN_INPUT", "digest")
	t.Setenv("WALLET_ENCLAVE_LOW_S", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	policy, err := cfg.Enclave.Policy()
	require.NoError(t, err)
	assert.Equal(t, custody.InputDigest, policy.Input)
	assert.True(t, policy.LowS)
	assert.False(t, policy.Address)
}

func TestLoad_File(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "enclave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
enclave:
  curve: p256
  transport: tcp
  tcp_addr: 127.0.0.1:7000
  io_timeout: 2s
relay:
  transport: tcp
  tcp_addr: 127.0.0.1:7000
  allowed_origins:
    - https://wallet.example.com
log:
  format: text
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "p256", cfg.Enclave.Curve)
	assert.Equal(t, 2*time.Second, cfg.Enclave.IOTimeout)
	assert.Equal(t, []string{"https://wallet.example.com"}, cfg.Relay.AllowedOrigins)
	assert.Equal(t, "tcp://127.0.0.1:7000", cfg.Relay.Dial().Target())
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown curve", map[string]string{"WALLET_ENCLAVE_CURVE": "ed25519"}},
		{"unknown transport", map[string]string{"WALLET_ENCLAVE_TRANSPORT": "unix"}},
		{"unknown sign input", map[string]string{"WALLET_ENCLAVE_SIGN_INPUT": "raw"}},
		{"address on p256", map[string]string{"WALLET_ENCLAVE_CURVE": "p256", "WALLET_ENCLAVE_ADDRESS": "true"}},
		{"secp256k1 without low-S", map[string]string{"WALLET_ENCLAVE_LOW_S": "false"}},
		{"unknown log level", map[string]string{"WALLET_LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := chdirTemp(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
