// Package config provides configuration loading for the enclave and relay.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/custody"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/transport"
)

// Config holds all configuration for both binaries.
type Config struct {
	Enclave EnclaveConfig `mapstructure:"enclave" validate:"required"`
	Relay   RelayConfig   `mapstructure:"relay" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
}

// EnclaveConfig holds the signing policy and the listener settings.
type EnclaveConfig struct {
	Curve string `mapstructure:"curve" validate:"oneof=p256 secp256k1"`
	// SignInput, LowS and Address fall back to the curve's defaults when
	// unset.
	SignInput string `mapstructure:"sign_input" validate:"omitempty,oneof=message digest"`
	LowS      *bool  `mapstructure:"low_s"`
	Address   *bool  `mapstructure:"address"`

	Transport string        `mapstructure:"transport" validate:"oneof=vsock tcp"`
	ContextID uint32        `mapstructure:"context_id"`
	Port      uint32        `mapstructure:"port" validate:"min=1"`
	TCPAddr   string        `mapstructure:"tcp_addr" validate:"required_if=Transport tcp"`
	IOTimeout time.Duration `mapstructure:"io_timeout"`
}

// Policy resolves the signing policy, applying curve defaults to unset
// fields.
func (c EnclaveConfig) Policy() (custody.Policy, error) {
	p := custody.DefaultPolicy(custody.Curve(c.Curve))
	if c.SignInput != "" {
		p.Input = custody.InputMode(c.SignInput)
	}
	if c.LowS != nil {
		p.LowS = *c.LowS
	}
	if c.Address != nil {
		p.Address = *c.Address
	}
	if err := p.Validate(); err != nil {
		return custody.Policy{}, err
	}
	return p, nil
}

// Listen returns the transport settings for the enclave listener.
func (c EnclaveConfig) Listen() transport.ListenConfig {
	return transport.ListenConfig{
		Kind:      c.Transport,
		ContextID: c.ContextID,
		Port:      c.Port,
		TCPAddr:   c.TCPAddr,
	}
}

// RelayConfig holds the HTTP relay settings.
type RelayConfig struct {
	Listen         string        `mapstructure:"listen" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`

	Transport   string        `mapstructure:"transport" validate:"oneof=vsock tcp"`
	EnclaveCID  uint32        `mapstructure:"enclave_cid"`
	EnclavePort uint32        `mapstructure:"enclave_port" validate:"min=1"`
	TCPAddr     string        `mapstructure:"tcp_addr" validate:"required_if=Transport tcp"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Dial returns the transport settings for reaching the enclave.
func (c RelayConfig) Dial() transport.DialConfig {
	return transport.DialConfig{
		Kind:      c.Transport,
		ContextID: c.EnclaveCID,
		Port:      c.EnclavePort,
		TCPAddr:   c.TCPAddr,
		Timeout:   c.DialTimeout,
	}
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Logger builds the process logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Load reads configuration from an optional file and environment variables.
// path may be empty, in which case config.yaml is searched for in the usual
// locations.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/enclave")
	}

	v.SetEnvPrefix("WALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	_ = v.BindEnv("enclave.sign_input")
	_ = v.BindEnv("enclave.low_s")
	_ = v.BindEnv("enclave.address")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the resolved signing policy.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Enclave.Policy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Enclave defaults
	v.SetDefault("enclave.curve", string(custody.CurveSecp256k1))
	v.SetDefault("enclave.transport", transport.KindVsock)
	v.SetDefault("enclave.context_id", transport.ContextIDAny)
	v.SetDefault("enclave.port", 5000)
	v.SetDefault("enclave.tcp_addr", "127.0.0.1:5000")
	v.SetDefault("enclave.io_timeout", "0s")

	// Relay defaults
	v.SetDefault("relay.listen", ":8000")
	v.SetDefault("relay.read_timeout", "30s")
	v.SetDefault("relay.write_timeout", "30s")
	v.SetDefault("relay.request_timeout", "10s")
	v.SetDefault("relay.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("relay.transport", transport.KindVsock)
	v.SetDefault("relay.enclave_cid", 16)
	v.SetDefault("relay.enclave_port", 5000)
	v.SetDefault("relay.tcp_addr", "127.0.0.1:5000")
	v.SetDefault("relay.dial_timeout", "5s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
