// Package client speaks the enclave wire protocol from the host side. Each
// call opens a fresh connection, sends one request, reads one response and
// closes.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/transport"
)

// DialFunc opens a connection to the enclave.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Client sends requests to the enclave.
type Client struct {
	dial   DialFunc
	target string
	logger *slog.Logger
}

// New creates a client that dials with cfg.
func New(cfg transport.DialConfig, logger *slog.Logger) *Client {
	return NewWithDialer(func(ctx context.Context) (net.Conn, error) {
		return transport.Dial(ctx, cfg)
	}, cfg.Target(), logger)
}

// NewWithDialer creates a client around a custom dial function.
func NewWithDialer(dial DialFunc, target string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{dial: dial, target: target, logger: logger}
}

// Target returns the enclave address for display.
func (c *Client) Target() string {
	return c.target
}

// Do performs one request/response exchange. An enclave-side error is
// returned as a Response with Error set, not as a Go error; the error return
// is reserved for transport and decoding failures.
//
// The exchange id is the chi request id carried by ctx when the call comes
// from the relay, so relay and client log lines can be joined.
func (c *Client) Do(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	exchangeID := ExchangeID(ctx)
	logger := c.logger.With(
		slog.String("exchange_id", exchangeID),
		slog.String("action", req.Action),
		slog.String("target", c.target),
	)
	start := time.Now()

	resp, err := c.exchange(ctx, req)
	if err != nil {
		logger.Warn("enclave exchange failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("exchange %s: %w", exchangeID, err)
	}

	logger.Debug("enclave exchange",
		slog.Bool("ok", !resp.Failed()),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	payload, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to enclave: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// The enclave closes after writing, so read to EOF within the limit.
	data, err := io.ReadAll(io.LimitReader(conn, protocol.MaxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > protocol.MaxMessageSize {
		return nil, fmt.Errorf("response exceeds %d bytes", protocol.MaxMessageSize)
	}

	return protocol.DecodeResponse(data)
}

// ExchangeID returns the chi request id stored in ctx, or a fresh UUID when
// there is none.
func ExchangeID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// PublicKey requests the enclave public identity.
func (c *Client) PublicKey(ctx context.Context) (*protocol.Response, error) {
	return c.Do(ctx, protocol.NewPublicKeyRequest())
}

// Sign requests a signature over a hex-encoded message or digest.
func (c *Client) Sign(ctx context.Context, hexMessage string) (*protocol.Response, error) {
	return c.Do(ctx, protocol.NewSignRequest(hexMessage))
}
