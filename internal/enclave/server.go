// Package enclave implements the signing service loop: one connection at a
// time is accepted, read, dispatched and answered, then closed.
package enclave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/signature"
)

// Signer is the key holder the service dispatches to. It must be safe for
// read-only use for the lifetime of the server.
type Signer interface {
	PublicKey() []byte
	Address() string
	Sign(input []byte) (*signature.Result, error)
}

// Config holds server options.
type Config struct {
	// IOTimeout bounds the read and write of a single connection. Zero means
	// no deadline: a silent peer then stalls the loop until it disconnects.
	IOTimeout time.Duration
	Logger    *slog.Logger
}

// Server is the sequential request/response loop.
type Server struct {
	signer    Signer
	identity  protocol.Response
	ioTimeout time.Duration
	logger    *slog.Logger
}

// NewServer creates a server around signer. The public identity is rendered
// once here and reused for every get_public_key request.
func NewServer(signer Signer, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		signer:    signer,
		identity:  protocol.PublicKeyResponse(signer.PublicKey(), signer.Address()),
		ioTimeout: cfg.IOTimeout,
		logger:    logger,
	}
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// Connections are handled strictly one after another on the calling
// goroutine. Serve closes ln before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			backoff = nextBackoff(backoff)
			s.logger.Error("accept failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", backoff),
			)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		s.handle(conn)
	}
}

// handle runs one request cycle. conn is closed exactly once, on every path.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	logger := s.logger.With(
		slog.String("conn_id", newConnID()),
		slog.String("remote_addr", remoteAddr(conn)),
	)

	if s.ioTimeout > 0 {
		if err := conn.SetDeadline(start.Add(s.ioTimeout)); err != nil {
			logger.Warn("failed to set deadline", slog.String("error", err.Error()))
		}
	}

	action, resp := s.process(conn, logger)

	if _, err := conn.Write(protocol.EncodeResponse(resp)); err != nil {
		logger.Error("failed to write response",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return
	}

	logger.Info("request",
		slog.String("action", action),
		slog.Bool("ok", !resp.Failed()),
		slog.Duration("duration", time.Since(start)),
	)
}

// process reads and dispatches one request. It is the single boundary where
// failures become error responses; a panic in dispatch is converted too.
func (s *Server) process(conn net.Conn, logger *slog.Logger) (action string, resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling request",
				slog.String("action", action),
				slog.String("panic", fmt.Sprint(r)),
			)
			resp = protocol.ErrorResponse(&protocol.Error{Kind: protocol.KindInternal, Err: protocol.ErrInternal})
		}
	}()

	buf := make([]byte, protocol.MaxMessageSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return "", s.fail(logger, "", protocol.ProtocolError(protocol.ErrReadRequest, err))
	}

	req, err := protocol.DecodeRequest(buf[:n])
	if err != nil {
		return "", s.fail(logger, "", err)
	}

	action = req.Action
	resp, err = s.dispatch(req)
	if err != nil {
		return action, s.fail(logger, action, err)
	}
	return action, resp
}

func (s *Server) dispatch(req protocol.Request) (protocol.Response, error) {
	switch req.Action {
	case protocol.ActionGetPublicKey:
		return s.identity, nil

	case protocol.ActionSign:
		msg, err := req.MessageBytes()
		if err != nil {
			return protocol.Response{}, err
		}
		sig, err := s.signer.Sign(msg)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.SignatureResponse(sig), nil

	default:
		return protocol.Response{}, protocol.UnknownActionError()
	}
}

func (s *Server) fail(logger *slog.Logger, action string, err error) protocol.Response {
	logger.Warn("request failed",
		slog.String("action", action),
		slog.String("kind", protocol.KindOf(err).String()),
		slog.String("error", err.Error()),
	)
	return protocol.ErrorResponse(err)
}

func nextBackoff(d time.Duration) time.Duration {
	const maxBackoff = time.Second
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
