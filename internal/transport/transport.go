// Package transport opens the point-to-point channel between the relay and
// the enclave: AF_VSOCK in production, TCP for local development and tests.
package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/mdlayher/vsock"
)

// Kinds
const (
	KindVsock = "vsock"
	KindTCP   = "tcp"
)

// ContextIDAny binds a vsock listener to every context id (VMADDR_CID_ANY).
const ContextIDAny uint32 = math.MaxUint32

var ErrUnknownKind = errors.New("transport: unknown kind")

// ListenConfig describes the enclave side of the channel.
type ListenConfig struct {
	Kind      string
	ContextID uint32 // vsock only
	Port      uint32 // vsock only
	TCPAddr   string // tcp only
}

// DialConfig describes the relay side of the channel.
type DialConfig struct {
	Kind      string
	ContextID uint32 // vsock only
	Port      uint32 // vsock only
	TCPAddr   string // tcp only
	Timeout   time.Duration
}

// Listen opens the enclave listener.
func Listen(cfg ListenConfig) (net.Listener, error) {
	switch cfg.Kind {
	case KindVsock:
		ln, err := vsock.ListenContextID(cfg.ContextID, cfg.Port, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on vsock %d:%d: %w", cfg.ContextID, cfg.Port, err)
		}
		return ln, nil
	case KindTCP:
		ln, err := net.Listen("tcp", cfg.TCPAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.TCPAddr, err)
		}
		return ln, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// Dial connects to the enclave. The dial is abandoned when ctx is done or the
// configured timeout elapses, whichever comes first.
func Dial(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	switch cfg.Kind {
	case KindVsock:
		return dialVsock(ctx, cfg.ContextID, cfg.Port)
	case KindTCP:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", cfg.TCPAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", cfg.TCPAddr, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// Target renders the dial destination for logs.
func (c DialConfig) Target() string {
	if c.Kind == KindVsock {
		return "vsock://" + strconv.FormatUint(uint64(c.ContextID), 10) + ":" + strconv.FormatUint(uint64(c.Port), 10)
	}
	return "tcp://" + c.TCPAddr
}

// dialVsock wraps vsock.Dial, which has no context support.
func dialVsock(ctx context.Context, cid, port uint32) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := vsock.Dial(cid, port, nil)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{conn: conn}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to dial vsock %d:%d: %w", cid, port, res.err)
		}
		return res.conn, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("failed to dial vsock %d:%d: %w", cid, port, ctx.Err())
	}
}
