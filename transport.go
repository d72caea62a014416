// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/bassosimone/safeconn"
)

// State is the connection state of a [*Transport].
type State int

const (
	// StateDisconnected means there is no connection. This is the initial state.
	StateDisconnected State = iota

	// StateConnected means there is a live connection.
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NewTransport returns a new [*Transport] in [StateDisconnected].
//
// The cfg argument contains the common configuration for loghog operations.
//
// The opts argument must have been validated; only the destination, kind
// and timeout fields are used.
//
// The tlsConfig argument must not be nil when the kind is [KindTLSStream].
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTransport(cfg *Config, opts *Options, tlsConfig *tls.Config, logger SLogger) *Transport {
	runtimex.Assert(opts.Kind != KindTLSStream || tlsConfig != nil)
	t := &Transport{
		ErrClassifier: cfg.ErrClassifier,
		Kind:          opts.Kind,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
	t.NewDialFunc = func(logger SLogger) Func[Unit, net.Conn] {
		resolve := NewResolveFunc(cfg, opts.Address, uint16(opts.Port), opts.ConnectTimeout, logger)
		connect := NewConnectFunc(cfg, opts.Kind.Network(), opts.ConnectTimeout, logger)
		var dial Func[Unit, net.Conn] = Compose2[Unit, []netip.AddrPort, net.Conn](resolve, connect)
		if opts.Kind == KindTLSStream {
			handshake := NewTLSHandshakeFunc(cfg, tlsConfig, opts.ConnectTimeout, logger)
			dial = Compose2(dial, handshake.ConnFunc())
		}
		return Compose2[Unit, net.Conn, net.Conn](dial, NewObserveConnFunc(cfg, logger))
	}
	return t
}

// Transport owns the connection to the collector and sends frames over it.
//
// The connection is established lazily by [*Transport.Send] and torn down
// on the first write failure, so that the next send dials again. There is
// no retry within a single send.
//
// Send, Close and State are safe for concurrent use. The exported fields are
// safe to modify after construction but before first use.
type Transport struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewTransport] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Kind is the transport kind.
	//
	// Set by [NewTransport] from [Options.Kind].
	Kind Kind

	// Logger is the [SLogger] to use.
	//
	// Set by [NewTransport] to the user-provided logger.
	Logger SLogger

	// NewDialFunc returns the pipeline establishing a connection, logging
	// using the given logger.
	//
	// Set by [NewTransport] to resolve, connect, handshake (for
	// [KindTLSStream]) and observe the connection.
	NewDialFunc func(logger SLogger) Func[Unit, net.Conn]

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewTransport] from [Config.TimeNow].
	TimeNow func() time.Time

	// mu protects closed, conn and connLogger.
	mu         sync.Mutex
	closed     bool
	conn       net.Conn
	connLogger SLogger
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return StateConnected
	}
	return StateDisconnected
}

// Send writes the frame, connecting first if needed.
//
// The ctx argument bounds connection establishment only. Writes are not
// bounded.
//
// The returned error wraps [ErrResolve] or [ErrConnect] when the connection
// could not be established, [ErrWrite] when the write failed, and
// [ErrClosed] after Close. In all these cases the frame is dropped.
func (t *Transport) Send(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.conn == nil {
		if err := t.connect(ctx); err != nil {
			return err
		}
	}

	t0 := t.TimeNow()
	err := t.write(t.conn, frame)
	t.logSendDone(t0, len(frame), err)
	if err != nil {
		t.disconnect()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Close closes the connection, if any. Subsequent sends fail with [ErrClosed].
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	conn := t.conn
	t.conn, t.connLogger = nil, nil
	return conn.Close()
}

func (t *Transport) connect(ctx context.Context) error {
	logger := withArgs(t.Logger, slog.String("connID", NewConnID()))
	conn, err := t.NewDialFunc(logger).Call(ctx, Unit{})
	if err != nil {
		if !errors.Is(err, ErrResolve) && !errors.Is(err, ErrConnect) {
			err = fmt.Errorf("%w: %w", ErrConnect, err)
		}
		return err
	}
	t.conn, t.connLogger = conn, logger
	return nil
}

func (t *Transport) disconnect() {
	t.conn.Close()
	t.conn, t.connLogger = nil, nil
}

// write writes the whole frame. Stream kinds loop over partial writes; a
// datagram is written once and a short count is a failure.
func (t *Transport) write(conn net.Conn, frame []byte) error {
	if t.Kind == KindDatagram {
		count, err := conn.Write(frame)
		if err != nil {
			return err
		}
		if count != len(frame) {
			return io.ErrShortWrite
		}
		return nil
	}
	for len(frame) > 0 {
		count, err := conn.Write(frame)
		if err != nil {
			return err
		}
		if count <= 0 {
			return io.ErrShortWrite
		}
		frame = frame[count:]
	}
	return nil
}

func (t *Transport) logSendDone(t0 time.Time, size int, err error) {
	t.connLogger.Info(
		"sendDone",
		slog.Any("err", err),
		slog.String("errClass", t.ErrClassifier.Classify(err)),
		slog.Int("frameSize", size),
		slog.String("kind", t.Kind.String()),
		slog.String("localAddr", safeconn.LocalAddr(t.conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(t.conn)),
		slog.Time("t0", t0),
		slog.Time("t", t.TimeNow()),
	)
}
