// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// NewObserveConnFunc returns a new [*ObserveConnFunc].
//
// The cfg argument contains the common configuration for loghog operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewObserveConnFunc(cfg *Config, logger SLogger) *ObserveConnFunc {
	return &ObserveConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ObserveConnFunc wraps the connection to the collector to log writes and
// to account for the bytes shipped over it.
//
// Each write emits a debug-level writeDone event. Closing emits closeDone
// with the number of writes and bytes written during the connection
// lifetime. Reads and deadlines are passed through unobserved.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type ObserveConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewObserveConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewObserveConnFunc] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewObserveConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Func[net.Conn, net.Conn] = &ObserveConnFunc{}

// Call wraps conn. It never fails.
func (op *ObserveConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	observed := &observedConn{
		Conn:      conn,
		connected: op.TimeNow(),
		laddr:     safeconn.LocalAddr(conn),
		op:        op,
		protocol:  safeconn.Network(conn),
		raddr:     safeconn.RemoteAddr(conn),
	}
	return observed, nil
}

type observedConn struct {
	net.Conn
	closeonce sync.Once
	connected time.Time
	laddr     string
	op        *ObserveConnFunc
	protocol  string
	raddr     string

	// mu protects written and writes.
	mu      sync.Mutex
	written int64
	writes  int64
}

// Close implements [net.Conn]. Only the first call closes the
// underlying connection; subsequent calls return [net.ErrClosed].
func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		err = c.Conn.Close()
		c.mu.Lock()
		written, writes := c.written, c.writes
		c.mu.Unlock()
		c.op.Logger.Info(
			"closeDone",
			slog.Any("err", err),
			slog.String("errClass", c.op.ErrClassifier.Classify(err)),
			slog.Int64("ioBytesTotal", written),
			slog.Int64("ioWrites", writes),
			slog.String("localAddr", c.laddr),
			slog.String("protocol", c.protocol),
			slog.String("remoteAddr", c.raddr),
			slog.Time("t0", c.connected),
			slog.Time("t", c.op.TimeNow()),
		)
	})
	return
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	t0 := c.op.TimeNow()
	count, err := c.Conn.Write(data)
	c.mu.Lock()
	c.written += int64(max(count, 0))
	c.writes++
	c.mu.Unlock()
	c.op.Logger.Debug(
		"writeDone",
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Int("ioBufferSize", len(data)),
		slog.Int("ioBytesCount", count),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", c.protocol),
		slog.String("remoteAddr", c.raddr),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)
	return count, err
}
