// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
)

// NewClient validates the options and returns a new [*Client].
//
// The cfg argument contains the common configuration for loghog operations.
//
// The opts argument contains the client settings, usually created with
// [NewOptions]. The options are copied and never read again.
//
// The logger argument is the [SLogger] used for the client's own
// diagnostics, such as dropped messages.
//
// Returns an error wrapping [ErrInvalidConfig] when the options are not
// valid, including when the TLS material cannot be loaded. No connection is
// attempted until the first message is logged.
func NewClient(cfg *Config, opts *Options, logger SLogger) (*Client, error) {
	options := *opts
	if err := options.validate(); err != nil {
		return nil, err
	}

	if options.Hostname == "" {
		hostname, err := cfg.Hostname()
		if err != nil {
			return nil, fmt.Errorf("%w: hostname: %w", ErrInvalidConfig, err)
		}
		options.Hostname = hostname
	}

	var tlsConfig *tls.Config
	if options.Kind == KindTLSStream {
		keyFile := options.KeyFile
		if keyFile == "" {
			keyFile = options.CertFile
		}
		serverName := options.ServerName
		if serverName == "" {
			serverName = options.Address
		}
		var err error
		if tlsConfig, err = NewClientTLSConfig(options.CertFile, keyFile, options.CAFile, serverName); err != nil {
			return nil, err
		}
	}

	c := &Client{
		codec:  NewPayloadCodec(cfg, options.Compression, logger),
		cfg:    cfg,
		logger: logger,
		opts:   options,
		identity: RecordIdentity{
			AppID:    options.AppID,
			Hostname: options.Hostname,
			Module:   options.Module,
		},
		transport: NewTransport(cfg, &options, tlsConfig, logger),
	}
	return c, nil
}

// Client ships leveled log messages to the collector.
//
// Each call formats the message, builds and optionally signs a [Record],
// encodes it into a frame and sends it synchronously. Network failures are
// logged and absorbed; only encoding errors are returned.
//
// A Client is safe for concurrent use. Call Close when done.
type Client struct {
	codec     *PayloadCodec
	cfg       *Config
	identity  RecordIdentity
	logger    SLogger
	opts      Options
	transport *Transport
}

// Transport returns the underlying [*Transport].
func (c *Client) Transport() *Transport {
	return c.transport
}

// Enabled returns whether messages at level are shipped.
func (c *Client) Enabled(level Level) bool {
	return level >= LevelTrace && level >= c.opts.MinLevel
}

// Log ships a message at the given level.
//
// The message is fmt.Sprintf(format, args...), or format verbatim when there
// are no args. Levels below [LevelTrace] or below [Options.MinLevel] are
// dropped without touching the network.
func (c *Client) Log(level Level, format string, args ...any) error {
	return c.LogContext(context.Background(), level, format, args...)
}

// LogContext is like [*Client.Log] but ctx bounds connection establishment.
func (c *Client) LogContext(ctx context.Context, level Level, format string, args ...any) error {
	if !c.Enabled(level) {
		return nil
	}
	if !level.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}
	frame, err := c.Encode(level, formatBody(format, args))
	if err != nil {
		return err
	}
	if err := c.transport.Send(ctx, frame); err != nil {
		c.logger.Info(
			"messageDropped",
			slog.Any("err", err),
			slog.String("errClass", c.cfg.ErrClassifier.Classify(err)),
			slog.String("level", level.String()),
		)
	}
	return nil
}

// Encode returns the frame for a message with the given level and body.
func (c *Client) Encode(level Level, body string) ([]byte, error) {
	record := NewRecord(c.identity, c.cfg.TimeNow(), level, body)
	Sign(c.opts.Secret, record)
	payload, flags, err := c.codec.Encode(record)
	if err != nil {
		return nil, err
	}
	frame, err := EncodeFrame(payload, flags)
	if err != nil {
		return nil, err
	}
	if c.opts.Kind == KindDatagram && len(frame) > MaxDatagramFrameSize {
		return nil, fmt.Errorf("%w: %d bytes exceed the %d bytes datagram limit",
			ErrFrameTooLarge, len(frame), MaxDatagramFrameSize)
	}
	return frame, nil
}

func formatBody(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Trace ships a message at [LevelTrace].
func (c *Client) Trace(format string, args ...any) error {
	return c.Log(LevelTrace, format, args...)
}

// Debug ships a message at [LevelDebug].
func (c *Client) Debug(format string, args ...any) error {
	return c.Log(LevelDebug, format, args...)
}

// Info ships a message at [LevelInfo].
func (c *Client) Info(format string, args ...any) error {
	return c.Log(LevelInfo, format, args...)
}

// Warning ships a message at [LevelWarning].
func (c *Client) Warning(format string, args ...any) error {
	return c.Log(LevelWarning, format, args...)
}

// Error ships a message at [LevelError].
func (c *Client) Error(format string, args ...any) error {
	return c.Log(LevelError, format, args...)
}

// Critical ships a message at [LevelCritical].
func (c *Client) Critical(format string, args ...any) error {
	return c.Log(LevelCritical, format, args...)
}

// Exception ships a message at [LevelException].
func (c *Client) Exception(format string, args ...any) error {
	return c.Log(LevelException, format, args...)
}

// Close releases the connection. Messages logged afterwards are dropped.
func (c *Client) Close() error {
	return c.transport.Close()
}
