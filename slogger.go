// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

// SLogger abstracts the [*slog.Logger] behavior.
//
// By using an abstraction we allow for unit testing and alternative implementations.
//
// This package uses two log levels:
//   - Info for lifecycle events (resolve, connect, TLS handshake, send, close,
//     DNS exchange, compression fallback)
//   - Debug for per-write events
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default is a no-op logger that discards all output. This follows the
// library convention of not writing to stdout/stderr unless explicitly configured.
//
// Use a custom [*slog.Logger] for emitting logs.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

// discardSLogger is a no-op [SLogger] that discards all log messages.
type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {
	// nothing
}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {
	// nothing
}

// withArgs returns an [SLogger] appending args to every event.
//
// This is the equivalent of [*slog.Logger.With] for an arbitrary [SLogger].
func withArgs(logger SLogger, args ...any) SLogger {
	return &argsSLogger{args: args, logger: logger}
}

type argsSLogger struct {
	args   []any
	logger SLogger
}

var _ SLogger = &argsSLogger{}

// Debug implements [SLogger].
func (l *argsSLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, append(args, l.args...)...)
}

// Info implements [SLogger].
func (l *argsSLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, append(args, l.args...)...)
}
