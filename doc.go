// SPDX-License-Identifier: GPL-3.0-or-later

// Package loghog ships application log messages to a remote loghog collector.
//
// # Pipeline
//
// Each leveled call on a [*Client] runs a strictly linear pipeline on the
// caller's goroutine:
//
//	format → record → [sign] → payload → [compress] → frame → transport
//
// The [Record] carries the message together with the application identity,
// the hostname and the wall-clock timestamp. When a shared secret is
// configured, [Sign] attaches an HMAC-MD5 signature computed over the
// app_id, module, stamp, nsecs and body fields, concatenated in this order
// without delimiters. The [*PayloadCodec] serializes the record as a JSON
// object and, when enabled, compresses it using zlib. [EncodeFrame] wraps the
// payload into the wire envelope:
//
//	+----------------+----------------+------------------------+
//	| payload_size   | flags          | payload (size bytes)   |
//	| uint32 (BE)    | uint32 (BE)    |                        |
//	+----------------+----------------+------------------------+
//
// Bit 0 of flags ([FlagCompressed]) is set if and only if the payload is
// compressed. All other bits are reserved and must be zero.
//
// # Transport
//
// The [*Transport] owns at most one connection and is either in the
// [StateDisconnected] or in the [StateConnected] state. The first send after
// being disconnected resolves the collector address, shuffles the candidate
// addresses, and connects to the first one accepting a connection within
// the configured timeout. For [KindTLSStream], the client authenticates using
// a certificate and verifies the collector against a configured CA.
//
// Delivery is best effort. Connect and write failures are logged and the
// frame is dropped. A write failure closes the connection so that the next
// send dials again. There is no retry and no backoff.
//
// # Errors
//
// Only encoding errors (e.g., invalid UTF-8, oversized frames) and invalid
// configuration are returned to the caller. Network conditions never are.
//
// # Observability
//
// All primitives support structured logging via [SLogger], which
// [*slog.Logger] satisfies. By default, logging is disabled. This logger is
// for the library's own diagnostics and is unrelated to the messages shipped
// to the collector. Connect, TLS handshake, resolve and send events are
// emitted at [slog.LevelInfo]; per-write events at [slog.LevelDebug]. Events
// belonging to the same connection share a connID field.
//
// # Concurrency
//
// A [*Client] may be used from multiple goroutines. The [*Transport] holds a
// mutex around connection setup and writes, so frames are never interleaved.
// Calls are synchronous: a log call returns once its frame has been written
// or dropped.
package loghog
