// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import "errors"

var (
	// ErrClosed indicates that the [*Transport] or [*Client] has been closed.
	ErrClosed = errors.New("loghog: closed")

	// ErrConnect indicates that no connection to the collector could be established.
	ErrConnect = errors.New("loghog: connect failed")

	// ErrEncoding indicates that a record could not be serialized.
	ErrEncoding = errors.New("loghog: encoding failed")

	// ErrFrameTooLarge indicates that a frame does not fit the envelope or a datagram.
	ErrFrameTooLarge = errors.New("loghog: frame too large")

	// ErrInvalidConfig indicates that the [*Options] are not valid.
	ErrInvalidConfig = errors.New("loghog: invalid config")

	// ErrInvalidLevel indicates a level above [LevelException].
	ErrInvalidLevel = errors.New("loghog: invalid level")

	// ErrMalformedFrame indicates a frame that cannot be decoded.
	ErrMalformedFrame = errors.New("loghog: malformed frame")

	// ErrMalformedPayload indicates a payload that cannot be decoded.
	ErrMalformedPayload = errors.New("loghog: malformed payload")

	// ErrResolve indicates that the collector host name has no usable address.
	ErrResolve = errors.New("loghog: resolve failed")

	// ErrWrite indicates a failed or incomplete write on an established connection.
	ErrWrite = errors.New("loghog: write failed")
)
