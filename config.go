// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"math/rand/v2"
	"net"
	"os"
	"time"
)

// Config holds the injectable dependencies used by loghog operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*ConnectFunc].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// Hostname returns the local host name used when [Options.Hostname] is empty.
	//
	// Set by [NewConfig] to [os.Hostname].
	Hostname func() (string, error)

	// Resolver maps the collector host name to addresses.
	//
	// Set by [NewConfig] to [net.DefaultResolver].
	Resolver Resolver

	// Shuffle randomizes the order of the resolved candidate addresses.
	//
	// Set by [NewConfig] to [rand.Shuffle].
	Shuffle func(n int, swap func(i, j int))

	// TLSEngine creates client TLS connections.
	//
	// Set by [NewConfig] to [TLSEngineStdlib].
	TLSEngine TLSEngine

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		Hostname:      os.Hostname,
		Resolver:      net.DefaultResolver,
		Shuffle:       rand.Shuffle,
		TLSEngine:     TLSEngineStdlib{},
		TimeNow:       time.Now,
	}
}
