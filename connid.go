// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewConnID returns a UUIDv7 identifying a connection attempt.
//
// The [*Transport] attaches it as the connID field of every event emitted
// while establishing and using a connection, so that a resolve, the connect
// attempts, the handshake, the writes and the final close can be correlated.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewConnID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
