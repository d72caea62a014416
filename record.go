// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import "time"

// ProtocolVersion is the version carried inside every payload.
const ProtocolVersion = 1

// Record is the structured representation of one log event.
//
// Records are created fresh for each call and not modified after [Sign].
// The JSON field names are part of the wire format.
type Record struct {
	// Version is the protocol version, always [ProtocolVersion] when built by [NewRecord].
	Version int `json:"version"`

	// AppID identifies the emitting application.
	AppID string `json:"app_id"`

	// Module is a reserved field, empty unless [Options.Module] is set.
	Module string `json:"module"`

	// Stamp is the UNIX timestamp in whole seconds.
	Stamp int64 `json:"stamp"`

	// Nsecs is the sub-second remainder of the timestamp in [0, 1e9).
	Nsecs int `json:"nsecs"`

	// Hostname is the host emitting the record.
	Hostname string `json:"hostname"`

	// Body is the formatted message.
	Body string `json:"body"`

	// Level is the severity name (see [Level.String]). Empty omits the field.
	Level string `json:"level,omitempty"`

	// Signature is the hex HMAC computed by [Sign]. Empty omits the field.
	Signature string `json:"signature,omitempty"`
}

// RecordIdentity contains the static fields copied into each [Record].
type RecordIdentity struct {
	AppID    string
	Hostname string
	Module   string
}

// NewRecord builds an unsigned [*Record] stamped with the given time.
func NewRecord(id RecordIdentity, now time.Time, level Level, body string) *Record {
	return &Record{
		Version:  ProtocolVersion,
		AppID:    id.AppID,
		Module:   id.Module,
		Stamp:    now.Unix(),
		Nsecs:    now.Nanosecond(),
		Hostname: id.Hostname,
		Body:     body,
		Level:    level.String(),
	}
}
