// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// FlagCompressed marks a compressed payload.
	FlagCompressed uint32 = 0x01

	// FrameHeaderSize is the size of the payload_size and flags fields.
	FrameHeaderSize = 8

	// MaxDatagramFrameSize is the largest frame the collector accepts over UDP.
	MaxDatagramFrameSize = 8192

	flagsReserved = ^FlagCompressed
)

// Frame is the wire unit carrying one payload.
type Frame struct {
	// Flags contains the frame flags (see [FlagCompressed]).
	Flags uint32

	// Payload is the possibly-compressed serialized record.
	Payload []byte
}

// Compressed returns whether the payload is compressed.
func (f *Frame) Compressed() bool {
	return f.Flags&FlagCompressed != 0
}

// EncodeFrame returns the big-endian encoding of payload size, flags and payload.
//
// A payload whose length does not fit into 32 bits wraps [ErrFrameTooLarge].
func EncodeFrame(payload []byte, flags uint32) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrFrameTooLarge, len(payload))
	}
	frame := make([]byte, FrameHeaderSize, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(frame[4:8], flags)
	return append(frame, payload...), nil
}

// ReadFrame reads a single frame from r.
//
// The maxPayload argument bounds the accepted payload size; zero means no bound.
//
// Returns [io.EOF] only when r is exhausted before the first header byte.
func ReadFrame(r io.Reader, maxPayload uint32) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated header", ErrMalformedFrame)
		}
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[0:4])
	flags := binary.BigEndian.Uint32(header[4:8])
	if flags&flagsReserved != 0 {
		return nil, fmt.Errorf("%w: reserved flags 0x%08x", ErrMalformedFrame, flags)
	}
	if maxPayload > 0 && size > maxPayload {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload: %w", ErrMalformedFrame, err)
	}
	return &Frame{Flags: flags, Payload: payload}, nil
}
