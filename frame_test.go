// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EncodeFrame writes big-endian size, flags and the payload.
func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeFrame([]byte("abc"), FlagCompressed)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 3, 0, 0, 0, 1, 'a', 'b', 'c'}, frame)
}

// The size field always equals the payload length and the compressed flag
// reflects the flags argument.
func TestEncodeFrameInvariant(t *testing.T) {
	for _, size := range []int{0, 1, 255, 256, 65536} {
		for _, flags := range []uint32{0, FlagCompressed} {
			payload := bytes.Repeat([]byte{'x'}, size)
			frame, err := EncodeFrame(payload, flags)
			require.NoError(t, err)
			require.Len(t, frame, FrameHeaderSize+size)
			assert.Equal(t, uint32(size), binary.BigEndian.Uint32(frame[0:4]))
			assert.Equal(t, flags, binary.BigEndian.Uint32(frame[4:8]))

			decoded, err := ReadFrame(bytes.NewReader(frame), 0)
			require.NoError(t, err)
			assert.Equal(t, payload, decoded.Payload)
			assert.Equal(t, flags == FlagCompressed, decoded.Compressed())
		}
	}
}

// ReadFrame decodes consecutive frames and returns io.EOF at the end.
func TestReadFrameSequence(t *testing.T) {
	var stream bytes.Buffer
	for _, payload := range []string{"first", "second"} {
		frame, err := EncodeFrame([]byte(payload), 0)
		require.NoError(t, err)
		stream.Write(frame)
	}

	first, err := ReadFrame(&stream, 0)
	require.NoError(t, err)
	assert.Equal(t, "first", string(first.Payload))

	second, err := ReadFrame(&stream, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", string(second.Payload))

	_, err = ReadFrame(&stream, 0)
	assert.ErrorIs(t, err, io.EOF)
}

// ReadFrame rejects truncated, oversized and reserved-flag frames.
func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		// name describes the scenario.
		name string

		// data is the raw input.
		data []byte

		// maxPayload bounds the payload.
		maxPayload uint32

		// wantErr is the expected error.
		wantErr error
	}{
		{
			name:    "truncated header",
			data:    []byte{0, 0, 0},
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "truncated payload",
			data:    []byte{0, 0, 0, 4, 0, 0, 0, 0, 'a'},
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "reserved flags",
			data:    []byte{0, 0, 0, 1, 0, 0, 0, 2, 'a'},
			wantErr: ErrMalformedFrame,
		},
		{
			name:       "too large",
			data:       []byte{0, 0, 1, 0, 0, 0, 0, 0},
			maxPayload: 16,
			wantErr:    ErrFrameTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.data), tt.maxPayload)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// A full record survives frame and payload encoding.
func TestFrameRecordRoundTrip(t *testing.T) {
	r := newPayloadFixture()
	Sign("s3cr3t", r)
	codec := NewPayloadCodec(NewConfig(), false, DefaultSLogger())
	payload, flags, err := codec.Encode(r)
	require.NoError(t, err)
	frame, err := EncodeFrame(payload, flags)
	require.NoError(t, err)

	decodedFrame, err := ReadFrame(bytes.NewReader(frame), 0)
	require.NoError(t, err)
	decoded, err := DecodePayload(decodedFrame.Payload, decodedFrame.Flags)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}
