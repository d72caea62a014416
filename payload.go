// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"github.com/valyala/fastjson"
)

// NewPayloadCodec returns a new [*PayloadCodec].
//
// The cfg argument contains the common configuration for loghog operations.
//
// The compress argument enables zlib compression of the payload.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewPayloadCodec(cfg *Config, compress bool, logger SLogger) *PayloadCodec {
	return &PayloadCodec{
		Compress:      compress,
		Compressor:    ZlibCompress,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
	}
}

// PayloadCodec serializes a [*Record] into a frame payload.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Encode].
type PayloadCodec struct {
	// Compress enables compression of the serialized record.
	//
	// Set by [NewPayloadCodec] to the user-provided value.
	Compress bool

	// Compressor compresses the serialized record (configurable for testing).
	//
	// Set by [NewPayloadCodec] to [ZlibCompress].
	Compressor func(data []byte) ([]byte, error)

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewPayloadCodec] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewPayloadCodec] to the user-provided logger.
	Logger SLogger
}

// Encode returns the payload and the frame flags for the record.
//
// A serialization failure wraps [ErrEncoding]. A compression failure is not
// an error: the uncompressed payload is returned with flags unset.
func (c *PayloadCodec) Encode(r *Record) ([]byte, uint32, error) {
	data, err := MarshalRecord(r)
	if err != nil {
		return nil, 0, err
	}
	if !c.Compress {
		return data, 0, nil
	}
	compressed, err := c.Compressor(data)
	if err != nil {
		c.Logger.Info(
			"compressFailed",
			slog.Any("err", err),
			slog.String("errClass", c.ErrClassifier.Classify(err)),
			slog.Int("payloadSize", len(data)),
		)
		return data, 0, nil
	}
	return compressed, FlagCompressed, nil
}

// MarshalRecord serializes the record as a JSON object.
//
// Strings are emitted verbatim (no HTML escaping). Invalid UTF-8 in any
// string field wraps [ErrEncoding] rather than being replaced.
func MarshalRecord(r *Record) ([]byte, error) {
	for name, value := range map[string]string{
		"app_id":    r.AppID,
		"module":    r.Module,
		"hostname":  r.Hostname,
		"body":      r.Body,
		"level":     r.Level,
		"signature": r.Signature,
	} {
		if !utf8.ValidString(value) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrEncoding, name)
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// DecodePayload parses a payload extracted from a frame with the given flags.
//
// This is the inverse of [*PayloadCodec.Encode] and is what a collector does
// on reception. Missing required fields wrap [ErrMalformedPayload].
func DecodePayload(payload []byte, flags uint32) (*Record, error) {
	if flags&FlagCompressed != 0 {
		data, err := ZlibDecompress(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		payload = data
	}
	return UnmarshalRecord(payload)
}

// UnmarshalRecord parses a serialized record.
func UnmarshalRecord(data []byte) (*Record, error) {
	value, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if value.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}

	p := &recordParser{value: value}
	r := &Record{
		Version:   p.int("version", true),
		AppID:     p.string("app_id", true),
		Module:    p.string("module", true),
		Stamp:     p.int64("stamp", true),
		Nsecs:     p.int("nsecs", true),
		Hostname:  p.string("hostname", false),
		Body:      p.string("body", true),
		Level:     p.string("level", false),
		Signature: p.string("signature", false),
	}
	if p.err != nil {
		return nil, p.err
	}
	return r, nil
}

// recordParser extracts fields from a JSON object, retaining the first error.
type recordParser struct {
	err   error
	value *fastjson.Value
}

func (p *recordParser) field(name string, required bool) *fastjson.Value {
	v := p.value.Get(name)
	if v == nil && required && p.err == nil {
		p.err = fmt.Errorf("%w: missing %q", ErrMalformedPayload, name)
	}
	return v
}

func (p *recordParser) fail(name string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: field %q: %w", ErrMalformedPayload, name, err)
	}
}

func (p *recordParser) string(name string, required bool) string {
	v := p.field(name, required)
	if v == nil {
		return ""
	}
	b, err := v.StringBytes()
	if err != nil {
		p.fail(name, err)
		return ""
	}
	return string(b)
}

func (p *recordParser) int64(name string, required bool) int64 {
	v := p.field(name, required)
	if v == nil {
		return 0
	}
	n, err := v.Int64()
	if err != nil {
		p.fail(name, err)
		return 0
	}
	return n
}

func (p *recordParser) int(name string, required bool) int {
	v := p.field(name, required)
	if v == nil {
		return 0
	}
	n, err := v.Int()
	if err != nil {
		p.fail(name, err)
		return 0
	}
	return n
}

// ZlibCompress compresses data in the zlib format (RFC 1950).
func ZlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ZlibDecompress decompresses data produced by [ZlibCompress].
func ZlibDecompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
