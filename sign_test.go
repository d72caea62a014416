// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newSignedFixture() *Record {
	return &Record{
		Version: ProtocolVersion,
		AppID:   "proga",
		Module:  "",
		Stamp:   1000,
		Nsecs:   5,
		Body:    "x",
	}
}

// The signature is the HMAC-MD5 of the fields concatenated without delimiters.
func TestSignature(t *testing.T) {
	mac := hmac.New(md5.New, []byte("s3cr3t"))
	mac.Write([]byte("proga" + "" + "1000" + "5" + "x"))
	expect := hex.EncodeToString(mac.Sum(nil))

	r := newSignedFixture()
	Sign("s3cr3t", r)

	assert.Equal(t, expect, r.Signature)
	assert.Len(t, r.Signature, 32)
}

// Signing is deterministic for identical fields and secret.
func TestSignatureDeterministic(t *testing.T) {
	first := Signature("s3cr3t", newSignedFixture())
	for range 10 {
		assert.Equal(t, first, Signature("s3cr3t", newSignedFixture()))
	}
}

// Fields that are not covered by the signature do not affect it.
func TestSignatureCoveredFields(t *testing.T) {
	base := Signature("s3cr3t", newSignedFixture())

	tests := []struct {
		// name describes the mutated field.
		name string

		// mutate changes the record.
		mutate func(r *Record)

		// changes indicates whether the signature must change.
		changes bool
	}{
		{"app_id", func(r *Record) { r.AppID = "progb" }, true},
		{"module", func(r *Record) { r.Module = "m" }, true},
		{"stamp", func(r *Record) { r.Stamp = 1001 }, true},
		{"nsecs", func(r *Record) { r.Nsecs = 6 }, true},
		{"body", func(r *Record) { r.Body = "y" }, true},
		{"hostname", func(r *Record) { r.Hostname = "web2" }, false},
		{"level", func(r *Record) { r.Level = "error" }, false},
		{"version", func(r *Record) { r.Version = 2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSignedFixture()
			tt.mutate(r)
			got := Signature("s3cr3t", r)
			if tt.changes {
				assert.NotEqual(t, base, got)
			} else {
				assert.Equal(t, base, got)
			}
		})
	}
}

// Sign with an empty secret leaves the record unsigned.
func TestSignWithoutSecret(t *testing.T) {
	r := newSignedFixture()
	Sign("", r)
	assert.Equal(t, "", r.Signature)
}
