// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strconv"
)

// Signature computes the signature of a record with the given secret.
//
// The HMAC-MD5 input is the concatenation, without delimiters, of app_id,
// module, stamp, nsecs and body, with integers in decimal. The collector
// verifies exactly this construction, so neither the order nor the
// rendering of the fields may change.
func Signature(secret string, r *Record) string {
	mac := hmac.New(md5.New, []byte(secret))
	io.WriteString(mac, r.AppID)
	io.WriteString(mac, r.Module)
	io.WriteString(mac, strconv.FormatInt(r.Stamp, 10))
	io.WriteString(mac, strconv.Itoa(r.Nsecs))
	io.WriteString(mac, r.Body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign sets the record signature when secret is not empty.
//
// With an empty secret the record is left unsigned.
func Sign(secret string, r *Record) {
	if secret == "" {
		return
	}
	r.Signature = Signature(secret, r)
}
