// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"fmt"
	"time"
)

// Kind is the transport kind used to reach the collector.
type Kind int

const (
	// KindStream sends frames over plain TCP.
	KindStream Kind = iota

	// KindDatagram sends each frame as a single UDP datagram.
	KindDatagram

	// KindTLSStream sends frames over TLS-over-TCP with mutual authentication.
	KindTLSStream
)

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindDatagram:
		return "datagram"
	case KindTLSStream:
		return "tls-stream"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Network returns the network name to dial for the kind.
func (k Kind) Network() string {
	if k == KindDatagram {
		return "udp"
	}
	return "tcp"
}

const (
	// DefaultAddress is the default collector address.
	DefaultAddress = "localhost"

	// DefaultPort is the default collector port.
	DefaultPort = 5566

	// DefaultConnectTimeout bounds establishing a connection to one candidate.
	DefaultConnectTimeout = time.Second
)

// Options contains the client settings.
//
// Construct using [NewOptions] and modify fields before calling [NewClient].
// The options are validated once by [NewClient] and never read again.
type Options struct {
	// Address is the collector host name or IP address.
	//
	// Set by [NewOptions] to [DefaultAddress].
	Address string

	// AppID identifies the emitting application. It is required.
	//
	// Set by [NewOptions] to the user-provided value.
	AppID string

	// CAFile is the PEM file with the CA used to verify the collector.
	//
	// Required with [KindTLSStream].
	CAFile string

	// CertFile is the PEM file containing the client certificate.
	//
	// Required with [KindTLSStream].
	CertFile string

	// Compression enables zlib compression of the payload.
	Compression bool

	// ConnectTimeout bounds connecting (and handshaking) with each candidate address.
	//
	// Set by [NewOptions] to [DefaultConnectTimeout].
	ConnectTimeout time.Duration

	// Hostname overrides the host name reported in each record.
	//
	// When empty, [NewClient] uses [Config.Hostname].
	Hostname string

	// KeyFile is the PEM file containing the client private key.
	//
	// When empty with [KindTLSStream], the key is read from CertFile.
	KeyFile string

	// Kind is the transport kind.
	//
	// Set by [NewOptions] to [KindStream].
	Kind Kind

	// MinLevel is the minimum level that is shipped.
	//
	// Set by [NewOptions] to [LevelTrace].
	MinLevel Level

	// Module fills the reserved module field of each record.
	Module string

	// Port is the collector port.
	//
	// Set by [NewOptions] to [DefaultPort].
	Port int

	// Secret is the shared secret used to sign records. Empty disables signing.
	Secret string

	// ServerName is the name used to verify the collector certificate.
	//
	// When empty, [NewClient] uses Address.
	ServerName string
}

// NewOptions returns [*Options] for the given application with defaults.
func NewOptions(appID string) *Options {
	return &Options{
		Address:        DefaultAddress,
		AppID:          appID,
		ConnectTimeout: DefaultConnectTimeout,
		Kind:           KindStream,
		MinLevel:       LevelTrace,
		Port:           DefaultPort,
	}
}

func (o *Options) validate() error {
	if o.AppID == "" {
		return fmt.Errorf("%w: empty AppID", ErrInvalidConfig)
	}
	if o.Address == "" {
		return fmt.Errorf("%w: empty Address", ErrInvalidConfig)
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("%w: Port %d out of range", ErrInvalidConfig, o.Port)
	}
	if o.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: non-positive ConnectTimeout", ErrInvalidConfig)
	}
	if !o.MinLevel.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrInvalidLevel, int(o.MinLevel))
	}
	switch o.Kind {
	case KindStream, KindDatagram:
	case KindTLSStream:
		if o.CertFile == "" || o.CAFile == "" {
			return fmt.Errorf("%w: %s requires CertFile and CAFile", ErrInvalidConfig, o.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown %s", ErrInvalidConfig, o.Kind)
	}
	return nil
}
