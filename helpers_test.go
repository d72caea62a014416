// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log/slog"
	"math/big"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/bassosimone/tlsstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordMessages returns the messages of the captured records.
func recordMessages(records []slog.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Message)
	}
	return out
}

// newMockTLSEngine returns a [*tlsstub.FuncTLSEngine] that wraps the given
// [TLSConn]. The engine's ClientFunc returns the conn, NameFunc returns
// "mock", and ParrotFunc returns "".
func newMockTLSEngine(conn TLSConn) *tlsstub.FuncTLSEngine[TLSConn] {
	return &tlsstub.FuncTLSEngine[TLSConn]{
		ClientFunc: func(c net.Conn, config *tls.Config) TLSConn {
			return conn
		},
		NameFunc: func() string {
			return "mock"
		},
		ParrotFunc: func() string {
			return ""
		},
	}
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// recordingConn is a [*netstub.FuncConn] that accumulates written bytes.
type recordingConn struct {
	*netstub.FuncConn
	mu      sync.Mutex
	written []byte
	closed  int
}

// newRecordingConn returns a [*recordingConn] whose writes accept at most
// maxWrite bytes per call (zero means no limit).
func newRecordingConn(maxWrite int) *recordingConn {
	rc := &recordingConn{FuncConn: newMinimalConn()}
	rc.WriteFunc = func(b []byte) (int, error) {
		rc.mu.Lock()
		defer rc.mu.Unlock()
		if maxWrite > 0 && len(b) > maxWrite {
			b = b[:maxWrite]
		}
		rc.written = append(rc.written, b...)
		return len(b), nil
	}
	rc.CloseFunc = func() error {
		rc.mu.Lock()
		defer rc.mu.Unlock()
		rc.closed++
		return nil
	}
	return rc
}

func (rc *recordingConn) Written() []byte {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]byte{}, rc.written...)
}

func (rc *recordingConn) Closed() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.closed
}

// fixedTime is the clock used by [newTestConfig].
var fixedTime = time.Unix(1000, 5)

// newTestConfig returns a [*Config] with a fixed clock, a fixed hostname, no
// shuffling, a resolver that must not be called and the given dialer.
func newTestConfig(t *testing.T, dialer Dialer) *Config {
	cfg := NewConfig()
	cfg.Dialer = dialer
	cfg.Hostname = func() (string, error) { return "web1", nil }
	cfg.Resolver = ResolverFunc(func(ctx context.Context, network, host string) ([]netip.Addr, error) {
		t.Fatalf("unexpected lookup of %q", host)
		return nil, nil
	})
	cfg.Shuffle = func(n int, swap func(i, j int)) {}
	cfg.TimeNow = func() time.Time { return fixedTime }
	return cfg
}

// newConnDialer returns a dialer handing out the given conns in order and
// counting dial attempts. Once conns are exhausted, dialing fails.
func newConnDialer(conns ...net.Conn) (*netstub.FuncDialer, *int) {
	var count int
	dialer := &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			count++
			if len(conns) <= 0 {
				return nil, &net.OpError{Op: "dial", Net: network, Err: os.ErrDeadlineExceeded}
			}
			conn := conns[0]
			conns = conns[1:]
			return conn, nil
		},
	}
	return dialer, &count
}

// testPKI contains PEM files for a CA, a collector and a client.
type testPKI struct {
	CAFile         string
	ClientCertFile string
	ClientKeyFile  string
	ServerCertFile string
	ServerKeyFile  string
}

// newTestPKI generates a CA, a server certificate valid for 127.0.0.1 and
// a client certificate, and writes them into a temporary directory.
func newTestPKI(t *testing.T) *testPKI {
	dir := t.TempDir()
	now := time.Now()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "loghog test CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	issue := func(serial int64, name string, usage x509.ExtKeyUsage, ips []net.IP) ([]byte, *ecdsa.PrivateKey) {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		template := &x509.Certificate{
			SerialNumber: big.NewInt(serial),
			Subject:      pkix.Name{CommonName: name},
			NotBefore:    now.Add(-time.Hour),
			NotAfter:     now.Add(time.Hour),
			KeyUsage:     x509.KeyUsageDigitalSignature,
			ExtKeyUsage:  []x509.ExtKeyUsage{usage},
			IPAddresses:  ips,
		}
		der, err := x509.CreateCertificate(rand.Reader, template, caCert, &key.PublicKey, caKey)
		require.NoError(t, err)
		return der, key
	}

	writePEM := func(name, kind string, der []byte) string {
		path := filepath.Join(dir, name)
		data := pem.EncodeToMemory(&pem.Block{Type: kind, Bytes: der})
		require.NoError(t, os.WriteFile(path, data, 0600))
		return path
	}
	writeKey := func(name string, key *ecdsa.PrivateKey) string {
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		return writePEM(name, "EC PRIVATE KEY", der)
	}

	serverDER, serverKey := issue(2, "collector", x509.ExtKeyUsageServerAuth, []net.IP{net.IPv4(127, 0, 0, 1)})
	clientDER, clientKey := issue(3, "proga", x509.ExtKeyUsageClientAuth, nil)

	return &testPKI{
		CAFile:         writePEM("ca.pem", "CERTIFICATE", caDER),
		ClientCertFile: writePEM("client.pem", "CERTIFICATE", clientDER),
		ClientKeyFile:  writeKey("client.key", clientKey),
		ServerCertFile: writePEM("server.pem", "CERTIFICATE", serverDER),
		ServerKeyFile:  writeKey("server.key", serverKey),
	}
}

// newTLSListener returns a loopback TLS listener using the collector
// certificate and requiring a client certificate signed by the test CA.
func newTLSListener(t *testing.T, pki *testPKI) net.Listener {
	cert, err := tls.LoadX509KeyPair(pki.ServerCertFile, pki.ServerKeyFile)
	require.NoError(t, err)
	caPEM, err := os.ReadFile(pki.CAFile)
	require.NoError(t, err)
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(caPEM))
	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
		MinVersion:   tls.VersionTLS12,
	})
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
	return listener
}
