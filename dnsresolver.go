// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/dnsoverstream"
	"github.com/bassosimone/minest"
	"github.com/bassosimone/runtimex"
	"github.com/bassosimone/safeconn"
	"github.com/miekg/dns"
)

// DefaultDNSTimeout bounds a [*DNSResolver] lookup when the context has no deadline.
const DefaultDNSTimeout = 5 * time.Second

// NewDNSResolver returns a [*DNSResolver] querying the given server.
//
// The cfg argument contains the common configuration for loghog operations.
//
// The protocol argument must be either "udp" or "tcp".
//
// The server argument is the DNS server endpoint (e.g., 8.8.8.8:53).
//
// The logger argument is the [SLogger] to use for structured logging.
func NewDNSResolver(cfg *Config, protocol string, server netip.AddrPort, logger SLogger) *DNSResolver {
	runtimex.Assert(protocol == "udp" || protocol == "tcp")
	return &DNSResolver{
		Connect:       NewConnectFunc(cfg, protocol, DefaultDNSTimeout, logger),
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Protocol:      protocol,
		Server:        server,
		TimeNow:       cfg.TimeNow,
	}
}

// DNSResolver is a [Resolver] using a specific DNS server instead of the
// system resolver.
//
// Each lookup dials the server, issues A and/or AAAA queries over a single
// connection, and closes it. Answers that are not IP addresses are discarded.
//
// Set [Config.Resolver] to a [*DNSResolver] to use it for the collector.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [LookupNetIP].
type DNSResolver struct {
	// Connect dials the DNS server.
	//
	// Set by [NewDNSResolver] using [Config.Dialer] and [DefaultDNSTimeout].
	Connect *ConnectFunc

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSResolver] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewDNSResolver] to the user-provided logger.
	Logger SLogger

	// Protocol is the DNS transport ("udp" or "tcp").
	//
	// Set by [NewDNSResolver] to the user-provided value.
	Protocol string

	// Server is the DNS server endpoint.
	//
	// Set by [NewDNSResolver] to the user-provided value.
	Server netip.AddrPort

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewDNSResolver] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Resolver = &DNSResolver{}

// LookupNetIP implements [Resolver].
//
// The network argument is "ip", "ip4" or "ip6", as for [*net.Resolver.LookupNetIP].
func (r *DNSResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	qtypes, err := dnsQueryTypes(network)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDNSTimeout)
		defer cancel()
	}

	conn, err := r.Connect.Call(ctx, []netip.AddrPort{r.Server})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		addrs []netip.Addr
		errs  []error
	)
	for _, qtype := range qtypes {
		answers, err := r.exchange(ctx, conn, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, answer := range answers {
			addr, err := netip.ParseAddr(answer)
			if err != nil {
				continue
			}
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		errs = append(errs, fmt.Errorf("no addresses for %q", host))
		return nil, errors.Join(errs...)
	}
	return addrs, nil
}

func dnsQueryTypes(network string) ([]uint16, error) {
	switch network {
	case "ip":
		return []uint16{dns.TypeA, dns.TypeAAAA}, nil
	case "ip4":
		return []uint16{dns.TypeA}, nil
	case "ip6":
		return []uint16{dns.TypeAAAA}, nil
	default:
		return nil, net.UnknownNetworkError(network)
	}
}

func (r *DNSResolver) exchange(ctx context.Context, conn net.Conn, host string, qtype uint16) ([]string, error) {
	t0 := r.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := &dnsExchangeLogContext{
		ErrClassifier: r.ErrClassifier,
		LocalAddr:     safeconn.LocalAddr(conn),
		Logger:        r.Logger,
		Protocol:      r.Protocol,
		Query:         host,
		QueryType:     dns.TypeToString[qtype],
		RemoteAddr:    safeconn.RemoteAddr(conn),
		TimeNow:       r.TimeNow,
	}

	lc.logStart(t0, deadline)
	query := dnscodec.NewQuery(host, qtype)
	resp, err := r.roundTrip(ctx, conn, query, lc)
	var answers []string
	if err == nil {
		answers, err = dnsAnswers(resp, qtype)
	}
	lc.logDone(t0, deadline, answers, err)
	return answers, err
}

// roundTrip sends the query and reads the response over conn.
func (r *DNSResolver) roundTrip(ctx context.Context,
	conn net.Conn, query *dnscodec.Query, lc *dnsExchangeLogContext) (*dnscodec.Response, error) {
	unused := netip.AddrPortFrom(netip.IPv4Unspecified(), 0)
	switch r.Protocol {
	case "udp":
		txp := minest.NewDNSOverUDPTransport(dnsUnusedDialer{}, unused)
		txp.ObserveRawQuery = lc.rawObserver("dnsQuery")
		txp.ObserveRawResponse = lc.rawObserver("dnsResponse")
		return txp.ExchangeWithConn(ctx, conn, query)
	default:
		streamDialer := dnsoverstream.NewStreamOpenerDialerTCP(dnsUnusedDialer{})
		txp := dnsoverstream.NewTransport(streamDialer, unused)
		txp.ObserveRawQuery = lc.rawObserver("dnsQuery")
		txp.ObserveRawResponse = lc.rawObserver("dnsResponse")
		return txp.ExchangeWithStreamOpener(ctx, dnsoverstream.NewTCPStreamOpener(conn), query)
	}
}

// dnsUnusedDialer is the dialer given to the DNS transports, which only
// exchange over the connection dialed by [*DNSResolver] and must not dial.
type dnsUnusedDialer struct{}

func (dnsUnusedDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	panic("loghog: DNS transport must not dial")
}

func dnsAnswers(resp *dnscodec.Response, qtype uint16) ([]string, error) {
	if qtype == dns.TypeAAAA {
		return resp.RecordsAAAA()
	}
	return resp.RecordsA()
}
