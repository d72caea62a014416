// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"
)

// Resolver abstracts the [*net.Resolver] behavior.
//
// Both [*net.Resolver] and [*DNSResolver] satisfy this interface.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ResolverFunc adapts a function to the [Resolver] interface.
type ResolverFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

var _ Resolver = ResolverFunc(nil)

// LookupNetIP implements [Resolver].
func (f ResolverFunc) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	return f(ctx, network, host)
}

// NewResolveFunc returns a new [*ResolveFunc] for the given host and port.
//
// The cfg argument contains the common configuration for loghog operations.
//
// The timeout argument bounds the lookup.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewResolveFunc(cfg *Config, host string, port uint16, timeout time.Duration, logger SLogger) *ResolveFunc {
	return &ResolveFunc{
		ErrClassifier: cfg.ErrClassifier,
		Host:          host,
		Logger:        logger,
		Port:          port,
		Resolver:      cfg.Resolver,
		Shuffle:       cfg.Shuffle,
		Timeout:       timeout,
		TimeNow:       cfg.TimeNow,
	}
}

// ResolveFunc maps the collector host name to shuffled candidate endpoints.
//
// An IP-literal Host is returned as the only candidate without resolving.
// Otherwise, answers that are not valid unicast-capable addresses are
// discarded and the remaining candidates are shuffled. An empty candidate
// set wraps [ErrResolve].
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type ResolveFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewResolveFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Host is the host name or IP address to resolve.
	//
	// Set by [NewResolveFunc] to the user-provided value.
	Host string

	// Logger is the [SLogger] to use.
	//
	// Set by [NewResolveFunc] to the user-provided logger.
	Logger SLogger

	// Port is the port of every candidate endpoint.
	//
	// Set by [NewResolveFunc] to the user-provided value.
	Port uint16

	// Resolver performs the lookup.
	//
	// Set by [NewResolveFunc] from [Config.Resolver].
	Resolver Resolver

	// Shuffle randomizes the candidates.
	//
	// Set by [NewResolveFunc] from [Config.Shuffle].
	Shuffle func(n int, swap func(i, j int))

	// Timeout bounds the lookup.
	//
	// Set by [NewResolveFunc] to the user-provided value.
	Timeout time.Duration

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewResolveFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Func[Unit, []netip.AddrPort] = &ResolveFunc{}

// Call invokes the [*ResolveFunc] to obtain the candidate endpoints.
func (op *ResolveFunc) Call(ctx context.Context, _ Unit) ([]netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(op.Host); err == nil {
		return []netip.AddrPort{netip.AddrPortFrom(addr.Unmap(), op.Port)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, op.Timeout)
	defer cancel()
	t0 := op.TimeNow()
	deadline, _ := ctx.Deadline()
	op.logResolveStart(t0, deadline)
	addrs, err := op.Resolver.LookupNetIP(ctx, "ip", op.Host)
	candidates := op.candidates(addrs)
	if err == nil && len(candidates) == 0 {
		err = fmt.Errorf("no usable address for %q", op.Host)
	}
	op.logResolveDone(t0, deadline, candidates, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	return candidates, nil
}

func (op *ResolveFunc) candidates(addrs []netip.Addr) []netip.AddrPort {
	out := make([]netip.AddrPort, 0, len(addrs))
	for _, addr := range addrs {
		if !addr.IsValid() || addr.IsUnspecified() || addr.IsMulticast() {
			continue
		}
		out = append(out, netip.AddrPortFrom(addr.Unmap(), op.Port))
	}
	op.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func (op *ResolveFunc) logResolveStart(t0 time.Time, deadline time.Time) {
	op.Logger.Info(
		"resolveStart",
		slog.Time("deadline", deadline),
		slog.String("host", op.Host),
		slog.Time("t", t0),
	)
}

func (op *ResolveFunc) logResolveDone(
	t0 time.Time, deadline time.Time, candidates []netip.AddrPort, err error) {
	op.Logger.Info(
		"resolveDone",
		slog.Any("candidates", candidates),
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("host", op.Host),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
}
