// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"log/slog"
	"time"
)

// dnsExchangeLogContext holds the logging state of a DNS exchange.
type dnsExchangeLogContext struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// LocalAddr is the local address of the connection.
	LocalAddr string

	// Logger is the SLogger to use.
	Logger SLogger

	// Protocol is the network protocol ("tcp" or "udp").
	Protocol string

	// Query is the queried name.
	Query string

	// QueryType is the query type (e.g., "A", "AAAA").
	QueryType string

	// RemoteAddr is the remote address of the connection.
	RemoteAddr string

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

func (lc *dnsExchangeLogContext) logStart(t0 time.Time, deadline time.Time) {
	lc.Logger.Info(
		"dnsExchangeStart",
		slog.Time("deadline", deadline),
		slog.String("dnsQuery", lc.Query),
		slog.String("dnsQueryType", lc.QueryType),
		slog.String("localAddr", lc.LocalAddr),
		slog.String("protocol", lc.Protocol),
		slog.String("remoteAddr", lc.RemoteAddr),
		slog.Time("t", t0),
	)
}

func (lc *dnsExchangeLogContext) logDone(t0 time.Time, deadline time.Time, answers []string, err error) {
	lc.Logger.Info(
		"dnsExchangeDone",
		slog.Time("deadline", deadline),
		slog.Any("dnsAnswers", answers),
		slog.String("dnsQuery", lc.Query),
		slog.String("dnsQueryType", lc.QueryType),
		slog.Any("err", err),
		slog.String("errClass", lc.ErrClassifier.Classify(err)),
		slog.String("localAddr", lc.LocalAddr),
		slog.String("protocol", lc.Protocol),
		slog.String("remoteAddr", lc.RemoteAddr),
		slog.Time("t0", t0),
		slog.Time("t", lc.TimeNow()),
	)
}

// rawObserver returns a function logging raw DNS messages at debug level.
func (lc *dnsExchangeLogContext) rawObserver(event string) func([]byte) {
	return func(raw []byte) {
		lc.Logger.Debug(
			event,
			slog.Any("dnsRawMessage", raw),
			slog.String("localAddr", lc.LocalAddr),
			slog.String("protocol", lc.Protocol),
			slog.String("remoteAddr", lc.RemoteAddr),
			slog.Time("t", lc.TimeNow()),
		)
	}
}
