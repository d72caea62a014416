// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// NewHandler returns a [*Handler] shipping [slog.Record] values through client.
//
// The handler does not own the client: closing the client is up to the caller.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Handler is a [slog.Handler] backed by a [*Client].
//
// The body shipped to the collector is the record message followed by the
// attributes rendered as key=value pairs separated by spaces. Attributes in
// groups have their keys prefixed by the group names joined with dots. The
// record time is not used: records are stamped when encoded.
type Handler struct {
	attrs  []slog.Attr
	client *Client
	groups []string
}

var _ slog.Handler = &Handler{}

// Enabled implements [slog.Handler].
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.client.Enabled(LevelFromSlog(level))
}

// Handle implements [slog.Handler].
//
// Only encoding errors are returned, never network errors.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	for _, attr := range h.attrs {
		appendAttr(&sb, "", attr)
	}
	prefix := groupPrefix(h.groups)
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, prefix, attr)
		return true
	})
	return h.client.LogContext(ctx, LevelFromSlog(record.Level), sb.String())
}

// WithAttrs implements [slog.Handler].
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := groupPrefix(h.groups)
	out := h.clone()
	for _, attr := range attrs {
		out.attrs = append(out.attrs, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return out
}

// WithGroup implements [slog.Handler].
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := h.clone()
	out.groups = append(out.groups, name)
	return out
}

func (h *Handler) clone() *Handler {
	return &Handler{
		attrs:  slices.Clip(h.attrs),
		client: h.client,
		groups: slices.Clip(h.groups),
	}
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}

func appendAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, child := range attr.Value.Group() {
			appendAttr(sb, prefix, child)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(attr.Key)
	sb.WriteByte('=')
	sb.WriteString(attr.Value.String())
}
