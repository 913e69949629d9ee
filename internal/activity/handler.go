package activity

import (
	"context"
	"log/slog"
)

// Handler is an slog.Handler that records INFO and above as activity
// entries and delegates every record to an optional inner handler.
type Handler struct {
	inner  slog.Handler
	log    *Log
	buf    *Buffer
	attrs  []slog.Attr
	groups []string
}

// NewHandler creates a handler feeding log and buf. Any of inner, log and
// buf may be nil.
func NewHandler(inner slog.Handler, log *Log, buf *Buffer) *Handler {
	return &Handler{inner: inner, log: log, buf: buf}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelInfo {
		return true
	}
	return h.inner != nil && h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		e := Entry{
			Time:    r.Time,
			Level:   r.Level.String(),
			Message: r.Message,
			Attrs:   h.collect(r),
		}
		if h.buf != nil {
			h.buf.Write(e)
		}
		if h.log != nil {
			if err := h.log.Append(e); err != nil {
				return err
			}
		}
	}

	if h.inner != nil && h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) collect(r slog.Record) map[string]any {
	if len(h.attrs) == 0 && r.NumAttrs() == 0 {
		return nil
	}
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = value(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.qualify(a.Key)] = value(a)
		return true
	})
	return attrs
}

// qualify prefixes key with the groups currently open, as "g1.g2.key".
func (h *Handler) qualify(key string) string {
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return key
}

func value(a slog.Attr) any {
	v := a.Value.Resolve().Any()
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// WithAttrs binds attrs under the groups open now; groups opened later do
// not apply to them.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var inner slog.Handler
	if h.inner != nil {
		inner = h.inner.WithAttrs(attrs)
	}
	bound := h.attrs[:len(h.attrs):len(h.attrs)]
	for _, a := range attrs {
		bound = append(bound, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &Handler{
		inner:  inner,
		log:    h.log,
		buf:    h.buf,
		attrs:  bound,
		groups: h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	var inner slog.Handler
	if h.inner != nil {
		inner = h.inner.WithGroup(name)
	}
	return &Handler{
		inner:  inner,
		log:    h.log,
		buf:    h.buf,
		attrs:  h.attrs,
		groups: append(h.groups[:len(h.groups):len(h.groups)], name),
	}
}
