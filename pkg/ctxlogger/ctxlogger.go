package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey int

const attrsKey ctxKey = 0

// ContextHandler decorates every record with the attrs accumulated on the
// context through AppendCtx. Request-scoped fields (request id, participant
// id) ride the context down the call chain instead of being threaded through
// every logging call.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(attrsKey).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}

// AppendCtx returns a context carrying attr on top of whatever the parent
// already holds. The attr slice is copied so sibling contexts never share a
// backing array.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	existing, _ := parent.Value(attrsKey).([]slog.Attr)
	attrs := make([]slog.Attr, 0, len(existing)+1)
	attrs = append(attrs, existing...)
	attrs = append(attrs, attr)

	return context.WithValue(parent, attrsKey, attrs)
}
