package shapebind

import "context"

type contextKey int

const (
	_ctxKeyCollectAll contextKey = iota
)

// WithCollectAll returns a child context that makes Schema.Validate report
// every failing path instead of stopping at the first one.
func WithCollectAll(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyCollectAll, enabled)
}

// IsCollectAll reports whether the current validation should collect every
// issue.
func IsCollectAll(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v := ctx.Value(_ctxKeyCollectAll)
	b, _ := v.(bool)
	return b
}
