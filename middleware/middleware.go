// Package middleware validates JSON request bodies against a schema at HTTP
// boundaries. Framework adapters live in the echo and gin submodules.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/model"
	"github.com/reoring/shapebind/source"
)

// ctxKeyDocument is a typed context key for the validated request document.
type ctxKeyDocument struct{}

// ContextWithDocument attaches a validated document to the context.
func ContextWithDocument(ctx context.Context, doc map[string]any) context.Context {
	return context.WithValue(ctx, ctxKeyDocument{}, doc)
}

// DocumentFromContext retrieves the document attached by ContextWithDocument.
func DocumentFromContext(ctx context.Context) (map[string]any, bool) {
	v, ok := ctx.Value(ctxKeyDocument{}).(map[string]any)
	return v, ok
}

// Options configures request validation.
type Options struct {
	// CollectAll reports every issue instead of the first.
	CollectAll bool
	// Logger receives rejected requests at debug level.
	Logger *zap.Logger
}

// DefaultOptions returns a recommended default for HTTP JSON boundaries:
// every issue is reported back to the client.
func DefaultOptions() Options {
	return Options{CollectAll: true}
}

// Decode reads the JSON body of r and validates it against s. The returned
// error is Issues when the body parsed but did not match.
func Decode(r *http.Request, s *sb.Schema, opt Options) (map[string]any, error) {
	doc, err := source.DecodeJSON(r.Body)
	if err != nil {
		return nil, err
	}
	ctx := sb.WithCollectAll(r.Context(), opt.CollectAll)
	if err := s.Validate(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WithDocument returns r with doc attached both as the request document and
// as the model store, so model components rendered by the handler bind to it.
func WithDocument(r *http.Request, doc map[string]any) *http.Request {
	ctx := ContextWithDocument(r.Context(), doc)
	return r.WithContext(model.ContextWithStore(ctx, doc))
}

// ValidateJSON wraps next so that it only sees requests whose body satisfies s.
// Other requests are answered with 400 and ErrorPayload.
func ValidateJSON(s *sb.Schema, opt Options) func(http.Handler) http.Handler {
	if opt == (Options{}) {
		opt = DefaultOptions()
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doc, err := Decode(r, s, opt)
			if err != nil {
				logger.Debug("request rejected", zap.String("schema", s.Name()), zap.Error(err))
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, WithDocument(r, doc))
		})
	}
}

// WriteError answers 400 with the JSON body Body(err).
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(Body(err))
}

// Body shapes a validation or decode error for a JSON response.
func Body(err error) map[string]any {
	if iss, ok := sb.AsIssues(err); ok {
		return ErrorPayload(iss)
	}
	return map[string]any{"error": err.Error()}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []sb.Issue) map[string]any {
	out := make([]map[string]any, len(issues))
	for i, it := range issues {
		out[i] = map[string]any{"path": it.Path, "code": it.Code, "message": it.Message}
	}
	return map[string]any{"issues": out}
}
