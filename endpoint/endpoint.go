// Package endpoint fetches JSON documents over HTTP and validates them against a
// schema. Unlike component prop checks, a response that fails validation is a
// hard error for the caller.
package endpoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	sb "github.com/reoring/shapebind"
)

// Endpoint is a single remote resource with a response schema.
type Endpoint struct {
	name   string
	url    string
	schema *sb.Schema
	client *http.Client
	header http.Header
	logger *zap.Logger

	schemaOpts []sb.SchemaOption
}

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithHTTPClient sets the client used for requests (http.DefaultClient by default).
func WithHTTPClient(c *http.Client) Option {
	return func(e *Endpoint) {
		if c != nil {
			e.client = c
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(e *Endpoint) { e.header.Add(key, value) }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Endpoint) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSchemaOptions forwards options to the response schema.
func WithSchemaOptions(opts ...sb.SchemaOption) Option {
	return func(e *Endpoint) { e.schemaOpts = append(e.schemaOpts, opts...) }
}

// New builds an endpoint named name whose responses must match d.
func New(name, rawURL string, d *sb.Descriptor, opts ...Option) (*Endpoint, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("endpoint %s: invalid url: %w", name, err)
	}
	e := &Endpoint{
		name:   name,
		url:    rawURL,
		client: http.DefaultClient,
		header: http.Header{},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	s, err := sb.NewSchema(name, d, e.schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", name, err)
	}
	e.schema = s
	return e, nil
}

// Name returns the endpoint name.
func (e *Endpoint) Name() string { return e.name }

// Schema returns the response schema.
func (e *Endpoint) Schema() *sb.Schema { return e.schema }

// Fetch issues a GET with params encoded in the query string, decodes the JSON
// body and validates it. Validation failures are returned as errors wrapping
// sb.Issues.
func (e *Endpoint) Fetch(ctx context.Context, params map[string]any) (map[string]any, error) {
	target := e.url
	if q := EncodeQuery(params); q != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", e.name, err)
	}
	for k, vs := range e.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	e.logger.Debug("fetching", zap.String("endpoint", e.name), zap.String("url", target))
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", e.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Endpoint: e.name, StatusCode: resp.StatusCode}
	}
	doc, err := decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: decoding response: %w", e.name, err)
	}
	if err := e.schema.Validate(ctx, doc); err != nil {
		e.logger.Debug("response rejected", zap.String("endpoint", e.name), zap.Error(err))
		return nil, fmt.Errorf("endpoint %s: invalid response: %w", e.name, err)
	}
	m, _ := doc.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// Validate checks an already-decoded document and returns it unchanged when it
// is valid.
func (e *Endpoint) Validate(ctx context.Context, doc map[string]any) (map[string]any, error) {
	if err := e.schema.Validate(ctx, doc); err != nil {
		return nil, fmt.Errorf("endpoint %s: invalid response: %w", e.name, err)
	}
	return doc, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint %s: unexpected status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// EncodeQuery encodes params as a query string with keys in sorted order.
// Values are converted with cast.ToString; slices repeat their key.
func EncodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range queryValues(params[k]) {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func queryValues(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = cast.ToString(x)
		}
		return out
	default:
		return []string{cast.ToString(v)}
	}
}

func decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
