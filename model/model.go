// Package model binds path-based projections of a store onto components.
//
// A store provider publishes a store into the render context; a model wrapper
// reads it back, projects it through a descriptor and hands the result to the
// wrapped component merged with the props it was given.
package model

import (
	"context"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	sb "github.com/reoring/shapebind"
)

// Props are the properties handed to a component.
type Props map[string]any

// Component renders itself from props. Implementations find request-scoped
// values, such as the store, in ctx.
type Component interface {
	Render(ctx context.Context, props Props) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, props Props) error

func (f ComponentFunc) Render(ctx context.Context, props Props) error { return f(ctx, props) }

// Named lets a component report its own display name.
type Named interface {
	DisplayName() string
}

// DisplayName returns c's display name, falling back to its Go type name.
func DisplayName(c Component) string {
	if n, ok := c.(Named); ok {
		return n.DisplayName()
	}
	t := reflect.TypeOf(c)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// ctxKeyStore is the typed context key carrying the store.
type ctxKeyStore struct{}

// ContextWithStore attaches a store to the context.
func ContextWithStore(ctx context.Context, store map[string]any) context.Context {
	return context.WithValue(ctx, ctxKeyStore{}, store)
}

// StoreFromContext retrieves the store attached by ContextWithStore or a Store
// provider.
func StoreFromContext(ctx context.Context) (map[string]any, bool) {
	v, ok := ctx.Value(ctxKeyStore{}).(map[string]any)
	return v, ok
}

// Bind projects store through d: every name or func leaf of d is replaced by
// the store value at the same path. Paths missing from the store are omitted,
// and a nil store binds to an empty map.
func Bind(store map[string]any, d *sb.Descriptor) map[string]any {
	return sb.MapDescriptor(d, func(n sb.Node, path string, _ map[string]any) (any, bool) {
		if k := n.Kind(); k != sb.KindName && k != sb.KindFunc {
			return nil, false
		}
		return sb.GetPath(store, path)
	})
}

// BindInto binds store through d and decodes the result into out, which must
// be a pointer. Struct fields are matched by their json tag.
func BindInto(store map[string]any, d *sb.Descriptor, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(Bind(store, d))
}

// Store wraps c so that fn(props) is published as the store to c and every
// component it renders.
func Store(fn func(Props) map[string]any, c Component) Component {
	return &provider{fn: fn, inner: c}
}

type provider struct {
	fn    func(Props) map[string]any
	inner Component
}

func (p *provider) Render(ctx context.Context, props Props) error {
	return p.inner.Render(ContextWithStore(ctx, p.fn(props)), props)
}

func (p *provider) DisplayName() string { return DisplayName(p.inner) }

// Options configures Model.
type Options struct {
	// Dev enables prop checking against a schema derived from the descriptor.
	Dev bool
	// Logger receives prop-check warnings. Defaults to a no-op logger.
	Logger *zap.Logger
	// Kinds overrides the validator vocabulary used in Dev mode.
	Kinds sb.Kinds
}

// Model wraps c so that it receives the store projection described by d,
// merged with the props passed to the wrapper; passed props win on key
// collisions. With opts.Dev, merged props are checked against d before every
// render and mismatches are logged; rendering proceeds either way. The error
// is non-nil only when Dev is set and d names an unknown validator.
func Model(d *sb.Descriptor, c Component, opts Options) (Component, error) {
	m := &modelComponent{desc: d, inner: c, logger: opts.Logger}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if opts.Dev {
		s, err := sb.NewSchema(DisplayName(c), d, sb.WithKinds(opts.Kinds))
		if err != nil {
			return nil, err
		}
		m.schema = s
	}
	return m, nil
}

type modelComponent struct {
	desc   *sb.Descriptor
	inner  Component
	schema *sb.Schema
	logger *zap.Logger
}

func (m *modelComponent) Render(ctx context.Context, props Props) error {
	store, _ := StoreFromContext(ctx)
	merged := Props(lo.Assign(Bind(store, m.desc), map[string]any(props)))
	if m.schema != nil {
		m.schema.Check(ctx, map[string]any(merged), m.logger)
	}
	return m.inner.Render(ctx, merged)
}

func (m *modelComponent) DisplayName() string { return DisplayName(m.inner) }
