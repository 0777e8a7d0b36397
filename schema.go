package shapebind

import (
	"context"
	"reflect"

	"github.com/reoring/shapebind/i18n"
)

// fieldValidator checks holder[key]; path is the full dotted path of key. It
// returns false when validation must stop.
type fieldValidator func(c *checker, holder map[string]any, key, path string) bool

type namedValidator struct {
	key string
	fn  fieldValidator
}

// Schema validates candidates against a descriptor. It is immutable and safe
// for concurrent use.
type Schema struct {
	name   string
	desc   *Descriptor
	fields []namedValidator
}

// SchemaOption configures NewSchema.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	kinds Kinds
}

// WithKinds replaces the validator vocabulary (DefaultKinds by default).
func WithKinds(k Kinds) SchemaOption {
	return func(c *schemaConfig) {
		if k != nil {
			c.kinds = k
		}
	}
}

// NewSchema builds one validator per descriptor path. Names resolve through the
// kind vocabulary, funcs are used as-is and nested descriptors become shape
// validators over their already-built children. Opaque values are skipped.
// An unknown kind name fails construction with CodeUnknownKind issues.
func NewSchema(name string, d *Descriptor, opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{kinds: DefaultKinds()}
	for _, o := range opts {
		o(&cfg)
	}
	var bad Issues
	acc := MapDescriptor(d, func(n Node, path string, acc map[string]any) (any, bool) {
		switch n.Kind() {
		case KindName:
			kind, required := ParseKind(n.Name())
			check, ok := cfg.kinds[kind]
			if !ok {
				data := map[string]string{"prop": path, "schema": name, "expected": n.Name()}
				bad = AppendIssues(bad, Issue{
					Path:    path,
					Code:    CodeUnknownKind,
					Schema:  name,
					Message: i18n.T(CodeUnknownKind, data),
					Params:  map[string]any{"kind": kind},
				})
				return nil, false
			}
			return kindValidator(kind, check, required), true
		case KindFunc:
			if n.Func() == nil {
				bad = AppendIssues(bad, Issue{
					Path:    path,
					Code:    CodeInvalidNode,
					Schema:  name,
					Message: i18n.T(CodeInvalidNode, map[string]string{"prop": path, "schema": name}),
				})
				return nil, false
			}
			return funcValidator(n.Func()), true
		case KindNested:
			return shapeValidator(collectValidators(n.Descriptor(), path, acc)), true
		default:
			return nil, false
		}
	})
	if len(bad) > 0 {
		return nil, bad
	}
	return &Schema{name: name, desc: d, fields: collectValidators(d, "", acc)}, nil
}

// MustSchema is NewSchema that panics on error.
func MustSchema(name string, d *Descriptor, opts ...SchemaOption) *Schema {
	s, err := NewSchema(name, d, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaFor builds a schema named after the Go type of owner (pointers are
// dereferenced). It is meant for types that carry their own schema:
//
//	type Cart struct{ *shapebind.Schema }
//	c := Cart{}
//	c.Schema = shapebind.MustSchemaFor(c, d)
func SchemaFor(owner any, d *Descriptor, opts ...SchemaOption) (*Schema, error) {
	return NewSchema(typeName(owner), d, opts...)
}

// MustSchemaFor is SchemaFor that panics on error.
func MustSchemaFor(owner any, d *Descriptor, opts ...SchemaOption) *Schema {
	s, err := SchemaFor(owner, d, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name ("" for anonymous schemas).
func (s *Schema) Name() string { return s.name }

// Descriptor returns the descriptor the schema was built from.
func (s *Schema) Descriptor() *Descriptor { return s.desc }

// Validate runs every validator against v in descriptor order. By default the
// first failure stops validation; WithCollectAll gathers every failure. The
// returned error is Issues, or nil when v is valid. A nil v is treated as an
// empty object.
func (s *Schema) Validate(ctx context.Context, v any) error {
	c := &checker{schema: s.name, collectAll: IsCollectAll(ctx)}
	var m map[string]any
	switch t := v.(type) {
	case nil:
		m = map[string]any{}
	case map[string]any:
		m = t
	default:
		c.invalidType("", "object", v)
		return c.issues
	}
	for _, f := range s.fields {
		if !f.fn(c, m, f.key, f.key) {
			break
		}
	}
	if len(c.issues) == 0 {
		return nil
	}
	return c.issues
}

// Is reports whether v passes s.
func (s *Schema) Is(ctx context.Context, v any) bool {
	return s.Validate(ctx, v) == nil
}

func collectValidators(d *Descriptor, prefix string, acc map[string]any) []namedValidator {
	out := make([]namedValidator, 0, d.Len())
	for _, k := range d.Keys() {
		v, ok := GetPath(acc, JoinPath(prefix, k))
		if !ok {
			continue
		}
		fn, ok := v.(fieldValidator)
		if !ok {
			continue
		}
		out = append(out, namedValidator{key: k, fn: fn})
	}
	return out
}

func kindValidator(kind string, check Check, required bool) fieldValidator {
	return func(c *checker, holder map[string]any, key, path string) bool {
		v, present := holder[key]
		if !present || v == nil {
			if required {
				return c.required(path, kind)
			}
			return true
		}
		if !check(v) {
			return c.invalidType(path, kind, v)
		}
		return true
	}
}

func funcValidator(fn ValidatorFunc) fieldValidator {
	return func(c *checker, holder map[string]any, key, path string) bool {
		err := fn(holder, key, c.schema)
		if err == nil {
			return true
		}
		return c.custom(path, err)
	}
}

func shapeValidator(children []namedValidator) fieldValidator {
	return func(c *checker, holder map[string]any, key, path string) bool {
		v, present := holder[key]
		if !present || v == nil {
			return true
		}
		m, ok := v.(map[string]any)
		if !ok {
			return c.invalidType(path, "object", v)
		}
		for _, ch := range children {
			if !ch.fn(c, m, ch.key, JoinPath(path, ch.key)) {
				return false
			}
		}
		return true
	}
}

// checker accumulates issues for one Validate call.
type checker struct {
	schema     string
	collectAll bool
	issues     Issues
}

func (c *checker) fail(it Issue) bool {
	it.Schema = c.schema
	c.issues = AppendIssues(c.issues, it)
	return c.collectAll
}

func (c *checker) required(path, kind string) bool {
	data := map[string]string{"prop": path, "schema": c.schema, "expected": kind}
	return c.fail(Issue{
		Path:    path,
		Code:    CodeRequired,
		Message: i18n.T(CodeRequired, data),
		Params:  map[string]any{"expected": kind},
	})
}

func (c *checker) invalidType(path, kind string, got any) bool {
	data := map[string]string{"prop": path, "schema": c.schema, "expected": kind, "got": TypeName(got)}
	return c.fail(Issue{
		Path:    path,
		Code:    CodeInvalidType,
		Message: i18n.T(CodeInvalidType, data),
		Params:  map[string]any{"expected": kind, "got": TypeName(got)},
	})
}

func (c *checker) custom(path string, err error) bool {
	data := map[string]string{"prop": path, "schema": c.schema}
	data["reason"] = i18n.Format(err.Error(), data)
	return c.fail(Issue{
		Path:    path,
		Code:    CodeCustom,
		Message: i18n.T(CodeCustom, data),
		Cause:   err,
	})
}

func typeName(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
