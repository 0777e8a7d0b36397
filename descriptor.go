package shapebind

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidKey is returned for descriptor keys that cannot be addressed by a
// dotted path: the empty key and keys containing '.'.
var ErrInvalidKey = errors.New("shapebind: invalid descriptor key")

// CheckKey returns an error wrapping ErrInvalidKey when key cannot be used in
// a descriptor.
func CheckKey(key string) error {
	if key == "" || strings.Contains(key, ".") {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return nil
}

// ValidatorFunc is a custom validator for the value stored under key in props.
// schemaName is the name of the schema running the check (may be empty).
// A non-nil error marks the value as invalid.
type ValidatorFunc func(props map[string]any, key, schemaName string) error

// NodeKind discriminates the variants a descriptor node can hold.
type NodeKind int

const (
	KindName   NodeKind = iota // Validator name, optionally suffixed with ".required".
	KindFunc                   // Custom ValidatorFunc.
	KindNested                 // Nested *Descriptor.
	KindValue                  // Opaque literal; ignored by the binder and the schema.
)

func (k NodeKind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindFunc:
		return "func"
	case KindNested:
		return "nested"
	case KindValue:
		return "value"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a single descriptor entry.
type Node struct {
	kind   NodeKind
	name   string
	fn     ValidatorFunc
	nested *Descriptor
	value  any
}

// Name returns a node naming a built-in or registered validator.
func Name(s string) Node { return Node{kind: KindName, name: s} }

// Func returns a node holding a custom validator.
func Func(fn ValidatorFunc) Node { return Node{kind: KindFunc, fn: fn} }

// Nested returns a node holding a nested descriptor. A nil descriptor is
// treated as empty.
func Nested(d *Descriptor) Node {
	if d == nil {
		d = NewDescriptor()
	}
	return Node{kind: KindNested, nested: d}
}

// Value returns an opaque node.
func Value(v any) Node { return Node{kind: KindValue, value: v} }

func (n Node) Kind() NodeKind          { return n.kind }
func (n Node) Name() string            { return n.name }
func (n Node) Func() ValidatorFunc     { return n.fn }
func (n Node) Descriptor() *Descriptor { return n.nested }
func (n Node) Value() any              { return n.value }
func (n Node) IsLeaf() bool            { return n.kind != KindNested }

func (n Node) String() string {
	switch n.kind {
	case KindName:
		return n.name
	case KindFunc:
		return "<func>"
	case KindNested:
		return fmt.Sprintf("<nested %d>", n.nested.Len())
	default:
		return fmt.Sprintf("%v", n.value)
	}
}

// FieldEntry is a keyed descriptor node.
type FieldEntry struct {
	Key  string
	Node Node
}

// Field pairs a key with a node.
func Field(key string, n Node) FieldEntry { return FieldEntry{Key: key, Node: n} }

// Descriptor is an ordered, immutable set of keyed nodes.
type Descriptor struct {
	fields []FieldEntry
	index  map[string]int
}

// NewDescriptor builds a descriptor from fields in declaration order. A key
// given twice keeps its first position and its last node. It panics on a key
// rejected by CheckKey; use BuildDescriptor for untrusted keys.
func NewDescriptor(fields ...FieldEntry) *Descriptor {
	d, err := BuildDescriptor(fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// BuildDescriptor is NewDescriptor returning an error for invalid keys.
func BuildDescriptor(fields ...FieldEntry) (*Descriptor, error) {
	d := &Descriptor{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := CheckKey(f.Key); err != nil {
			return nil, err
		}
		if i, ok := d.index[f.Key]; ok {
			d.fields[i].Node = f.Node
			continue
		}
		d.index[f.Key] = len(d.fields)
		d.fields = append(d.fields, f)
	}
	return d, nil
}

// Len reports the number of top-level fields.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// Fields returns a copy of the top-level fields in declaration order.
func (d *Descriptor) Fields() []FieldEntry {
	if d == nil {
		return nil
	}
	return append([]FieldEntry(nil), d.fields...)
}

// Keys returns the top-level keys in declaration order.
func (d *Descriptor) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.Key
	}
	return out
}

// Get returns the node stored under key.
func (d *Descriptor) Get(key string) (Node, bool) {
	if d == nil {
		return Node{}, false
	}
	i, ok := d.index[key]
	if !ok {
		return Node{}, false
	}
	return d.fields[i].Node, true
}

// Lookup resolves a dotted path to a node.
func (d *Descriptor) Lookup(path string) (Node, bool) {
	cur := d
	parts := SplitPath(path)
	for i, p := range parts {
		n, ok := cur.Get(p)
		if !ok {
			return Node{}, false
		}
		if i == len(parts)-1 {
			return n, true
		}
		if n.kind != KindNested {
			return Node{}, false
		}
		cur = n.nested
	}
	return Node{}, false
}

// FromMap converts a loosely typed tree into a Descriptor. Strings become
// names, functions with the ValidatorFunc signature become custom validators,
// maps and *Descriptor values become nested descriptors, and everything else
// becomes an opaque value. Map keys are taken in sorted order. Keys rejected
// by CheckKey are an error.
func FromMap(m map[string]any) (*Descriptor, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]FieldEntry, 0, len(keys))
	for _, k := range keys {
		if err := CheckKey(k); err != nil {
			return nil, err
		}
		n, err := nodeOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("shapebind: key %q: %w", k, err)
		}
		fields = append(fields, Field(k, n))
	}
	return BuildDescriptor(fields...)
}

// MustFromMap is FromMap that panics on error.
func MustFromMap(m map[string]any) *Descriptor {
	d, err := FromMap(m)
	if err != nil {
		panic(err)
	}
	return d
}

func nodeOf(v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		return t, nil
	case string:
		return Name(t), nil
	case ValidatorFunc:
		if t == nil {
			return Node{}, fmt.Errorf("nil validator")
		}
		return Func(t), nil
	case func(map[string]any, string, string) error:
		if t == nil {
			return Node{}, fmt.Errorf("nil validator")
		}
		return Func(t), nil
	case *Descriptor:
		return Nested(t), nil
	case map[string]any:
		d, err := FromMap(t)
		if err != nil {
			return Node{}, err
		}
		return Nested(d), nil
	default:
		return Value(v), nil
	}
}
