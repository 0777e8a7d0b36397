package shapebind

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// RequiredSuffix marks a validator name as required ("array.required").
const RequiredSuffix = ".required"

// Check reports whether a present value satisfies a kind.
type Check func(v any) bool

// Kinds maps validator names to checks.
type Kinds map[string]Check

// DefaultKinds returns the built-in vocabulary: array, string, number, bool,
// object, func and any.
func DefaultKinds() Kinds {
	return Kinds{
		"array":  isArray,
		"string": isString,
		"number": isNumber,
		"bool":   isBool,
		"object": isObject,
		"func":   isFunc,
		"any":    func(any) bool { return true },
	}
}

// With returns a copy of k with name registered to check.
func (k Kinds) With(name string, check Check) Kinds {
	out := make(Kinds, len(k)+1)
	for n, c := range k {
		out[n] = c
	}
	out[name] = check
	return out
}

// Names returns the registered names in sorted order.
func (k Kinds) Names() []string {
	out := make([]string, 0, len(k))
	for n := range k {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ParseKind splits a validator name into its kind and the required flag.
func ParseKind(s string) (kind string, required bool) {
	if strings.HasSuffix(s, RequiredSuffix) {
		return strings.TrimSuffix(s, RequiredSuffix), true
	}
	return s, false
}

// TypeName returns a short, stable type label used in messages.
func TypeName(v any) string {
	switch {
	case v == nil:
		return "null"
	case isArray(v):
		return "array"
	case isString(v):
		return "string"
	case isNumber(v):
		return "number"
	case isBool(v):
		return "bool"
	case isObject(v):
		return "object"
	case isFunc(v):
		return "func"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// numberLiteral matches decoder number types such as json.Number.
type numberLiteral interface {
	Float64() (float64, error)
	Int64() (int64, error)
}

func isArray(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func isString(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(numberLiteral); ok {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.String
}

func isNumber(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(numberLiteral); ok {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isBool(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Bool
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isFunc(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}
