// Package jsonschema projects descriptors onto a small subset of JSON Schema
// for export and documentation.
package jsonschema

import (
	sb "github.com/reoring/shapebind"
)

// Draft is the dialect written to the root "$schema" keyword.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	// Core
	SchemaURI   string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Default     any    `json:"default,omitempty"`

	// Object
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

var kindTypes = map[string]string{
	"array":  "array",
	"string": "string",
	"number": "number",
	"bool":   "boolean",
	"object": "object",
}

// FromDescriptor converts d into an object schema. Names map to JSON types,
// ".required" names are listed in the parent's required set, and nested
// descriptors become nested objects. Funcs, "func", "any", unknown names and
// opaque values accept anything; opaque values are recorded as the default.
func FromDescriptor(d *sb.Descriptor) *Schema {
	s := &Schema{Type: "object"}
	if d.Len() == 0 {
		return s
	}
	s.Properties = make(map[string]*Schema, d.Len())
	for _, f := range d.Fields() {
		n := f.Node
		switch n.Kind() {
		case sb.KindNested:
			s.Properties[f.Key] = FromDescriptor(n.Descriptor())
		case sb.KindName:
			kind, required := sb.ParseKind(n.Name())
			s.Properties[f.Key] = &Schema{Type: kindTypes[kind]}
			if required {
				s.Required = append(s.Required, f.Key)
			}
		case sb.KindValue:
			s.Properties[f.Key] = &Schema{Default: n.Value()}
		default:
			s.Properties[f.Key] = &Schema{}
		}
	}
	return s
}

// Document wraps FromDescriptor with the root keywords of a standalone
// schema document.
func Document(title string, d *sb.Descriptor) *Schema {
	s := FromDescriptor(d)
	s.SchemaURI = Draft
	s.Title = title
	return s
}
