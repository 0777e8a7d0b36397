// Package source loads descriptors and documents from YAML and JSON files.
//
// Descriptor files keep their key order. A mapping whose only key is "$ref"
// includes another descriptor file, resolved relative to the including file:
//
//	user:
//	  $ref: user.yaml
//	items: array.required
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/reload"
)

// RefKey is the key of an include mapping.
const RefKey = "$ref"

// Resolver returns the descriptor referenced by an include. A nil Resolver
// rejects includes.
type Resolver func(ref string) (*sb.Descriptor, error)

// Format identifies a file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the format from a file extension; anything that is not .json
// is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse parses a descriptor in the given format.
func Parse(data []byte, f Format, resolve Resolver) (*sb.Descriptor, error) {
	if f == FormatJSON {
		return ParseJSON(data, resolve)
	}
	return ParseYAML(data, resolve)
}

func finish(fields []sb.FieldEntry, resolve Resolver) (sb.Node, error) {
	if len(fields) == 1 && fields[0].Key == RefKey {
		ref := fields[0].Node
		if ref.Kind() != sb.KindName || ref.Name() == "" {
			return sb.Node{}, errors.New("source: $ref must be a file name")
		}
		if resolve == nil {
			return sb.Node{}, fmt.Errorf("source: $ref %q: includes are not enabled", ref.Name())
		}
		d, err := resolve(ref.Name())
		if err != nil {
			return sb.Node{}, fmt.Errorf("source: $ref %q: %w", ref.Name(), err)
		}
		return sb.Nested(d), nil
	}
	d, err := sb.BuildDescriptor(fields...)
	if err != nil {
		return sb.Node{}, fmt.Errorf("source: %w", err)
	}
	return sb.Nested(d), nil
}

// LoadFile reads the descriptor in path and every file it includes.
func LoadFile(ctx context.Context, path string) (*sb.Descriptor, error) {
	c := reload.NewCache(DescriptorLoader)
	return RequireDescriptor(ctx, c, path)
}

// RequireDescriptor loads path through c, which must use DescriptorLoader.
func RequireDescriptor(ctx context.Context, c *reload.Cache, path string) (*sb.Descriptor, error) {
	v, err := c.Require(ctx, path)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*sb.Descriptor)
	if !ok {
		return nil, fmt.Errorf("source: %s: not a descriptor module", path)
	}
	return d, nil
}

// DescriptorLoader is a reload.Loader for descriptor files. Included files are
// required through the same cache, so they become children of the including
// module.
func DescriptorLoader(ctx context.Context, c *reload.Cache, name string) (any, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(name)
	resolve := func(ref string) (*sb.Descriptor, error) {
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		return RequireDescriptor(ctx, c, ref)
	}
	d, err := Parse(data, FormatOf(name), resolve)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// ReadDocument reads a JSON or YAML document (a store or a candidate) from
// path; "-" reads JSON from stdin.
func ReadDocument(path string) (map[string]any, error) {
	if path == "-" {
		return DecodeDocument(os.Stdin, FormatJSON)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(bytes.NewReader(data), FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument decodes a document in the given format.
func DecodeDocument(r io.Reader, f Format) (map[string]any, error) {
	if f == FormatJSON {
		return DecodeJSON(r)
	}
	return DecodeYAML(r)
}
