package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	sb "github.com/reoring/shapebind"
)

// ParseYAML parses a YAML mapping into a Descriptor, keeping key order. String
// scalars become validator names, mappings nested descriptors and everything
// else opaque values. Mappings of the form {$ref: file} are replaced by
// resolve(file).
func ParseYAML(data []byte, resolve Resolver) (*sb.Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("source: yaml: %w", err)
	}
	root := &doc
	if root.Kind == 0 {
		return sb.NewDescriptor(), nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return sb.NewDescriptor(), nil
		}
		root = root.Content[0]
	}
	root = deref(root)
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("source: yaml: descriptor root must be a mapping")
	}
	n, err := yamlMapping(root, resolve)
	if err != nil {
		return nil, err
	}
	return n.Descriptor(), nil
}

func yamlMapping(m *yaml.Node, resolve Resolver) (sb.Node, error) {
	fields := make([]sb.FieldEntry, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], deref(m.Content[i+1])
		if k.Kind != yaml.ScalarNode {
			return sb.Node{}, fmt.Errorf("source: yaml: line %d: non-scalar key", k.Line)
		}
		var n sb.Node
		switch {
		case v.Kind == yaml.MappingNode:
			var err error
			n, err = yamlMapping(v, resolve)
			if err != nil {
				return sb.Node{}, err
			}
		case v.Kind == yaml.ScalarNode && v.Tag == "!!str":
			n = sb.Name(v.Value)
		default:
			var raw any
			if err := v.Decode(&raw); err != nil {
				return sb.Node{}, fmt.Errorf("source: yaml: line %d: %w", v.Line, err)
			}
			n = sb.Value(normalizeYAML(raw))
		}
		fields = append(fields, sb.Field(k.Value, n))
	}
	return finish(fields, resolve)
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// DecodeYAML decodes a YAML document into a JSON-like map.
func DecodeYAML(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("source: yaml: %w", err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		return nil, errors.New("source: yaml: document root must be a mapping")
	}
	return m, nil
}

// normalizeYAML converts YAML-decoded values (which may contain map[any]any)
// into JSON-like values recursively. Non-string keys are formatted with %v.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeYAML(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalizeYAML(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalizeYAML(t[i])
		}
		return arr
	default:
		return v
	}
}
