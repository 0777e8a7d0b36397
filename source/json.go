package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	sb "github.com/reoring/shapebind"
)

// ParseJSON parses a JSON object into a Descriptor, keeping key order. Strings
// become validator names, objects nested descriptors and everything else
// opaque values. Objects of the form {"$ref": "file"} are replaced by
// resolve(file).
func ParseJSON(data []byte, resolve Resolver) (*sb.Descriptor, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("source: json: %w", err)
	}
	if d, ok := tok.(j.Delim); !ok || d != '{' {
		return nil, errors.New("source: json: descriptor root must be an object")
	}
	n, err := parseJSONObject(dec, resolve)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, errors.New("source: json: trailing data after descriptor")
	}
	return n.Descriptor(), nil
}

// parseJSONObject reads the fields of an object whose '{' was consumed.
func parseJSONObject(dec *j.Decoder, resolve Resolver) (sb.Node, error) {
	var fields []sb.FieldEntry
	for {
		tok, err := dec.Token()
		if err != nil {
			return sb.Node{}, fmt.Errorf("source: json: %w", err)
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return finish(fields, resolve)
		}
		key, ok := tok.(string)
		if !ok {
			return sb.Node{}, fmt.Errorf("source: json: expected key, got %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return sb.Node{}, fmt.Errorf("source: json: %w", err)
		}
		var n sb.Node
		switch v := tok.(type) {
		case string:
			n = sb.Name(v)
		case j.Delim:
			switch v {
			case '{':
				n, err = parseJSONObject(dec, resolve)
			case '[':
				var arr []any
				arr, err = readJSONArray(dec)
				n = sb.Value(arr)
			default:
				err = fmt.Errorf("source: json: unexpected %v", v)
			}
			if err != nil {
				return sb.Node{}, err
			}
		default:
			n = sb.Value(v)
		}
		fields = append(fields, sb.Field(key, n))
	}
}

// readJSONArray reads the elements of an array whose '[' was consumed.
func readJSONArray(dec *j.Decoder) ([]any, error) {
	out := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("source: json: %w", err)
		}
		d, isDelim := tok.(j.Delim)
		if !isDelim {
			out = append(out, tok)
			continue
		}
		switch d {
		case ']':
			return out, nil
		case '[':
			arr, err := readJSONArray(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, arr)
		case '{':
			m, err := readJSONMap(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		default:
			return nil, fmt.Errorf("source: json: unexpected %v", d)
		}
	}
}

// readJSONMap reads a plain object inside an opaque value.
func readJSONMap(dec *j.Decoder) (map[string]any, error) {
	out := map[string]any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("source: json: %w", err)
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return out, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("source: json: expected key, got %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("source: json: %w", err)
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{':
				out[key], err = readJSONMap(dec)
			case '[':
				out[key], err = readJSONArray(dec)
			default:
				err = fmt.Errorf("source: json: unexpected %v", v)
			}
			if err != nil {
				return nil, err
			}
		default:
			out[key] = v
		}
	}
}

// DecodeJSON decodes a JSON document into a map; numbers are kept as
// json.Number.
func DecodeJSON(r io.Reader) (map[string]any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("source: json: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
