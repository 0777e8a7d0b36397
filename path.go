package shapebind

import "strings"

// JoinPath appends key to a dotted prefix. An empty prefix yields key itself.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// SplitPath splits a dotted path into its keys, ignoring empty segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(path, ".") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// GetPath reads the value stored at path in a nested map tree. The second
// result is false when any segment is missing or when an intermediate value is
// not a map.
func GetPath(tree map[string]any, path string) (any, bool) {
	parts := SplitPath(path)
	if tree == nil || len(parts) == 0 {
		return nil, false
	}
	cur := tree
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// SetPath writes v at path, creating intermediate maps as needed. Intermediate
// values that are not maps are replaced.
func SetPath(tree map[string]any, path string, v any) {
	parts := SplitPath(path)
	if tree == nil || len(parts) == 0 {
		return
	}
	cur := tree
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}
