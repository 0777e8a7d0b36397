package shapebind

import "sort"

// Walk visits every node of d with its dotted path. Nested descriptors are
// walked first and then visited themselves, so containers are observed after
// the nodes they hold.
func Walk(d *Descriptor, visit func(n Node, path string)) {
	walk(d, visit, "")
}

func walk(d *Descriptor, visit func(Node, string), prefix string) {
	if d == nil {
		return
	}
	for _, f := range d.fields {
		path := JoinPath(prefix, f.Key)
		if f.Node.kind == KindNested {
			walk(f.Node.nested, visit, path)
		}
		visit(f.Node, path)
	}
}

// WalkTree visits every entry of a nested map tree with its dotted path.
// map[string]any values are containers and are visited after their entries;
// every other value, slices included, is a leaf. Keys are visited in sorted
// order.
func WalkTree(tree map[string]any, visit func(v any, path string)) {
	walkTree(tree, visit, "")
}

func walkTree(tree map[string]any, visit func(any, string), prefix string) {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := tree[k]
		path := JoinPath(prefix, k)
		if m, ok := v.(map[string]any); ok {
			walkTree(m, visit, path)
		}
		visit(v, path)
	}
}

// LeafPaths lists the dotted paths of every leaf in tree, in WalkTree order.
func LeafPaths(tree map[string]any) []string {
	var out []string
	WalkTree(tree, func(v any, path string) {
		if _, ok := v.(map[string]any); ok {
			return
		}
		out = append(out, path)
	})
	return out
}
