package shapebind

// MapFunc transforms a visited node. acc is the result built so far, so a
// nested node can read the values already produced for its children. Returning
// false means "no value": nothing is written at path.
type MapFunc func(n Node, path string, acc map[string]any) (any, bool)

// MapDescriptor walks d and writes every transformed node into a fresh tree at
// the node's path. The descriptor is not modified and the result shares no
// containers with it.
func MapDescriptor(d *Descriptor, fn MapFunc) map[string]any {
	out := map[string]any{}
	Walk(d, func(n Node, path string) {
		v, ok := fn(n, path, out)
		if !ok {
			return
		}
		SetPath(out, path, v)
	})
	return out
}
