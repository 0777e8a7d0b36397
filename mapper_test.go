package shapebind_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	sb "github.com/reoring/shapebind"
)

func TestMapDescriptor_OmitsNoValue(t *testing.T) {
	d := sb.MustFromMap(map[string]any{
		"a": map[string]any{"b": "number", "c": "skip"},
		"d": "string",
		"e": []any{1},
	})

	got := sb.MapDescriptor(d, func(n sb.Node, path string, _ map[string]any) (any, bool) {
		if n.Kind() != sb.KindName || n.Name() == "skip" {
			return nil, false
		}
		return path + ":" + n.Name(), true
	})

	want := map[string]any{
		"a": map[string]any{"b": "a.b:number"},
		"d": "d:string",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMapDescriptor_PathsSubsetOfLeafPaths(t *testing.T) {
	d := sb.MustFromMap(map[string]any{
		"a": map[string]any{"b": "x", "c": map[string]any{"d": "y"}},
		"e": "z",
		"f": "keep",
	})

	var leaves, kept []string
	sb.Walk(d, func(n sb.Node, path string) {
		if n.IsLeaf() {
			leaves = append(leaves, path)
		}
	})
	out := sb.MapDescriptor(d, func(n sb.Node, path string, _ map[string]any) (any, bool) {
		if !n.IsLeaf() || n.Name() == "z" {
			return nil, false
		}
		kept = append(kept, path)
		return n.Name(), true
	})

	got := sb.LeafPaths(out)
	sort.Strings(kept)
	if diff := cmp.Diff(kept, got); diff != "" {
		t.Fatalf("result paths (-want +got):\n%s", diff)
	}
	for _, p := range got {
		if !contains(leaves, p) {
			t.Fatalf("path %q is not a descriptor leaf path", p)
		}
	}
}

func TestMapDescriptor_AccumulatorSeesChildren(t *testing.T) {
	d := sb.MustFromMap(map[string]any{
		"a": map[string]any{"b": "1", "c": "2"},
	})
	got := sb.MapDescriptor(d, func(n sb.Node, path string, acc map[string]any) (any, bool) {
		if n.Kind() == sb.KindNested {
			children, _ := sb.GetPath(acc, path)
			return len(children.(map[string]any)), true
		}
		return n.Name(), true
	})
	if diff := cmp.Diff(map[string]any{"a": 2}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMapDescriptor_DoesNotMutateInput(t *testing.T) {
	d := sb.MustFromMap(map[string]any{"a": map[string]any{"b": "number"}})
	before := collect(d)
	_ = sb.MapDescriptor(d, func(n sb.Node, _ string, _ map[string]any) (any, bool) { return 1, true })
	if diff := cmp.Diff(before, collect(d)); diff != "" {
		t.Fatalf("descriptor changed:\n%s", diff)
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
