package shapebind_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	sb "github.com/reoring/shapebind"
)

type visit struct {
	Path string
	Kind sb.NodeKind
}

func collect(d *sb.Descriptor) []visit {
	var out []visit
	sb.Walk(d, func(n sb.Node, path string) {
		out = append(out, visit{Path: path, Kind: n.Kind()})
	})
	return out
}

func TestWalk_PostOrderInDeclarationOrder(t *testing.T) {
	d := sb.NewDescriptor(
		sb.Field("a", sb.Nested(sb.NewDescriptor(
			sb.Field("b", sb.Name("number")),
			sb.Field("c", sb.Nested(sb.NewDescriptor(
				sb.Field("d", sb.Name("string")),
			))),
		))),
		sb.Field("e", sb.Value([]any{1, 2})),
	)

	got := collect(d)
	want := []visit{
		{"a.b", sb.KindName},
		{"a.c.d", sb.KindName},
		{"a.c", sb.KindNested},
		{"a", sb.KindNested},
		{"e", sb.KindValue},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_EmptyNestedVisitedOnce(t *testing.T) {
	d := sb.NewDescriptor(sb.Field("empty", sb.Nested(nil)))
	got := collect(d)
	want := []visit{{"empty", sb.KindNested}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if got := collect(sb.NewDescriptor()); len(got) != 0 {
		t.Fatalf("expected no visits for empty descriptor, got %v", got)
	}
}

func TestWalk_Deterministic(t *testing.T) {
	d := sb.MustFromMap(map[string]any{
		"z": "string",
		"a": map[string]any{"y": "number", "b": "array"},
		"m": 3,
	})
	first := collect(d)
	second := collect(d)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("traversal not deterministic:\n%s", diff)
	}
	want := []string{"a.b", "a.y", "a", "m", "z"}
	var paths []string
	for _, v := range first {
		paths = append(paths, v.Path)
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestWalkTree_ArraysAreLeaves(t *testing.T) {
	tree := map[string]any{
		"x": 1,
		"a": map[string]any{"b": []any{map[string]any{"deep": true}}},
	}
	var paths []string
	sb.WalkTree(tree, func(_ any, path string) { paths = append(paths, path) })
	want := []string{"a.b", "a", "x"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a.b", "x"}, sb.LeafPaths(tree)); diff != "" {
		t.Fatalf("leaf paths (-want +got):\n%s", diff)
	}
}
