package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/reload"
	"github.com/reoring/shapebind/source"
)

func paths(d *sb.Descriptor) []string {
	var out []string
	sb.Walk(d, func(_ sb.Node, p string) { out = append(out, p) })
	return out
}

func TestParseYAML_KeepsOrderAndVariants(t *testing.T) {
	d, err := source.ParseYAML([]byte(`
zeta: string.required
alpha:
  inner: number
  tags: [a, b]
count: 3
quoted: "123"
`), nil)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha.inner", "alpha.tags", "alpha", "count", "quoted"}, paths(d)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if n, _ := d.Lookup("alpha.tags"); n.Kind() != sb.KindValue {
		t.Fatalf("sequence should be opaque, got %v", n.Kind())
	}
	if n, _ := d.Get("count"); n.Kind() != sb.KindValue || n.Value() != 3 {
		t.Fatalf("int scalar should be opaque, got %v %v", n.Kind(), n.Value())
	}
	if n, _ := d.Get("quoted"); n.Kind() != sb.KindName || n.Name() != "123" {
		t.Fatalf("quoted scalar should be a name, got %v", n)
	}
}

func TestParseJSON_KeepsOrderAndVariants(t *testing.T) {
	d, err := source.ParseJSON([]byte(`{"z":"array","a":{"b":"number","c":[1,{"x":2}]},"n":null,"k":true}`), nil)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "a.b", "a.c", "a", "n", "k"}, paths(d)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	n, _ := d.Lookup("a.c")
	arr, ok := n.Value().([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected opaque array, got %#v", n.Value())
	}
	if _, ok := arr[1].(map[string]any); !ok {
		t.Fatalf("expected nested object in array, got %#v", arr[1])
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := source.ParseJSON([]byte(`[1]`), nil); err == nil {
		t.Fatalf("expected error for array root")
	}
	if _, err := source.ParseJSON([]byte(`{"a":"b"} {}`), nil); err == nil {
		t.Fatalf("expected error for trailing data")
	}
	if _, err := source.ParseJSON([]byte(`{"a":`), nil); err == nil {
		t.Fatalf("expected error for truncated input")
	}
	if _, err := source.ParseYAML([]byte(`- a`), nil); err == nil {
		t.Fatalf("expected error for sequence root")
	}
	if _, err := source.ParseYAML([]byte("a:\n  $ref: x.yaml\n"), nil); err == nil {
		t.Fatalf("expected error for $ref without resolver")
	}
	for _, bad := range []string{"a: string.required\na.b: number\n", "\"\": string.required\n"} {
		if _, err := source.ParseYAML([]byte(bad), nil); !errors.Is(err, sb.ErrInvalidKey) {
			t.Fatalf("yaml %q: expected ErrInvalidKey, got %v", bad, err)
		}
	}
	if _, err := source.ParseJSON([]byte(`{"a":{"":"string.required"}}`), nil); !errors.Is(err, sb.ErrInvalidKey) {
		t.Fatalf("json: expected ErrInvalidKey, got %v", err)
	}
	d, err := source.ParseYAML(nil, nil)
	if err != nil || d.Len() != 0 {
		t.Fatalf("empty yaml should be an empty descriptor: %v %v", d, err)
	}
}

func TestParse_RefUsesResolver(t *testing.T) {
	inner := sb.MustFromMap(map[string]any{"name": "string"})
	var asked []string
	resolve := func(ref string) (*sb.Descriptor, error) {
		asked = append(asked, ref)
		return inner, nil
	}
	for _, tc := range []struct {
		name string
		fn   func() (*sb.Descriptor, error)
	}{
		{"yaml", func() (*sb.Descriptor, error) {
			return source.ParseYAML([]byte("user:\n  $ref: user.yaml\n"), resolve)
		}},
		{"json", func() (*sb.Descriptor, error) {
			return source.ParseJSON([]byte(`{"user":{"$ref":"user.yaml"}}`), resolve)
		}},
	} {
		d, err := tc.fn()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if n, ok := d.Lookup("user.name"); !ok || n.Name() != "string" {
			t.Fatalf("%s: ref not expanded", tc.name)
		}
	}
	if diff := cmp.Diff([]string{"user.yaml", "user.yaml"}, asked); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile_ResolvesRelativeRefs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cart.yaml"), "items: array.required\nowner:\n  $ref: parts/user.json\n")
	writeFile(t, filepath.Join(dir, "parts", "user.json"), `{"name":"string.required","address":{"$ref":"address.yaml"}}`)
	writeFile(t, filepath.Join(dir, "parts", "address.yaml"), "city: string\n")

	d, err := source.LoadFile(context.Background(), filepath.Join(dir, "cart.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []string{"items", "owner.name", "owner.address.city", "owner.address", "owner"}
	if diff := cmp.Diff(want, paths(d)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDescriptorLoader_RecordsIncludesAsChildren(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "cart.yaml")
	writeFile(t, entry, "owner:\n  $ref: user.yaml\n")
	writeFile(t, filepath.Join(dir, "user.yaml"), "name: string\n")

	c := reload.NewCache(source.DescriptorLoader)
	if _, err := source.RequireDescriptor(context.Background(), c, entry); err != nil {
		t.Fatalf("RequireDescriptor: %v", err)
	}
	want := []string{filepath.Join(dir, "user.yaml"), entry}
	if diff := cmp.Diff(want, c.Modules(entry)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestLoadFile_RefCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "b:\n  $ref: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "a:\n  $ref: a.yaml\n")
	_, err := source.LoadFile(context.Background(), filepath.Join(dir, "a.yaml"))
	if !errors.Is(err, reload.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestDecodeDocument(t *testing.T) {
	doc, err := source.DecodeDocument(strings.NewReader(`{"a":{"b":3},"l":[1,2]}`), source.FormatJSON)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	b, _ := sb.GetPath(doc, "a.b")
	if sb.TypeName(b) != "number" {
		t.Fatalf("expected a number, got %T", b)
	}

	doc, err = source.DecodeDocument(strings.NewReader("a:\n  b: 3\n1: x\n"), source.FormatYAML)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	want := map[string]any{"a": map[string]any{"b": 3}, "1": "x"}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if _, err := source.DecodeDocument(strings.NewReader("- 1\n"), source.FormatYAML); err == nil {
		t.Fatalf("expected error for sequence root")
	}
	doc, err = source.DecodeDocument(strings.NewReader(""), source.FormatYAML)
	if err != nil || len(doc) != 0 {
		t.Fatalf("empty yaml should decode to an empty map: %v %v", doc, err)
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "store.json")
	writeFile(t, p, `{"x":"y"}`)
	doc, err := source.ReadDocument(p)
	if err != nil || doc["x"] != "y" {
		t.Fatalf("ReadDocument: %v %v", doc, err)
	}
	if _, err := source.ReadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if source.FormatOf("x.JSON") != source.FormatJSON || source.FormatOf("x.yml") != source.FormatYAML {
		t.Fatalf("unexpected format detection")
	}
}
