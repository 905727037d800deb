package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath(""))
	assert.Equal(t, []string{"a"}, SplitPath("a"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("a.b.c"))
}

func TestResolveSimpleAndNestedFields(t *testing.T) {
	doc := Map(map[string]Value{
		"name": String("widget"),
		"meta": Map(map[string]Value{
			"owner": String("alice"),
		}),
	})

	assert.Equal(t, "widget", mustString(t, Resolve(doc, "name")))
	assert.Equal(t, "alice", mustString(t, Resolve(doc, "meta.owner")))
	assert.True(t, Resolve(doc, "meta.missing").IsUndefined())
	assert.True(t, Resolve(doc, "nonexistent.path").IsUndefined())
}

func TestResolveListIndexing(t *testing.T) {
	doc := Map(map[string]Value{
		"items": List([]Value{String("x"), String("y"), String("z")}),
	})
	assert.Equal(t, "y", mustString(t, Resolve(doc, "items.1")))
	assert.True(t, Resolve(doc, "items.9").IsUndefined())
}

func TestResolveMapsOverListWhenSegmentIsNotAnIndex(t *testing.T) {
	doc := Map(map[string]Value{
		"items": List([]Value{
			Map(map[string]Value{"score": Number(1)}),
			Map(map[string]Value{"score": Number(2)}),
			Map(map[string]Value{}),
		}),
	})
	resolved := Resolve(doc, "items.score")
	list, ok := resolved.List()
	assert.True(t, ok)
	assert.Len(t, list, 2, "undefined results are flattened out")
}

func TestSetPathCreatesIntermediateMaps(t *testing.T) {
	root := Map(map[string]Value{})
	root = SetPath(root, "a.b.c", Number(5))

	assert.Equal(t, float64(5), mustNumberAt(t, root, "a.b.c"))
}

func TestSetPathOverwritesLeaf(t *testing.T) {
	root := Map(map[string]Value{"a": Number(1)})
	root = SetPath(root, "a", Number(2))
	assert.Equal(t, float64(2), mustNumberAt(t, root, "a"))
}

func TestSetPathDoesNotMutateOriginal(t *testing.T) {
	m := map[string]Value{"a": Number(1)}
	root := Map(m)
	_ = SetPath(root, "a", Number(999))

	original, _ := root.Map()
	n, _ := original["a"].Number()
	assert.Equal(t, float64(1), n)
}

func TestUnsetPathRemovesLeaf(t *testing.T) {
	root := Map(map[string]Value{
		"a": Map(map[string]Value{"b": Number(1), "c": Number(2)}),
	})
	root = UnsetPath(root, "a.b")

	assert.True(t, Resolve(root, "a.b").IsUndefined())
	assert.Equal(t, float64(2), mustNumberAt(t, root, "a.c"))
}

func TestUnsetPathNoopOnMissingIntermediate(t *testing.T) {
	root := Map(map[string]Value{"a": Number(1)})
	out := UnsetPath(root, "missing.field")
	assert.True(t, Equal(root, out))
}

func mustString(t *testing.T, v Value) string {
	t.Helper()
	s, ok := v.String()
	assert.True(t, ok, "expected string value")
	return s
}

func mustNumberAt(t *testing.T, root Value, path string) float64 {
	t.Helper()
	n, ok := Resolve(root, path).Number()
	assert.True(t, ok, "expected number at %q", path)
	return n
}
