package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docbase.evalgo.org/document"
)

func TestIsOperatorUpdateDetectsDollarPrefixedKeys(t *testing.T) {
	assert.True(t, IsOperatorUpdate(Update{"$set": document.Null}))
	assert.False(t, IsOperatorUpdate(Update{"name": document.String("a")}))
	assert.True(t, IsOperatorUpdate(Update{}))
}

func TestNormalizeWrapsBareUpdateInSet(t *testing.T) {
	u := Normalize(Update{"name": document.String("widget")})
	set, ok := u["$set"].Map()
	assert.True(t, ok)
	assert.Equal(t, "widget", mustStr(t, set["name"]))
}

func TestNormalizeLeavesOperatorUpdateUnchanged(t *testing.T) {
	u := Update{"$inc": document.Map(map[string]document.Value{"count": document.Number(1)})}
	assert.Equal(t, u, Normalize(u))
}

func TestApplySetWritesNestedPath(t *testing.T) {
	d := document.Document{"id": document.String("1")}
	u := Update{"$set": document.Map(map[string]document.Value{"meta.owner": document.String("alice")})}
	out := Apply(d, u, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "alice", mustResolvedStr(t, out, "meta.owner"))
	_, hasUpdatedAt := out[document.FieldUpdatedAt]
	assert.True(t, hasUpdatedAt, "updatedAt is refreshed unconditionally")
}

func TestApplyUnsetRemovesField(t *testing.T) {
	d := document.Document{"name": document.String("widget")}
	u := Update{"$unset": document.Map(map[string]document.Value{"name": document.Bool(true)})}
	out := Apply(d, u, time.Now().UTC())
	_, exists := out["name"]
	assert.False(t, exists)
}

func TestApplyIncFromZeroWhenAbsent(t *testing.T) {
	d := document.Document{}
	u := Update{"$inc": document.Map(map[string]document.Value{"count": document.Number(5)})}
	out := Apply(d, u, time.Now().UTC())
	assert.Equal(t, float64(5), mustResolvedNum(t, out, "count"))
}

func TestApplyIncAccumulates(t *testing.T) {
	d := document.Document{"count": document.Number(10)}
	u := Update{"$inc": document.Map(map[string]document.Value{"count": document.Number(-3)})}
	out := Apply(d, u, time.Now().UTC())
	assert.Equal(t, float64(7), mustResolvedNum(t, out, "count"))
}

func TestApplyPushAppendsToList(t *testing.T) {
	d := document.Document{"tags": document.List([]document.Value{document.String("a")})}
	u := Update{"$push": document.Map(map[string]document.Value{"tags": document.String("b")})}
	out := Apply(d, u, time.Now().UTC())

	tags, ok := document.Resolve(document.Map(map[string]document.Value(out)), "tags").List()
	assert.True(t, ok)
	assert.Len(t, tags, 2)
}

func TestApplyAddToSetIsIdempotent(t *testing.T) {
	d := document.Document{"tags": document.List([]document.Value{document.String("a")})}
	u := Update{"$addToSet": document.Map(map[string]document.Value{"tags": document.String("a")})}

	out1 := Apply(d, u, time.Now().UTC())
	tags1, _ := document.Resolve(document.Map(map[string]document.Value(out1)), "tags").List()
	assert.Len(t, tags1, 1, "adding a value already present must not duplicate it")

	out2 := Apply(out1, u, time.Now().UTC())
	tags2, _ := document.Resolve(document.Map(map[string]document.Value(out2)), "tags").List()
	assert.Len(t, tags2, 1, "re-applying the same addToSet stays idempotent")
}

func TestApplyAddToSetWithEachExpandsMultipleValues(t *testing.T) {
	d := document.Document{"tags": document.List([]document.Value{document.String("a")})}
	u := Update{"$addToSet": document.Map(map[string]document.Value{
		"tags": document.Map(map[string]document.Value{
			"$each": document.List([]document.Value{document.String("a"), document.String("b"), document.String("c")}),
		}),
	})}
	out := Apply(d, u, time.Now().UTC())
	tags, _ := document.Resolve(document.Map(map[string]document.Value(out)), "tags").List()
	assert.Len(t, tags, 3)
}

func TestApplyPullRemovesMatchingValue(t *testing.T) {
	d := document.Document{"tags": document.List([]document.Value{document.String("a"), document.String("b")})}
	u := Update{"$pull": document.Map(map[string]document.Value{"tags": document.String("a")})}
	out := Apply(d, u, time.Now().UTC())
	tags, _ := document.Resolve(document.Map(map[string]document.Value(out)), "tags").List()
	assert.Len(t, tags, 1)
	s, _ := tags[0].String()
	assert.Equal(t, "b", s)
}

func TestApplyPullWithInRemovesMultipleValues(t *testing.T) {
	d := document.Document{"tags": document.List([]document.Value{
		document.String("a"), document.String("b"), document.String("c"),
	})}
	u := Update{"$pull": document.Map(map[string]document.Value{
		"tags": document.Map(map[string]document.Value{
			"$in": document.List([]document.Value{document.String("a"), document.String("c")}),
		}),
	})}
	out := Apply(d, u, time.Now().UTC())
	tags, _ := document.Resolve(document.Map(map[string]document.Value(out)), "tags").List()
	assert.Len(t, tags, 1)
	s, _ := tags[0].String()
	assert.Equal(t, "b", s)
}

func mustResolvedStr(t *testing.T, d document.Document, path string) string {
	t.Helper()
	v := document.Resolve(document.Map(map[string]document.Value(d)), path)
	s, ok := v.String()
	assert.True(t, ok)
	return s
}

func mustResolvedNum(t *testing.T, d document.Document, path string) float64 {
	t.Helper()
	v := document.Resolve(document.Map(map[string]document.Value(d)), path)
	n, ok := v.Number()
	assert.True(t, ok)
	return n
}
