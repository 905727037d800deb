package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docbase.evalgo.org/document"
)

func doc(m map[string]document.Value) document.Value {
	return document.Map(m)
}

func TestMatchEmptyFilterMatchesEverything(t *testing.T) {
	assert.True(t, Match(doc(map[string]document.Value{"a": document.Number(1)}), Filter{}))
}

func TestMatchPlainEqualityOnField(t *testing.T) {
	d := doc(map[string]document.Value{"status": document.String("active")})
	assert.True(t, Match(d, Filter{"status": document.String("active")}))
	assert.False(t, Match(d, Filter{"status": document.String("inactive")}))
}

func TestMatchEqualityAgainstListField(t *testing.T) {
	d := doc(map[string]document.Value{"tags": document.List([]document.Value{document.String("a"), document.String("b")})})
	assert.True(t, Match(d, Filter{"tags": document.String("a")}), "equality against a list field matches membership")
	assert.False(t, Match(d, Filter{"tags": document.String("z")}))
}

func TestMatchComparisonOperators(t *testing.T) {
	d := doc(map[string]document.Value{"age": document.Number(30)})
	assert.True(t, Match(d, Filter{"age": document.Map(map[string]document.Value{"$gte": document.Number(21)})}))
	assert.False(t, Match(d, Filter{"age": document.Map(map[string]document.Value{"$lt": document.Number(21)})}))
}

func TestMatchExistsOperator(t *testing.T) {
	d := doc(map[string]document.Value{"a": document.Number(1)})
	assert.True(t, Match(d, Filter{"a": document.Map(map[string]document.Value{"$exists": document.Bool(true)})}))
	assert.True(t, Match(d, Filter{"missing": document.Map(map[string]document.Value{"$exists": document.Bool(false)})}))
	assert.False(t, Match(d, Filter{"missing": document.Map(map[string]document.Value{"$exists": document.Bool(true)})}))
}

func TestMatchInAndNin(t *testing.T) {
	d := doc(map[string]document.Value{"status": document.String("active")})
	set := document.List([]document.Value{document.String("active"), document.String("pending")})
	assert.True(t, Match(d, Filter{"status": document.Map(map[string]document.Value{"$in": set})}))
	assert.False(t, Match(d, Filter{"status": document.Map(map[string]document.Value{"$nin": set})}))
}

func TestMatchAndOrNor(t *testing.T) {
	d := doc(map[string]document.Value{"a": document.Number(1), "b": document.Number(2)})

	and := Filter{"$and": document.List([]document.Value{
		document.Map(map[string]document.Value{"a": document.Number(1)}),
		document.Map(map[string]document.Value{"b": document.Number(2)}),
	})}
	assert.True(t, Match(d, and))

	or := Filter{"$or": document.List([]document.Value{
		document.Map(map[string]document.Value{"a": document.Number(99)}),
		document.Map(map[string]document.Value{"b": document.Number(2)}),
	})}
	assert.True(t, Match(d, or))

	nor := Filter{"$nor": document.List([]document.Value{
		document.Map(map[string]document.Value{"a": document.Number(99)}),
	})}
	assert.True(t, Match(d, nor))
}

func TestMatchNotOperator(t *testing.T) {
	d := doc(map[string]document.Value{"status": document.String("active")})
	notFilter := Filter{"$not": document.Map(map[string]document.Value{"status": document.String("active")})}
	assert.False(t, Match(d, notFilter))
}

func TestMatchRegexWithCaseInsensitiveOption(t *testing.T) {
	d := doc(map[string]document.Value{"name": document.String("Widget")})
	filter := Filter{"name": document.Map(map[string]document.Value{
		"$regex":   document.String("^widget$"),
		"$options": document.String("i"),
	})}
	assert.True(t, Match(d, filter))
}

func TestMatchModOperator(t *testing.T) {
	d := doc(map[string]document.Value{"n": document.Number(10)})
	filter := Filter{"n": document.Map(map[string]document.Value{
		"$mod": document.List([]document.Value{document.Number(3), document.Number(1)}),
	})}
	assert.True(t, Match(d, filter))
}

func TestMatchUndefinedFieldOperatorSemantics(t *testing.T) {
	d := doc(map[string]document.Value{})
	assert.True(t, Match(d, Filter{"missing": document.Map(map[string]document.Value{"$ne": document.Number(1)})}))
	assert.False(t, Match(d, Filter{"missing": document.Map(map[string]document.Value{"$eq": document.Number(1)})}))
}

func TestValidateFilterAcceptsKnownOperators(t *testing.T) {
	f := Filter{"age": document.Map(map[string]document.Value{"$gte": document.Number(21)})}
	assert.NoError(t, ValidateFilter(f))
}

func TestValidateFilterRejectsUnknownLogicalOperator(t *testing.T) {
	f := Filter{"$xor": document.List([]document.Value{})}
	assert.Error(t, ValidateFilter(f))
}

func TestValidateFilterRejectsUnknownFieldOperator(t *testing.T) {
	f := Filter{"age": document.Map(map[string]document.Value{"$bogus": document.Number(1)})}
	assert.Error(t, ValidateFilter(f))
}

func TestValidateFilterRecursesIntoAndOr(t *testing.T) {
	f := Filter{"$and": document.List([]document.Value{
		document.Map(map[string]document.Value{"age": document.Map(map[string]document.Value{"$bogus": document.Number(1)})}),
	})}
	assert.Error(t, ValidateFilter(f))
}
