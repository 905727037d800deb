// Package query implements the pure, stateless filter matcher, projection,
// sort, and update interpreter for the system's Mango-flavored query
// language, operating over document.Value trees rather than a live
// database connection.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"docbase.evalgo.org/dblog"
	"docbase.evalgo.org/document"
)

// Filter is a decoded filter mapping, e.g. {"status": "active", "age":
// {"$gte": 21}} or {"$or": [...]}.
type Filter map[string]document.Value

var knownLogicalOps = map[string]bool{"$and": true, "$or": true, "$nor": true, "$not": true}

var knownFieldOps = map[string]bool{
	"$eq": true, "$ne": true, "$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$in": true, "$nin": true, "$exists": true, "$regex": true, "$options": true,
	"$mod": true, "$not": true,
}

// Match reports whether a document satisfies a filter.
func Match(doc document.Value, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	for key, val := range filter {
		switch key {
		case "$and":
			if !matchLogical(doc, val, func(r bool, acc bool) bool { return acc && r }, true) {
				return false
			}
		case "$or":
			if !matchLogical(doc, val, func(r bool, acc bool) bool { return acc || r }, false) {
				return false
			}
		case "$nor":
			if matchLogical(doc, val, func(r bool, acc bool) bool { return acc || r }, false) {
				return false
			}
		case "$not":
			sub, ok := subFilter(val)
			if ok && Match(doc, sub) {
				return false
			}
		default:
			actual := document.Resolve(doc, key)
			if !matchFieldValue(actual, val) {
				return false
			}
		}
	}
	return true
}

func subFilter(v document.Value) (Filter, bool) {
	m, ok := v.Map()
	if !ok {
		return nil, false
	}
	return Filter(m), true
}

func matchLogical(doc document.Value, v document.Value, combine func(result, acc bool) bool, identity bool) bool {
	list, ok := v.List()
	if !ok {
		return identity
	}
	acc := identity
	for _, item := range list {
		sub, ok := subFilter(item)
		if !ok {
			continue
		}
		acc = combine(Match(doc, sub), acc)
	}
	return acc
}

// matchFieldValue handles both the "plain mapping -> operator expression"
// and "otherwise -> equality constraint" cases.
func matchFieldValue(actual document.Value, expected document.Value) bool {
	if m, ok := expected.Map(); ok && isOperatorExpression(m) {
		return matchOperatorExpression(actual, Filter(m))
	}
	return matchEquality(actual, expected)
}

func isOperatorExpression(m map[string]document.Value) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func matchEquality(actual document.Value, expected document.Value) bool {
	if list, ok := actual.List(); ok {
		for _, item := range list {
			if document.Equal(item, expected) {
				return true
			}
		}
		return false
	}
	return document.Equal(actual, expected)
}

func matchOperatorExpression(actual document.Value, ops Filter) bool {
	for op, arg := range ops {
		switch op {
		case "$options":
			continue // sibling key to $regex, consumed there
		case "$not":
			sub, ok := subFilter(arg)
			if ok {
				if matchOperatorExpression(actual, sub) {
					return false
				}
				continue
			}
		}
		if !matchOperator(actual, op, arg, ops) {
			return false
		}
	}
	return true
}

func matchOperator(actual document.Value, op string, arg document.Value, siblings Filter) bool {
	if actual.IsUndefined() {
		switch op {
		case "$exists":
			want, _ := arg.Bool()
			return !want
		case "$ne":
			return true
		default:
			return false
		}
	}

	switch op {
	case "$eq":
		return matchEquality(actual, arg)
	case "$ne":
		return !matchEquality(actual, arg)
	case "$gt", "$gte", "$lt", "$lte":
		return matchComparison(actual, op, arg)
	case "$in":
		return matchIn(actual, arg, true)
	case "$nin":
		return matchIn(actual, arg, false)
	case "$exists":
		want, _ := arg.Bool()
		return want
	case "$regex":
		return matchRegex(actual, arg, siblings)
	case "$mod":
		return matchMod(actual, arg)
	case "$not":
		return true // handled by caller
	default:
		dblog.Default().Warnf("query: unknown filter operator %q ignored", op)
		return true
	}
}

func matchComparison(actual document.Value, op string, arg document.Value) bool {
	cmp := func(a document.Value) bool {
		r, ok := document.Compare(a, arg)
		if !ok {
			return false
		}
		switch op {
		case "$gt":
			return r > 0
		case "$gte":
			return r >= 0
		case "$lt":
			return r < 0
		case "$lte":
			return r <= 0
		}
		return false
	}
	if list, ok := actual.List(); ok {
		for _, item := range list {
			if cmp(item) {
				return true
			}
		}
		return false
	}
	return cmp(actual)
}

func matchIn(actual document.Value, expected document.Value, wantMember bool) bool {
	set, _ := expected.List()
	memberOf := func(v document.Value) bool {
		for _, e := range set {
			if document.Equal(v, e) {
				return true
			}
		}
		return false
	}
	if list, ok := actual.List(); ok {
		any := false
		for _, item := range list {
			if memberOf(item) {
				any = true
				break
			}
		}
		if wantMember {
			return any
		}
		return !any
	}
	member := memberOf(actual)
	if wantMember {
		return member
	}
	return !member
}

func matchRegex(actual document.Value, pattern document.Value, siblings Filter) bool {
	pat, _ := pattern.String()
	flags := ""
	if opt, ok := siblings["$options"]; ok {
		flags, _ = opt.String()
	}
	expr := pat
	if strings.Contains(flags, "i") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		dblog.Default().Warnf("query: invalid $regex pattern %q: %v", pat, err)
		return false
	}
	if list, ok := actual.List(); ok {
		for _, item := range list {
			if re.MatchString(document.Stringify(item)) {
				return true
			}
		}
		return false
	}
	return re.MatchString(document.Stringify(actual))
}

func matchMod(actual document.Value, arg document.Value) bool {
	pair, ok := arg.List()
	if !ok || len(pair) != 2 {
		return false
	}
	divisor, ok1 := pair[0].Number()
	remainder, ok2 := pair[1].Number()
	if !ok1 || !ok2 {
		return false
	}
	check := func(v document.Value) bool {
		n, ok := v.Number()
		if !ok || divisor == 0 {
			return false
		}
		return int64(n)%int64(divisor) == int64(remainder)
	}
	if list, ok := actual.List(); ok {
		for _, item := range list {
			if check(item) {
				return true
			}
		}
		return false
	}
	return check(actual)
}

// ValidateFilter enforces that every $-prefixed key, at every level of
// nesting under $and/$or/$nor/$not, belongs to the known operator set.
func ValidateFilter(filter Filter) error {
	for key, val := range filter {
		if strings.HasPrefix(key, "$") {
			if !knownLogicalOps[key] {
				return fmt.Errorf("unknown logical operator %q", key)
			}
			if key == "$not" {
				sub, ok := subFilter(val)
				if !ok {
					return fmt.Errorf("$not requires a sub-filter object")
				}
				if err := ValidateFilter(sub); err != nil {
					return err
				}
				continue
			}
			list, ok := val.List()
			if !ok {
				return fmt.Errorf("%q requires a list of sub-filters", key)
			}
			for _, item := range list {
				sub, ok := subFilter(item)
				if !ok {
					return fmt.Errorf("%q entries must be filter objects", key)
				}
				if err := ValidateFilter(sub); err != nil {
					return err
				}
			}
			continue
		}
		if m, ok := val.Map(); ok && isOperatorExpression(m) {
			for opKey := range m {
				if strings.HasPrefix(opKey, "$") && !knownFieldOps[opKey] {
					return fmt.Errorf("unknown field operator %q", opKey)
				}
			}
		}
	}
	return nil
}
