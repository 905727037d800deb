package query

import (
	"strings"
	"time"

	"docbase.evalgo.org/document"
)

// Update is a normalized update document: either an "operator update" (all
// top-level keys begin with $) or a "replace-fields update" (none do,
// applied as a shallow merge). Bare (replace-fields) updates are normalized
// by the adapter into {"$set": update} before reaching Apply.
type Update map[string]document.Value

// IsOperatorUpdate reports whether every top-level key is a $-operator.
func IsOperatorUpdate(u Update) bool {
	if len(u) == 0 {
		return true
	}
	for k := range u {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

// Normalize wraps a bare replace-fields update in $set.
func Normalize(u Update) Update {
	if IsOperatorUpdate(u) {
		return u
	}
	set := make(map[string]document.Value, len(u))
	for k, v := range u {
		set[k] = v
	}
	return Update{"$set": document.Map(set)}
}

// Apply runs a normalized update against a document, returning the new
// document. Apply itself does not guard the id; callers (the adapter's
// update and updateByID paths) are responsible for rejecting an update
// that changes it. updatedAt is refreshed unconditionally.
func Apply(doc document.Document, u Update, now time.Time) document.Document {
	root := document.Map(map[string]document.Value(doc))
	for op, arg := range u {
		switch op {
		case "$set":
			root = applySet(root, arg)
		case "$unset":
			root = applyUnset(root, arg)
		case "$inc":
			root = applyInc(root, arg)
		case "$push":
			root = applyPush(root, arg)
		case "$addToSet":
			root = applyAddToSet(root, arg)
		case "$pull":
			root = applyPull(root, arg)
		}
	}
	m, _ := root.Map()
	out := document.Document(m)
	out[document.FieldUpdatedAt] = document.String(now.UTC().Format(time.RFC3339Nano))
	return out
}

func applySet(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path, v := range fields {
		root = document.SetPath(root, path, v)
	}
	return root
}

func applyUnset(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path := range fields {
		root = document.UnsetPath(root, path)
	}
	return root
}

func applyInc(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path, delta := range fields {
		d, _ := delta.Number()
		current := document.Resolve(root, path)
		n, ok := current.Number()
		if !ok {
			n = 0
		}
		root = document.SetPath(root, path, document.Number(n+d))
	}
	return root
}

func applyPush(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path, v := range fields {
		current := document.Resolve(root, path)
		list, ok := current.List()
		if !ok {
			list = nil
		}
		list = append(append([]document.Value{}, list...), v)
		root = document.SetPath(root, path, document.List(list))
	}
	return root
}

func applyAddToSet(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path, v := range fields {
		current := document.Resolve(root, path)
		list, ok := current.List()
		if !ok {
			list = nil
		}
		additions := eachValues(v)
		for _, add := range additions {
			if !containsValue(list, add) {
				list = append(list, add)
			}
		}
		root = document.SetPath(root, path, document.List(list))
	}
	return root
}

func applyPull(root document.Value, arg document.Value) document.Value {
	fields, _ := arg.Map()
	for path, v := range fields {
		current := document.Resolve(root, path)
		list, ok := current.List()
		if !ok {
			continue
		}
		var remove func(document.Value) bool
		if m, ok := v.Map(); ok {
			if inVal, ok := m["$in"]; ok {
				set, _ := inVal.List()
				remove = func(item document.Value) bool {
					for _, s := range set {
						if document.Equal(item, s) {
							return true
						}
					}
					return false
				}
			}
		}
		if remove == nil {
			remove = func(item document.Value) bool { return document.Equal(item, v) }
		}
		out := make([]document.Value, 0, len(list))
		for _, item := range list {
			if !remove(item) {
				out = append(out, item)
			}
		}
		root = document.SetPath(root, path, document.List(out))
	}
	return root
}

// eachValues expands an $addToSet argument that may be {"$each": [...]}.
// $push does not use it and appends its argument as a single value.
func eachValues(v document.Value) []document.Value {
	if m, ok := v.Map(); ok {
		if each, ok := m["$each"]; ok {
			list, _ := each.List()
			return list
		}
	}
	return []document.Value{v}
}

func containsValue(list []document.Value, v document.Value) bool {
	for _, item := range list {
		if document.Equal(item, v) {
			return true
		}
	}
	return false
}
