package query

import (
	"docbase.evalgo.org/dblog"
	"docbase.evalgo.org/document"
)

// FieldSpec is a decoded projection/fields option: 1/true means include,
// -1/false means exclude.
type FieldSpec map[string]document.Value

type projectionMode int

const (
	projectionNone projectionMode = iota
	projectionInclude
	projectionExclude
	projectionMixed
)

func modeOf(spec FieldSpec) projectionMode {
	if len(spec) == 0 {
		return projectionNone
	}
	hasInclude, hasExclude := false, false
	for _, v := range spec {
		if isIncludeValue(v) {
			hasInclude = true
		} else {
			hasExclude = true
		}
	}
	switch {
	case hasInclude && hasExclude:
		return projectionMixed
	case hasInclude:
		return projectionInclude
	default:
		return projectionExclude
	}
}

func isIncludeValue(v document.Value) bool {
	if n, ok := v.Number(); ok {
		return n > 0
	}
	if b, ok := v.Bool(); ok {
		return b
	}
	return false
}

// Project applies a fields spec to a document, element-wise when handed a
// list. Mixed inclusion/exclusion is unsupported: the document is returned
// unprojected and a warning logged.
func Project(v document.Value, spec FieldSpec) document.Value {
	switch modeOf(spec) {
	case projectionNone:
		return v
	case projectionMixed:
		dblog.Default().Warnf("query: mixed inclusion/exclusion projection is unsupported; returning document unprojected")
		return v
	case projectionInclude:
		return projectElement(v, spec, true)
	default:
		return projectElement(v, spec, false)
	}
}

func projectElement(v document.Value, spec FieldSpec, include bool) document.Value {
	if list, ok := v.List(); ok {
		out := make([]document.Value, len(list))
		for i, item := range list {
			out[i] = projectElement(item, spec, include)
		}
		return document.List(out)
	}
	if include {
		return projectInclude(v, spec)
	}
	return projectExclude(v, spec)
}

// projectInclude rebuilds a document containing only the requested dotted
// paths. Per the resolved Open Question, dotted include paths build a FLAT
// result — {"a.b": v} — rather than a nested {a:{b:v}} reconstruction.
func projectInclude(v document.Value, spec FieldSpec) document.Value {
	out := make(map[string]document.Value, len(spec))
	for path, val := range spec {
		if !isIncludeValue(val) {
			continue
		}
		resolved := document.Resolve(v, path)
		if !resolved.IsUndefined() {
			out[path] = resolved
		}
	}
	return document.Map(out)
}

// projectExclude clones the document and removes the specified dotted
// paths. Per the resolved Open Question, exclusion does not descend through
// lists: "arr.field" only removes "field" from arr itself if arr is a map,
// never maps across arr's elements.
func projectExclude(v document.Value, spec FieldSpec) document.Value {
	out := document.Clone(v)
	for path, val := range spec {
		if isIncludeValue(val) {
			continue
		}
		out = document.UnsetPath(out, path)
	}
	return out
}
