package adapter

import (
	"encoding/json"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
	"docbase.evalgo.org/query"
)

// decodedOptions is the parsed view of the request "options" map:
// validated and typed, ready for find/update to consume.
type decodedOptions struct {
	sort       query.SortSpec
	skip       int
	limit      int
	page       int
	hasLimit   bool
	hasSkip    bool
	hasPage    bool
	fields     query.FieldSpec
	returnType string
	maxReturn  int
}

// decodeFilters converts the raw "filters" payload entry into a
// query.Filter, rejecting a list (filters must be a non-null mapping).
func decodeFilters(raw any) (query.Filter, error) {
	if raw == nil {
		return query.Filter{}, nil
	}
	v, err := document.FromAny(raw)
	if err != nil {
		return nil, dberr.Validation("filters: %v", err)
	}
	if v.IsNull() {
		return query.Filter{}, nil
	}
	if _, isList := v.List(); isList {
		return nil, dberr.Validation("filters must be a mapping, not a list")
	}
	m, ok := v.Map()
	if !ok {
		return nil, dberr.Validation("filters must be a mapping")
	}
	f := query.Filter(m)
	if err := ValidateFilter(f); err != nil {
		return nil, err
	}
	return f, nil
}

// decodeUpdate converts the raw "update" payload entry into a normalized
// query.Update.
func decodeUpdate(raw any) (query.Update, error) {
	v, err := document.FromAny(raw)
	if err != nil {
		return nil, dberr.Validation("update: %v", err)
	}
	m, ok := v.Map()
	if !ok {
		return nil, dberr.Validation("update must be a mapping")
	}
	return query.Normalize(query.Update(m)), nil
}

// decodeOptions converts the raw "options" payload entry into
// decodedOptions, applying the sort decode and deriving skip from page
// when limit is set, skip is absent, and page is present:
// skip = (page-1)*limit.
func decodeOptions(raw any) (decodedOptions, error) {
	out := decodedOptions{returnType: "count", maxReturn: 50}
	if raw == nil {
		return out, nil
	}
	rawMap, ok := raw.(map[string]any)
	if !ok {
		return out, dberr.Validation("options must be a mapping")
	}

	// "sort" is decoded straight from its own raw value, preserving field
	// order; it is stripped before the rest of the options bag goes through
	// document.FromAny; that conversion rejects a query.SortSpec as
	// JSON-incompatible, and a map[string]document.Value couldn't have kept
	// the order anyway.
	rest := make(map[string]any, len(rawMap))
	for k, val := range rawMap {
		if k != "sort" {
			rest[k] = val
		}
	}

	v, err := document.FromAny(rest)
	if err != nil {
		return out, dberr.Validation("options: %v", err)
	}
	m, ok := v.Map()
	if !ok {
		return out, dberr.Validation("options must be a mapping")
	}
	for key := range rawMap {
		if !knownOptionKeys[key] {
			return out, dberr.Validation("unknown option %q", key)
		}
	}
	if err := ValidateOptions(m); err != nil {
		return out, err
	}

	if sortRaw, ok := rawMap["sort"]; ok {
		spec, err := decodeSortSpec(sortRaw)
		if err != nil {
			return out, dberr.Validation("option %q: %v", "sort", err)
		}
		out.sort = spec
	}
	if skipVal, ok := m["skip"]; ok {
		n, _ := skipVal.Number()
		out.skip = int(n)
		out.hasSkip = true
	}
	if limitVal, ok := m["limit"]; ok {
		n, _ := limitVal.Number()
		out.limit = int(n)
		out.hasLimit = true
	}
	if pageVal, ok := m["page"]; ok {
		n, _ := pageVal.Number()
		out.page = int(n)
		out.hasPage = true
	}
	if fieldsVal, ok := m["fields"]; ok {
		fm, _ := fieldsVal.Map()
		out.fields = query.FieldSpec(fm)
	}
	if rtVal, ok := m["returnType"]; ok {
		s, _ := rtVal.String()
		out.returnType = s
	}
	if mrVal, ok := m["maxReturn"]; ok {
		n, _ := mrVal.Number()
		out.maxReturn = int(n)
	}

	if out.hasLimit && !out.hasSkip && out.hasPage {
		out.skip = (out.page - 1) * out.limit
	}

	return out, nil
}

// decodeSortSpec converts the raw "sort" option value into an ordered
// query.SortSpec. A caller that already parsed the field straight from JSON
// bytes (the CLI does, via query.SortSpec's own UnmarshalJSON) hands that
// value through unchanged; anything else is re-encoded and decoded through
// the same json.Decoder token stream so multi-field tie-break order still
// matches the order the fields were written in the source object.
func decodeSortSpec(raw any) (query.SortSpec, error) {
	if raw == nil {
		return nil, nil
	}
	if spec, ok := raw.(query.SortSpec); ok {
		return spec, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var spec query.SortSpec
	if err := json.Unmarshal(encoded, &spec); err != nil {
		return nil, err
	}
	return spec, nil
}
