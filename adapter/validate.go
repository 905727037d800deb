// Package adapter implements the local façade over collection storage: it
// validates requests, routes them to the store.Cache and query engine, and
// renders the {data}/{error} response envelope for the insert/find/update/
// delete verb set.
package adapter

import (
	"regexp"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
	"docbase.evalgo.org/query"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidateCollectionName enforces the collection name grammar: non-empty,
// at most 64 characters, [A-Za-z0-9_-]+, first character alphabetic, and
// (by construction of the pattern) no path separators, leading dots, or
// whitespace.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return dberr.Validation("invalid collection name %q", name)
	}
	return nil
}

var knownOptionKeys = map[string]bool{
	"sort": true, "skip": true, "limit": true, "fields": true,
	"page": true, "returnType": true, "maxReturn": true,
}

var knownReturnTypes = map[string]bool{
	"count": true, "ids": true, "documents": true, "document": true, "id": true,
}

// ValidateOptions enforces the options-key and value-shape restrictions.
func ValidateOptions(opts map[string]document.Value) error {
	for key, val := range opts {
		if !knownOptionKeys[key] {
			return dberr.Validation("unknown option %q", key)
		}
		switch key {
		case "sort", "fields":
			m, ok := val.Map()
			if !ok {
				return dberr.Validation("option %q must be an object", key)
			}
			for _, v := range m {
				if !isValidDirectionValue(v) {
					return dberr.Validation("option %q values must be 1, -1, true, or false", key)
				}
			}
		case "skip":
			n, ok := val.Number()
			if !ok || n < 0 {
				return dberr.Validation("option %q must be a number >= 0", key)
			}
		case "limit":
			n, ok := val.Number()
			if !ok || n < 0 {
				return dberr.Validation("option %q must be a number >= 0", key)
			}
		case "page":
			n, ok := val.Number()
			if !ok || n <= 0 {
				return dberr.Validation("option %q must be a number > 0", key)
			}
		case "returnType":
			s, ok := val.String()
			if !ok || !knownReturnTypes[s] {
				return dberr.Validation("option %q must be one of count, ids, documents, document, id", key)
			}
		case "maxReturn":
			n, ok := val.Number()
			if !ok || n < 0 {
				return dberr.Validation("option %q must be a non-negative integer", key)
			}
		}
	}
	return nil
}

func isValidDirectionValue(v document.Value) bool {
	if n, ok := v.Number(); ok {
		return n == 1 || n == -1
	}
	_, ok := v.Bool()
	return ok
}

// ValidateFilter wraps query.ValidateFilter, reporting its failures as
// validation errors. The mapping-not-list check happens earlier, in
// decodeFilters.
func ValidateFilter(filter query.Filter) error {
	if err := query.ValidateFilter(filter); err != nil {
		return dberr.Validation("%v", err)
	}
	return nil
}
