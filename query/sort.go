package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"docbase.evalgo.org/document"
)

// SortSpec is an ordered list of (field, direction) pairs — a Go map would
// not preserve tie-break order, so callers build this from the decoded
// options in field order.
type SortEntry struct {
	Field     string
	Ascending bool
}

type SortSpec []SortEntry

// MarshalJSON renders spec as a JSON object with fields in list order, so
// re-encoding a SortSpec (e.g. to forward it over the wire) reproduces the
// same tie-break order it was built with.
func (s SortSpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if e.Ascending {
			buf.WriteByte('1')
		} else {
			buf.WriteString("-1")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a sort spec object field by field via a
// json.Decoder token stream, so the resulting SortSpec preserves the
// source's key order instead of the arbitrary order a map[string]any
// unmarshal would produce.
func (s *SortSpec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sort spec must be a JSON object")
	}

	var spec SortSpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		field, _ := keyTok.(string)

		var dir any
		if err := dec.Decode(&dir); err != nil {
			return err
		}
		asc, err := sortDirection(dir)
		if err != nil {
			return fmt.Errorf("sort field %q: %w", field, err)
		}
		spec = append(spec, SortEntry{Field: field, Ascending: asc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = spec
	return nil
}

func sortDirection(v any) (bool, error) {
	switch t := v.(type) {
	case float64:
		if t == 1 {
			return true, nil
		}
		if t == -1 {
			return false, nil
		}
	case bool:
		return t, nil
	}
	return false, fmt.Errorf("must be 1, -1, true, or false")
}

// Sort stably orders docs according to spec, iterating SortSpec entries in
// order until one discriminates. A field that resolves to Undefined on a
// document ranks below every defined value for that field: such documents
// come first in ascending order and last in descending order.
func Sort(docs []document.Value, spec SortSpec) {
	sort.SliceStable(docs, func(i, j int) bool {
		return less(docs[i], docs[j], spec)
	})
}

func less(a, b document.Value, spec SortSpec) bool {
	for _, entry := range spec {
		av := document.Resolve(a, entry.Field)
		bv := document.Resolve(b, entry.Field)

		aUndef, bUndef := av.IsUndefined(), bv.IsUndefined()
		if aUndef && bUndef {
			continue
		}
		if aUndef != bUndef {
			// undefined ranks below every defined value
			if entry.Ascending {
				return aUndef
			}
			return bUndef
		}

		cmp, ok := document.Compare(av, bv)
		if !ok {
			continue
		}
		if cmp == 0 {
			continue
		}
		if entry.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return false
}
