package document

import "errors"

var errNotAnObject = errors.New("document: value is not a JSON object")

// Reserved field names. id is immutable once set, createdAt is stamped once
// on insertion, updatedAt is refreshed on every mutating path.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a mapping from field name to Value, with id/createdAt/updatedAt
// treated specially by the codec's canonical ordering and by the query
// engine's update interpreter.
type Document map[string]Value

// ID returns the document's id field, or "" if absent/not a string.
func (d Document) ID() string {
	s, _ := d[FieldID].String()
	return s
}

// Clone performs a deep, recursive copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = Clone(v)
	}
	return out
}

// Get resolves a single top-level field, returning Undefined if absent.
func (d Document) Get(field string) Value {
	v, ok := d[field]
	if !ok {
		return Undefined
	}
	return v
}

// Set writes a top-level field.
func (d Document) Set(field string, v Value) {
	d[field] = v
}

// NewFromAny builds a Document from a decoded JSON object (the output of
// json.Unmarshal into an interface{}).
func NewFromAny(v any) (Document, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotAnObject
	}
	val, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	mv, _ := val.Map()
	return Document(mv), nil
}
