package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Canonical renders a Document as a json.RawMessage with the field order
// required by spec: id first (if present), then all non-reserved fields in
// ascending lexicographic order, then createdAt, then updatedAt. Only the
// top level gets the id/createdAt/updatedAt placement; nested maps are
// encoded by encoding/json, which writes their keys in sorted order.
func Canonical(d Document) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(name string, v Value) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(ToAny(v))
		if err != nil {
			return fmt.Errorf("document: encoding field %q: %w", name, err)
		}
		buf.Write(valBytes)
		return nil
	}

	if v, ok := d[FieldID]; ok {
		if err := writeField(FieldID, v); err != nil {
			return nil, err
		}
	}

	others := make([]string, 0, len(d))
	for k := range d {
		if k == FieldID || k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		others = append(others, k)
	}
	sort.Strings(others)
	for _, k := range others {
		if err := writeField(k, d[k]); err != nil {
			return nil, err
		}
	}

	if v, ok := d[FieldCreatedAt]; ok {
		if err := writeField(FieldCreatedAt, v); err != nil {
			return nil, err
		}
	}
	if v, ok := d[FieldUpdatedAt]; ok {
		if err := writeField(FieldUpdatedAt, v); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return json.RawMessage(buf.Bytes()), nil
}

// EncodeFile renders a full collection as the on-disk wire layout:
// literally "[\n" followed by one canonically-ordered document per line,
// separated by ",\n", followed by "\n]". This is simultaneously valid JSON
// and a stable, line-diff-friendly text format.
func EncodeFile(docs []Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, d := range docs {
		raw, err := Canonical(d)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
		if i < len(docs)-1 {
			buf.WriteString(",\n")
		} else {
			buf.WriteString("\n")
		}
	}
	buf.WriteString("]")
	return buf.Bytes(), nil
}

// DecodeFile parses the wire layout back into documents. Because the format
// is also plain JSON, a standard decoder suffices; a present-but-unparseable
// file is a recoverable condition, not a fatal one — callers that want
// best-effort survival of corruption should treat a non-nil error that way.
func DecodeFile(data []byte) ([]Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var raw []map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("document: corrupt collection file: %w", err)
	}
	docs := make([]Document, len(raw))
	for i, m := range raw {
		val, err := FromAny(m)
		if err != nil {
			return nil, fmt.Errorf("document: corrupt collection file: %w", err)
		}
		mv, _ := val.Map()
		docs[i] = Document(mv)
	}
	return docs, nil
}
