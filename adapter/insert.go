package adapter

import (
	"strconv"
	"time"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
)

// insert upserts on id collision and otherwise assigns sequential ids for
// multi-document inserts, or a single random id for a lone document.
func (l *Local) insert(name string, payload map[string]any) (Envelope, error) {
	docs, err := decodeInsertDocuments(payload[PayloadDocuments])
	if err != nil {
		return Envelope{}, err
	}

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)
	base36 := strconv.FormatInt(now.UnixMilli(), 36)

	var insertedIDs []string
	var insertedCount, updatedCount int
	var total int

	err = l.cache.Mutate(name, func(existing []document.Document) ([]document.Document, error) {
		index := buildIDIndex(existing)
		out := existing

		for i, incoming := range docs {
			id := incoming.ID()
			if id == "" {
				id = assignID(docs, i, base36)
				incoming[document.FieldID] = document.String(id)
			}

			if pos, ok := index[id]; ok {
				merged := upsertMerge(out[pos], incoming, nowStr)
				out[pos] = merged
				updatedCount++
				continue
			}

			incoming[document.FieldCreatedAt] = document.String(nowStr)
			incoming[document.FieldUpdatedAt] = document.String(nowStr)
			out = append(out, incoming)
			index[id] = len(out) - 1
			insertedIDs = append(insertedIDs, id)
			insertedCount++
		}

		total = len(out)
		return out, nil
	})
	if err != nil {
		return Envelope{}, err
	}

	data := map[string]any{
		"insertedCount":  insertedCount,
		"updatedCount":   updatedCount,
		"totalDocuments": total,
	}
	if len(insertedIDs) > 0 {
		if len(insertedIDs) <= 20 {
			data["insertedIds"] = insertedIDs
		} else {
			data["firstId"] = insertedIDs[0]
			data["lastId"] = insertedIDs[len(insertedIDs)-1]
		}
	}

	return Envelope{Data: data}, nil
}

// assignID generates the id for the i-th document of a multi-document
// insert batch: sequential base36-epoch-millis_<1-based-index> when the
// batch has two or more documents, a 16-hex-char random id for a lone
// document.
func assignID(batch []document.Document, i int, base36 string) string {
	if len(batch) >= 2 {
		return base36 + "_" + strconv.Itoa(i+1)
	}
	return generateID()
}

func buildIDIndex(docs []document.Document) map[string]int {
	idx := make(map[string]int, len(docs))
	for i, d := range docs {
		if id := d.ID(); id != "" {
			idx[id] = i
		}
	}
	return idx
}

// upsertMerge performs a shallow-merge upsert: scalar fields overwrite,
// plain-object fields merge one level deep, createdAt is preserved from
// the existing document, updatedAt is refreshed.
func upsertMerge(existing, incoming document.Document, nowStr string) document.Document {
	out := existing.Clone()
	createdAt := out[document.FieldCreatedAt]

	for field, incomingVal := range incoming {
		if field == document.FieldID || field == document.FieldCreatedAt || field == document.FieldUpdatedAt {
			continue
		}
		existingVal, hasExisting := out[field]
		if hasExisting {
			if existingMap, ok1 := existingVal.Map(); ok1 {
				if incomingMap, ok2 := incomingVal.Map(); ok2 {
					out[field] = document.Map(shallowMergeOneLevel(existingMap, incomingMap))
					continue
				}
			}
		}
		out[field] = incomingVal
	}

	if !createdAt.IsUndefined() {
		out[document.FieldCreatedAt] = createdAt
	} else {
		out[document.FieldCreatedAt] = document.String(nowStr)
	}
	out[document.FieldUpdatedAt] = document.String(nowStr)
	return out
}

func shallowMergeOneLevel(base, overlay map[string]document.Value) map[string]document.Value {
	out := make(map[string]document.Value, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// decodeInsertDocuments converts the raw "documents" payload entry, which
// may be a single document object or a list of them, into a slice of
// mutable Document clones.
func decodeInsertDocuments(raw any) ([]document.Document, error) {
	if raw == nil {
		return nil, dberr.Validation("documents is required")
	}
	switch t := raw.(type) {
	case []any:
		out := make([]document.Document, 0, len(t))
		for _, item := range t {
			d, err := document.NewFromAny(item)
			if err != nil {
				return nil, dberr.Validation("documents: %v", err)
			}
			out = append(out, d)
		}
		return out, nil
	case map[string]any:
		d, err := document.NewFromAny(t)
		if err != nil {
			return nil, dberr.Validation("documents: %v", err)
		}
		return []document.Document{d}, nil
	default:
		return nil, dberr.Validation("documents must be an object or a list of objects")
	}
}
