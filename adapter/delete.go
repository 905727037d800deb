package adapter

import (
	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
	"docbase.evalgo.org/query"
)

// delete removes documents matching filter. An empty filter is rejected
// (use drop instead); otherwise the collection retains only documents
// that did not match.
func (l *Local) delete(name string, payload map[string]any) (Envelope, error) {
	filter, err := decodeFilters(payload[PayloadFilters])
	if err != nil {
		return Envelope{}, err
	}
	if len(filter) == 0 {
		return Envelope{}, dberr.EmptyDeleteFilter()
	}

	var deletedCount int
	err = l.cache.Mutate(name, func(existing []document.Document) ([]document.Document, error) {
		out := existing[:0:0]
		for _, d := range existing {
			v := document.Map(map[string]document.Value(d))
			if query.Match(v, filter) {
				deletedCount++
				continue
			}
			out = append(out, d)
		}
		return out, nil
	})
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Data: map[string]any{
		"collectionName": name,
		"deletedCount":   deletedCount,
	}}, nil
}

// deleteByID handles DELETE /collections/<name>/<id>.
func (l *Local) deleteByID(name, id string) (Envelope, error) {
	if err := l.cache.RemoveDocument(name, id); err != nil {
		return Envelope{}, err
	}
	return Envelope{Data: map[string]any{
		"collectionName": name,
		"deletedCount":   1,
	}}, nil
}

// drop handles DELETE /collections/<name>/drop.
func (l *Local) drop(name string) (Envelope, error) {
	if err := l.cache.Drop(name); err != nil {
		return Envelope{}, err
	}
	return Envelope{Data: map[string]any{"collectionName": name, "dropped": true}}, nil
}
