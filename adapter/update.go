package adapter

import (
	"time"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
	"docbase.evalgo.org/query"
)

// update applies the normalized update to every document matching filter,
// refreshing updatedAt, and reports back per returnType/maxReturn.
func (l *Local) update(name string, payload map[string]any) (Envelope, error) {
	filter, err := decodeFilters(payload[PayloadFilters])
	if err != nil {
		return Envelope{}, err
	}
	upd, err := decodeUpdate(payload[PayloadUpdate])
	if err != nil {
		return Envelope{}, err
	}
	opts, err := decodeOptions(payload[PayloadOptions])
	if err != nil {
		return Envelope{}, err
	}
	wantSnapshots := opts.returnType != "" && opts.returnType != "count"

	now := time.Now()
	var updatedCount, total int
	var updatedIDs []string
	var updatedDocs []document.Document

	err = l.cache.Mutate(name, func(existing []document.Document) ([]document.Document, error) {
		out := make([]document.Document, len(existing))
		for i, d := range existing {
			v := document.Map(map[string]document.Value(d))
			if !query.Match(v, filter) {
				out[i] = d
				continue
			}

			var preImage document.Document
			if wantSnapshots {
				preImage = d.Clone()
			}

			updated := query.Apply(d, upd, now)
			if updated.ID() != d.ID() {
				return nil, dberr.IDMutation(name, d.ID())
			}
			out[i] = updated
			updatedCount++
			updatedIDs = append(updatedIDs, updated.ID())
			if wantSnapshots {
				updatedDocs = append(updatedDocs, preImage)
			}
		}
		total = len(out)
		return out, nil
	})
	if err != nil {
		return Envelope{}, err
	}

	data := map[string]any{
		"updatedCount":   updatedCount,
		"totalDocuments": total,
	}
	attachUpdateReturn(data, opts, updatedIDs, updatedDocs)
	return Envelope{Data: data}, nil
}

// attachUpdateReturn adds updatedIds or updatedDocuments to data, truncated
// to maxReturn with a truncated marker.
func attachUpdateReturn(data map[string]any, opts decodedOptions, ids []string, docs []document.Document) {
	maxReturn := opts.maxReturn
	switch opts.returnType {
	case "ids":
		truncated := maxReturn > 0 && len(ids) > maxReturn
		if truncated {
			ids = ids[:maxReturn]
		}
		data["updatedIds"] = ids
		if truncated {
			data["truncated"] = true
			data["maxReturn"] = maxReturn
		}
	case "documents":
		truncated := maxReturn > 0 && len(docs) > maxReturn
		if truncated {
			docs = docs[:maxReturn]
		}
		rendered := make([]any, len(docs))
		for i, d := range docs {
			projected := query.Project(document.Map(map[string]document.Value(d)), opts.fields)
			rendered[i] = document.ToAny(projected)
		}
		data["updatedDocuments"] = rendered
		if truncated {
			data["truncated"] = true
			data["maxReturn"] = maxReturn
		}
	}
}

// updateByID looks up a document by id, applies the normalized update,
// fails NotFound if absent, and with returnType:"document" returns the
// (optionally projected) post-image.
func (l *Local) updateByID(name, id string, payload map[string]any) (Envelope, error) {
	upd, err := decodeUpdate(payload[PayloadUpdate])
	if err != nil {
		return Envelope{}, err
	}
	opts, err := decodeOptions(payload[PayloadOptions])
	if err != nil {
		return Envelope{}, err
	}

	now := time.Now()
	updated, err := l.cache.UpdateDocument(name, id, func(d document.Document) (document.Document, error) {
		next := query.Apply(d, upd, now)
		if next.ID() != d.ID() {
			return nil, dberr.IDMutation(name, id)
		}
		return next, nil
	})
	if err != nil {
		return Envelope{}, err
	}

	if opts.returnType == "document" {
		projected := query.Project(document.Map(map[string]document.Value(updated)), opts.fields)
		return Envelope{Data: document.ToAny(projected)}, nil
	}
	return Envelope{Data: map[string]any{"updatedCount": 1}}, nil
}
