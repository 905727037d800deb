package adapter

import (
	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
	"docbase.evalgo.org/query"
)

// find runs the filter -> clone -> sort (if requested) -> slice
// [skip, skip+limit) (if limit) -> project (if fields) pipeline.
func (l *Local) find(name string, payload map[string]any) (Envelope, error) {
	filter, err := decodeFilters(payload[PayloadFilters])
	if err != nil {
		return Envelope{}, err
	}
	opts, err := decodeOptions(payload[PayloadOptions])
	if err != nil {
		return Envelope{}, err
	}

	var matched []document.Value
	err = l.cache.Read(name, func(docs []document.Document) error {
		for _, d := range docs {
			v := document.Map(map[string]document.Value(d.Clone()))
			if query.Match(v, filter) {
				matched = append(matched, v)
			}
		}
		return nil
	})
	if err != nil {
		return Envelope{}, err
	}

	total := len(matched)

	if len(opts.sort) > 0 {
		query.Sort(matched, opts.sort)
	}

	if opts.hasLimit {
		start := opts.skip
		if start > len(matched) {
			start = len(matched)
		}
		end := start + opts.limit
		if opts.limit == 0 || end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	projected := make([]any, len(matched))
	for i, v := range matched {
		projected[i] = document.ToAny(query.Project(v, opts.fields))
	}

	data := map[string]any{"documents": projected}
	if opts.hasLimit {
		data["pagination"] = buildPagination(opts, total, len(projected))
	}
	return Envelope{Data: data}, nil
}

func buildPagination(opts decodedOptions, total, returned int) map[string]any {
	page := opts.page
	if page == 0 {
		page = 1
	}
	limit := opts.limit

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	startIndex, endIndex := 0, 0
	if returned > 0 {
		startIndex = opts.skip + 1
		endIndex = opts.skip + returned
	}

	var nextPage, prevPage any
	hasNext := limit > 0 && opts.skip+limit < total
	hasPrev := opts.skip > 0
	if hasNext {
		nextPage = page + 1
	}
	if hasPrev {
		prevPage = page - 1
	}

	return map[string]any{
		"page":           page,
		"limit":          limit,
		"skip":           opts.skip,
		"totalDocuments": total,
		"totalPages":     totalPages,
		"hasNext":        hasNext,
		"hasPrev":        hasPrev,
		"nextPage":       nextPage,
		"prevPage":       prevPage,
		"startIndex":     startIndex,
		"endIndex":       endIndex,
	}
}

// count applies the filter (skipped entirely when empty) and returns
// data: <integer>.
func (l *Local) count(name string, payload map[string]any) (Envelope, error) {
	filter, err := decodeFilters(payload[PayloadFilters])
	if err != nil {
		return Envelope{}, err
	}

	n := 0
	err = l.cache.Read(name, func(docs []document.Document) error {
		if len(filter) == 0 {
			n = len(docs)
			return nil
		}
		for _, d := range docs {
			v := document.Map(map[string]document.Value(d))
			if query.Match(v, filter) {
				n++
			}
		}
		return nil
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Data: n}, nil
}

// findByID handles GET /collections/<name>/<id>.
func (l *Local) findByID(name, id string, payload map[string]any) (Envelope, error) {
	opts, err := decodeOptions(payload[PayloadOptions])
	if err != nil {
		return Envelope{}, err
	}

	var found document.Document
	var ok bool
	err = l.cache.Read(name, func(docs []document.Document) error {
		for _, d := range docs {
			if d.ID() == id {
				found = d
				ok = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return Envelope{}, dberr.NotFound(name, id)
	}

	v := document.Map(map[string]document.Value(found.Clone()))
	projected := query.Project(v, opts.fields)
	return Envelope{Data: document.ToAny(projected)}, nil
}
