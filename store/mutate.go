package store

import (
	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/document"
)

// Read runs fn against a read-only snapshot of name's documents. The
// collection is loaded from disk on first access if not already resident.
// fn must not retain the slice beyond the call; snapshot already copies it
// so mutation by other goroutines cannot be observed mid-read.
func (c *Cache) Read(name string, fn func([]document.Document) error) error {
	l := c.laneFor(name)
	l.mu.Lock()
	c.ensureLoaded(l, name)
	docs := l.state.snapshot()
	l.mu.Unlock()

	return fn(docs)
}

// Mutate runs fn with exclusive access to name's live document slice,
// replacing it with whatever fn returns. fn may modify the documents in
// place and return the same slice. Mutate marks the collection dirty on
// every successful call, whether or not fn changed anything; only an error
// from fn leaves the dirty flag untouched.
func (c *Cache) Mutate(name string, fn func([]document.Document) ([]document.Document, error)) error {
	l := c.laneFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	c.ensureLoaded(l, name)

	next, err := fn(l.state.documents)
	if err != nil {
		return err
	}

	l.state.documents = next
	l.state.rebuildIndex()
	c.markDirty(name, true)
	return nil
}

// UpdateDocument locates the document with the given id and runs fn against
// a clone of it, replacing the stored copy with fn's result. Returns
// dberr.NotFound if no such document exists.
func (c *Cache) UpdateDocument(name, id string, fn func(document.Document) (document.Document, error)) (document.Document, error) {
	l := c.laneFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	c.ensureLoaded(l, name)

	existing, idx, ok := l.state.get(id)
	if !ok {
		return nil, dberr.NotFound(name, id)
	}

	updated, err := fn(existing.Clone())
	if err != nil {
		return nil, err
	}

	l.state.replaceAt(idx, updated)
	c.markDirty(name, true)
	return updated, nil
}

// RemoveDocument deletes the document with the given id, returning
// dberr.NotFound if it does not exist.
func (c *Cache) RemoveDocument(name, id string) error {
	l := c.laneFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	c.ensureLoaded(l, name)

	_, idx, ok := l.state.get(id)
	if !ok {
		return dberr.NotFound(name, id)
	}

	l.state.removeAt(idx)
	c.markDirty(name, true)
	return nil
}

// Count returns the number of documents currently resident for name,
// loading it from disk first if necessary.
func (c *Cache) Count(name string) (int, error) {
	n := 0
	err := c.Read(name, func(docs []document.Document) error {
		n = len(docs)
		return nil
	})
	return n, err
}
