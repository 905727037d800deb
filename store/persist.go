package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/dblog"
	"docbase.evalgo.org/document"
)

// collectionPath returns <storagePath>/<name>.json, the on-disk location
// for a collection's canonical file.
func (c *Cache) collectionPath(name string) string {
	return filepath.Join(c.opts.StoragePath, name+".json")
}

// loadFromDisk lazily loads a collection: a missing file starts an empty
// collection, a present-but-unparseable file logs the error and also
// starts empty rather than failing the caller's operation.
func (c *Cache) loadFromDisk(name string) *collectionState {
	state := newCollectionState(name)
	state.loaded = true

	data, err := os.ReadFile(c.collectionPath(name))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithFields(dblog.Fields(name, "load")).WithError(err).
				Error("docbase: reading collection file, starting empty")
		}
		return state
	}

	docs, err := document.DecodeFile(data)
	if err != nil {
		corruptErr := dberr.Corrupt(c.collectionPath(name), err)
		c.logger.WithFields(dblog.Fields(name, "load")).WithError(corruptErr).
			Error("docbase: collection file is corrupt, starting empty")
		return state
	}

	state.documents = docs
	state.rebuildIndex()
	return state
}

// saveToDisk runs the atomic save protocol: encode to a temp file beside
// the canonical one, read it back as a sanity check, then rename it over
// the canonical path. The temp file is removed on any failure so a crash
// mid-save never leaves a partial file at the canonical path.
func (c *Cache) saveToDisk(name string, docs []document.Document) error {
	if err := os.MkdirAll(c.opts.StoragePath, 0o755); err != nil {
		return dberr.Storage("mkdir", err)
	}

	encoded, err := document.EncodeFile(docs)
	if err != nil {
		return dberr.Storage("encode", err)
	}

	target := c.collectionPath(name)
	tmp := fmt.Sprintf("%s.%d.tmp", target, time.Now().UnixMilli())

	c.inflightMu.Lock()
	c.inflight[tmp] = struct{}{}
	c.inflightMu.Unlock()
	defer func() {
		c.inflightMu.Lock()
		delete(c.inflight, tmp)
		c.inflightMu.Unlock()
	}()

	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		os.Remove(tmp)
		return dberr.Storage("write-temp", err)
	}

	readBack, err := os.ReadFile(tmp)
	if err != nil {
		os.Remove(tmp)
		return dberr.Storage("read-back", err)
	}
	if _, err := document.DecodeFile(readBack); err != nil {
		os.Remove(tmp)
		return dberr.Storage("sanity-check", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return dberr.Storage("rename", err)
	}

	return nil
}

// flush saves name to disk if it is dirty, clearing the dirty flag on
// success. The lane is held across the save itself, not just the snapshot:
// releasing it first would let a concurrent Mutate land between the
// snapshot and the dirty-flag clear, so its write gets persisted over by
// the (now stale) snapshot and then marked clean, losing it for good.
func (c *Cache) flush(name string) error {
	l := c.laneFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	c.ensureLoaded(l, name)
	if !c.isDirty(name) {
		return nil
	}
	docs := l.state.snapshot()

	if err := c.saveToDisk(name, docs); err != nil {
		c.logger.WithFields(dblog.Fields(name, "flush")).WithError(err).
			Error("docbase: flush failed, dirty flag retained")
		return err
	}
	c.markDirty(name, false)
	return nil
}

// FlushAll saves every dirty collection to disk, returning the first error
// encountered (if any) after attempting every collection.
func (c *Cache) FlushAll() error {
	var firstErr error
	for _, name := range c.dirtyNames() {
		if err := c.flush(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Drop removes a collection from memory and from disk.
func (c *Cache) Drop(name string) error {
	l := c.laneFor(name)
	l.mu.Lock()
	l.state = newCollectionState(name)
	l.state.loaded = true
	l.mu.Unlock()

	c.markDirty(name, false)

	err := os.Remove(c.collectionPath(name))
	if err != nil && !os.IsNotExist(err) {
		return dberr.Storage("drop", err)
	}
	return nil
}
