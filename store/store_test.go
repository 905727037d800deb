package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbase.evalgo.org/config"
	"docbase.evalgo.org/document"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	opts := config.Default()
	opts.StoragePath = dir
	opts.AutoSaveInterval = 0 // deterministic tests drive flush explicitly
	c := New(opts)
	t.Cleanup(c.StopAutosave)
	return c
}

func newDoc(id string, fields map[string]any) document.Document {
	fields["id"] = id
	d, err := document.NewFromAny(fields)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReadOnMissingFileStartsEmpty(t *testing.T) {
	c := newTestCache(t)
	var docs []document.Document
	err := c.Read("widgets", func(d []document.Document) error {
		docs = d
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadOnCorruptFileStartsEmptyAndLogs(t *testing.T) {
	c := newTestCache(t)
	var logBuf bytes.Buffer
	c.logger = logrus.New()
	c.logger.SetOutput(&logBuf)
	path := filepath.Join(c.opts.StoragePath, "widgets.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	var docs []document.Document
	err := c.Read("widgets", func(d []document.Document) error {
		docs = d
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Contains(t, logBuf.String(), "collection file is corrupt")
}

func TestMutateMarksDirtyAndFlushPersists(t *testing.T) {
	c := newTestCache(t)

	err := c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{"name": "sprocket"})), nil
	})
	require.NoError(t, err)
	assert.True(t, c.isDirty("widgets"))

	require.NoError(t, c.FlushAll())
	assert.False(t, c.isDirty("widgets"))

	path := filepath.Join(c.opts.StoragePath, "widgets.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sprocket")

	c2 := New(config.Options{StoragePath: c.opts.StoragePath})
	t.Cleanup(c2.StopAutosave)
	var reloaded []document.Document
	require.NoError(t, c2.Read("widgets", func(d []document.Document) error {
		reloaded = d
		return nil
	}))
	require.Len(t, reloaded, 1)
	assert.Equal(t, "1", reloaded[0].ID())
}

func TestUpdateDocumentNotFound(t *testing.T) {
	c := newTestCache(t)
	_, err := c.UpdateDocument("widgets", "missing", func(d document.Document) (document.Document, error) {
		return d, nil
	})
	require.Error(t, err)
}

func TestUpdateDocumentReplacesAndMarksDirty(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{"count": 1})), nil
	}))
	require.NoError(t, c.FlushAll())

	updated, err := c.UpdateDocument("widgets", "1", func(d document.Document) (document.Document, error) {
		d["count"] = document.Number(2)
		return d, nil
	})
	require.NoError(t, err)
	n, _ := updated["count"].Number()
	assert.Equal(t, float64(2), n)
	assert.True(t, c.isDirty("widgets"))
}

func TestRemoveDocument(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{})), nil
	}))

	require.NoError(t, c.RemoveDocument("widgets", "1"))
	n, err := c.Count("widgets")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	err = c.RemoveDocument("widgets", "1")
	assert.Error(t, err)
}

func TestDropClearsMemoryAndDisk(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{})), nil
	}))
	require.NoError(t, c.FlushAll())

	path := filepath.Join(c.opts.StoragePath, "widgets.json")
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, c.Drop("widgets"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	n, err := c.Count("widgets")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFlushHoldsLaneAcrossSaveSoConcurrentMutateIsNeverLost(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{"rev": float64(1)})), nil
	}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.FlushAll()
	}()
	go func() {
		defer wg.Done()
		_ = c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
			docs[0]["rev"] = document.Number(2)
			return docs, nil
		})
	}()
	wg.Wait()

	require.NoError(t, c.FlushAll())
	assert.False(t, c.isDirty("widgets"), "a trailing mutate must still be picked up by a later flush")

	c2 := New(config.Options{StoragePath: c.opts.StoragePath})
	t.Cleanup(c2.StopAutosave)
	var reloaded []document.Document
	require.NoError(t, c2.Read("widgets", func(d []document.Document) error {
		reloaded = d
		return nil
	}))
	require.Len(t, reloaded, 1)
	rev, _ := reloaded[0]["rev"].Number()
	assert.Equal(t, float64(2), rev, "the mutate that raced the flush must never be lost on disk")
}

func TestAutosaveStopsBeforeShutdownRacesAFinalFlush(t *testing.T) {
	dir := t.TempDir()
	opts := config.Default()
	opts.StoragePath = dir
	opts.AutoSaveInterval = 5 * time.Millisecond
	c := New(opts)

	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{})), nil
	}))

	c.StopAutosave()
	assert.True(t, c.isShuttingDown())

	require.NoError(t, c.FlushAll())
	assert.False(t, c.isDirty("widgets"))
}

func TestAutosaveFlushesOnTicker(t *testing.T) {
	dir := t.TempDir()
	opts := config.Default()
	opts.StoragePath = dir
	opts.AutoSaveInterval = 20 * time.Millisecond
	c := New(opts)
	defer c.StopAutosave()

	require.NoError(t, c.Mutate("widgets", func(docs []document.Document) ([]document.Document, error) {
		return append(docs, newDoc("1", map[string]any{})), nil
	}))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "widgets.json"))
		return err == nil
	}, time.Second, 10*time.Millisecond)
}
