package store

import (
	"sync"

	"github.com/sirupsen/logrus"

	"docbase.evalgo.org/config"
	"docbase.evalgo.org/dblog"
)

// Cache is the process-wide, per-directory collection cache: each instance
// owns and manages a single storage directory, with no shared global state
// between separate Cache instances.
type Cache struct {
	opts   config.Options
	logger *logrus.Logger

	lanesMu sync.Mutex
	lanes   map[string]*lane

	dirtyMu sync.Mutex
	dirty   map[string]bool

	inflightMu sync.Mutex
	inflight   map[string]struct{} // temp file paths currently being written

	// shutdownFlag gates the autosave ticker once StopAutosave has been
	// called, so a tick that was already in flight can't race the shutdown
	// coordinator's own final FlushAll.
	shutdownFlag struct {
		mu  sync.Mutex
		set bool
	}

	autosave *autosaver
}

// lane is the per-collection serialization primitive: mutation and load
// operations on the same collection run one at a time under a plain
// sync.Mutex, which maps naturally onto Go's goroutine-per-operation
// model. sync.Mutex does not hand the lock to waiters in arrival order, so
// operations waiting concurrently on the same lane are not guaranteed to
// run FIFO.
type lane struct {
	mu    sync.Mutex
	state *collectionState
}

// New constructs a Cache rooted at opts.StoragePath and starts the
// background autosave timer (disabled when AutoSaveInterval is 0).
func New(opts config.Options) *Cache {
	c := &Cache{
		opts:     opts,
		logger:   dblog.Default(),
		lanes:    make(map[string]*lane),
		dirty:    make(map[string]bool),
		inflight: make(map[string]struct{}),
	}
	c.autosave = newAutosaver(c, opts.AutoSaveInterval)
	c.autosave.start()
	return c
}

func (c *Cache) laneFor(name string) *lane {
	c.lanesMu.Lock()
	defer c.lanesMu.Unlock()
	l, ok := c.lanes[name]
	if !ok {
		l = &lane{}
		c.lanes[name] = l
	}
	return l
}

func (c *Cache) markDirty(name string, dirty bool) {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	if dirty {
		c.dirty[name] = true
	} else {
		delete(c.dirty, name)
	}
}

func (c *Cache) isDirty(name string) bool {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	return c.dirty[name]
}

// dirtyNames returns a snapshot of currently-dirty collection names.
func (c *Cache) dirtyNames() []string {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	out := make([]string, 0, len(c.dirty))
	for name, isDirty := range c.dirty {
		if isDirty {
			out = append(out, name)
		}
	}
	return out
}

func (c *Cache) isShuttingDown() bool {
	c.shutdownFlag.mu.Lock()
	defer c.shutdownFlag.mu.Unlock()
	return c.shutdownFlag.set
}

func (c *Cache) setShuttingDown() {
	c.shutdownFlag.mu.Lock()
	defer c.shutdownFlag.mu.Unlock()
	c.shutdownFlag.set = true
}

// ensureLoaded performs the lazy-load flow. Must be called with the
// collection's lane held.
func (c *Cache) ensureLoaded(l *lane, name string) {
	if l.state != nil && l.state.loaded {
		return
	}
	l.state = c.loadFromDisk(name)
}
