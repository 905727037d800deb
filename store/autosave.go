package store

import (
	"time"

	"docbase.evalgo.org/dblog"
)

// autosaver periodically flushes every dirty collection on a ticker, using
// a goroutine and stop-channel since there is only ever one flush worker
// per Cache.
type autosaver struct {
	cache    *Cache
	interval time.Duration
	stopChan chan struct{}
	started  bool
}

func newAutosaver(c *Cache, interval time.Duration) *autosaver {
	return &autosaver{
		cache:    c,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// start launches the background ticker loop. A non-positive interval
// disables autosave entirely; callers still flush explicitly via FlushAll
// or rely on the shutdown coordinator.
func (a *autosaver) start() {
	if a.interval <= 0 {
		return
	}
	a.started = true
	go a.run()
}

func (a *autosaver) run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			if a.cache.isShuttingDown() {
				continue
			}
			if err := a.cache.FlushAll(); err != nil {
				a.cache.logger.WithFields(dblog.Fields("*", "autosave")).WithError(err).
					Warn("docbase: autosave cycle completed with errors")
			}
		}
	}
}

func (a *autosaver) stop() {
	if !a.started {
		return
	}
	close(a.stopChan)
}

// StopAutosave marks the cache as shutting down, so a tick already in
// flight bails out instead of racing the final flush, then halts the
// background ticker. Callers that want a final flush should call FlushAll
// themselves afterward; the shutdown coordinator does both in the correct
// order.
func (c *Cache) StopAutosave() {
	c.setShuttingDown()
	c.autosave.stop()
}
