// Package shutdown coordinates graceful termination: on SIGINT/SIGTERM or
// normal process exit, every collection is flushed to disk exactly once
// before control is yielded back to the caller.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"docbase.evalgo.org/dblog"
)

// Flusher is anything that can save all of its pending state; store.Cache
// satisfies this directly.
type Flusher interface {
	FlushAll() error
	StopAutosave()
}

// Coordinator registers a single process-wide signal handler that flushes
// every registered Flusher before the process exits. Re-entrant: a second
// signal, or a concurrent call to FlushAndStop, triggers at most one flush
// pass.
type Coordinator struct {
	mu       sync.Mutex
	flushers []Flusher
	done     bool
	signals  chan os.Signal
}

// New builds an unregistered Coordinator. Call Register for each cache the
// process owns, then Listen to start waiting for termination signals.
func New() *Coordinator {
	return &Coordinator{signals: make(chan os.Signal, 1)}
}

// Register adds f to the set flushed on shutdown. Safe to call after
// Listen has started.
func (c *Coordinator) Register(f Flusher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushers = append(c.flushers, f)
}

// Listen starts waiting for SIGINT/SIGTERM in the background and flushes
// every registered Flusher once received. Returns immediately; keeping the
// process alive until then is up to the caller.
func (c *Coordinator) Listen() {
	signal.Notify(c.signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c.signals
		dblog.Default().Info("docbase: shutdown signal received, flushing collections")
		c.FlushAndStop()
	}()
}

// FlushAndStop stops every registered Flusher's autosave ticker and runs a
// final FlushAll, logging (but not failing on) individual errors so a
// single bad collection never blocks the others. Safe to call more than
// once; only the first call does any work.
func (c *Coordinator) FlushAndStop() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	flushers := append([]Flusher(nil), c.flushers...)
	c.mu.Unlock()

	for _, f := range flushers {
		f.StopAutosave()
		if err := f.FlushAll(); err != nil {
			dblog.Default().WithError(err).Error("docbase: shutdown flush failed for a collection cache")
		}
	}
}

// Stop cancels signal delivery to this coordinator without flushing,
// useful in tests that construct a Coordinator but never intend to wait on
// an OS signal.
func (c *Coordinator) Stop() {
	signal.Stop(c.signals)
}
