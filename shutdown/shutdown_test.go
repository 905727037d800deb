package shutdown

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFlusher struct {
	flushCalls int32
	stopCalls  int32
	flushErr   error
}

func (f *fakeFlusher) FlushAll() error {
	atomic.AddInt32(&f.flushCalls, 1)
	return f.flushErr
}

func (f *fakeFlusher) StopAutosave() {
	atomic.AddInt32(&f.stopCalls, 1)
}

func TestFlushAndStopIsReentrant(t *testing.T) {
	c := New()
	f := &fakeFlusher{}
	c.Register(f)

	c.FlushAndStop()
	c.FlushAndStop()
	c.FlushAndStop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.flushCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.stopCalls))
}

func TestFlushAndStopContinuesPastIndividualErrors(t *testing.T) {
	c := New()
	bad := &fakeFlusher{flushErr: assert.AnError}
	good := &fakeFlusher{}
	c.Register(bad)
	c.Register(good)

	c.FlushAndStop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&bad.flushCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&good.flushCalls))
}
