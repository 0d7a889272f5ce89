package concurrency

import (
	"errors"
	"sync"
)

var (
	// ErrTSFNClosing is returned by Call/Acquire once a thread-safe function
	// has begun closing.
	ErrTSFNClosing = errors.New("concurrency: thread-safe function is closing")
	// ErrQueueFull is returned by a non-blocking Call against a full bounded queue.
	ErrQueueFull = errors.New("concurrency: thread-safe function queue is full")
	// ErrWouldDeadlock is returned when a blocking Call is attempted from the
	// host thread against its own queue (spec.md §5's deadlock-avoidance rule).
	ErrWouldDeadlock = errors.New("concurrency: blocking call from the host thread onto its own queue")
	// ErrReleaseWithoutAcquire is returned by Release when the acquirer count
	// is already zero.
	ErrReleaseWithoutAcquire = errors.New("concurrency: release without a matching acquire")
)

// ReleaseMode controls what Release does with any items still queued once
// the last acquirer releases.
type ReleaseMode int

const (
	// ReleaseModeDrain lets the queue finish draining before the finalizer runs.
	ReleaseModeDrain ReleaseMode = iota
	// ReleaseModeAbort drops any items still queued and finalizes immediately.
	ReleaseModeAbort
)

// CallMode controls what Call does when the queue is full.
type CallMode int

const (
	CallNonBlocking CallMode = iota
	CallBlocking
)

// ThreadSafeFunction is spec.md §4.6's TSFN: a bounded FIFO any number of
// non-host threads may enqueue into, drained exclusively on the host loop.
type ThreadSafeFunction struct {
	loop *Loop

	// callJS is call_js_cb, already bound to (env, callable, context) by the
	// caller; this package only ever sees the per-call data pointer. The
	// caller is responsible for opening/closing a handle scope around it, so
	// this package stays independent of the handle store.
	callJS func(data any)
	// finalize runs once, on the host thread, after the last acquirer
	// releases and the queue has fully drained (or is aborted).
	finalize func()

	mu           sync.Mutex
	cond         *sync.Cond
	queue        []any
	maxQueueSize int // 0 = unbounded
	acquirers    int
	closing      bool
	closed       bool
}

// NewThreadSafeFunction creates a TSFN. Must be called from the host thread.
func NewThreadSafeFunction(loop *Loop, maxQueueSize, initialThreadCount int, callJS func(data any), finalize func()) *ThreadSafeFunction {
	t := &ThreadSafeFunction{
		loop:         loop,
		callJS:       callJS,
		finalize:     finalize,
		maxQueueSize: maxQueueSize,
		acquirers:    initialThreadCount,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Acquire increments the acquirer count. Callable from any thread.
func (t *ThreadSafeFunction) Acquire() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing || t.closed {
		return ErrTSFNClosing
	}
	t.acquirers++
	return nil
}

// Release decrements the acquirer count. When the last acquirer releases,
// the TSFN begins closing: mode controls whether queued items still drain
// first (ReleaseModeDrain) or are dropped (ReleaseModeAbort). Callable from
// any thread.
func (t *ThreadSafeFunction) Release(mode ReleaseMode) error {
	t.mu.Lock()
	if t.acquirers <= 0 {
		t.mu.Unlock()
		return ErrReleaseWithoutAcquire
	}
	t.acquirers--
	last := t.acquirers == 0
	t.mu.Unlock()
	if !last {
		return nil
	}
	t.beginClosing(mode == ReleaseModeAbort)
	return nil
}

func (t *ThreadSafeFunction) beginClosing(drop bool) {
	t.mu.Lock()
	if t.closing || t.closed {
		t.mu.Unlock()
		return
	}
	t.closing = true
	if drop {
		t.queue = nil
	}
	empty := len(t.queue) == 0
	t.mu.Unlock()
	t.cond.Broadcast()
	if empty {
		t.scheduleFinalize()
	} else {
		t.scheduleDrain()
	}
}

// Call enqueues data for the eventual call_js_cb invocation. Callable from
// any thread, including the host thread. A blocking call from the host
// thread that finds the queue full returns ErrWouldDeadlock immediately
// instead of waiting; one that finds room enqueues normally.
func (t *ThreadSafeFunction) Call(data any, mode CallMode) error {
	t.mu.Lock()
	if t.closing || t.closed {
		t.mu.Unlock()
		return ErrTSFNClosing
	}
	if t.maxQueueSize > 0 && len(t.queue) >= t.maxQueueSize {
		if mode == CallNonBlocking {
			t.mu.Unlock()
			return ErrQueueFull
		}
		if t.loop.isLoopThread() {
			t.mu.Unlock()
			return ErrWouldDeadlock
		}
		for t.maxQueueSize > 0 && len(t.queue) >= t.maxQueueSize && !t.closing {
			t.cond.Wait()
		}
		if t.closing {
			t.mu.Unlock()
			return ErrTSFNClosing
		}
	}
	t.queue = append(t.queue, data)
	t.mu.Unlock()
	t.scheduleDrain()
	return nil
}

// QueueLen reports the current queue depth; a diagnostic.
func (t *ThreadSafeFunction) QueueLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

func (t *ThreadSafeFunction) scheduleDrain() {
	_ = t.loop.SubmitInternal(t.drainBatch)
}

func (t *ThreadSafeFunction) scheduleFinalize() {
	_ = t.loop.SubmitInternal(t.maybeFinalize)
}

// drainBatch pops and invokes every currently queued item, in FIFO order,
// on the host thread. Runs until the queue is empty, then finalizes if
// closing.
func (t *ThreadSafeFunction) drainBatch() {
	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			closing := t.closing
			t.mu.Unlock()
			if closing {
				t.maybeFinalize()
			}
			return
		}
		data := t.queue[0]
		t.queue = t.queue[1:]
		t.cond.Signal()
		t.mu.Unlock()

		t.invoke(data)
	}
}

func (t *ThreadSafeFunction) invoke(data any) {
	defer func() { _ = recover() }()
	t.callJS(data)
}

func (t *ThreadSafeFunction) maybeFinalize() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	if t.finalize != nil {
		t.finalize()
	}
}
