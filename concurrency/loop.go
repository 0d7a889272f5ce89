// Package concurrency implements the host-thread dispatch loop that backs
// thread-safe functions and async-work completion (spec.md §4.6, §5).
//
// Loop is eventloop/loop.go's reactor trimmed to what a NAPI host needs: no
// I/O-FD poller (this spec has no user file-descriptor multiplexing — "None
// on the host thread" per spec.md §5's suspension-point rule), keeping the
// mutex-guarded queues, the goja-style auxJobs/auxJobsSpare batch-swap drain,
// the atomic FastState machine, and channel-based wakeup.
package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/napi-go/napihost/logging"
)

var (
	ErrLoopAlreadyRunning = errors.New("concurrency: loop is already running")
	ErrLoopTerminated     = errors.New("concurrency: loop has been terminated")
	ErrLoopNotRunning     = errors.New("concurrency: loop is not running")
	ErrReentrantRun       = errors.New("concurrency: cannot call Run() from within the loop")
)

// Task is one unit of host-thread work.
type Task func()

// Loop is the single-threaded dispatch queue described by spec.md §4.6/§5:
// every script-visible operation (TSFN drain, async-work completion) runs
// here, on one goroutine, in submission order per producer.
type Loop struct {
	_ [0]func() // uncopyable: a Loop is identified by its address

	log   *logging.Logger
	state *FastState

	extMu    sync.Mutex
	auxJobs  []Task // goja-style queue: Submit appends here directly
	auxSpare []Task // swapped in during drain to avoid holding extMu while running tasks

	internalMu sync.Mutex
	internal   []Task

	microMu sync.Mutex
	micro   []Task

	wakeCh chan struct{} // buffered size 1; a pending wakeup coalesces further sends
	done   chan struct{}

	stopOnce   sync.Once
	loopGID    atomic.Uint64 // goroutine ID currently executing Run, 0 if none
	tickCount  atomic.Uint64
}

// NewLoop constructs an idle Loop. log may be nil (logging.Nop() is used).
func NewLoop(log *logging.Logger) *Loop {
	if log == nil {
		log = logging.Nop()
	}
	return &Loop{
		log:    log,
		state:  NewFastState(),
		wakeCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// State reports the loop's current run state.
func (l *Loop) State() LoopState { return l.state.Load() }

// Run drives the loop until ctx is cancelled or Shutdown/Close is called. It
// must be called from the goroutine that is to become the host thread, and
// must not be called re-entrantly.
func (l *Loop) Run(ctx context.Context) error {
	if l.isLoopThread() {
		return ErrReentrantRun
	}
	if !l.state.TryTransition(StateAwake, StateRunning) {
		if l.state.Load() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	l.loopGID.Store(currentGoroutineID())
	defer l.loopGID.Store(0)

	for {
		l.tick()

		if l.state.Load() == StateTerminating {
			l.drainToQuiescence()
			l.state.Store(StateTerminated)
			close(l.done)
			return nil
		}

		select {
		case <-ctx.Done():
			l.state.Store(StateTerminating)
			l.drainToQuiescence()
			l.state.Store(StateTerminated)
			close(l.done)
			return ctx.Err()
		default:
		}

		if l.idle() {
			l.state.TryTransition(StateRunning, StateSleeping)
			select {
			case <-l.wakeCh:
			case <-ctx.Done():
				l.state.Store(StateTerminating)
				l.drainToQuiescence()
				l.state.Store(StateTerminated)
				close(l.done)
				return ctx.Err()
			}
			l.state.TryTransition(StateSleeping, StateRunning)
		}
	}
}

// tick drains one batch each of the internal queue, external queue, and
// microtask queue, in that priority order.
func (l *Loop) tick() {
	l.tickCount.Add(1)
	l.drainInternal()
	l.drainExternal()
	l.drainMicrotasks()
}

func (l *Loop) idle() bool {
	l.internalMu.Lock()
	hasInternal := len(l.internal) > 0
	l.internalMu.Unlock()
	if hasInternal {
		return false
	}
	l.extMu.Lock()
	hasExternal := len(l.auxJobs) > 0
	l.extMu.Unlock()
	if hasExternal {
		return false
	}
	l.microMu.Lock()
	hasMicro := len(l.micro) > 0
	l.microMu.Unlock()
	return !hasMicro
}

func (l *Loop) drainExternal() {
	l.extMu.Lock()
	l.auxJobs, l.auxSpare = l.auxSpare, l.auxJobs
	batch := l.auxSpare
	l.extMu.Unlock()

	for _, t := range batch {
		l.safeExecute(t)
	}
	l.auxSpare = batch[:0]
}

func (l *Loop) drainInternal() {
	l.internalMu.Lock()
	batch := l.internal
	l.internal = nil
	l.internalMu.Unlock()

	for _, t := range batch {
		l.safeExecute(t)
	}
}

func (l *Loop) drainMicrotasks() {
	for {
		l.microMu.Lock()
		if len(l.micro) == 0 {
			l.microMu.Unlock()
			return
		}
		t := l.micro[0]
		l.micro = l.micro[1:]
		l.microMu.Unlock()
		l.safeExecute(t)
	}
}

// drainToQuiescence runs remaining queued work once shutdown has begun, so
// in-flight TSFN/async-work completions are not lost (spec.md §5: closing a
// TSFN waits for drain).
func (l *Loop) drainToQuiescence() {
	for !l.idle() {
		l.tick()
	}
}

func (l *Loop) safeExecute(t Task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Err(logging.CategoryEnvironment, errPanic(r)).Log("task panicked on host loop")
		}
	}()
	t()
}

// Submit enqueues task on the external (fast-path) queue. Safe from any
// goroutine.
func (l *Loop) Submit(task Task) error {
	l.extMu.Lock()
	if l.state.Load() == StateTerminated {
		l.extMu.Unlock()
		return ErrLoopTerminated
	}
	l.auxJobs = append(l.auxJobs, task)
	l.extMu.Unlock()
	l.wake()
	return nil
}

// SubmitInternal enqueues task on the internal (priority) queue, used for
// TSFN drain scheduling and async-work completion. If called from the loop
// thread itself while running, it executes immediately rather than queuing
// a self-wakeup, matching the "no suspension points on the host thread" rule.
func (l *Loop) SubmitInternal(task Task) error {
	if l.isLoopThread() && l.state.Load() == StateRunning {
		l.safeExecute(task)
		return nil
	}

	l.internalMu.Lock()
	if l.state.Load() == StateTerminated {
		l.internalMu.Unlock()
		return ErrLoopTerminated
	}
	l.internal = append(l.internal, task)
	l.internalMu.Unlock()
	l.wake()
	return nil
}

// ScheduleMicrotask enqueues fn to run after the current external/internal
// batch drains, before the loop goes idle.
func (l *Loop) ScheduleMicrotask(fn func()) error {
	if l.state.Load() == StateTerminated {
		return ErrLoopTerminated
	}
	l.microMu.Lock()
	l.micro = append(l.micro, fn)
	l.microMu.Unlock()
	l.wake()
	return nil
}

func (l *Loop) wake() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// Shutdown requests a graceful stop: the loop finishes draining queued work,
// then transitions to terminated. It blocks until Run returns or ctx is
// cancelled.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.stopOnce.Do(func() {
		for {
			cur := l.state.Load()
			if cur == StateTerminated || cur == StateTerminating {
				return
			}
			if l.state.TryTransition(cur, StateTerminating) {
				l.wake()
				return
			}
		}
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isLoopThread reports whether the calling goroutine is the one executing
// Run. Used by SubmitInternal to take the direct-execute fast path and to
// detect a blocking TSFN call onto its own queue (spec.md §5: "would_deadlock").
func (l *Loop) isLoopThread() bool {
	id := l.loopGID.Load()
	return id != 0 && currentGoroutineID() == id
}

// currentGoroutineID parses the running goroutine's numeric ID out of a
// runtime.Stack trace. It is a diagnostic/affinity-check primitive only —
// never used to index state — matching the teacher's own use of the trick.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

type panicError struct{ v any }

func errPanic(v any) error { return &panicError{v: v} }

func (e *panicError) Error() string { return fmt.Sprintf("panic recovered on host loop: %v", e.v) }
