package concurrency

import "sync"

// WorkStatus is the outcome an AsyncWork's complete callback observes.
type WorkStatus int

const (
	WorkOK WorkStatus = iota
	WorkCancelled
)

// AsyncWork is spec.md §4.6's background job: execute runs off the host
// thread with no scope access, complete runs on the host thread. Built the
// way eventloop/promisify.go's Promisify runs a goroutine then resolves
// back onto the loop thread via SubmitInternal — generalized from one-shot
// promise settlement to an explicit execute/complete pair with its own
// cancel-before-start path.
type AsyncWork struct {
	loop     *Loop
	execute  func()
	complete func(status WorkStatus)

	mu        sync.Mutex
	started   bool
	cancelled bool
	done      bool
}

// NewAsyncWork creates unqueued async work. execute must not touch any
// handle; complete runs later, on the host thread.
func NewAsyncWork(loop *Loop, execute func(), complete func(status WorkStatus)) *AsyncWork {
	return &AsyncWork{loop: loop, execute: execute, complete: complete}
}

// Queue schedules execute to run. If pool is non-nil, it runs on the pool;
// otherwise a dedicated goroutine is spawned (the "per-instance single
// worker" minimal implementation spec.md §4.6 calls acceptable for
// correctness).
func (w *AsyncWork) Queue(pool *Pool) {
	if pool != nil {
		pool.submit(w)
		return
	}
	go w.run()
}

func (w *AsyncWork) run() {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		w.scheduleComplete(WorkCancelled)
		return
	}
	w.started = true
	w.mu.Unlock()

	func() {
		defer func() { _ = recover() }()
		w.execute()
	}()

	w.scheduleComplete(WorkOK)
}

func (w *AsyncWork) scheduleComplete(status WorkStatus) {
	_ = w.loop.SubmitInternal(func() {
		w.mu.Lock()
		if w.done {
			w.mu.Unlock()
			return
		}
		w.done = true
		w.mu.Unlock()
		w.complete(status)
	})
}

// Cancel marks the work cancelled if execute has not yet started. Returns
// true if the cancellation took effect (execute will be skipped).
func (w *AsyncWork) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.done {
		return false
	}
	w.cancelled = true
	return true
}

// Pool is a fixed-size worker pool async work can run on, addressing
// spec.md §9's note that per-call goroutines will starve under load and
// that pool size should be a tunable (see config.Config.AsyncWorkPoolSize).
type Pool struct {
	workCh chan *AsyncWork
	wg     sync.WaitGroup
}

// NewPool starts size workers (minimum 1).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{workCh: make(chan *AsyncWork, 256)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.loop()
	}
	return p
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for w := range p.workCh {
		w.run()
	}
}

func (p *Pool) submit(w *AsyncWork) { p.workCh <- w }

// Close stops accepting new work and waits for in-flight executes to finish.
func (p *Pool) Close() {
	close(p.workCh)
	p.wg.Wait()
}
