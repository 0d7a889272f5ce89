package concurrency

import (
	"errors"
	"sync"
)

// ErrDeferredAlreadySettled is returned by a second Resolve or Reject call
// against the same Deferred.
var ErrDeferredAlreadySettled = errors.New("concurrency: deferred has already been resolved or rejected")

// Deferred is spec.md §4.6's one-shot resolver: settling it runs the bound
// resolve/reject function on the host thread, the same way
// eventloop/promisify.go settles a promise by calling SubmitInternal rather
// than touching engine state from whatever goroutine produced the result.
//
// The actual promise object (the thing script code awaits) is not modeled
// here: abi.PromiseOps.CreatePromise creates it by calling the runtime's
// global Promise constructor and binds the captured resolve/reject functions
// to this Deferred. This type only owns the settle-once discipline and the
// thread-to-host-loop handoff.
type Deferred struct {
	loop      *Loop
	resolveFn func(value any)
	rejectFn  func(reason any)

	mu      sync.Mutex
	settled bool
}

// NewDeferred creates a Deferred bound to loop. resolveFn/rejectFn settle
// the underlying goja promise and must only be called from the host
// thread — which is exactly where Resolve/Reject arrange for them to run.
func NewDeferred(loop *Loop, resolveFn func(value any), rejectFn func(reason any)) *Deferred {
	return &Deferred{loop: loop, resolveFn: resolveFn, rejectFn: rejectFn}
}

// Resolve settles the deferred with value. Safe from any thread.
func (d *Deferred) Resolve(value any) error {
	return d.settle(func() { d.resolveFn(value) })
}

// Reject settles the deferred with reason. Safe from any thread.
func (d *Deferred) Reject(reason any) error {
	return d.settle(func() { d.rejectFn(reason) })
}

func (d *Deferred) settle(fn func()) error {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return ErrDeferredAlreadySettled
	}
	d.settled = true
	d.mu.Unlock()
	return d.loop.SubmitInternal(fn)
}
