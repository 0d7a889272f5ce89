package abi

import (
	"fmt"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/concurrency"
	"github.com/napi-go/napihost/logging"
)

// ConcurrencyOps covers thread-safe functions and async work (spec.md §4.6):
// create/acquire/release/call_threadsafe_function, and
// create/queue/cancel/delete_async_work.
type ConcurrencyOps struct {
	env *napihost.Environment
}

func newConcurrencyOps(env *napihost.Environment) *ConcurrencyOps { return &ConcurrencyOps{env: env} }

// CreateThreadsafeFunction implements napi_create_threadsafe_function. callJS
// receives the raw data pointer passed to Call and is responsible for
// invoking the bound callable — spec.md's call_js_cb hook, opened scope
// included. A caller-supplied maxQueueSize of 0 is substituted with
// Config.TSFNDefaultQueueCapacity, preserving 0's own "unbounded" meaning
// when that default is itself left at 0.
func (o *ConcurrencyOps) CreateThreadsafeFunction(maxQueueSize, initialThreadCount int, callable napihost.Value, callJS func(env *napihost.Environment, callable napihost.Value, data any), finalize func()) (*concurrency.ThreadSafeFunction, napihost.Status) {
	if callJS == nil {
		return nil, fail()
	}
	if maxQueueSize == 0 {
		maxQueueSize = o.env.Config().TSFNDefaultQueueCapacity
	}
	tsfn := concurrency.NewThreadSafeFunction(o.env.Loop(), maxQueueSize, initialThreadCount,
		func(data any) {
			scope := o.env.OpenScope(false)
			defer func() { _ = o.env.CloseScope(scope) }()
			callJS(o.env, callable, data)
			if exc, ok := o.env.GetAndClearPendingException(); ok {
				raw, _ := o.env.Resolve(exc)
				o.env.Log().Warn(logging.CategoryTSFN).Str("exception", fmt.Sprint(raw)).Log("unhandled exception from threadsafe function call")
			}
		},
		finalize,
	)
	return tsfn, o.env.Succeed()
}

// AcquireThreadsafeFunction implements napi_acquire_threadsafe_function.
func (o *ConcurrencyOps) AcquireThreadsafeFunction(t *concurrency.ThreadSafeFunction) napihost.Status {
	if err := t.Acquire(); err != nil {
		return o.env.Fail(napihost.StatusClosing, err.Error())
	}
	return o.env.Succeed()
}

// ReleaseThreadsafeFunction implements napi_release_threadsafe_function.
func (o *ConcurrencyOps) ReleaseThreadsafeFunction(t *concurrency.ThreadSafeFunction, mode concurrency.ReleaseMode) napihost.Status {
	if err := t.Release(mode); err != nil {
		return o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return o.env.Succeed()
}

// CallThreadsafeFunction implements napi_call_threadsafe_function — any
// thread, spec.md §4.6's "Call" operation.
func (o *ConcurrencyOps) CallThreadsafeFunction(t *concurrency.ThreadSafeFunction, data any, mode concurrency.CallMode) napihost.Status {
	switch err := t.Call(data, mode); err {
	case nil:
		return napihost.StatusOK
	case concurrency.ErrTSFNClosing:
		return napihost.StatusClosing
	case concurrency.ErrQueueFull:
		return napihost.StatusQueueFull
	case concurrency.ErrWouldDeadlock:
		return napihost.StatusWouldDeadlock
	default:
		return napihost.StatusGenericFailure
	}
}

// CreateAsyncWork implements napi_create_async_work.
func (o *ConcurrencyOps) CreateAsyncWork(execute func(), complete func(status concurrency.WorkStatus)) (*concurrency.AsyncWork, napihost.Status) {
	if execute == nil || complete == nil {
		return nil, fail()
	}
	return concurrency.NewAsyncWork(o.env.Loop(), execute, complete), o.env.Succeed()
}

// QueueAsyncWork implements napi_queue_async_work.
func (o *ConcurrencyOps) QueueAsyncWork(w *concurrency.AsyncWork) napihost.Status {
	w.Queue(o.env.Pool())
	return o.env.Succeed()
}

// CancelAsyncWork implements napi_cancel_async_work.
func (o *ConcurrencyOps) CancelAsyncWork(w *concurrency.AsyncWork) napihost.Status {
	if !w.Cancel() {
		return o.env.Fail(napihost.StatusGenericFailure, "work already started or completed")
	}
	return o.env.Succeed()
}
