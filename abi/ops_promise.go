package abi

import (
	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/concurrency"
)

// PromiseOps covers napi_create_promise/resolve_deferred/reject_deferred/
// is_promise (spec.md's Deferred entity, E5's scenario).
//
// Grounded on goja-eventloop/adapter.go's promise construction, which builds
// a Promise by calling the runtime's own global Promise constructor with an
// executor function and captures the resolve/reject closures it receives —
// the same technique used here so the returned value is a real ES Promise
// any script-side `await`/`.then` can observe.
type PromiseOps struct {
	env *napihost.Environment
}

func newPromiseOps(env *napihost.Environment) *PromiseOps { return &PromiseOps{env: env} }

// CreatePromise implements napi_create_promise, returning both the promise
// value and a *concurrency.Deferred bound to this environment's loop so
// resolution always lands on the host thread.
func (o *PromiseOps) CreatePromise() (promise napihost.Value, deferred *concurrency.Deferred, status napihost.Status) {
	if o.env.Scopes().Depth() == 0 {
		return napihost.ValueUndefined, nil, o.env.Fail(napihost.StatusHandleScopeMismatch, "no handle scope is open")
	}

	rt := o.env.Runtime()
	ctor, ok := goja.AssertFunction(rt.GlobalObject().Get("Promise"))
	if !ok {
		return napihost.ValueUndefined, nil, o.env.Fail(napihost.StatusGenericFailure, "host has no Promise constructor")
	}

	var resolveFn, rejectFn goja.Callable
	executor := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			resolveFn = fn
		}
		if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
			rejectFn = fn
		}
		return goja.Undefined()
	})

	promVal, err := ctor(goja.Undefined(), executor)
	if err != nil {
		return napihost.ValueUndefined, nil, o.env.Fail(napihost.StatusGenericFailure, err.Error())
	}

	d := concurrency.NewDeferred(o.env.Loop(),
		func(value any) {
			if resolveFn != nil {
				_, _ = resolveFn(goja.Undefined(), toGojaArg(rt, value))
			}
		},
		func(reason any) {
			if rejectFn != nil {
				_, _ = rejectFn(goja.Undefined(), toGojaArg(rt, reason))
			}
		},
	)

	pv, status := o.env.NewValue(promVal)
	if status != napihost.StatusOK {
		return napihost.ValueUndefined, nil, status
	}
	return pv, d, status
}

func toGojaArg(rt *goja.Runtime, v any) goja.Value {
	if gv, ok := v.(goja.Value); ok {
		return gv
	}
	return rt.ToValue(v)
}

// ResolveDeferred implements napi_resolve_deferred. Fails on a deferred
// that was already settled (E5: "a subsequent reject_deferred ... returns
// non-ok").
func (o *PromiseOps) ResolveDeferred(d *concurrency.Deferred, value napihost.Value) napihost.Status {
	raw, _ := o.env.Resolve(value)
	if err := d.Resolve(raw); err != nil {
		return o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return o.env.Succeed()
}

// RejectDeferred implements napi_reject_deferred.
func (o *PromiseOps) RejectDeferred(d *concurrency.Deferred, reason napihost.Value) napihost.Status {
	raw, _ := o.env.Resolve(reason)
	if err := d.Reject(raw); err != nil {
		return o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return o.env.Succeed()
}

// IsPromise implements napi_is_promise.
func (o *PromiseOps) IsPromise(v napihost.Value) (bool, napihost.Status) {
	raw, ok := o.env.Resolve(v)
	if !ok {
		return false, o.env.Succeed()
	}
	obj, ok := raw.(*goja.Object)
	if !ok {
		return false, o.env.Succeed()
	}
	return obj.ClassName() == "Promise", o.env.Succeed()
}
