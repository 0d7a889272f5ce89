// Package callback implements the trampoline that turns a native callback
// into a host-callable function, napi_define_class's constructor/property
// machinery, and napi_wrap's native-pointer association (spec.md §4.5).
//
// Host-callable functions and constructors are built the way
// goja-eventloop/adapter.go builds them: a Go closure wrapped with
// runtime.ToValue(func(call goja.FunctionCall) goja.Value {...}) for plain
// functions, and runtime.ToValue(func(call goja.ConstructorCall) *goja.Object
// {...}) plus an explicit call.This.SetPrototype(...) for constructors —
// goja does not wire a ConstructorCall's declared prototype onto `this`
// automatically, the same gap the adapter's own promiseConstructor works
// around.
package callback

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
)

// NativeCallback is the Go stand-in for a native napi_callback function
// pointer: it receives the environment and a transient CallbackInfo, and
// returns the napi_value result (napihost.ValueUndefined for "no return
// value"). Exceptions are not returned — like real NAPI, a callback raises
// by calling one of the environment's throw operations and returning.
type NativeCallback func(env *napihost.Environment, info *CallbackInfo) napihost.Value

// CallbackInfo is the napi_callback_info a trampoline invocation hands to
// the native callback: the receiver, argument vector, bound user data, and
// (for constructors) the new-target handle.
type CallbackInfo struct {
	This            napihost.Value
	Args            []napihost.Value
	Data            any
	IsConstructCall bool
	// NewTarget is the constructor's own handle during a construct call,
	// and napihost.ValueNull otherwise — matching napi_get_new_target's
	// documented behavior (spec.md §4.5).
	NewTarget napihost.Value
}

// ErrNotCallable is returned when a napihost.Value that does not resolve to
// a goja function is invoked as one.
var ErrNotCallable = errors.New("callback: value is not callable")

// GetCbInfo implements napi_get_cb_info's copy-with-truncation contract:
// argv is sized to argvCap and filled with up to min(argvCap, true argc)
// arguments, padded with napihost.ValueUndefined; the returned argc is
// always the true argument count, not the truncated one.
func GetCbInfo(info *CallbackInfo, argvCap int) (argv []napihost.Value, argc int, this napihost.Value, data any) {
	argc = len(info.Args)
	if argvCap < 0 {
		argvCap = 0
	}
	argv = make([]napihost.Value, argvCap)
	for i := range argv {
		if i < argc {
			argv[i] = info.Args[i]
		} else {
			argv[i] = napihost.ValueUndefined
		}
	}
	return argv, argc, info.This, info.Data
}

// Invoke runs the trampoline steps of spec.md §4.5 around a single call to
// cb: open a scope, wrap the receiver/arguments/new-target into it, call the
// native callback, raise a pending exception (if any) into the host, unwrap
// the returned handle, close the scope regardless of outcome.
//
// thisRaw/argsRaw/newTargetRaw are wrapped inside the scope this opens,
// rather than by the caller beforehand, so every handle this trampoline
// hands the native callback is allocated with a scope already open
// (spec.md §4.2's "must find a positive counter or else fail" invariant —
// see napihost.Environment.NewValue).
func Invoke(env *napihost.Environment, cb NativeCallback, data any, thisRaw goja.Value, argsRaw []goja.Value, isConstruct bool, newTargetRaw goja.Value) (result goja.Value) {
	scope := env.OpenScope(false)
	defer func() {
		_ = env.CloseScope(scope)
	}()

	thisVal, _ := env.NewValue(thisRaw)
	args := wrapArgs(env, argsRaw)

	newTarget := napihost.ValueNull
	if isConstruct {
		newTarget, _ = env.NewValue(newTargetRaw)
	}

	info := &CallbackInfo{This: thisVal, Args: args, Data: data, IsConstructCall: isConstruct, NewTarget: newTarget}
	ret := cb(env, info)

	if exc, ok := env.GetAndClearPendingException(); ok {
		panic(toThrowable(env, exc))
	}

	return unwrap(env, ret)
}

// toThrowable resolves a pending-exception Value to something goja's VM
// will recognize as a thrown error when passed to panic from inside a host
// function.
func toThrowable(env *napihost.Environment, v napihost.Value) any {
	raw, ok := env.Resolve(v)
	if !ok {
		return env.Runtime().NewGoError(fmt.Errorf("napihost: exception handle no longer live"))
	}
	if gv, ok := raw.(goja.Value); ok {
		return gv
	}
	return env.Runtime().NewGoError(fmt.Errorf("%v", raw))
}

func unwrap(env *napihost.Environment, v napihost.Value) goja.Value {
	if v == napihost.ValueUndefined || v == 0 {
		return goja.Undefined()
	}
	raw, ok := env.Resolve(v)
	if !ok {
		return goja.Undefined()
	}
	gv, ok := raw.(goja.Value)
	if !ok {
		return goja.Undefined()
	}
	return gv
}

// wrapArgs stores a slice of goja call arguments into the handle store,
// tracked by the currently open scope.
func wrapArgs(env *napihost.Environment, args []goja.Value) []napihost.Value {
	out := make([]napihost.Value, len(args))
	for i, a := range args {
		out[i], _ = env.NewValue(a)
	}
	return out
}

// NewFunction creates a host-callable function bundling (cb, data, name) —
// spec.md §4.5's callback trampoline bundle. The returned Value resolves to
// a goja function value.
func NewFunction(env *napihost.Environment, name string, data any, cb NativeCallback) napihost.Value {
	rt := env.Runtime()
	fnVal := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		return Invoke(env, cb, data, call.This, call.Arguments, false, nil)
	})
	if obj, ok := fnVal.(*goja.Object); ok {
		_ = safeSet(obj, "name", name)
	} else if obj := fnVal.ToObject(rt); obj != nil {
		_ = safeSet(obj, "name", name)
	}
	v, _ := env.NewValue(fnVal)
	return v
}

// Call invokes fn (a Value resolving to a goja function) with this and args,
// the way the trampoline's native callback side calls back into script —
// used by TSFN/async-work call_js_cb bindings and by napi_call_function.
// Like every handle-producing operation, the caller must already have a
// handle scope open (spec.md §4.2): the result (or thrown exception) is
// allocated into that scope, never one Call opens and closes itself.
func Call(env *napihost.Environment, fn napihost.Value, this napihost.Value, args []napihost.Value) (napihost.Value, error) {
	raw, ok := env.Resolve(fn)
	if !ok {
		return napihost.ValueUndefined, ErrNotCallable
	}
	gv, ok := raw.(goja.Value)
	if !ok {
		return napihost.ValueUndefined, ErrNotCallable
	}
	callable, ok := goja.AssertFunction(gv)
	if !ok {
		return napihost.ValueUndefined, ErrNotCallable
	}

	thisRaw, _ := env.Resolve(this)
	thisGV, _ := thisRaw.(goja.Value)
	if thisGV == nil {
		thisGV = goja.Undefined()
	}

	gargs := make([]goja.Value, len(args))
	for i, a := range args {
		raw, _ := env.Resolve(a)
		gv, _ := raw.(goja.Value)
		if gv == nil {
			gv = goja.Undefined()
		}
		gargs[i] = gv
	}

	res, err := callable(thisGV, gargs...)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			v, status := env.NewValue(exc.Value())
			if status != napihost.StatusOK {
				return napihost.ValueUndefined, napihost.ErrNoOpenScope
			}
			env.SetPendingException(v)
			return napihost.ValueUndefined, nil
		}
		return napihost.ValueUndefined, err
	}
	v, status := env.NewValue(res)
	if status != napihost.StatusOK {
		return napihost.ValueUndefined, napihost.ErrNoOpenScope
	}
	return v, nil
}

// Construct invokes ctor (a Value resolving to a goja constructor function)
// as `new ctor(args...)` would from script — napi_new_instance's operation.
// Calling a goja.ConstructorCall-wrapped function as a plain call (via Call
// above) does not run its constructor path; only runtime.New does, the
// technique goja-protobuf/helpers.go uses for its own Go-side `new
// Uint8Array(...)` calls. As with Call, the caller must already have a
// handle scope open.
func Construct(env *napihost.Environment, ctor napihost.Value, args []napihost.Value) (napihost.Value, error) {
	raw, ok := env.Resolve(ctor)
	if !ok {
		return napihost.ValueUndefined, ErrNotCallable
	}
	gv, ok := raw.(goja.Value)
	if !ok {
		return napihost.ValueUndefined, ErrNotCallable
	}

	gargs := make([]goja.Value, len(args))
	for i, a := range args {
		araw, _ := env.Resolve(a)
		agv, _ := araw.(goja.Value)
		if agv == nil {
			agv = goja.Undefined()
		}
		gargs[i] = agv
	}

	res, err := env.Runtime().New(gv, gargs...)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			v, status := env.NewValue(exc.Value())
			if status != napihost.StatusOK {
				return napihost.ValueUndefined, napihost.ErrNoOpenScope
			}
			env.SetPendingException(v)
			return napihost.ValueUndefined, nil
		}
		return napihost.ValueUndefined, err
	}
	v, status := env.NewValue(res)
	if status != napihost.StatusOK {
		return napihost.ValueUndefined, napihost.ErrNoOpenScope
	}
	return v, nil
}

func safeSet(obj *goja.Object, key string, val any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback: set %q: %v", key, r)
		}
	}()
	return obj.Set(key, val)
}
