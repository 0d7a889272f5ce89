package abi

import (
	"errors"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/callback"
)

// FunctionOps covers napi_create_function and napi_call_function — plain
// callables, not classes (see ClassOps for napi_define_class).
type FunctionOps struct {
	env *napihost.Environment
}

func newFunctionOps(env *napihost.Environment) *FunctionOps { return &FunctionOps{env: env} }

// CreateFunction implements napi_create_function: bundles (cb, data, name)
// into a host-callable value via the trampoline (spec.md §4.5).
func (o *FunctionOps) CreateFunction(name string, data any, cb callback.NativeCallback) (napihost.Value, napihost.Status) {
	if cb == nil {
		return napihost.ValueUndefined, fail()
	}
	return callback.NewFunction(o.env, name, data, cb), o.env.Succeed()
}

// CallFunction implements napi_call_function.
func (o *FunctionOps) CallFunction(fn napihost.Value, this napihost.Value, args []napihost.Value) (napihost.Value, napihost.Status) {
	result, err := callback.Call(o.env, fn, this, args)
	if errors.Is(err, napihost.ErrNoOpenScope) {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusHandleScopeMismatch, err.Error())
	}
	if err != nil {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusFunctionExpected, err.Error())
	}
	if o.env.HasPendingException() {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusPendingException, "call raised a pending exception")
	}
	return result, o.env.Succeed()
}
