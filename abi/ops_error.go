package abi

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/logging"
)

// ErrorOps covers the throw_*/is_exception_pending/get_and_clear_last_exception/
// get_last_error_info/fatal_error/fatal_exception family (spec.md §7).
type ErrorOps struct {
	env *napihost.Environment
}

func newErrorOps(env *napihost.Environment) *ErrorOps { return &ErrorOps{env: env} }

// Throw implements napi_throw: stores v directly as the pending exception.
func (o *ErrorOps) Throw(v napihost.Value) napihost.Status {
	o.env.SetPendingException(v)
	return o.env.Succeed()
}

func (o *ErrorOps) throwConstructed(ctor func(msg string) goja.Value, code, message string) napihost.Status {
	errVal := ctor(message)
	if obj, ok := errVal.(*goja.Object); ok && code != "" {
		_ = obj.Set("code", code)
	}
	v, status := o.env.NewValue(errVal)
	if status != napihost.StatusOK {
		return status
	}
	o.env.SetPendingException(v)
	return o.env.Succeed()
}

// ThrowError implements napi_throw_error.
func (o *ErrorOps) ThrowError(code, message string) napihost.Status {
	rt := o.env.Runtime()
	return o.throwConstructed(func(msg string) goja.Value { return rt.NewGoError(&napihost.JSError{Code: code, Message: msg}) }, code, message)
}

// ThrowTypeError implements napi_throw_type_error (E6's scenario).
func (o *ErrorOps) ThrowTypeError(code, message string) napihost.Status {
	rt := o.env.Runtime()
	ctor, ok := goja.AssertFunction(rt.GlobalObject().Get("TypeError"))
	if !ok {
		return o.throwConstructed(func(msg string) goja.Value { return rt.NewGoError(&napihost.JSTypeError{Code: code, Message: msg}) }, code, message)
	}
	v, err := ctor(goja.Undefined(), rt.ToValue(message))
	if err != nil {
		return o.throwConstructed(func(msg string) goja.Value { return rt.NewGoError(&napihost.JSTypeError{Code: code, Message: msg}) }, code, message)
	}
	if obj, ok := v.(*goja.Object); ok && code != "" {
		_ = obj.Set("code", code)
	}
	handle, status := o.env.NewValue(v)
	if status != napihost.StatusOK {
		return status
	}
	o.env.SetPendingException(handle)
	return o.env.Succeed()
}

// ThrowRangeError implements napi_throw_range_error.
func (o *ErrorOps) ThrowRangeError(code, message string) napihost.Status {
	rt := o.env.Runtime()
	ctor, ok := goja.AssertFunction(rt.GlobalObject().Get("RangeError"))
	if !ok {
		return o.throwConstructed(func(msg string) goja.Value { return rt.NewGoError(&napihost.JSRangeError{Code: code, Message: msg}) }, code, message)
	}
	v, err := ctor(goja.Undefined(), rt.ToValue(message))
	if err != nil {
		return o.throwConstructed(func(msg string) goja.Value { return rt.NewGoError(&napihost.JSRangeError{Code: code, Message: msg}) }, code, message)
	}
	if obj, ok := v.(*goja.Object); ok && code != "" {
		_ = obj.Set("code", code)
	}
	handle, status := o.env.NewValue(v)
	if status != napihost.StatusOK {
		return status
	}
	o.env.SetPendingException(handle)
	return o.env.Succeed()
}

// IsExceptionPending implements napi_is_exception_pending — Testable
// Property 8. A query function, so Table/slot absence falls back to false
// rather than generic_failure (spec.md §4.1).
func (o *ErrorOps) IsExceptionPending() bool {
	return o.env.HasPendingException()
}

// GetAndClearLastException implements napi_get_and_clear_last_exception.
func (o *ErrorOps) GetAndClearLastException() (napihost.Value, napihost.Status) {
	v, ok := o.env.GetAndClearPendingException()
	if !ok {
		return napihost.ValueUndefined, o.env.Succeed()
	}
	return v, o.env.Succeed()
}

// GetLastErrorInfo implements napi_get_last_error_info — Testable Property 9.
func (o *ErrorOps) GetLastErrorInfo() napihost.LastError {
	return o.env.LastErrorInfo()
}

// FatalError implements napi_fatal_error: logs and does not abort by
// default (spec.md §7, §9's resolved open question), honoring
// Config.FatalErrorAborts for hosts that want Node parity.
func (o *ErrorOps) FatalError(location, message string) {
	err := fmt.Errorf("%s: %s", location, message)
	o.env.Log().Err(logging.CategoryEnvironment, err).Log("fatal_error reported by native code")
	if o.env.Config().FatalErrorAborts {
		panic(err)
	}
}

// FatalException implements napi_fatal_exception: routes to the host's
// uncaught-exception mechanism if available (there is none in this
// standalone host), else logs — spec.md §7.
func (o *ErrorOps) FatalException(v napihost.Value) {
	raw, _ := o.env.Resolve(v)
	o.env.Log().Err(logging.CategoryEnvironment, fmt.Errorf("%v", raw)).Log("uncaught exception from native code")
}
