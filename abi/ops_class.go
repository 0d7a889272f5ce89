package abi

import (
	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/callback"
)

// ClassOps covers napi_define_class, napi_get_new_target, and the
// napi_wrap/unwrap/remove_wrap family — the object-identity half of §4.5.
type ClassOps struct {
	env  *napihost.Environment
	wrap *callback.WrapRegistry
}

func newClassOps(env *napihost.Environment) *ClassOps {
	return &ClassOps{env: env, wrap: callback.NewWrapRegistry()}
}

// DefineClass implements napi_define_class.
func (o *ClassOps) DefineClass(def callback.ClassDefinition) (napihost.Value, napihost.Status) {
	if def.Constructor == nil {
		return napihost.ValueUndefined, fail()
	}
	if o.env.Scopes().Depth() == 0 {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusHandleScopeMismatch, "no handle scope is open")
	}
	return callback.DefineClass(o.env, def), o.env.Succeed()
}

// GetNewTarget implements napi_get_new_target: null outside a construct
// call, the constructor handle within one (spec.md §4.5).
func (o *ClassOps) GetNewTarget(info *callback.CallbackInfo) (napihost.Value, napihost.Status) {
	if !info.IsConstructCall {
		return napihost.ValueNull, o.env.Succeed()
	}
	return info.NewTarget, o.env.Succeed()
}

// Wrap implements napi_wrap.
func (o *ClassOps) Wrap(target napihost.Value, native any, finalize func()) napihost.Status {
	if err := o.wrap.Wrap(o.env, target, native, finalize); err != nil {
		return o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return o.env.Succeed()
}

// Unwrap implements napi_unwrap.
func (o *ClassOps) Unwrap(target napihost.Value) (any, napihost.Status) {
	native, err := o.wrap.Unwrap(o.env, target)
	if err != nil {
		return nil, o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return native, o.env.Succeed()
}

// RemoveWrap implements napi_remove_wrap: detaches without running the
// finalizer, unlike a reference delete (spec.md §4.4).
func (o *ClassOps) RemoveWrap(target napihost.Value) (any, napihost.Status) {
	native, err := o.wrap.RemoveWrap(o.env, target)
	if err != nil {
		return nil, o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return native, o.env.Succeed()
}
