package abi

import (
	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/handles"
)

// ScopeOps covers open/close_handle_scope, open/close_escapable_handle_scope,
// and escape_handle (spec.md §4.2) — Testable Properties 2 and 3.
type ScopeOps struct {
	env *napihost.Environment
}

func newScopeOps(env *napihost.Environment) *ScopeOps { return &ScopeOps{env: env} }

// OpenHandleScope implements napi_open_handle_scope.
func (o *ScopeOps) OpenHandleScope() (*handles.Scope, napihost.Status) {
	return o.env.OpenScope(false), o.env.Succeed()
}

// OpenEscapableHandleScope implements napi_open_escapable_handle_scope.
func (o *ScopeOps) OpenEscapableHandleScope() (*handles.Scope, napihost.Status) {
	return o.env.OpenScope(true), o.env.Succeed()
}

// CloseHandleScope implements napi_close_handle_scope/
// napi_close_escapable_handle_scope: fails with handle_scope_mismatch if sc
// is not the innermost open scope.
func (o *ScopeOps) CloseHandleScope(sc *handles.Scope) napihost.Status {
	if err := o.env.CloseScope(sc); err != nil {
		return o.env.Fail(napihost.StatusHandleScopeMismatch, err.Error())
	}
	return o.env.Succeed()
}

// EscapeHandle implements napi_escape_handle: promotes v from sc into sc's
// parent scope. Fails escape_called_twice on a second call, invalid_arg if v
// is not owned by sc.
func (o *ScopeOps) EscapeHandle(sc *handles.Scope, v napihost.Value) (napihost.Value, napihost.Status) {
	if err := sc.Escape(o.env.HandleID(v)); err != nil {
		switch err {
		case handles.ErrEscapeCalledTwice:
			return napihost.ValueUndefined, o.env.Fail(napihost.StatusEscapeCalledTwice, err.Error())
		default:
			return napihost.ValueUndefined, o.env.Fail(napihost.StatusInvalidArg, err.Error())
		}
	}
	return v, o.env.Succeed()
}
