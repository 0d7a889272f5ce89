package abi

import (
	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/refs"
)

// ReferenceOps covers napi_create_reference/reference_ref/reference_unref/
// delete_reference/get_reference_value (spec.md §4.4).
type ReferenceOps struct {
	env *napihost.Environment
}

func newReferenceOps(env *napihost.Environment) *ReferenceOps { return &ReferenceOps{env: env} }

// CreateReference implements napi_create_reference.
func (o *ReferenceOps) CreateReference(v napihost.Value, initialRefcount int, finalize func()) (*refs.Reference, napihost.Status) {
	if initialRefcount < 0 {
		return nil, o.env.Fail(napihost.StatusInvalidArg, "refcount must be nonnegative")
	}
	ref := o.env.CreateReference(v, initialRefcount, finalize, false)
	return ref, o.env.Succeed()
}

// ReferenceRef implements napi_reference_ref — Testable Property 5.
func (o *ReferenceOps) ReferenceRef(ref *refs.Reference) (int, napihost.Status) {
	n, err := ref.Ref()
	if err != nil {
		return 0, o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return n, o.env.Succeed()
}

// ReferenceUnref implements napi_reference_unref.
func (o *ReferenceOps) ReferenceUnref(ref *refs.Reference) (int, napihost.Status) {
	n, err := ref.Unref()
	if err != nil {
		return 0, o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return n, o.env.Succeed()
}

// DeleteReference implements napi_delete_reference.
func (o *ReferenceOps) DeleteReference(ref *refs.Reference) napihost.Status {
	if err := ref.Delete(); err != nil {
		return o.env.Fail(napihost.StatusInvalidArg, err.Error())
	}
	return o.env.Succeed()
}

// GetReferenceValue implements napi_get_reference_value: returns the
// undefined singleton (not an error) once the target has been collected, per
// spec.md §4.4's "empty-handle sentinel" rule for weak references.
func (o *ReferenceOps) GetReferenceValue(ref *refs.Reference) (napihost.Value, napihost.Status) {
	v, live := ref.Value()
	if !live {
		return napihost.ValueUndefined, o.env.Succeed()
	}
	return o.env.NewValue(v)
}
