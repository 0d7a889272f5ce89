package callback

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
)

// wrapEntry pairs a native pointer with the weak (refcount-zero) Reference
// created over its owning object to drive the finalizer when the wrap is
// torn down; the reference does not pin the object.
type wrapEntry struct {
	native any
	ref    any // *refs.Reference, held as any to avoid importing internal/refs here
}

// WrapRegistry implements napi_wrap/napi_unwrap/napi_remove_wrap (spec.md
// §4.4): a side table associating a goja object with a native Go value,
// backed by a reference so the association participates in the same
// finalizer/collection machinery as any other reference.
type WrapRegistry struct {
	mu      sync.Mutex
	entries map[*goja.Object]*wrapEntry
}

// NewWrapRegistry creates an empty wrap table, one per Environment.
func NewWrapRegistry() *WrapRegistry {
	return &WrapRegistry{entries: make(map[*goja.Object]*wrapEntry)}
}

func resolveObject(env *napihost.Environment, v napihost.Value) (*goja.Object, bool) {
	raw, ok := env.Resolve(v)
	if !ok {
		return nil, false
	}
	gv, ok := raw.(goja.Value)
	if !ok {
		return nil, false
	}
	obj, ok := gv.(*goja.Object)
	return obj, ok
}

// Wrap associates native with target, with finalize (if non-nil) invoked
// when the wrap is collected or explicitly deleted (but not when removed
// via RemoveWrap). Returns napihost.ErrAlreadyWrapped if target is already
// wrapped.
func (w *WrapRegistry) Wrap(env *napihost.Environment, target napihost.Value, native any, finalize func()) error {
	obj, ok := resolveObject(env, target)
	if !ok {
		return &napihost.JSTypeError{Message: "napi_wrap: target is not an object"}
	}

	w.mu.Lock()
	if _, exists := w.entries[obj]; exists {
		w.mu.Unlock()
		return napihost.ErrAlreadyWrapped
	}
	w.mu.Unlock()

	ref := env.CreateReference(target, 0, func() {
		w.mu.Lock()
		delete(w.entries, obj)
		w.mu.Unlock()
		if finalize != nil {
			finalize()
		}
	}, true)

	w.mu.Lock()
	w.entries[obj] = &wrapEntry{native: native, ref: ref}
	w.mu.Unlock()
	return nil
}

// Unwrap returns the native value wrapped to target, leaving the
// association intact. Returns napihost.ErrNotWrapped if target is not
// wrapped.
func (w *WrapRegistry) Unwrap(env *napihost.Environment, target napihost.Value) (any, error) {
	obj, ok := resolveObject(env, target)
	if !ok {
		return nil, napihost.ErrNotWrapped
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[obj]
	if !ok {
		return nil, napihost.ErrNotWrapped
	}
	return e.native, nil
}

// remover is the minimal interface wrap.go needs from a *refs.Reference,
// kept narrow so this file doesn't need to import internal/refs for typing.
type remover interface {
	DeleteWithoutFinalizer() error
}

// RemoveWrap detaches the wrap association and returns the native value,
// guaranteeing the bound finalizer never runs — spec.md §4.4's explicit
// carve-out distinguishing napi_remove_wrap from a reference delete.
func (w *WrapRegistry) RemoveWrap(env *napihost.Environment, target napihost.Value) (any, error) {
	obj, ok := resolveObject(env, target)
	if !ok {
		return nil, napihost.ErrNotWrapped
	}
	w.mu.Lock()
	e, ok := w.entries[obj]
	if ok {
		delete(w.entries, obj)
	}
	w.mu.Unlock()
	if !ok {
		return nil, napihost.ErrNotWrapped
	}
	if r, ok := e.ref.(remover); ok {
		_ = r.DeleteWithoutFinalizer()
	}
	return e.native, nil
}
