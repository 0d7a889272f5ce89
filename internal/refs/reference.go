// Package refs implements the strong/weak reference and finalizer engine
// described by spec.md §4.4: a reference pins a value independent of scope
// lifetime, crossing strong↔weak as its refcount crosses zero, and a bound
// finalizer runs exactly once when the target becomes unreachable.
//
// Node's real engine discovers "unreachable" via the V8 garbage collector's
// own weak-callback machinery. Goja (and this host generally) has no
// equivalent external reachability signal to hook into, so this package
// approximates it the way spec.md §1 says such gaps should be handled:
// "approximated by the closest native primitive... documented, not hidden".
// The approximation: a weak reference's target is considered collected the
// moment nothing in the reference/handle bookkeeping still holds it alive —
// in practice, the instant its refcount drops to zero with no surviving
// scope or strong reference, rather than waiting on an actual GC pass. This
// makes finalizer timing deterministic, which is also what makes it
// testable (see DESIGN.md, "weak collection model").
package refs

import (
	"errors"
	"sync"

	"github.com/napi-go/napihost/internal/handles"
)

var (
	// ErrNegativeRefcount is returned by Unref when called on an already
	// weak (refcount == 0) reference.
	ErrNegativeRefcount = errors.New("refs: unref called with refcount already zero")
	// ErrDeleted is returned by any operation on an already-deleted reference.
	ErrDeleted = errors.New("refs: reference already deleted")
)

// Finalizer binds a native destructor to a reference's target.
type Finalizer struct {
	// Run invokes the native finalize callback. It is the caller's (refs
	// package's) responsibility to open/close a handle scope around Run,
	// per spec.md §4.4(b)-(d); Run itself only needs to perform the call.
	Run func()
}

// Reference is a strong or weak pin over a single handle ID.
type Reference struct {
	mgr       *Manager
	id        handles.ID
	refcount  int
	finalizer *Finalizer
	// runFinalizerOnDelete is set for wrap-originated references: spec.md
	// §4.4 calls out that explicit deletion never runs a finalizer *unless*
	// it was created to back a wrap.
	runFinalizerOnDelete bool
	deleted              bool
	finalized            bool
}

// ID returns the handle this reference targets.
func (r *Reference) ID() handles.ID { return r.id }

// RefCount returns the current refcount (0 means weak).
func (r *Reference) RefCount() int { return r.refcount }

// Ref increments the refcount, pinning the target strongly if this
// transitions 0→1. Returns the new refcount.
func (r *Reference) Ref() (int, error) {
	if r.deleted {
		return 0, ErrDeleted
	}
	r.refcount++
	if r.refcount == 1 {
		r.mgr.pin(r)
	}
	return r.refcount, nil
}

// Unref decrements the refcount, releasing the strong pin if this
// transitions 1→0. Returns the new refcount. A reference already weak
// (refcount == 0) cannot be unreffed further.
func (r *Reference) Unref() (int, error) {
	if r.deleted {
		return 0, ErrDeleted
	}
	if r.refcount == 0 {
		return 0, ErrNegativeRefcount
	}
	r.refcount--
	if r.refcount == 0 {
		r.mgr.unpin(r)
	}
	return r.refcount, nil
}

// Value returns the target's current host value, and whether it is still
// live. A strong reference is always live until deleted. A weak reference
// is live only while the handle store still holds the id — see the package
// doc comment for how "still holds" is decided.
func (r *Reference) Value() (any, bool) {
	if r.deleted || r.finalized {
		return nil, false
	}
	return r.mgr.store.Get(r.id)
}

// DeleteWithoutFinalizer removes the reference and guarantees its finalizer
// never runs, even if it was created to back a wrap. This is napi_remove_wrap's
// operation specifically: spec.md §4.4's data model calls out that removing a
// wrap "surrenders the association without running the finalizer" — stronger
// than plain Delete, which still runs a wrap finalizer.
func (r *Reference) DeleteWithoutFinalizer() error {
	if r.deleted {
		return ErrDeleted
	}
	r.mgr.remove(r)
	r.deleted = true
	r.finalized = true
	if r.refcount == 0 {
		r.mgr.store.Free(r.id)
	}
	return nil
}

// Delete removes the reference. Per spec.md §4.4, explicit deletion never
// invokes the bound finalizer unless this reference was created to back a
// wrap (napi_wrap's association record).
func (r *Reference) Delete() error {
	if r.deleted {
		return ErrDeleted
	}
	r.mgr.remove(r)
	r.deleted = true
	if r.runFinalizerOnDelete && r.finalizer != nil && !r.finalized {
		r.finalized = true
		r.mgr.runFinalizer(r)
	}
	if r.refcount == 0 {
		// nothing else is known to hold this id alive; release it.
		r.mgr.store.Free(r.id)
	}
	return nil
}

// Manager tracks every live and finalizing reference for one environment.
type Manager struct {
	mu         sync.Mutex
	store      *handles.Store
	scopes     *handles.Stack
	live       map[*Reference]struct{}
	// liveOrder records references in creation order, so TeardownAll can
	// drain them LIFO (spec.md §4.4) instead of in Go's randomized map
	// iteration order. A reference removed before teardown is left in place
	// here as a stale entry; TeardownAll skips anything no longer in live.
	liveOrder  []*Reference
	finalizing map[*Reference]struct{}
	// draining guards against re-entrant finalizer invocation: if a
	// finalizer calls back into a reference-deleting operation against the
	// list currently being drained, the call is deferred (spec.md §4.4).
	draining bool
	deferred []func()
}

// NewManager creates a reference manager bound to store and scopes.
func NewManager(store *handles.Store, scopes *handles.Stack) *Manager {
	return &Manager{
		store:      store,
		scopes:     scopes,
		live:       make(map[*Reference]struct{}),
		finalizing: make(map[*Reference]struct{}),
	}
}

// Create registers a new reference over id with the given initial refcount.
// wrapFinalizer marks this reference as wrap-originated (see Reference.Delete).
func (m *Manager) Create(id handles.ID, initialRefcount int, finalizer *Finalizer, wrapFinalizer bool) *Reference {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Reference{
		mgr:                  m,
		id:                   id,
		finalizer:            finalizer,
		runFinalizerOnDelete: wrapFinalizer,
	}
	m.live[r] = struct{}{}
	m.liveOrder = append(m.liveOrder, r)
	if initialRefcount > 0 {
		r.refcount = initialRefcount
		m.pinLocked(r)
	}
	return r
}

func (m *Manager) pin(r *Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinLocked(r)
}

func (m *Manager) pinLocked(r *Reference) {
	if sc := m.scopes.Current(); sc != nil {
		sc.Pin(r.id)
	}
}

// unpin marks a reference as weak again. In this host's approximated GC
// model (see package doc), a weak reference with no other known holder is
// immediately eligible for collection, so unref-to-zero attempts collection
// right away rather than waiting for a scavenge pass.
func (m *Manager) unpin(r *Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tryCollectLocked(r)
}

// tryCollectLocked runs the finalizer and frees the store slot if r is weak
// and nothing else is tracked as holding its target. It must be called with
// mu held.
func (m *Manager) tryCollectLocked(r *Reference) {
	if r.deleted || r.finalized || r.refcount != 0 {
		return
	}
	r.finalized = true
	delete(m.live, r)
	m.finalizing[r] = struct{}{}
	m.runFinalizerLocked(r)
	m.store.Free(r.id)
}

func (m *Manager) remove(r *Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, r)
	delete(m.finalizing, r)
}

// runFinalizer invokes r's bound finalizer (if any), deferring it if a
// drain is already in progress on this manager (re-entrancy guard per
// spec.md §4.4).
func (m *Manager) runFinalizer(r *Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runFinalizerLocked(r)
}

func (m *Manager) runFinalizerLocked(r *Reference) {
	if r.finalizer == nil {
		return
	}
	fn := r.finalizer.Run
	if m.draining {
		m.deferred = append(m.deferred, fn)
		return
	}
	call := func(f func()) {
		sc := m.scopes.Open(false)
		defer func() { _ = m.scopes.Close(sc) }()
		defer func() { _ = recover() }()
		f()
	}
	m.draining = true
	m.mu.Unlock()
	call(fn)
	m.mu.Lock()
	for len(m.deferred) > 0 {
		next := m.deferred[0]
		m.deferred = m.deferred[1:]
		m.mu.Unlock()
		call(next)
		m.mu.Lock()
	}
	m.draining = false
}

// TeardownAll runs every still-live reference's finalizer in LIFO order —
// the most recently created reference finalizes first — per spec.md §4.4's
// "on collection (or environment teardown in LIFO order)". Called once, at
// environment teardown.
func (m *Manager) TeardownAll() {
	m.mu.Lock()
	order := m.liveOrder
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		r := order[i]
		m.mu.Lock()
		if _, ok := m.live[r]; !ok || r.finalized {
			m.mu.Unlock()
			continue
		}
		r.finalized = true
		delete(m.live, r)
		m.runFinalizerLocked(r)
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.live = make(map[*Reference]struct{})
	m.liveOrder = nil
	m.finalizing = make(map[*Reference]struct{})
	m.mu.Unlock()
}

// LiveCount reports the number of references not yet deleted or finalized;
// a diagnostic, used by tests and leak logging.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
