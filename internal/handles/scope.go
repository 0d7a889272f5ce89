package handles

import "errors"

var (
	// ErrScopeMismatch is returned when a scope is closed out of LIFO order.
	ErrScopeMismatch = errors.New("handles: handle scope closed out of order")
	// ErrNotEscapable is returned when escape is attempted on a scope that
	// was not opened as escapable.
	ErrNotEscapable = errors.New("handles: scope is not escapable")
	// ErrEscapeCalledTwice is returned on a second escape attempt.
	ErrEscapeCalledTwice = errors.New("handles: escape_handle called twice")
	// ErrForeignHandle is returned when escaping a handle this scope does
	// not own.
	ErrForeignHandle = errors.New("handles: handle not owned by this scope")
)

// Scope owns every handle ID allocated while it is the innermost open scope.
// Closing it releases those IDs back to the store, except for any that were
// escaped to the parent or that are separately pinned by a strong reference
// (references hold their own ID and are untouched by scope closure; see
// the refs package).
//
// Rather than track a [begin, end) index range (as spec.md §4.2 describes
// for the reference implementation), this keeps an explicit owned-ID list.
// A pure range breaks down the moment the store's free-list recycles an ID
// from an earlier, already-closed scope while this scope is still open —
// the recycled ID would fall inside this scope's range without belonging to
// it. An owned list costs one append per allocation and is exact regardless
// of free-list reuse order; see DESIGN.md.
type Scope struct {
	parent     *Scope
	owned      []ID
	escapable  bool
	escapeUsed bool
	// openedAt records the Stack's generation counter at the moment this
	// scope was opened, so a later Scavenge call can tell how many newer
	// scopes have opened since without needing a wall-clock.
	openedAt int
}

// Stack is the per-environment stack of open scopes.
type Stack struct {
	store      *Store
	open       []*Scope
	generation int
}

// NewStack creates a scope stack bound to store.
func NewStack(store *Store) *Stack {
	return &Stack{store: store}
}

// Depth returns the number of currently open scopes.
func (s *Stack) Depth() int { return len(s.open) }

// Current returns the innermost open scope, or nil if none is open.
func (s *Stack) Current() *Scope {
	if len(s.open) == 0 {
		return nil
	}
	return s.open[len(s.open)-1]
}

// Open pushes a new scope and returns it.
func (s *Stack) Open(escapable bool) *Scope {
	s.generation++
	sc := &Scope{parent: s.Current(), escapable: escapable, openedAt: s.generation}
	s.open = append(s.open, sc)
	return sc
}

// StaleScope is one Scavenge finding: a scope still open after maxAge newer
// scopes have come and gone around it.
type StaleScope struct {
	Depth int // position in the open stack, 0 = outermost
	Age   int // generations elapsed since this scope opened
}

// Scavenge is a leak diagnostic, not a correctness mechanism: it reports
// (without closing or freeing anything) every currently open scope whose age
// exceeds maxAge generations, mirroring eventloop/registry.go's own
// Scavenge(n) budgeted sweep for un-collected promises, applied here to
// handle scopes that a caller may have forgotten to close.
func (s *Stack) Scavenge(maxAge int) []StaleScope {
	var stale []StaleScope
	for i, sc := range s.open {
		if age := s.generation - sc.openedAt; age > maxAge {
			stale = append(stale, StaleScope{Depth: i, Age: age})
		}
	}
	return stale
}

// Track records that id was allocated while sc (expected to be Current())
// is the innermost scope, so its closure will release id. Allocations that
// happen with no open scope are the caller's responsibility — every
// value-producing ABI entry point must reject that case itself (spec.md
// §4.2's "must find a positive counter or else fail").
func (s *Stack) Track(id ID) {
	if sc := s.Current(); sc != nil {
		sc.owned = append(sc.owned, id)
	}
}

// Close pops sc, which must be the innermost open scope (LIFO), and frees
// every ID it still owns.
func (s *Stack) Close(sc *Scope) error {
	if s.Current() != sc {
		return ErrScopeMismatch
	}
	s.open = s.open[:len(s.open)-1]
	for _, id := range sc.owned {
		s.store.Free(id)
	}
	sc.owned = nil
	return nil
}

// Escape promotes id from sc into sc's parent scope. It fails if sc is not
// escapable, has already escaped a handle, or does not own id.
func (sc *Scope) Escape(id ID) error {
	if !sc.escapable {
		return ErrNotEscapable
	}
	if sc.escapeUsed {
		return ErrEscapeCalledTwice
	}
	idx := -1
	for i, owned := range sc.owned {
		if owned == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrForeignHandle
	}
	sc.owned[idx] = sc.owned[len(sc.owned)-1]
	sc.owned = sc.owned[:len(sc.owned)-1]
	sc.escapeUsed = true
	if sc.parent != nil {
		sc.parent.owned = append(sc.parent.owned, id)
	}
	return nil
}

// Pin removes id from sc's owned list without transferring ownership
// anywhere, so closing sc will not free it. Used when a strong reference is
// created over a handle that was allocated within the current scope: the
// reference now outlives the scope, per spec.md §4.2's edge case note.
func (sc *Scope) Pin(id ID) {
	for i, owned := range sc.owned {
		if owned == id {
			sc.owned[i] = sc.owned[len(sc.owned)-1]
			sc.owned = sc.owned[:len(sc.owned)-1]
			return
		}
	}
}
