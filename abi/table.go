// Package abi implements the dynamic-dispatch function-pointer table spec.md
// §4.1/§9 describes: a struct of Go-native function values standing in for
// the NAPI C function-pointer table, installed once and read thereafter.
// cmd/napishim's cgo shim is the only thing that ever calls through it from
// native code; everything in this package is pure Go, no cgo or C types.
//
// This package performs no table-absent or slot-absent dispatch of its own.
// cmd/napishim applies that fallback: an exported symbol whose environment
// has no table, or whose ops field is nil, returns StatusGenericFailure,
// except napi_is_exception_pending, which reports not-pending with
// StatusOK when only the Error slot is nil. A handful of symbols carry no
// semantics this runtime needs (the MiscOps cleanup-hook, async-context
// init/destroy, module-registration stub and event-loop getter methods);
// those always succeed.
package abi

import (
	"sync"

	"github.com/napi-go/napihost"
)

// Table is the installed dispatch surface: one field per NAPI operation
// family, grouped across the ops_*.go files in this package. A nil field is
// "slot absent" per the fallback contract above.
type Table struct {
	Value      *ValueOps
	Object     *ObjectOps
	Function   *FunctionOps
	Class      *ClassOps
	Reference  *ReferenceOps
	Scope      *ScopeOps
	Error      *ErrorOps
	Promise    *PromiseOps
	Concurrency *ConcurrencyOps
	Misc       *MiscOps
}

var (
	mu        sync.RWMutex
	installed *Table
)

// Install sets the process-wide table pointer, mirroring
// napi_python_set_functions's role (spec.md §4.1). Passing nil clears it.
// cmd/napishim does not read it: it dispatches through the per-environment
// tables that DefaultTable builds.
func Install(t *Table) {
	mu.Lock()
	installed = t
	mu.Unlock()
}

// Installed returns the currently installed table, or nil.
func Installed() *Table {
	mu.RLock()
	defer mu.RUnlock()
	return installed
}

// DefaultTable builds a fully-wired Table bound to env — the shape a
// registered add-on's environment gets in practice (one table per
// environment, which cmd/napishim caches in its own map keyed by environment
// id, rather than the single process-wide global the original source uses —
// see the dispatch deviation in DESIGN.md's abi section).
func DefaultTable(env *napihost.Environment) *Table {
	return &Table{
		Value:       newValueOps(env),
		Object:      newObjectOps(env),
		Function:    newFunctionOps(env),
		Class:       newClassOps(env),
		Reference:   newReferenceOps(env),
		Scope:       newScopeOps(env),
		Error:       newErrorOps(env),
		Promise:     newPromiseOps(env),
		Concurrency: newConcurrencyOps(env),
		Misc:        newMiscOps(env),
	}
}

// fail returns StatusGenericFailure for an entry point whose required
// callback argument is nil. Unlike Environment.Fail, it does not record
// LastError.
func fail() napihost.Status { return napihost.StatusGenericFailure }
