package napihost

import "github.com/napi-go/napihost/internal/handles"

// Value is the Go-facing napi_value: an opaque handle ID into one
// Environment's handle store. Per spec.md §9's "Opaque napi_value identity"
// design note, callers outside this module should treat it as a newtype
// around an integer, never reach through it to handle-store internals.
type Value handles.ID

// Reserved singleton values, stable across every Environment (spec.md §6,
// Testable Property 4).
const (
	ValueUndefined   Value = Value(handles.IDUndefined)
	ValueNull        Value = Value(handles.IDNull)
	ValueFalse       Value = Value(handles.IDFalse)
	ValueTrue        Value = Value(handles.IDTrue)
	ValueGlobal      Value = Value(handles.IDGlobal)
	ValueEmptyString Value = Value(handles.IDEmptyString)
)

func (v Value) id() handles.ID { return handles.ID(v) }

func valueOf(id handles.ID) Value { return Value(id) }
