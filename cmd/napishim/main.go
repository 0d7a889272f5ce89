// Command napishim is the native-facing half of spec.md §4.1's Symbol Shim:
// a C-ABI shared library exporting the napi_* symbol family, each forwarding
// into the runtime's installed *abi.Table. This file is the only cgo
// boundary in the module — every other package is pure Go and never sees a
// C type.
//
// Grounded on other_examples' v8go context.go: a Go value (here, an
// *napihost.Environment) is registered behind a runtime/cgo.Handle, and the
// C-visible opaque handle is that handle's uintptr representation, resolved
// back to the Go value with cgo.Handle(h).Value().(*napihost.Environment) on
// every call — the same technique v8go uses for its Context/Isolate/Value
// self-handles, generalized here from "one object per handle" to "one
// environment per handle, with napi_value itself already a flat uint64
// handle.ID that round-trips through a C.uintptr_t with no registration
// needed".
package main

/*
#include <stddef.h>
#include <stdint.h>

typedef uintptr_t napi_env;
typedef uint64_t   napi_value;
typedef int32_t    napi_status;
*/
import "C"

import (
	"context"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/abi"
	"github.com/napi-go/napihost/config"
	"github.com/napi-go/napihost/internal/handles"
	"github.com/napi-go/napihost/logging"
)

// processContext is the single process-wide Context every exported symbol
// dispatches through — spec.md §4.3's "process-wide registry of
// environments keyed by integer environment ID".
var processContext = napihost.NewContext(config.Default(), logging.Nop())

// tables caches one *abi.Table per environment id, built once at
// napi_create_environment time. abi.DefaultTable must not be rebuilt on
// every call: ClassOps holds a WrapRegistry whose state (the wrap side
// table) has to persist across calls on the same environment.
var (
	tablesMu sync.Mutex
	tables   = map[uint32]*abi.Table{}
)

func envOf(h C.napi_env) (*napihost.Environment, *abi.Table) {
	if h == 0 {
		return nil, nil
	}
	env, ok := cgo.Handle(h).Value().(*napihost.Environment)
	if !ok || env == nil {
		return nil, nil
	}
	tablesMu.Lock()
	t, ok := tables[env.ID()]
	tablesMu.Unlock()
	if !ok {
		return env, nil
	}
	return env, t
}

func toNapiValue(v napihost.Value) C.napi_value { return C.napi_value(v) }
func fromNapiValue(v C.napi_value) napihost.Value { return napihost.Value(v) }
func toStatus(s napihost.Status) C.napi_status   { return C.napi_status(s) }

// napi_create_environment is not part of the real NAPI surface; it exists
// so a test harness (or cmd/napihostctl) can stand up an environment and
// obtain the napi_env handle a real loader would otherwise produce by
// dlopen'ing an add-on and calling its registration entry point.
//
//export napi_create_environment
func napi_create_environment() C.napi_env {
	env := processContext.CreateEnvironment()
	tablesMu.Lock()
	tables[env.ID()] = abi.DefaultTable(env)
	tablesMu.Unlock()
	return C.napi_env(cgo.NewHandle(env))
}

// napi_destroy_environment tears down and unregisters the environment
// behind h, the mirror image of napi_create_environment above.
//
//export napi_destroy_environment
func napi_destroy_environment(h C.napi_env) C.napi_status {
	env, _ := envOf(h)
	if env == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	cgo.Handle(h).Delete()
	tablesMu.Lock()
	delete(tables, env.ID())
	tablesMu.Unlock()
	if err := processContext.Destroy(context.Background(), env.ID()); err != nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	return toStatus(napihost.StatusOK)
}

//export napi_get_undefined
func napi_get_undefined(h C.napi_env, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.GetUndefined()
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_get_null
func napi_get_null(h C.napi_env, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.GetNull()
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_get_global
func napi_get_global(h C.napi_env, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.GetGlobal()
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_get_boolean
func napi_get_boolean(h C.napi_env, value C.int, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.GetBoolean(value != 0)
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_create_int32
func napi_create_int32(h C.napi_env, value C.int32_t, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.CreateInt32(int32(value))
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_create_double
func napi_create_double(h C.napi_env, value C.double, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Value.CreateDouble(float64(value))
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_create_string_utf8
func napi_create_string_utf8(h C.napi_env, str *C.char, length C.size_t, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	s := C.GoStringN(str, C.int(length))
	v, status := t.Value.CreateStringUTF8(s)
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_get_value_int32
func napi_get_value_int32(h C.napi_env, value C.napi_value, result *C.int32_t) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	n, status := t.Value.GetValueInt32(fromNapiValue(value))
	*result = C.int32_t(n)
	return toStatus(status)
}

//export napi_get_value_double
func napi_get_value_double(h C.napi_env, value C.napi_value, result *C.double) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	f, status := t.Value.GetValueDouble(fromNapiValue(value))
	*result = C.double(f)
	return toStatus(status)
}

//export napi_typeof
func napi_typeof(h C.napi_env, value C.napi_value, result *C.int32_t) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Value == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	vt, status := t.Value.TypeOf(fromNapiValue(value))
	*result = C.int32_t(vt)
	return toStatus(status)
}

//export napi_create_object
func napi_create_object(h C.napi_env, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Object == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Object.CreateObject()
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_set_property
func napi_set_property(h C.napi_env, object C.napi_value, key *C.char, value C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Object == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	status := t.Object.SetProperty(fromNapiValue(object), C.GoString(key), fromNapiValue(value))
	return toStatus(status)
}

//export napi_get_property
func napi_get_property(h C.napi_env, object C.napi_value, key *C.char, result *C.napi_value) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Object == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	v, status := t.Object.GetProperty(fromNapiValue(object), C.GoString(key))
	*result = toNapiValue(v)
	return toStatus(status)
}

//export napi_open_handle_scope
func napi_open_handle_scope(h C.napi_env, result *unsafe.Pointer) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Scope == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	sc, status := t.Scope.OpenHandleScope()
	*result = unsafe.Pointer(cgo.NewHandle(sc))
	return toStatus(status)
}

//export napi_close_handle_scope
func napi_close_handle_scope(h C.napi_env, scope unsafe.Pointer) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Scope == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	handle := cgo.Handle(uintptr(scope))
	sc, ok := handle.Value().(*handles.Scope)
	if !ok {
		return toStatus(napihost.StatusInvalidArg)
	}
	status := t.Scope.CloseHandleScope(sc)
	handle.Delete()
	return toStatus(status)
}

//export napi_throw_type_error
func napi_throw_type_error(h C.napi_env, code *C.char, msg *C.char) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil || t.Error == nil {
		return toStatus(napihost.StatusGenericFailure)
	}
	status := t.Error.ThrowTypeError(cStrOrEmpty(code), C.GoString(msg))
	return toStatus(status)
}

//export napi_is_exception_pending
func napi_is_exception_pending(h C.napi_env, result *C.int) C.napi_status {
	env, t := envOf(h)
	if env == nil || t == nil {
		*result = 0
		return toStatus(napihost.StatusGenericFailure)
	}
	if t.Error == nil {
		*result = 0
		return toStatus(napihost.StatusOK)
	}
	if t.Error.IsExceptionPending() {
		*result = 1
	} else {
		*result = 0
	}
	return toStatus(napihost.StatusOK)
}

//export napi_fatal_error
func napi_fatal_error(location *C.char, locationLen C.size_t, message *C.char, messageLen C.size_t) {
	// No environment handle per real NAPI signature, so there is nothing to
	// dispatch to. This symbol reads location and message and discards them:
	// it logs nothing and never aborts. The per-environment
	// abi.ErrorOps.FatalError method, which logs and honors
	// Config.FatalErrorAborts, is not called from here.
	_ = C.GoStringN(location, C.int(locationLen))
	_ = C.GoStringN(message, C.int(messageLen))
}

func cStrOrEmpty(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}
