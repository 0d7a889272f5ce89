package abi

import (
	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
)

// ValueOps covers value creation, type inspection, and coercion — the
// largest single-purpose slice of the NAPI v8 surface (get_value_*,
// create_*, typeof, coerce_to_*, strict/loose equals).
type ValueOps struct {
	env *napihost.Environment
}

func newValueOps(env *napihost.Environment) *ValueOps { return &ValueOps{env: env} }

// GetUndefined returns the reserved undefined singleton (Testable Property 4).
func (o *ValueOps) GetUndefined() (napihost.Value, napihost.Status) {
	return napihost.ValueUndefined, o.env.Succeed()
}

// GetNull returns the reserved null singleton.
func (o *ValueOps) GetNull() (napihost.Value, napihost.Status) {
	return napihost.ValueNull, o.env.Succeed()
}

// GetGlobal returns the reserved global-object singleton.
func (o *ValueOps) GetGlobal() (napihost.Value, napihost.Status) {
	return napihost.ValueGlobal, o.env.Succeed()
}

// GetBoolean returns the reserved true/false singleton for b.
func (o *ValueOps) GetBoolean(b bool) (napihost.Value, napihost.Status) {
	if b {
		return napihost.ValueTrue, o.env.Succeed()
	}
	return napihost.ValueFalse, o.env.Succeed()
}

// CreateInt32 stores a number value in the currently open scope.
func (o *ValueOps) CreateInt32(n int32) (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().ToValue(n))
}

// CreateUint32 stores a number value in the currently open scope.
func (o *ValueOps) CreateUint32(n uint32) (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().ToValue(n))
}

// CreateInt64 stores a number value in the currently open scope.
func (o *ValueOps) CreateInt64(n int64) (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().ToValue(n))
}

// CreateDouble stores a number value in the currently open scope.
func (o *ValueOps) CreateDouble(f float64) (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().ToValue(f))
}

// CreateStringUTF8 stores a UTF-8 string, satisfying Testable Property 10's
// round-trip requirement (Go strings are already UTF-8, so no conversion is
// lossy in either direction).
func (o *ValueOps) CreateStringUTF8(s string) (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().ToValue(s))
}

func (o *ValueOps) resolveGoja(v napihost.Value) (goja.Value, bool) {
	raw, ok := o.env.Resolve(v)
	if !ok {
		return nil, false
	}
	gv, ok := raw.(goja.Value)
	return gv, ok
}

// GetValueStringUTF8 implements napi_get_value_string_utf8's truncate/query
// contract: bufCap < 0 means "report total length only"; otherwise copy up
// to bufCap bytes of the UTF-8 encoding. total is always the full length in
// bytes. Lengths count bytes, not characters, so truncation can split a
// multi-byte character.
func (o *ValueOps) GetValueStringUTF8(v napihost.Value, bufCap int) (s string, total int, status napihost.Status) {
	gv, ok := o.resolveGoja(v)
	if !ok {
		return "", 0, o.env.Fail(napihost.StatusStringExpected, "value is not a string")
	}
	full := gv.String()
	total = len(full)
	if bufCap < 0 {
		return "", total, o.env.Succeed()
	}
	if bufCap >= total {
		return full, total, o.env.Succeed()
	}
	return full[:bufCap], total, o.env.Succeed()
}

// GetValueInt32 extracts a number value, failing with number_expected per
// spec.md's argument-shape error taxonomy (E1's "add("hi","lo")" scenario).
func (o *ValueOps) GetValueInt32(v napihost.Value) (int32, napihost.Status) {
	gv, ok := o.resolveGoja(v)
	if !ok || !isNumberValue(gv) {
		return 0, o.env.Fail(napihost.StatusNumberExpected, "value is not a number")
	}
	return int32(gv.ToInteger()), o.env.Succeed()
}

// GetValueDouble extracts a number value.
func (o *ValueOps) GetValueDouble(v napihost.Value) (float64, napihost.Status) {
	gv, ok := o.resolveGoja(v)
	if !ok || !isNumberValue(gv) {
		return 0, o.env.Fail(napihost.StatusNumberExpected, "value is not a number")
	}
	return gv.ToFloat(), o.env.Succeed()
}

// GetValueBool extracts a boolean value.
func (o *ValueOps) GetValueBool(v napihost.Value) (bool, napihost.Status) {
	gv, ok := o.resolveGoja(v)
	if !ok || gv.ExportType() == nil || gv.ExportType().Kind().String() != "bool" {
		return false, o.env.Fail(napihost.StatusBooleanExpected, "value is not a boolean")
	}
	return gv.ToBoolean(), o.env.Succeed()
}

func isNumberValue(v goja.Value) bool {
	if v == nil {
		return false
	}
	switch v.ExportType().Kind().String() {
	case "int64", "float64", "int", "int32", "uint32", "uint64":
		return true
	default:
		return false
	}
}

// TypeOf implements napi_typeof (spec.md §3's ValueType enumeration).
func (o *ValueOps) TypeOf(v napihost.Value) (napihost.ValueType, napihost.Status) {
	if v == napihost.ValueUndefined {
		return napihost.TypeUndefined, o.env.Succeed()
	}
	if v == napihost.ValueNull {
		return napihost.TypeNull, o.env.Succeed()
	}
	gv, ok := o.resolveGoja(v)
	if !ok {
		return napihost.TypeUndefined, o.env.Fail(napihost.StatusInvalidArg, "handle is not live")
	}
	switch gv.(type) {
	case *goja.Object:
		if _, callable := goja.AssertFunction(gv); callable {
			return napihost.TypeFunction, o.env.Succeed()
		}
		return napihost.TypeObject, o.env.Succeed()
	}
	if goja.IsUndefined(gv) {
		return napihost.TypeUndefined, o.env.Succeed()
	}
	if goja.IsNull(gv) {
		return napihost.TypeNull, o.env.Succeed()
	}
	if isNumberValue(gv) {
		return napihost.TypeNumber, o.env.Succeed()
	}
	switch gv.ExportType().Kind().String() {
	case "bool":
		return napihost.TypeBoolean, o.env.Succeed()
	case "string":
		return napihost.TypeString, o.env.Succeed()
	}
	return napihost.TypeObject, o.env.Succeed()
}

// StrictEquals implements napi_strict_equals.
func (o *ValueOps) StrictEquals(a, b napihost.Value) (bool, napihost.Status) {
	av, aok := o.resolveGoja(a)
	bv, bok := o.resolveGoja(b)
	if !aok || !bok {
		return false, o.env.Fail(napihost.StatusInvalidArg, "handle is not live")
	}
	return av.StrictEquals(bv), o.env.Succeed()
}

// CoerceToString implements napi_coerce_to_string.
func (o *ValueOps) CoerceToString(v napihost.Value) (napihost.Value, napihost.Status) {
	gv, ok := o.resolveGoja(v)
	if !ok {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusInvalidArg, "handle is not live")
	}
	return o.env.NewValue(o.env.Runtime().ToValue(gv.String()))
}
