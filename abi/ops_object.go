package abi

import (
	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
)

// ObjectOps covers plain-object/array creation and property access
// (create_object, create_array, get/set/has_property, get_property_names).
type ObjectOps struct {
	env *napihost.Environment
}

func newObjectOps(env *napihost.Environment) *ObjectOps { return &ObjectOps{env: env} }

// CreateObject implements napi_create_object.
func (o *ObjectOps) CreateObject() (napihost.Value, napihost.Status) {
	return o.env.NewValue(o.env.Runtime().NewObject())
}

// CreateArrayWithLength implements napi_create_array_with_length.
func (o *ObjectOps) CreateArrayWithLength(length int) (napihost.Value, napihost.Status) {
	arr := o.env.Runtime().NewArray(make([]any, length)...)
	return o.env.NewValue(arr)
}

func (o *ObjectOps) resolveObject(v napihost.Value) (*goja.Object, bool) {
	raw, ok := o.env.Resolve(v)
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

// SetProperty implements napi_set_property.
func (o *ObjectOps) SetProperty(target napihost.Value, key string, value napihost.Value) napihost.Status {
	obj, ok := o.resolveObject(target)
	if !ok {
		return o.env.Fail(napihost.StatusObjectExpected, "target is not an object")
	}
	raw, ok := o.env.Resolve(value)
	if !ok {
		return o.env.Fail(napihost.StatusInvalidArg, "value handle is not live")
	}
	if err := obj.Set(key, raw); err != nil {
		return o.env.Fail(napihost.StatusGenericFailure, err.Error())
	}
	return o.env.Succeed()
}

// GetProperty implements napi_get_property.
func (o *ObjectOps) GetProperty(target napihost.Value, key string) (napihost.Value, napihost.Status) {
	obj, ok := o.resolveObject(target)
	if !ok {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusObjectExpected, "target is not an object")
	}
	return o.env.NewValue(obj.Get(key))
}

// HasProperty implements napi_has_property.
func (o *ObjectOps) HasProperty(target napihost.Value, key string) (bool, napihost.Status) {
	obj, ok := o.resolveObject(target)
	if !ok {
		return false, o.env.Fail(napihost.StatusObjectExpected, "target is not an object")
	}
	return obj.Get(key) != nil, o.env.Succeed()
}

// DeleteProperty implements napi_delete_property.
func (o *ObjectOps) DeleteProperty(target napihost.Value, key string) (bool, napihost.Status) {
	obj, ok := o.resolveObject(target)
	if !ok {
		return false, o.env.Fail(napihost.StatusObjectExpected, "target is not an object")
	}
	ok2 := obj.Delete(key)
	return ok2, o.env.Succeed()
}

// GetPropertyNames implements napi_get_property_names. No empty-array
// fallback for a missing table or slot exists for it: cmd/napishim does not
// export this symbol, and this method always has a table.
func (o *ObjectOps) GetPropertyNames(target napihost.Value) (napihost.Value, napihost.Status) {
	obj, ok := o.resolveObject(target)
	if !ok {
		return napihost.ValueUndefined, o.env.Fail(napihost.StatusObjectExpected, "target is not an object")
	}
	keys := obj.Keys()
	names := make([]any, len(keys))
	for i, k := range keys {
		names[i] = k
	}
	return o.env.NewValue(o.env.Runtime().NewArray(names...))
}
