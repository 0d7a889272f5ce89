package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/callback"
)

func TestClassOpsDefineClassAndConstruct(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	ctor := func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		argv, _, this, _ := callback.GetCbInfo(info, 1)
		_ = tbl.Object.SetProperty(this, "_value", argv[0])
		return napihost.ValueUndefined
	}
	getValue := func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		v, _ := tbl.Object.GetProperty(info.This, "_value")
		return v
	}

	def := callback.ClassDefinition{
		Name:        "Counter",
		Constructor: ctor,
		Properties: []callback.PropertyDescriptor{
			{Name: "value", Kind: callback.PropertyAccessor, Getter: getValue},
		},
	}

	classVal, status := tbl.Class.DefineClass(def)
	require.Equal(t, napihost.StatusOK, status)

	start, _ := tbl.Value.CreateDouble(41)
	instance, err := callback.Construct(env, classVal, []napihost.Value{start})
	require.NoError(t, err)

	got, _ := tbl.Object.GetProperty(instance, "value")
	f, _ := tbl.Value.GetValueDouble(got)
	assert.Equal(t, 41.0, f)
}

func TestClassOpsGetNewTargetDuringConstructIsConstructor(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	var classVal napihost.Value
	var eq bool
	var eqStatus napihost.Status
	ctor := func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		// info.NewTarget is only valid inside the callback's own scope, so the
		// comparison happens here rather than after Construct returns.
		eq, eqStatus = tbl.Value.StrictEquals(info.NewTarget, classVal)
		return napihost.ValueUndefined
	}

	classVal, status := tbl.Class.DefineClass(callback.ClassDefinition{Name: "Thing", Constructor: ctor})
	require.Equal(t, napihost.StatusOK, status)

	_, err := callback.Construct(env, classVal, nil)
	require.NoError(t, err)

	// napi_get_new_target must resolve to the constructor itself, not the
	// freshly constructed instance (spec.md §4.5).
	require.Equal(t, napihost.StatusOK, eqStatus)
	assert.True(t, eq)
}

func TestClassOpsDefineClassRejectsNilConstructor(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	_, status := tbl.Class.DefineClass(callback.ClassDefinition{Name: "Broken"})
	assert.Equal(t, napihost.StatusGenericFailure, status)
}

func TestClassOpsGetNewTargetOutsideConstructCallIsNull(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	info := &callback.CallbackInfo{IsConstructCall: false}
	v, status := tbl.Class.GetNewTarget(info)
	require.Equal(t, napihost.StatusOK, status)
	assert.Equal(t, napihost.ValueNull, v)
}

func TestClassOpsWrapUnwrapRoundTrip(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	obj, _ := tbl.Object.CreateObject()
	native := &struct{ N int }{N: 7}

	finalized := false
	status := tbl.Class.Wrap(obj, native, func() { finalized = true })
	require.Equal(t, napihost.StatusOK, status)

	got, status := tbl.Class.Unwrap(obj)
	require.Equal(t, napihost.StatusOK, status)
	assert.Same(t, native, got)

	removed, status := tbl.Class.RemoveWrap(obj)
	require.Equal(t, napihost.StatusOK, status)
	assert.Same(t, native, removed)
	assert.False(t, finalized, "remove_wrap must not run the finalizer")

	_, status = tbl.Class.Unwrap(obj)
	assert.Equal(t, napihost.StatusInvalidArg, status)
}
