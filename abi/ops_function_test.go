package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/internal/callback"
)

func TestFunctionOpsCreateAndCall(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	add := func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		argv, argc, _, _ := callback.GetCbInfo(info, 2)
		require.Equal(t, 2, argc)
		a, _ := tbl.Value.GetValueDouble(argv[0])
		b, _ := tbl.Value.GetValueDouble(argv[1])
		sum, _ := tbl.Value.CreateDouble(a + b)
		return sum
	}

	fn, status := tbl.Function.CreateFunction("add", nil, add)
	require.Equal(t, napihost.StatusOK, status)

	a, _ := tbl.Value.CreateDouble(2)
	b, _ := tbl.Value.CreateDouble(3)
	res, status := tbl.Function.CallFunction(fn, napihost.ValueUndefined, []napihost.Value{a, b})
	require.Equal(t, napihost.StatusOK, status)

	f, _ := tbl.Value.GetValueDouble(res)
	assert.Equal(t, 5.0, f)
}

func TestFunctionOpsCreateFunctionRejectsNilCallback(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	_, status := tbl.Function.CreateFunction("broken", nil, nil)
	assert.Equal(t, napihost.StatusGenericFailure, status)
}

func TestFunctionOpsCallFunctionOnNonFunctionFails(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	n, _ := tbl.Value.CreateDouble(1)
	_, status := tbl.Function.CallFunction(n, napihost.ValueUndefined, nil)
	assert.Equal(t, napihost.StatusFunctionExpected, status)
}

func TestFunctionOpsCallFunctionPropagatesPendingException(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	throws := func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		tbl.Error.ThrowError("", "boom")
		return napihost.ValueUndefined
	}
	fn, _ := tbl.Function.CreateFunction("throws", nil, throws)

	_, status := tbl.Function.CallFunction(fn, napihost.ValueUndefined, nil)
	assert.Equal(t, napihost.StatusPendingException, status)

	assert.True(t, tbl.Error.IsExceptionPending())
}
