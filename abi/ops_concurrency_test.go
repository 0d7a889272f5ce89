package abi

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/concurrency"
)

func TestConcurrencyOpsTSFNFourProducerThreads(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	var mu sync.Mutex
	received := 0

	tsfn, status := tbl.Concurrency.CreateThreadsafeFunction(0, 1,
		napihost.ValueUndefined,
		func(env *napihost.Environment, callable napihost.Value, data any) {
			mu.Lock()
			received++
			mu.Unlock()
		},
		nil,
	)
	require.Equal(t, napihost.StatusOK, status)

	const producers = 4
	const perProducer = 20
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = tbl.Concurrency.CallThreadsafeFunction(tsfn, nil, concurrency.CallNonBlocking)
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := received
		mu.Unlock()
		if n == producers*perProducer {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d/%d calls delivered", n, producers*perProducer)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConcurrencyOpsReleaseWithoutAcquireFails(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	tsfn, _ := tbl.Concurrency.CreateThreadsafeFunction(0, 0, napihost.ValueUndefined,
		func(env *napihost.Environment, callable napihost.Value, data any) {}, nil)

	status := tbl.Concurrency.ReleaseThreadsafeFunction(tsfn, concurrency.ReleaseModeDrain)
	assert.Equal(t, napihost.StatusInvalidArg, status)
}

func TestConcurrencyOpsCallAfterClosingFails(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	tsfn, _ := tbl.Concurrency.CreateThreadsafeFunction(0, 1, napihost.ValueUndefined,
		func(env *napihost.Environment, callable napihost.Value, data any) {}, nil)

	require.Equal(t, napihost.StatusOK, tbl.Concurrency.ReleaseThreadsafeFunction(tsfn, concurrency.ReleaseModeAbort))

	status := tbl.Concurrency.CallThreadsafeFunction(tsfn, nil, concurrency.CallNonBlocking)
	assert.Equal(t, napihost.StatusClosing, status)
}

func TestConcurrencyOpsAsyncWorkCompletesAndCancelBeforeStartSucceeds(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	done := make(chan concurrency.WorkStatus, 1)
	w, status := tbl.Concurrency.CreateAsyncWork(
		func() {},
		func(s concurrency.WorkStatus) { done <- s },
	)
	require.Equal(t, napihost.StatusOK, status)

	status = tbl.Concurrency.QueueAsyncWork(w)
	require.Equal(t, napihost.StatusOK, status)

	select {
	case s := <-done:
		assert.Equal(t, concurrency.WorkOK, s)
	case <-time.After(2 * time.Second):
		t.Fatal("async work never completed")
	}

	w2, _ := tbl.Concurrency.CreateAsyncWork(func() {}, func(s concurrency.WorkStatus) {})
	status = tbl.Concurrency.CancelAsyncWork(w2)
	assert.Equal(t, napihost.StatusOK, status)
}

func TestConcurrencyOpsCreateThreadsafeFunctionRejectsNilCallback(t *testing.T) {
	env := newTestEnv()
	t.Cleanup(func() { closeTestEnv(env) })
	tbl := DefaultTable(env)

	_, status := tbl.Concurrency.CreateThreadsafeFunction(0, 1, napihost.ValueUndefined, nil, nil)
	assert.Equal(t, napihost.StatusGenericFailure, status)
}
