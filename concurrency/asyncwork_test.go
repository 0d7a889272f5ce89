package concurrency

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncWorkCompletesOnHostThread(t *testing.T) {
	l := NewLoop(nil)
	stop := runLoop(t, l)
	defer stop()

	var executed, completed atomic.Bool
	done := make(chan struct{})

	w := NewAsyncWork(l, func() {
		executed.Store(true)
	}, func(status WorkStatus) {
		completed.Store(true)
		assert.Equal(t, WorkOK, status)
		close(done)
	})
	w.Queue(nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async work never completed")
	}
	assert.True(t, executed.Load())
	assert.True(t, completed.Load())
}

func TestAsyncWorkCancelBeforeStart(t *testing.T) {
	l := NewLoop(nil)
	stop := runLoop(t, l)
	defer stop()

	executed := make(chan struct{}, 1)
	done := make(chan WorkStatus, 1)

	w := NewAsyncWork(l, func() {
		executed <- struct{}{}
	}, func(status WorkStatus) {
		done <- status
	})

	ok := w.Cancel()
	require.True(t, ok, "cancel before Queue/start must succeed")
	w.Queue(nil)

	select {
	case status := <-done:
		assert.Equal(t, WorkCancelled, status)
	case <-time.After(time.Second):
		t.Fatal("cancelled work never completed")
	}
	select {
	case <-executed:
		t.Fatal("execute must not run after a successful cancel")
	default:
	}
}

func TestAsyncWorkPoolRunsQueuedWork(t *testing.T) {
	l := NewLoop(nil)
	stop := runLoop(t, l)
	defer stop()

	pool := NewPool(2)
	defer pool.Close()

	const n = 8
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		w := NewAsyncWork(l, func() {}, func(WorkStatus) { done <- struct{}{} })
		w.Queue(pool)
	}
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d/%d pool jobs completed", i, n)
		}
	}
}
