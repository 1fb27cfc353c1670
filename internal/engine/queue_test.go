package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_EnqueueDequeue(t *testing.T) {
	q := newTaskQueue()

	ran := false
	ok := q.Enqueue(func() { ran = true })
	require.True(t, ok, "enqueue should succeed")

	task, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	task()
	assert.True(t, ran)
}

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		q.Enqueue(func() { order = append(order, i) })
	}

	for {
		task, ok := q.TryDequeue()
		if !ok {
			break
		}
		task()
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTaskQueue_TryDequeue_Empty(t *testing.T) {
	q := newTaskQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestTaskQueue_SignalCoalesces(t *testing.T) {
	q := newTaskQueue()

	// Many enqueues produce at most one pending signal.
	for i := 0; i < 10; i++ {
		q.Enqueue(func() {})
	}

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected a signal after enqueue")
	}

	select {
	case <-q.Wait():
		t.Fatal("signal should have been coalesced")
	default:
	}

	assert.Equal(t, 10, q.Len(), "coalescing signals must not lose tasks")
}

func TestTaskQueue_EnqueueAfterClose(t *testing.T) {
	q := newTaskQueue()
	q.Close()

	ok := q.Enqueue(func() {})
	assert.False(t, ok, "enqueue after close should fail")
}

func TestTaskQueue_CloseWakesWaiters(t *testing.T) {
	q := newTaskQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}

func TestTaskQueue_CloseIdempotent(t *testing.T) {
	q := newTaskQueue()
	q.Close()
	q.Close() // must not panic
}

func TestTaskQueue_Closed(t *testing.T) {
	q := newTaskQueue()
	assert.False(t, q.Closed())

	q.Close()
	assert.True(t, q.Closed())
}

func TestTaskQueue_ConcurrentEnqueue(t *testing.T) {
	q := newTaskQueue()

	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(func() {})
		}()
	}
	wg.Wait()

	assert.Equal(t, n, q.Len())
}
