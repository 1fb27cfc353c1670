package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
)

// ErrClosed is returned when work is submitted after the dispatcher closed.
var ErrClosed = errors.New("dispatcher closed")

// Dispatcher is the single-writer event loop for the feedback engine.
//
// All detector firings and session mutations execute as tasks on this loop,
// so there is no parallel mutation of shared state anywhere in the engine.
// Firing order across independent signal sources is whatever order their
// tasks arrive in - nondeterministic by design, serialized by the loop.
//
// Thread-safety model:
//   - Enqueue()/Call(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// A panic inside a task is recovered and logged; one misbehaving detector
// must never disable the others or the hosting page.
type Dispatcher struct {
	queue  *taskQueue
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:  newTaskQueue(),
		logger: logger,
	}
}

// Enqueue submits a task for execution on the loop. Safe from any goroutine,
// including loop tasks themselves (the task runs after the current one).
// Returns ErrClosed after Close.
func (d *Dispatcher) Enqueue(task func()) error {
	if !d.queue.Enqueue(task) {
		return ErrClosed
	}
	return nil
}

// Call submits a task and waits for it to finish, making loop-internal state
// observable to synchronous callers.
//
// Must NOT be called from a task already running on the loop: the loop
// cannot make progress while Call waits, so it would deadlock. Loop tasks
// invoke engine internals directly instead.
func (d *Dispatcher) Call(task func()) error {
	done := make(chan struct{})
	err := d.Enqueue(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Run processes tasks until the context is cancelled or the queue is closed
// and drained. Must be called from exactly one goroutine.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("dispatcher starting")

	for {
		task, ok := d.queue.TryDequeue()
		if ok {
			d.runTask(task)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Debug("dispatcher stopping: context cancelled")
			d.queue.Close()
			d.drain()
			return ctx.Err()

		case <-d.queue.Wait():
			// Signal received - loop back to TryDequeue. The token is
			// coalesced and can outlive the task that produced it (the
			// fast path above may have consumed the task already), so an
			// empty queue here does not mean closed. The signal channel
			// closes when the queue closes, so a closed drained queue
			// always reaches this branch.
			if d.queue.Closed() && d.queue.Len() == 0 {
				d.logger.Debug("dispatcher stopping: queue closed")
				return nil
			}
		}
	}
}

// Close stops accepting tasks and causes Run to return once the queue is
// drained.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// drain runs remaining tasks after shutdown began. Call()ers blocked on a
// pending task would otherwise wait forever.
func (d *Dispatcher) drain() {
	for {
		task, ok := d.queue.TryDequeue()
		if !ok {
			return
		}
		d.runTask(task)
	}
}

func (d *Dispatcher) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher: task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
