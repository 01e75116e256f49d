package dispatch

import (
	"fmt"
	"sync"

	"github.com/pfrederiksen/playback-monitor/internal/logger"
)

// Task is one unit of listener work.
type Task func()

// Queue is an unbounded single-consumer FIFO. Enqueue never blocks; tasks run
// in enqueue order on the queue's own goroutine.
//
// The queue is backed by a plain slice. Expected depth is small (a handful of
// transition events per snapshot), so the occasional copy on growth is cheaper
// than a linked structure.
type Queue struct {
	mu     sync.Mutex
	wake   *sync.Cond
	tasks  []Task
	closed bool
	done   chan struct{}
}

// NewQueue creates a queue and starts its consumer goroutine.
func NewQueue() *Queue {
	q := &Queue{
		done: make(chan struct{}),
	}
	q.wake = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Enqueue appends a task for the consumer. It reports false if the queue has
// been closed, in which case the task is discarded.
func (q *Queue) Enqueue(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, t)
	q.wake.Signal()
	return true
}

// Close stops the queue. Tasks already enqueued still run in order before the
// consumer exits; new tasks are rejected immediately. Close does not wait for
// the drain; use Done to observe completion.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.wake.Signal()
	q.mu.Unlock()
}

// Done returns a channel that is closed once the consumer has drained any
// remaining tasks after Close and exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.wake.Wait()
		}
		if len(q.tasks) == 0 {
			// Closed and drained.
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.execute(t)
	}
}

// execute runs one task, containing any panic to this task alone.
func (q *Queue) execute(t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("listener task panicked", logger.Fields{
				"panic": fmt.Sprint(r),
			}, nil)
			logger.IncrCounter("dispatch.panics")
		}
	}()

	t()
	logger.IncrCounter("dispatch.delivered")
}
