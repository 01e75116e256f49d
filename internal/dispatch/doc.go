// Package dispatch provides the per-listener delivery channel used by the
// monitor: an unbounded, single-consumer FIFO task queue.
//
// Each registered listener owns one Queue. Producers enqueue without ever
// blocking; the queue's own goroutine executes tasks strictly in enqueue
// order. A panicking task is recovered and logged so one misbehaving listener
// cannot stop its queue or leak into the snapshot path.
package dispatch
