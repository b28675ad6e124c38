// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is an FAA-based multi-producer single-consumer bounded queue.
//
// Producers claim a position with Fetch-And-Add (SCQ-style), requiring 2n
// physical slots for capacity n; the single consumer needs no atomic
// position claim of its own.
//
// This backs the xmap out-queue: every worker goroutine publishes its
// results and end sentinel into it, and the driver is the sole consumer
// draining it.
type MPSC[T any] struct {
	_        pad
	head     atomix.Uint64 // next position the sole consumer will read
	_        pad
	tail     atomix.Uint64 // next position a producer will claim
	_        pad
	draining atomix.Bool // set once no further enqueues will be attempted
	_        pad
	buffer   []mpscSlot[T]
	capacity uint64 // n, the usable capacity
	size     uint64 // 2n, the physical slot count
	mask     uint64 // 2n - 1
}

type mpscSlot[T any] struct {
	cycle atomix.Uint64 // round this slot was last written in
	data  T
	_     padShort
}

// NewMPSC creates a new FAA-based MPSC queue.
// capacity rounds up to the next power of 2.
func NewMPSC[T any](capacity int) *MPSC[T] {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	physical := n * 2

	q := &MPSC[T]{
		buffer:   make([]mpscSlot[T], physical),
		capacity: n,
		size:     physical,
		mask:     physical - 1,
	}

	for i := uint64(0); i < physical; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return q
}

// Drain signals that no more enqueues will occur.
// It is a hint for graceful shutdown: the caller is responsible for ensuring
// no further enqueues are attempted once Drain has been called.
func (q *MPSC[T]) Drain() {
	q.draining.StoreRelease(true)
}

// Enqueue adds an element to the queue (safe for multiple producers).
// Returns ErrWouldBlock if the queue is full.
func (q *MPSC[T]) Enqueue(elem *T) error {
	backoff := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		claimed := q.tail.AddAcqRel(1) - 1

		slot := &q.buffer[claimed&q.mask]
		wantCycle := claimed / q.capacity

		haveCycle := slot.cycle.LoadAcquire()

		if haveCycle == wantCycle {
			slot.data = *elem
			slot.cycle.StoreRelease(wantCycle + 1)
			return nil
		}

		if int64(haveCycle) < int64(wantCycle) {
			return ErrWouldBlock
		}
		backoff.Once()
	}
}

// Dequeue removes and returns an element (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	haveCycle := slot.cycle.LoadAcquire()

	if haveCycle != cycle+1 {
		var zero T
		return zero, ErrWouldBlock
	}

	elem := slot.data
	var zero T
	slot.data = zero
	nextCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextCycle)
	q.head.StoreRelaxed(head + 1)

	return elem, nil
}

// Cap returns the queue capacity.
func (q *MPSC[T]) Cap() int {
	return int(q.capacity)
}
