// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is an FAA-based multi-producer multi-consumer bounded queue.
//
// Based on the SCQ (Scalable Circular Queue) algorithm by Nikolaev (DISC 2019).
// Fetch-And-Add blindly claims a position counter for every producer and
// consumer, trading 2n physical slots for capacity n against the CAS retry
// storms a naive ring buffer suffers under contention.
//
// Every slot carries the round ("cycle") it was last written in, so a
// consumer racing ahead of a producer (or vice versa) can tell a stale slot
// from a ready one without a second pass over the buffer.
//
// This is the core both xmap engines use for their in-queues: the driver
// feeds samples and end sentinels, every worker re-enqueues the sentinel
// it observed so its siblings see it too, and many workers dequeue.
type MPMC[T any] struct {
	_         pad
	tail      atomix.Uint64 // next position a producer will claim
	_         pad
	head      atomix.Uint64 // next position a consumer will claim
	_         pad
	threshold atomix.Int64 // livelock guard for Dequeue
	_         pad
	draining  atomix.Bool // set once producers have stopped; skips the threshold guard
	_         pad
	buffer    []mpmcSlot[T]
	capacity  uint64 // n, the usable capacity
	size      uint64 // 2n, the physical slot count
	mask      uint64 // 2n - 1
}

type mpmcSlot[T any] struct {
	cycle atomix.Uint64 // round this slot was last written in
	data  T
	_     padShort
}

// NewMPMC creates a new FAA-based MPMC queue.
// capacity rounds up to the next power of 2; the queue allocates 2n
// physical slots for the resulting n.
func NewMPMC[T any](capacity int) *MPMC[T] {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	physical := n * 2

	q := &MPMC[T]{
		buffer:   make([]mpmcSlot[T], physical),
		capacity: n,
		size:     physical,
		mask:     physical - 1,
	}

	q.threshold.StoreRelaxed(3*int64(n) - 1)

	for i := uint64(0); i < physical; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *MPMC[T]) Enqueue(elem *T) error {
	backoff := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
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
			q.threshold.StoreRelaxed(3*int64(q.capacity) - 1)
			return nil
		}

		if int64(haveCycle) < int64(wantCycle) {
			return ErrWouldBlock
		}

		backoff.Once()
	}
}

// Drain signals that no more enqueues will occur.
// After Drain is called, Dequeue skips the threshold check so the last
// consumers can pull whatever remains without waiting on producer pressure
// that will never arrive.
func (q *MPMC[T]) Drain() {
	q.draining.StoreRelease(true)
}

// Dequeue removes and returns an element from the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPMC[T]) Dequeue() (T, error) {
	if !q.draining.LoadAcquire() && q.threshold.LoadRelaxed() < 0 {
		var zero T
		return zero, ErrWouldBlock
	}

	backoff := spin.Wait{}
	for {
		claimed := q.head.AddAcqRel(1) - 1

		slot := &q.buffer[claimed&q.mask]
		wantCycle := claimed/q.capacity + 1
		haveCycle := slot.cycle.LoadAcquire()

		if haveCycle == wantCycle {
			elem := slot.data
			var zero T
			slot.data = zero
			nextCycle := (claimed + q.size) / q.capacity
			slot.cycle.StoreRelease(nextCycle)
			return elem, nil
		}

		if int64(haveCycle) < int64(wantCycle) {
			// slot is stale relative to this consumer: repair it for the
			// next producer that will reach it, then decide whether the
			// queue is genuinely empty or just temporarily behind.
			nextCycle := (claimed + q.size) / q.capacity
			slot.cycle.CompareAndSwapAcqRel(haveCycle, nextCycle)

			tail := q.tail.LoadAcquire()
			if tail <= claimed+1 {
				q.repairTail(tail, claimed+1)
				q.threshold.AddAcqRel(-1)
				var zero T
				return zero, ErrWouldBlock
			}
			if q.threshold.AddAcqRel(-1) <= 0 && !q.draining.LoadAcquire() {
				var zero T
				return zero, ErrWouldBlock
			}
		}
		backoff.Once()
	}
}

func (q *MPMC[T]) repairTail(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}
