// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMC is an FAA-based single-producer multi-consumer bounded queue.
//
// Consumers claim a position with Fetch-And-Add (SCQ-style), requiring 2n
// physical slots for capacity n; the single producer needs no atomic
// position claim of its own.
//
// Build selects it for a builder marked SingleProducer only, which is
// what NewShared's ModeSPMC asks for.
type SPMC[T any] struct {
	_         pad
	head      atomix.Uint64 // next position a consumer will claim
	_         pad
	tail      atomix.Uint64 // next position the sole producer will write
	_         pad
	threshold atomix.Int64 // livelock guard for consumers
	_         pad
	buffer    []spmcSlot[T]
	capacity  uint64 // n, the usable capacity
	size      uint64 // 2n, the physical slot count
	mask      uint64 // 2n - 1
}

type spmcSlot[T any] struct {
	cycle atomix.Uint64 // round this slot was last written in
	data  T
	_     padShort
}

// NewSPMC creates a new FAA-based SPMC queue.
// capacity rounds up to the next power of 2.
func NewSPMC[T any](capacity int) *SPMC[T] {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	physical := n * 2

	q := &SPMC[T]{
		buffer:   make([]spmcSlot[T], physical),
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

// Enqueue adds an element to the queue (single producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPMC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	head := q.head.LoadAcquire()

	if tail >= head+q.capacity {
		return ErrWouldBlock
	}

	cycle := tail / q.capacity
	slot := &q.buffer[tail&q.mask]

	haveCycle := slot.cycle.LoadAcquire()

	if haveCycle != cycle {
		return ErrWouldBlock
	}

	slot.data = *elem
	slot.cycle.StoreRelease(cycle + 1)
	q.tail.StoreRelaxed(tail + 1)

	q.threshold.StoreRelaxed(3*int64(q.capacity) - 1)

	return nil
}

// Dequeue removes and returns an element (safe for multiple consumers).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPMC[T]) Dequeue() (T, error) {
	if q.threshold.LoadRelaxed() < 0 {
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

			tail := q.tail.LoadRelaxed()
			if tail <= claimed+1 {
				q.repairTail(tail, claimed+1)
				q.threshold.AddAcqRel(-1)
				var zero T
				return zero, ErrWouldBlock
			}
			if q.threshold.AddAcqRel(-1) <= 0 {
				var zero T
				return zero, ErrWouldBlock
			}
		}
		backoff.Once()
	}
}

func (q *SPMC[T]) repairTail(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

// Cap returns the queue capacity.
func (q *SPMC[T]) Cap() int {
	return int(q.capacity)
}
