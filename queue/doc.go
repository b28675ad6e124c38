// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides bounded FIFO queue implementations, plus a
// blocking [SharedQueue] built on top of them for passing
// arena-backed buffers between producer and consumer goroutines.
//
// The lock-free core offers four variants optimized for different
// producer/consumer patterns:
//
//   - SPSC: Single-Producer Single-Consumer
//   - MPSC: Multi-Producer Single-Consumer
//   - SPMC: Single-Producer Multi-Consumer
//   - MPMC: Multi-Producer Multi-Consumer
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := queue.NewSPSC[Event](1024)
//	q := queue.NewMPMC[Job](4096)
//
// Builder API auto-selects algorithm based on constraints:
//
//	q := queue.Build[Event](queue.New(1024).SingleProducer().SingleConsumer())  // → SPSC
//	q := queue.Build[Event](queue.New(1024).SingleConsumer())                   // → MPSC
//	q := queue.Build[Event](queue.New(1024).SingleProducer())                   // → SPMC
//	q := queue.Build[Event](queue.New(1024))                                    // → MPMC
//
// # Basic Usage
//
// All queues share the same interface for enqueueing and dequeueing:
//
//	q := queue.NewMPMC[int](1024)
//
//	value := 42
//	err := q.Enqueue(&value)
//	if queue.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure
//	}
//
//	elem, err := q.Dequeue()
//	if queue.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// # Common Patterns
//
// Pipeline stage (SPSC):
//
//	q := queue.NewSPSC[Data](1024)
//
//	go func() { // Producer
//	    backoff := iox.Backoff{}
//	    for data := range input {
//	        for q.Enqueue(&data) != nil {
//	            backoff.Wait()
//	        }
//	        backoff.Reset()
//	    }
//	}()
//
//	go func() { // Consumer
//	    backoff := iox.Backoff{}
//	    for {
//	        data, err := q.Dequeue()
//	        if err != nil {
//	            backoff.Wait()
//	            continue
//	        }
//	        backoff.Reset()
//	        process(data)
//	    }
//	}()
//
// Worker fan-out (SPMC), for a single dispatcher handing tasks to worker
// goroutines:
//
//	q := queue.NewSPMC[Task](1024)
//
//	go func() { // dispatcher
//	    backoff := iox.Backoff{}
//	    for task := range tasks {
//	        for q.Enqueue(&task) != nil {
//	            backoff.Wait()
//	        }
//	        backoff.Reset()
//	    }
//	}()
//
//	for range numWorkers {
//	    go func() {
//	        for {
//	            task, err := q.Dequeue()
//	            if err == nil {
//	                task.Execute()
//	            }
//	        }
//	    }()
//	}
//
// # The blocking SharedQueue
//
// [SharedQueue] wraps one of the four lock-free cores with an
// [code.hybscloud.com/iox.Backoff]-driven retry loop, turning the
// non-blocking Enqueue/Dequeue pair above into the blocking Put/Get
// contract callers actually want at a pipeline boundary:
//
//	sq := queue.NewShared[Meta](queue.ModeSPSC, 1024, arena)
//	err := sq.Put(ctx, payload, meta, nil)  // blocks until space is available
//	elem, err := sq.Get(ctx, true)          // blocks until data is available
//
// # Algorithm Selection
//
// MPMC, SPMC and MPSC use FAA (Fetch-And-Add) based algorithms with 2n
// physical slots for capacity n; SPSC is a Lamport ring buffer with n
// slots and needs no FAA. FAA scales better under contention than
// CAS-based alternatives at the cost of the extra slots.
//
//	Build[T](b) → Queue[T]    // auto-selected by producer/consumer constraints
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when operations cannot proceed. This error
// is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !queue.IsWouldBlock(err) {
//	        return err // Unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// # Capacity and Length
//
// Capacity rounds up to the next power of 2:
//
//	q := queue.NewMPMC[int](3)     // Actual capacity: 4
//	q := queue.NewMPMC[int](1000)  // Actual capacity: 1024
//
// Minimum capacity is 2. Panics if capacity < 2.
//
// Length is intentionally not provided because accurate counts in lock-free
// algorithms require expensive cross-core synchronization.
//
// # Thread Safety
//
// All queue operations are thread-safe within their access pattern constraints:
//
//   - SPSC: one producer goroutine, one consumer goroutine
//   - MPSC: multiple producer goroutines, one consumer goroutine
//   - SPMC: one producer goroutine, multiple consumer goroutines
//   - MPMC: multiple producer and consumer goroutines
//
// Violating these constraints causes undefined behavior including data
// corruption and races.
//
// # Graceful Shutdown
//
// The multi-consumer queues (MPMC, SPMC) include a threshold mechanism to
// prevent livelock. This mechanism may cause Dequeue to return [ErrWouldBlock]
// even when items remain, waiting for producer activity to reset the threshold.
//
// For graceful shutdown scenarios where producers have finished but consumers
// need to drain remaining items, use the [Drainer] interface (implemented by
// MPMC and MPSC):
//
//	prodWg.Wait()
//	if d, ok := q.(queue.Drainer); ok {
//	    d.Drain()
//	}
//
// After Drain is called, Dequeue skips threshold checks, allowing consumers
// to fully drain the queue. Drain is a hint — the caller must ensure no
// further Enqueue calls will be made.
//
// SPSC and SPMC queues do not implement [Drainer]; an SPMC consumer's
// threshold is reset only by a further Enqueue.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established through atomic memory orderings alone. Tests that run these
// queues concurrently can check [RaceEnabled] and skip under the race
// detector.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and the
// blocking backoff wrapper, [code.hybscloud.com/atomix] for atomic
// primitives with explicit memory ordering, and [code.hybscloud.com/spin]
// for CPU pause instructions.
package queue
