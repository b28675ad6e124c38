// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xmap

import "time"

// Mode selects how the driver exchanges elements with its workers.
type Mode int

const (
	// InProcessThreads runs workers as goroutines exchanging elements by
	// value over an in-memory lock-free queue.
	InProcessThreads Mode = iota
	// SubprocessThreads models workers as separate processes; this
	// package implements it with goroutines exchanging elements by value
	// over the same in-memory queues as InProcessThreads, with no
	// serialization (see doc.go).
	SubprocessThreads
	// SubprocessSharedMemory avoids the pipe-copy by routing the
	// payload through an arena-backed SharedQueue. Requires Config's
	// SplitPayload/JoinPayload.
	SubprocessSharedMemory
)

func (m Mode) String() string {
	switch m {
	case InProcessThreads:
		return "in_process_threads"
	case SubprocessThreads:
		return "subprocess_threads"
	case SubprocessSharedMemory:
		return "subprocess_with_shared_memory"
	default:
		return "unknown"
	}
}

// Mapper is a pure function from sample to sample. A non-nil error is
// treated the same as a panic recovered from mapper: it is packaged as a
// WorkerFailure and propagated to the driver.
type Mapper[S any] func(S) (S, error)

// Config configures a Run call.
type Config[S any] struct {
	// Mapper is applied by every worker to every data element.
	Mapper Mapper[S]
	// WorkerCount is the number of concurrent workers. Must be > 0.
	WorkerCount int
	// BufferSize bounds in-flight elements on both the in- and
	// out-queue, and the size of the order-preserving side-map.
	BufferSize int
	// Mode selects the driver/worker transport (see doc.go).
	Mode Mode
	// PreFeed is the number of samples pushed to the in-queue before
	// the first output is awaited. Zero selects the default,
	// BufferSize/2+1 with integer division (an odd BufferSize rounds
	// down). Must be <= BufferSize.
	PreFeed int
	// PreserveOrder, when true, makes Run's output order match the
	// source's input order; otherwise output order is unspecified but
	// every input is produced exactly once before end-of-stream.
	PreserveOrder bool
	// SharedMemBytes and PageBytes size the arena.Arena created for
	// SubprocessSharedMemory mode. Zero selects arena.DefaultCapacity /
	// arena.DefaultPageSize.
	SharedMemBytes int
	PageBytes      int
	// SplitPayload/JoinPayload are required for SubprocessSharedMemory:
	// SplitPayload extracts the large transferable payload and an
	// opaque encoding of everything else; JoinPayload reconstructs S
	// from both on the receiving side.
	SplitPayload func(S) (payload []byte, aux []byte)
	JoinPayload  func(payload []byte, aux []byte) S
	// JoinTimeout bounds how long Close waits for workers to exit after
	// it cancels the engine's context. Zero selects 3 seconds, matching the
	// pipeline-wide cancellation default.
	JoinTimeout time.Duration
}

func (c Config[S]) preFeed() int {
	if c.PreFeed > 0 {
		return c.PreFeed
	}
	return c.BufferSize/2 + 1
}
