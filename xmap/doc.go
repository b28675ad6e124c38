// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package xmap implements the concurrent worker pool ("Xmap" in the
// pipeline's vocabulary) that applies a user mapper to a stream of
// samples across N workers with bounded in-flight, optional order
// preservation, graceful shutdown and fault propagation.
//
// Three modes select how the driver↔worker queues are built. In every
// mode the in-queue is MPMC: the driver feeds it, and each worker both
// dequeues from it and re-enqueues the end sentinel it observed. The
// out-queue is MPSC: every worker publishes into it and the driver is
// its single consumer.
//
//   - InProcessThreads and SubprocessThreads run workers as goroutines
//     exchanging elements by value over the package's own lock-free
//     MPMC/MPSC queues (see package queue) — every hop is a copy, the
//     same cost an OS pipe would impose between separate processes.
//     Go has no fork-inherit, so "subprocess" here still means
//     goroutines; SubprocessThreads exists as a distinct Mode because a
//     real deployment on a platform with process-level isolation would
//     swap the goroutine pool for os/exec workers without touching the
//     driver/worker protocol above it.
//   - SubprocessSharedMemory routes the large payload through an
//     arena.Arena and queue.SharedQueue instead of copying it through
//     the generic queue, for types whose Config supplies SplitPayload
//     and JoinPayload.
package xmap
