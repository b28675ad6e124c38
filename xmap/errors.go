// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xmap

import "errors"

// ErrWorkerFailure wraps a worker mapper's diagnostic text. Run's
// consumer observes exactly one WorkerFailure even if multiple workers
// failed concurrently — the first error sentinel the driver sees wins.
var ErrWorkerFailure = errors.New("xmap: worker failure")

// ErrOrdering indicates the order-preserving side-map grew past
// Config.BufferSize: a worker produced an id far enough ahead of the
// oldest still-outstanding id that the map can no longer be trusted to
// bound memory.
var ErrOrdering = errors.New("xmap: ordering side-map exceeded buffer size")

// ErrInvalidConfig indicates a Config that Run can never satisfy, such
// as WorkerCount <= 0.
var ErrInvalidConfig = errors.New("xmap: invalid config")
