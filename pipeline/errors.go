// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"io"
)

// ErrPipeline wraps an error returned by a Map stage's function and an
// xmap stage that fails to start. An unrecognized stage is reported with
// ErrInvalidStage instead, and a worker failure from a running xmap stage
// reaches the consumer as xmap.ErrWorkerFailure without ErrPipeline.
var ErrPipeline = errors.New("pipeline: error")

// ErrInvalidStage indicates a Stage value that doesn't satisfy its own
// invariant (e.g. both or neither of MapRecord/MapReader set).
var ErrInvalidStage = errors.New("pipeline: invalid stage")

// errEOF is the sentinel every stage in this package returns once its
// upstream Reader is exhausted. It is io.EOF itself; the alias exists so
// stage files read clearly without importing io everywhere.
var errEOF = io.EOF

func isEOF(err error) bool { return errors.Is(err, io.EOF) }
