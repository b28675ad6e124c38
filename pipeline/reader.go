// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

// Reader is a pull-based, single-pass sample iterator. Next returns
// io.EOF once exhausted — the Go analogue of the original's Python
// generator.
type Reader interface {
	Next() (Sample, error)
}

// ReaderFunc adapts a plain function to Reader.
type ReaderFunc func() (Sample, error)

// Next implements Reader.
func (f ReaderFunc) Next() (Sample, error) { return f() }

// Factory produces a fresh Reader on every call — the Go analogue of the
// original's "iterator maker", a callable that returns a new generator
// each time it's invoked. Stages are built as functions from Factory to
// Factory; Pipeline.Reader compiles the full stage chain into one.
type Factory func() Reader

// Batch is the sample type yielded by the batch stage: a fixed-size (or,
// for the final partial batch, shorter) run of samples.
type Batch []Sample
