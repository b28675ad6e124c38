// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "code.hybscloud.com/datareader/xmap"

// Kind tags a Stage's variant, replacing the original's runtime dispatch
// over (op_name, param-dict) tuples with a closed sum plus a monomorphic
// interpreter (see compile.go).
type Kind int

const (
	KindShuffle Kind = iota
	KindBatch
	KindMap
	KindFilter
	KindBuffered
	KindCache
	KindXmap
)

// MapRecordFunc maps one sample to one sample. Returning an error aborts
// the pipeline with that error wrapped in ErrPipeline.
type MapRecordFunc func(Sample) (Sample, error)

// MapReaderFunc maps an entire reader Factory to another — the stage
// hook user recipe code uses to splice in a whole sub-pipeline (e.g.
// operator.Compile's accelerated-plan mapper) rather than a per-record
// function.
type MapReaderFunc func(Factory) Factory

// FilterFunc reports whether a sample should be kept.
type FilterFunc func(Sample) bool

// Stage is a tagged variant over the supported transformation kinds.
// Exactly one of the kind-specific fields is meaningful for a given
// Kind; Pipeline's builder methods are the only supported way to
// construct one.
type Stage struct {
	Kind Kind

	// Shuffle
	Window int

	// Batch
	BatchSize   int
	DropPartial bool

	// Map — exactly one of these is set
	MapRecord MapRecordFunc
	MapReader MapReaderFunc

	// Filter
	Predicate FilterFunc

	// Buffered
	BufferSize int

	// Xmap
	XmapConfig xmap.Config[Sample]
}
