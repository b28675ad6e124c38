// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/datareader/xmap"
)

// Pipeline facilitates chaining the transformations applied to a source
// Factory. Stages execute in declaration order; Reader compiles the
// chain into a single Factory on first call and memoizes it, exactly
// like the original's `self._transformed`.
type Pipeline struct {
	source      Factory
	threadsafe  bool
	stages      []Stage
	transformed Factory
	once        sync.Once
	log         *logrus.Entry
}

// New creates a Pipeline over source. threadsafe wraps the compiled
// reader so concurrent callers may share one Factory's Readers safely —
// the original's SafeIter.
func New(source Factory, threadsafe bool) *Pipeline {
	p := &Pipeline{threadsafe: threadsafe, log: logrus.WithField("component", "pipeline")}
	p.Reset(source)
	return p
}

// Reset restores the pipeline to its initial, stage-less state, again
// over source when non-nil — Pipeline.reset(reader).transform(r) behaves
// as a fresh pipeline over r.
func (p *Pipeline) Reset(source Factory) *Pipeline {
	if source != nil {
		p.source = source
	}
	p.stages = nil
	p.transformed = nil
	p.once = sync.Once{}
	return p
}

// Shuffle prefetches into a window-sized buffer and yields permuted
// samples from it. size == 0 is a no-op; size < 0 shuffles the entire
// stream (an unbounded window).
func (p *Pipeline) Shuffle(window int) *Pipeline {
	if window == 0 {
		return p
	}
	p.stages = append(p.stages, Stage{Kind: KindShuffle, Window: window})
	return p
}

// Batch accumulates size samples per yielded Batch; dropPartial discards
// a shorter trailing batch at end-of-stream.
func (p *Pipeline) Batch(size int, dropPartial bool) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindBatch, BatchSize: size, DropPartial: dropPartial})
	return p
}

// Map applies fn to every record.
func (p *Pipeline) Map(fn MapRecordFunc) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindMap, MapRecord: fn})
	return p
}

// MapReader applies fn to the whole reader Factory rather than one
// record at a time.
func (p *Pipeline) MapReader(fn MapReaderFunc) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindMap, MapReader: fn})
	return p
}

// Filter drops samples for which pred reports false.
func (p *Pipeline) Filter(pred FilterFunc) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindFilter, Predicate: pred})
	return p
}

// Buffered spins a prefetch goroutine that keeps up to size items ready.
func (p *Pipeline) Buffered(size int) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindBuffered, BufferSize: size})
	return p
}

// Cache records every item into memory on the first pass and replays
// from memory on subsequent passes, never re-executing upstream.
func (p *Pipeline) Cache() *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindCache})
	return p
}

// Xmap applies cfg.Mapper concurrently across cfg.WorkerCount workers.
func (p *Pipeline) Xmap(cfg xmap.Config[Sample]) *Pipeline {
	p.stages = append(p.stages, Stage{Kind: KindXmap, XmapConfig: cfg})
	return p
}

// Transform compiles source through every stage, returning the composed
// Factory. infinite wraps the result to loop indefinitely. A top-level
// guard logs any non-EOF error that escapes the chain (the error value
// only; no stack trace is recorded) before returning it unchanged, so the
// consumer always observes the failure.
func (p *Pipeline) Transform(source Factory, infinite bool) (Factory, error) {
	rd := source
	for _, st := range p.stages {
		next, err := compileStage(st, rd)
		if err != nil {
			return nil, err
		}
		rd = next
	}

	guarded := func() Reader {
		return &guardReader{inner: rd(), infinite: infinite, next: rd, log: p.log}
	}
	if p.threadsafe {
		return func() Reader { return &safeReader{inner: guarded()} }, nil
	}
	return guarded, nil
}

// Reader returns the memoized compiled Factory, building it from the
// Pipeline's source on first call.
func (p *Pipeline) Reader(infinite bool) (Factory, error) {
	var err error
	p.once.Do(func() {
		p.transformed, err = p.Transform(p.source, infinite)
	})
	if err != nil {
		return nil, err
	}
	return p.transformed, nil
}

// String renders a human-readable description of the stage chain, in
// the spirit of the original's __str__.
func (p *Pipeline) String() string {
	if len(p.stages) == 0 {
		return "Pipeline: empty"
	}
	s := "Pipeline:"
	for i, st := range p.stages {
		s += fmt.Sprintf("\n  {id:%d, kind:%v}", i, st.Kind)
	}
	return s
}

type guardReader struct {
	inner    Reader
	infinite bool
	next     Factory
	log      *logrus.Entry
	done     bool
}

func (g *guardReader) Next() (Sample, error) {
	for {
		if g.done {
			return nil, errEOF
		}
		s, err := g.inner.Next()
		if err == nil {
			return s, nil
		}
		if !isEOF(err) {
			g.log.WithError(err).Warn("exception in preprocessing pipeline")
			g.done = true
			return nil, err
		}
		if !g.infinite {
			g.done = true
			return nil, err
		}
		g.inner = g.next()
	}
}

type safeReader struct {
	mu    sync.Mutex
	inner Reader
}

func (s *safeReader) Next() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Next()
}
