// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"io"
	"testing"
)

func sliceSource(samples []Sample) Factory {
	return func() Reader {
		i := 0
		return ReaderFunc(func() (Sample, error) {
			if i >= len(samples) {
				return nil, io.EOF
			}
			s := samples[i]
			i++
			return s, nil
		})
	}
}

func drain(t *testing.T, rd Reader) []Sample {
	t.Helper()
	var out []Sample
	for {
		s, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out
			}
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, s)
	}
}

func intSamples(n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{[]byte{byte(i)}, i}
	}
	return out
}

// Batching ten samples into fixed-size 3s with dropPartial keeps only
// the three full batches and drops the trailing run of one.
func TestBatchDropPartial(t *testing.T) {
	src := sliceSource(intSamples(10))
	p := New(src, false)
	p.Batch(3, true)
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(out))
	}
	for _, s := range out {
		b, ok := s[0].(Batch)
		if !ok || len(b) != 3 {
			t.Fatalf("expected a 3-sample batch, got %#v", s[0])
		}
	}
}

// Without dropPartial, the trailing short batch is kept.
func TestBatchKeepPartial(t *testing.T) {
	src := sliceSource(intSamples(10))
	p := New(src, false)
	p.Batch(3, false)
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != 4 {
		t.Fatalf("expected 4 batches, got %d", len(out))
	}
	last := out[3][0].(Batch)
	if len(last) != 1 {
		t.Fatalf("expected trailing batch of 1, got %d", len(last))
	}
}

// batch(3).map(identity over the unwrapped batch) round-trips every
// sample in order: batch/map composition preserves element identity
// and order within a batch.
func TestBatchThenMapIdentity(t *testing.T) {
	src := sliceSource(intSamples(9))
	p := New(src, false)
	p.Batch(3, true)
	p.Map(func(s Sample) (Sample, error) {
		b := s[0].(Batch)
		cp := make(Batch, len(b))
		copy(cp, b)
		return Sample{cp}, nil
	})
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(out))
	}
	want := 0
	for _, s := range out {
		for _, rec := range s[0].(Batch) {
			if rec[1].(int) != want {
				t.Fatalf("out of order: want %d got %d", want, rec[1])
			}
			want++
		}
	}
}

// A shuffle stage with window == len(input) must be a permutation: the
// same multiset of samples comes out, in some order.
func TestShuffleIsPermutation(t *testing.T) {
	const n = 50
	src := sliceSource(intSamples(n))
	p := New(src, false)
	p.Shuffle(n)
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != n {
		t.Fatalf("expected %d samples, got %d", n, len(out))
	}
	seen := make([]bool, n)
	for _, s := range out {
		id := s[1].(int)
		if seen[id] {
			t.Fatalf("sample %d yielded twice", id)
		}
		seen[id] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("sample %d missing from shuffled output", i)
		}
	}
}

// Filter keeps only samples matching the predicate, in order.
func TestFilter(t *testing.T) {
	src := sliceSource(intSamples(10))
	p := New(src, false)
	p.Filter(func(s Sample) bool { return s[1].(int)%2 == 0 })
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != 5 {
		t.Fatalf("expected 5 even samples, got %d", len(out))
	}
	for i, s := range out {
		if s[1].(int) != i*2 {
			t.Fatalf("expected %d, got %d", i*2, s[1])
		}
	}
}

// Reset().Transform() is idempotent: calling it again with a new source
// yields an independent, freshly compiled pipeline over that source.
func TestResetIsIdempotent(t *testing.T) {
	p := New(sliceSource(intSamples(3)), false)
	p.Map(func(s Sample) (Sample, error) { return s, nil })
	rd1, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out1 := drain(t, rd1())
	if len(out1) != 3 {
		t.Fatalf("expected 3, got %d", len(out1))
	}

	p.Reset(sliceSource(intSamples(5)))
	rd2, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out2 := drain(t, rd2())
	if len(out2) != 5 {
		t.Fatalf("expected 5 after reset, got %d", len(out2))
	}
}

// A Map that returns an error surfaces through Reader wrapped in
// ErrPipeline rather than panicking the consumer.
func TestMapErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	src := sliceSource(intSamples(3))
	p := New(src, false)
	p.Map(func(Sample) (Sample, error) { return nil, boom })
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rd().Next()
	if err == nil || !errors.Is(err, ErrPipeline) {
		t.Fatalf("expected ErrPipeline, got %v", err)
	}
}

// Buffered doesn't drop or reorder samples.
func TestBufferedPreservesOrder(t *testing.T) {
	src := sliceSource(intSamples(20))
	p := New(src, false)
	p.Buffered(4)
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, rd())
	if len(out) != 20 {
		t.Fatalf("expected 20, got %d", len(out))
	}
	for i, s := range out {
		if s[1].(int) != i {
			t.Fatalf("out of order at %d: got %d", i, s[1])
		}
	}
}

// Cache replays the same samples on a second pass without touching
// upstream again.
func TestCacheReplaysWithoutUpstream(t *testing.T) {
	calls := 0
	src := func() Reader {
		i := 0
		return ReaderFunc(func() (Sample, error) {
			if i >= 5 {
				return nil, io.EOF
			}
			calls++
			s := Sample{[]byte{byte(i)}, i}
			i++
			return s, nil
		})
	}
	p := New(src, false)
	p.Cache()
	rd, err := p.Reader(false)
	if err != nil {
		t.Fatal(err)
	}
	first := drain(t, rd())
	if len(first) != 5 {
		t.Fatalf("expected 5, got %d", len(first))
	}
	if calls != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", calls)
	}
	second := drain(t, rd())
	if len(second) != 5 {
		t.Fatalf("expected 5 from cache, got %d", len(second))
	}
	if calls != 5 {
		t.Fatalf("cache replay touched upstream again: %d calls", calls)
	}
}
