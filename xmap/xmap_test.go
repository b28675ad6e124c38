// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xmap

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
)

func splitInt(v int) (payload []byte, aux []byte) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b, nil
}

func joinInt(payload []byte, _ []byte) int {
	return int(binary.BigEndian.Uint64(payload))
}

type sliceSource struct {
	mu     sync.Mutex
	values []int
	i      int
}

func (s *sliceSource) Next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.values) {
		return 0, io.EOF
	}
	v := s.values[s.i]
	s.i++
	return v, nil
}

func drainAll(r Reader[int]) (out []int, err error) {
	for {
		v, e := r.Next()
		if e != nil {
			return out, e
		}
		out = append(out, v)
	}
}

func double(v int) (int, error) { return v * 2, nil }

// Scenario B: ordered parallelism preserves input order under concurrency.
func TestRunPreservesOrderWhenRequested(t *testing.T) {
	values := make([]int, 10)
	for i := range values {
		values[i] = i
	}
	src := &sliceSource{values: values}
	cfg := Config[int]{Mapper: double, WorkerCount: 2, BufferSize: 8, PreserveOrder: true}

	r, err := Run[int](context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := drainAll(r)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	want := make([]int, 10)
	for i := range want {
		want[i] = i * 2
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order not preserved at %d: got %v, want %v", i, got, want)
		}
	}
}

// Scenario C: unordered output is a permutation of the mapped input, with
// every element produced exactly once.
func TestRunUnorderedIsCompletePermutation(t *testing.T) {
	const n = 1000
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	src := &sliceSource{values: values}
	cfg := Config[int]{Mapper: double, WorkerCount: 8, BufferSize: 64, PreserveOrder: false}

	r, err := Run[int](context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := drainAll(r)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d results, got %d", n, len(got))
	}
	sort.Ints(got)
	for i := range got {
		if got[i] != i*2 {
			t.Fatalf("not a permutation of [0,2,...]: got[%d]=%d", i, got[i])
		}
	}
}

// Scenario F: a mapper failure surfaces as exactly one WorkerFailure after
// every result produced before the failing id.
func TestRunWorkerFailurePropagatesAfterPriorResults(t *testing.T) {
	values := make([]int, 200)
	for i := range values {
		values[i] = i
	}
	src := &sliceSource{values: values}
	failAt := func(v int) (int, error) {
		if v == 50 {
			return 0, fmt.Errorf("boom at %d", v)
		}
		return v, nil
	}
	cfg := Config[int]{Mapper: failAt, WorkerCount: 4, BufferSize: 64, PreserveOrder: true}

	r, err := Run[int](context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := drainAll(r)
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("expected ErrWorkerFailure, got %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected exactly 50 results before the failure, got %d: %v", len(got), got)
	}
	for i := 0; i < 50; i++ {
		if got[i] != i {
			t.Fatalf("expected ordered results [0..49], got %v", got)
		}
	}
}

// Scenario C driven end to end over SubprocessSharedMemory: payloads cross
// the driver/worker boundary through an arena.Arena instead of by value.
func TestSharedMemoryRunUnorderedIsCompletePermutation(t *testing.T) {
	const n = 1000
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	src := &sliceSource{values: values}
	cfg := Config[int]{
		Mapper:        double,
		WorkerCount:   8,
		BufferSize:    64,
		Mode:          SubprocessSharedMemory,
		SplitPayload:  splitInt,
		JoinPayload:   joinInt,
		PreserveOrder: false,
	}

	r, err := Run[int](context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := drainAll(r)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d results, got %d", n, len(got))
	}
	sort.Ints(got)
	for i := range got {
		if got[i] != i*2 {
			t.Fatalf("not a permutation of [0,2,...]: got[%d]=%d", i, got[i])
		}
	}
}

// Scenario F driven end to end over SubprocessSharedMemory: a worker fault
// must still surface after every result produced before the failing id,
// rather than hang the driver's drain loop forever.
func TestSharedMemoryRunWorkerFailurePropagatesAfterPriorResults(t *testing.T) {
	values := make([]int, 200)
	for i := range values {
		values[i] = i
	}
	src := &sliceSource{values: values}
	failAt := func(v int) (int, error) {
		if v == 50 {
			return 0, fmt.Errorf("boom at %d", v)
		}
		return v, nil
	}
	cfg := Config[int]{
		Mapper:        failAt,
		WorkerCount:   4,
		BufferSize:    64,
		Mode:          SubprocessSharedMemory,
		SplitPayload:  splitInt,
		JoinPayload:   joinInt,
		PreserveOrder: true,
	}

	r, err := Run[int](context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := drainAll(r)
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("expected ErrWorkerFailure, got %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected exactly 50 results before the failure, got %d: %v", len(got), got)
	}
	for i := 0; i < 50; i++ {
		if got[i] != i {
			t.Fatalf("expected ordered results [0..49], got %v", got)
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	src := &sliceSource{values: []int{1}}
	if _, err := Run[int](context.Background(), src, Config[int]{Mapper: double, WorkerCount: 0, BufferSize: 4}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for WorkerCount 0, got %v", err)
	}
	if _, err := Run[int](context.Background(), src, Config[int]{Mapper: double, WorkerCount: 1, BufferSize: 0}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for BufferSize 0, got %v", err)
	}
	if _, err := Run[int](context.Background(), src, Config[int]{Mapper: double, WorkerCount: 1, BufferSize: 4, PreFeed: 5}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for PreFeed > BufferSize, got %v", err)
	}
}
