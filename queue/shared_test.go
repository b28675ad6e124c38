// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"context"
	"errors"
	"testing"

	"code.hybscloud.com/datareader/arena"
)

type meta struct {
	ID    int
	Label string
}

func TestSharedQueuePutGetRoundTrip(t *testing.T) {
	a := arena.New(arena.WithCapacity(1<<20), arena.WithPageSize(4096))
	q := NewShared[meta](ModeSPSC, 8, a)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Put(ctx, []byte("payload"), meta{ID: i, Label: "x"}, nil); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 5; i++ {
		el, err := q.Get(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		if el.IsControl {
			t.Fatal("expected a data element")
		}
		if el.Meta.ID != i || el.Meta.Label != "x" {
			t.Fatalf("unexpected meta: %+v", el.Meta)
		}
		if string(el.Payload) != "payload" {
			t.Fatalf("unexpected payload: %q", el.Payload)
		}
	}
}

func TestSharedQueueControlElement(t *testing.T) {
	a := arena.New(arena.WithCapacity(1<<20), arena.WithPageSize(4096))
	q := NewShared[meta](ModeSPSC, 4, a)
	ctx := context.Background()

	if err := q.PutControl(ctx, meta{ID: 99}); err != nil {
		t.Fatal(err)
	}
	el, err := q.Get(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !el.IsControl || el.Meta.ID != 99 {
		t.Fatalf("expected control element with ID 99, got %+v", el)
	}
}

func TestSharedQueueMetadataTooLarge(t *testing.T) {
	a := arena.New(arena.WithCapacity(1<<20), arena.WithPageSize(4096))
	q := NewShared[meta](ModeSPSC, 4, a)
	big := meta{Label: string(make([]byte, MaxMetadataBytes*2))}
	if err := q.Put(context.Background(), []byte("x"), big, nil); !errors.Is(err, ErrMetadataTooLarge) {
		t.Fatalf("expected ErrMetadataTooLarge, got %v", err)
	}
}

// With returnBuffer true, the caller owns the buffer and must free it;
// with returnBuffer false, Get frees it internally and returns a copy.
func TestSharedQueueGetReturnsLiveBufferOnRequest(t *testing.T) {
	a := arena.New(arena.WithCapacity(1<<20), arena.WithPageSize(4096))
	q := NewShared[meta](ModeSPSC, 4, a)
	ctx := context.Background()

	if err := q.Put(ctx, []byte("hello"), meta{ID: 1}, nil); err != nil {
		t.Fatal(err)
	}
	el, err := q.Get(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if el.Buffer == nil {
		t.Fatal("expected a live buffer")
	}
	got, err := el.Buffer.Get(0, el.Buffer.Size())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	a.Free(*el.Buffer)
}

func TestSharedQueueCapReportsUnderlyingCapacity(t *testing.T) {
	a := arena.New(arena.WithCapacity(1<<20), arena.WithPageSize(4096))
	q := NewShared[meta](ModeMPMC, 16, a)
	if q.Cap() <= 0 {
		t.Fatalf("expected a positive capacity, got %d", q.Cap())
	}
}
