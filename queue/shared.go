// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"code.hybscloud.com/datareader/arena"
	"code.hybscloud.com/iox"
)

// MaxMetadataBytes is the compile-time cap on a single element's encoded
// metadata. Metadata larger than this is rejected with ErrMetadataTooLarge
// rather than silently truncated or spilled into a second allocation.
const MaxMetadataBytes = 2048

// ErrMetadataTooLarge is returned by Put/PutControl when the gob-encoded
// metadata for an element exceeds MaxMetadataBytes.
var ErrMetadataTooLarge = errors.New("queue: metadata exceeds MaxMetadataBytes")

// Mode selects the lock-free core backing a SharedQueue, mirroring the
// producer/consumer arity of the underlying queue type.
type Mode int

const (
	ModeSPSC Mode = iota
	ModeMPSC
	ModeSPMC
	ModeMPMC
)

// element is the value that rides through the lock-free core. Like the
// original shared-memory queue it adapts, the payload lives in arena-backed
// shared memory (element.buffer) while metadata travels alongside it as
// plain bytes — metadata never needs to survive in the arena, only the
// element carrying it.
type element struct {
	isControl bool
	hasBuffer bool
	buffer    arena.SharedBuffer
	meta      []byte
}

// Element is the result of a SharedQueue.Get call, decoded back into the
// caller's metadata type.
type Element[M any] struct {
	// IsControl reports whether this is a control element (end-of-stream
	// or error signal) rather than a data element.
	IsControl bool
	// Buffer holds the payload, present only when the caller asked Get to
	// return the live buffer. The caller owns Buffer and must Free it.
	Buffer *arena.SharedBuffer
	// Payload holds a copy of the payload when Get was asked to copy it
	// out of shared memory instead of returning Buffer.
	Payload []byte
	// Meta is the decoded metadata value.
	Meta M
}

// SharedQueue is a blocking FIFO of (payload, metadata) pairs backed by an
// arena.Arena and one of the package's lock-free cores. It adapts the
// core's non-blocking Enqueue/Dequeue into blocking Put/Get using the
// iox.Backoff retry idiom documented in this package's doc.go.
type SharedQueue[M any] struct {
	core  Queue[element]
	arena *arena.Arena
}

// NewShared creates a SharedQueue of the given mode and capacity, whose
// data elements are allocated out of a. The lock-free core is assembled
// through the package's fluent Builder, translating mode into the
// producer/consumer constraints Build[T] selects an algorithm from.
func NewShared[M any](mode Mode, capacity int, a *arena.Arena) *SharedQueue[M] {
	b := New(capacity)
	switch mode {
	case ModeSPSC:
		b.SingleProducer().SingleConsumer()
	case ModeMPSC:
		b.SingleConsumer()
	case ModeSPMC:
		b.SingleProducer()
	}
	return &SharedQueue[M]{core: Build[element](b), arena: a}
}

// Put blocks until the element can be enqueued or ctx is done. When buf is
// nil, Put allocates a buffer sized to hold payload; when buf is non-nil,
// Put reuses it in place (the intentional fast path for a worker that
// wants to hand its own scratch buffer straight to the next stage — see
// the reuse note in this module's design notes). On error the caller
// still owns buf.
func (q *SharedQueue[M]) Put(ctx context.Context, payload []byte, meta M, buf *arena.SharedBuffer) error {
	metaBytes, err := encodeMeta(meta)
	if err != nil {
		return err
	}

	var sb arena.SharedBuffer
	if buf != nil {
		sb = *buf
		if sb.Capacity() < len(payload) {
			if err := sb.Resize(len(payload)); err != nil {
				return err
			}
		}
		// SharedBuffer.Put is append-only; rewind a reused buffer so the
		// new payload can be written from offset 0.
		if err := sb.Truncate(0); err != nil {
			return err
		}
	} else {
		sb, err = q.arena.Alloc(len(payload))
		if err != nil {
			return err
		}
	}
	if _, err := sb.Put(0, payload); err != nil {
		return err
	}
	if err := sb.Truncate(len(payload)); err != nil {
		return err
	}

	e := element{hasBuffer: true, buffer: sb, meta: metaBytes}
	return q.enqueueBlocking(ctx, e)
}

// PutControl enqueues a control element (no payload buffer) carrying meta,
// used for end-of-stream and error propagation between pipeline stages.
func (q *SharedQueue[M]) PutControl(ctx context.Context, meta M) error {
	metaBytes, err := encodeMeta(meta)
	if err != nil {
		return err
	}
	e := element{isControl: true, meta: metaBytes}
	return q.enqueueBlocking(ctx, e)
}

func (q *SharedQueue[M]) enqueueBlocking(ctx context.Context, e element) error {
	backoff := iox.Backoff{}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := q.core.Enqueue(&e)
		if err == nil {
			return nil
		}
		if !IsWouldBlock(err) {
			return err
		}
		backoff.Wait()
	}
}

// Get blocks until an element is available or ctx is done. When
// returnBuffer is false, the payload is copied out of shared memory and
// the underlying buffer is freed before Get returns — the caller owns
// nothing further to release. When returnBuffer is true, the caller
// receives the live arena.SharedBuffer and is responsible for freeing it.
func (q *SharedQueue[M]) Get(ctx context.Context, returnBuffer bool) (Element[M], error) {
	backoff := iox.Backoff{}
	for {
		if err := ctx.Err(); err != nil {
			return Element[M]{}, err
		}
		e, err := q.core.Dequeue()
		if err == nil {
			return q.materialize(e, returnBuffer)
		}
		if !IsWouldBlock(err) {
			return Element[M]{}, err
		}
		backoff.Wait()
	}
}

func (q *SharedQueue[M]) materialize(e element, returnBuffer bool) (Element[M], error) {
	meta, err := decodeMeta[M](e.meta)
	if err != nil {
		return Element[M]{}, err
	}
	if e.isControl {
		return Element[M]{IsControl: true, Meta: meta}, nil
	}

	buf := e.buffer
	if returnBuffer {
		return Element[M]{Buffer: &buf, Meta: meta}, nil
	}

	payload, err := buf.Get(0, buf.Size())
	if err != nil {
		return Element[M]{}, err
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	q.arena.Free(buf)
	return Element[M]{Meta: meta, Payload: out}, nil
}

// Cap reports the queue's usable capacity.
func (q *SharedQueue[M]) Cap() int { return q.core.Cap() }

func encodeMeta[M any](m M) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("queue: encode metadata: %w", err)
	}
	if buf.Len() > MaxMetadataBytes {
		return nil, ErrMetadataTooLarge
	}
	return buf.Bytes(), nil
}

func decodeMeta[M any](b []byte) (M, error) {
	var m M
	if len(b) == 0 {
		return m, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&m); err != nil {
		return m, fmt.Errorf("queue: decode metadata: %w", err)
	}
	return m, nil
}
