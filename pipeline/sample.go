// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline composes a declarative chain of per-sample
// transformations — shuffle, batch, map, filter, buffered, cache, xmap —
// into a single lazy, restartable sample iterator, mirroring the
// teacher's doc.go "Common Patterns" shape for wiring producer and
// consumer goroutines around the package queue's lock-free cores.
package pipeline

import (
	"bytes"
	"encoding/gob"
)

// Sample is a tuple whose first element is the transferable payload
// (image bytes, a decoded tensor in bytes form) and the remainder is
// small inline metadata — labels, ids, anything the pipeline doesn't
// need to interpret. Go has no tuple type, so a
// (primary_payload, tag_1, ..., tag_k) record becomes a slice of opaque
// elements.
type Sample []any

// Payload returns the transferable first element, or nil if s is empty.
func (s Sample) Payload() []byte {
	if len(s) == 0 {
		return nil
	}
	b, _ := s[0].([]byte)
	return b
}

// Tags returns everything after the payload.
func (s Sample) Tags() []any {
	if len(s) <= 1 {
		return nil
	}
	return s[1:]
}

// WithPayload returns a copy of s with its payload replaced, preserving
// tags — the shape operator.ComposeMapper uses to put a mapped payload
// back without mutating the caller's slice in place.
func (s Sample) WithPayload(payload []byte) Sample {
	out := make(Sample, len(s))
	copy(out, s)
	if len(out) == 0 {
		return Sample{payload}
	}
	out[0] = payload
	return out
}

// splitPayload and joinPayload let Sample ride xmap's
// SubprocessSharedMemory mode: the payload travels through the arena
// untouched, and the tags are gob-encoded into the aux sideband since
// they are arbitrary, possibly-interface-typed values expected to stay
// small.
func splitPayload(s Sample) (payload []byte, aux []byte) {
	payload = s.Payload()
	tags := s.Tags()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&tags); err != nil {
		// Tags that cannot be gob-encoded (e.g. an unregistered
		// interface concrete type) are a caller bug in shared-memory
		// mode; fall back to dropping them rather than panicking a
		// worker goroutine mid-mapper.
		return payload, nil
	}
	return payload, buf.Bytes()
}

func joinPayload(payload []byte, aux []byte) Sample {
	if len(aux) == 0 {
		return Sample{payload}
	}
	var tags []any
	if err := gob.NewDecoder(bytes.NewReader(aux)).Decode(&tags); err != nil {
		return Sample{payload}
	}
	out := make(Sample, 0, len(tags)+1)
	out = append(out, payload)
	out = append(out, tags...)
	return out
}
