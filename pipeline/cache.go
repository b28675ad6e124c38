// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "sync"

// compileCache records every sample from the first pass through upstream
// into memory and replays from memory on every subsequent pass, never
// re-invoking upstream again. In-memory only; there is no disk-backed
// variant.
func compileCache(upstream Factory) Factory {
	c := &cacheState{upstream: upstream}
	return func() Reader {
		return &cacheReader{state: c}
	}
}

type cacheState struct {
	mu       sync.Mutex
	upstream Factory
	items    []Sample
	complete bool
}

type cacheReader struct {
	state  *cacheState
	live   Reader
	cursor int
}

func (r *cacheReader) Next() (Sample, error) {
	st := r.state
	st.mu.Lock()
	if st.complete {
		defer st.mu.Unlock()
		if r.cursor >= len(st.items) {
			return nil, errEOF
		}
		s := st.items[r.cursor]
		r.cursor++
		return s, nil
	}
	if r.live == nil {
		r.live = st.upstream()
	}
	if r.cursor < len(st.items) {
		s := st.items[r.cursor]
		r.cursor++
		st.mu.Unlock()
		return s, nil
	}
	st.mu.Unlock()

	s, err := r.live.Next()
	if err != nil {
		if isEOF(err) {
			st.mu.Lock()
			st.complete = true
			st.mu.Unlock()
		}
		return nil, err
	}

	st.mu.Lock()
	st.items = append(st.items, s)
	r.cursor++
	st.mu.Unlock()
	return s, nil
}
