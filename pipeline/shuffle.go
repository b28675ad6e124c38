// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "math/rand"

// compileShuffle wraps upstream in a window-sized shuffle buffer: fill
// to window samples (or drain upstream entirely first when window < 0),
// then on every pull swap a uniformly random slot for the next upstream
// sample and yield the evicted one. This is a streaming reservoir
// shuffle over a single buffer slice with no prefetch goroutine. The
// evicted slot is refilled at once, so a sample from past the first
// window can be yielded before every sample of the first window has
// been yielded.
func compileShuffle(window int, upstream Factory) Factory {
	return func() Reader {
		return &shuffleReader{window: window, upstream: upstream()}
	}
}

type shuffleReader struct {
	window   int
	upstream Reader
	buf      []Sample
	filled   bool
	drained  bool
}

func (r *shuffleReader) fill() error {
	if r.filled {
		return nil
	}
	r.filled = true
	if r.window < 0 {
		for {
			s, err := r.upstream.Next()
			if err != nil {
				if isEOF(err) {
					r.drained = true
					break
				}
				return err
			}
			r.buf = append(r.buf, s)
		}
		rand.Shuffle(len(r.buf), func(i, j int) { r.buf[i], r.buf[j] = r.buf[j], r.buf[i] })
		return nil
	}
	for len(r.buf) < r.window {
		s, err := r.upstream.Next()
		if err != nil {
			if isEOF(err) {
				r.drained = true
				break
			}
			return err
		}
		r.buf = append(r.buf, s)
	}
	return nil
}

func (r *shuffleReader) Next() (Sample, error) {
	if err := r.fill(); err != nil {
		return nil, err
	}
	if len(r.buf) == 0 {
		return nil, errEOF
	}
	i := rand.Intn(len(r.buf))
	out := r.buf[i]
	if r.drained {
		last := len(r.buf) - 1
		r.buf[i] = r.buf[last]
		r.buf = r.buf[:last]
		return out, nil
	}
	next, err := r.upstream.Next()
	if err != nil {
		if isEOF(err) {
			r.drained = true
			last := len(r.buf) - 1
			r.buf[i] = r.buf[last]
			r.buf = r.buf[:last]
			return out, nil
		}
		return nil, err
	}
	r.buf[i] = next
	return out, nil
}
