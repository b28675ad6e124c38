// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

// compileBatch groups size consecutive samples into one Batch, wrapped
// as a single-element Sample (Sample{Batch{...}}) so every stage after
// batch keeps seeing the same Reader shape — the original's generator
// can freely switch from yielding a record to yielding a list of
// records, which Go's static Sample type cannot; wrapping is the
// concession that keeps the rest of the chain monomorphic.
func compileBatch(size int, dropPartial bool, upstream Factory) Factory {
	return func() Reader {
		return &batchReader{size: size, dropPartial: dropPartial, upstream: upstream()}
	}
}

type batchReader struct {
	size        int
	dropPartial bool
	upstream    Reader
	done        bool
}

func (r *batchReader) Next() (Sample, error) {
	if r.done {
		return nil, errEOF
	}
	batch := make(Batch, 0, r.size)
	for len(batch) < r.size {
		s, err := r.upstream.Next()
		if err != nil {
			if !isEOF(err) {
				return nil, err
			}
			r.done = true
			if len(batch) == 0 || r.dropPartial {
				return nil, errEOF
			}
			return Sample{batch}, nil
		}
		batch = append(batch, s)
	}
	return Sample{batch}, nil
}
