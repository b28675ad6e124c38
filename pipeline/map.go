// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "fmt"

// compileMap wires either a per-record MapRecordFunc or a whole-reader
// MapReaderFunc, per the Stage invariant that exactly one is set.
func compileMap(st Stage, upstream Factory) (Factory, error) {
	switch {
	case st.MapRecord != nil && st.MapReader == nil:
		fn := st.MapRecord
		return func() Reader {
			return &mapReader{fn: fn, upstream: upstream()}
		}, nil
	case st.MapReader != nil && st.MapRecord == nil:
		return st.MapReader(upstream), nil
	default:
		return nil, fmt.Errorf("%w: map stage needs exactly one of MapRecord, MapReader", ErrInvalidStage)
	}
}

type mapReader struct {
	fn       MapRecordFunc
	upstream Reader
}

func (r *mapReader) Next() (Sample, error) {
	s, err := r.upstream.Next()
	if err != nil {
		return nil, err
	}
	out, err := r.fn(s)
	if err != nil {
		return nil, fmt.Errorf("%w: map: %v", ErrPipeline, err)
	}
	return out, nil
}
