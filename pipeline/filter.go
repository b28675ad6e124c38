// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

// compileFilter drops every sample pred rejects, pulling upstream until
// one is kept or upstream is exhausted.
func compileFilter(pred FilterFunc, upstream Factory) Factory {
	return func() Reader {
		return &filterReader{pred: pred, upstream: upstream()}
	}
}

type filterReader struct {
	pred     FilterFunc
	upstream Reader
}

func (r *filterReader) Next() (Sample, error) {
	for {
		s, err := r.upstream.Next()
		if err != nil {
			return nil, err
		}
		if r.pred(s) {
			return s, nil
		}
	}
}
