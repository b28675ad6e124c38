// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import "code.hybscloud.com/datareader/pipeline"

// PipelineFactory adapts f to pipeline.Factory, wrapping every Record as
// a pipeline.Sample whose payload is Value and, for seqfile records with
// a non-nil Key, appending Key as the sole tag.
func PipelineFactory(f Factory) pipeline.Factory {
	return func() pipeline.Reader {
		rs := f()
		return pipeline.ReaderFunc(func() (pipeline.Sample, error) {
			rec, err := rs.Next()
			if err != nil {
				return nil, err
			}
			if rec.Key != nil {
				return pipeline.Sample{rec.Value, rec.Key}, nil
			}
			return pipeline.Sample{rec.Value}, nil
		})
	}
}
