// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"

	"code.hybscloud.com/datareader/xmap"
)

// compileXmap fans upstream out across cfg.WorkerCount goroutines via
// xmap.Run, then serializes results back into this Reader's Next calls.
func compileXmap(cfg xmap.Config[Sample], upstream Factory) Factory {
	return func() Reader {
		return &xmapReader{cfg: cfg, upstream: upstream()}
	}
}

type xmapSource struct {
	upstream Reader
}

func (s *xmapSource) Next() (Sample, error) {
	return s.upstream.Next()
}

type xmapReader struct {
	cfg      xmap.Config[Sample]
	upstream Reader
	inner    xmap.Reader[Sample]
	started  bool
}

func (r *xmapReader) Next() (Sample, error) {
	if !r.started {
		r.started = true
		inner, err := xmap.Run[Sample](context.Background(), &xmapSource{upstream: r.upstream}, r.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: xmap: %v", ErrPipeline, err)
		}
		r.inner = inner
	}
	s, err := r.inner.Next()
	if err != nil {
		return nil, err
	}
	return s, nil
}
