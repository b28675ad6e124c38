// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "fmt"

// compileStage dispatches one Stage to its interpreter, threading
// upstream through. This is the monomorphic replacement for the
// original's runtime (op_name, param_dict) branch in Pipeline.transform.
func compileStage(st Stage, upstream Factory) (Factory, error) {
	switch st.Kind {
	case KindShuffle:
		return compileShuffle(st.Window, upstream), nil
	case KindBatch:
		return compileBatch(st.BatchSize, st.DropPartial, upstream), nil
	case KindMap:
		return compileMap(st, upstream)
	case KindFilter:
		return compileFilter(st.Predicate, upstream), nil
	case KindBuffered:
		return compileBuffered(st.BufferSize, upstream), nil
	case KindCache:
		return compileCache(upstream), nil
	case KindXmap:
		return compileXmap(st.XmapConfig, upstream), nil
	default:
		return nil, fmt.Errorf("%w: unknown stage kind %v", ErrInvalidStage, st.Kind)
	}
}
