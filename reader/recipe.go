// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reader

import (
	"fmt"
	"sync"

	"code.hybscloud.com/datareader/pipeline"
	"code.hybscloud.com/datareader/source"
)

// Recipe builds the per-split pipelines for one named dataset recipe
// (e.g. "imagenet", "coco"). Concrete recipes live outside this module;
// this interface is the registration seam a recipe plugs into.
type Recipe interface {
	Train() (*pipeline.Pipeline, error)
	Val() (*pipeline.Pipeline, error)
	Test() (*pipeline.Pipeline, error)
}

// RecipeFactory constructs a Recipe bound to one split's Source and
// pipeline configuration.
type RecipeFactory func(src *source.Source, pl map[string]any) (Recipe, error)

var (
	registryMu sync.Mutex
	registry   = map[string]RecipeFactory{}
)

// Register makes a RecipeFactory available to Builder under name. Call
// from a recipe package's init.
func Register(name string, f RecipeFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

func lookup(name string) (RecipeFactory, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("reader: unknown recipe %q", name)
	}
	return f, nil
}
