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

// Builder assembles Source + Pipeline for each of "train"/"val"/"test"
// from a Setting and a registered recipe name, caching the Source built
// for each split the way the original's ReaderBuilder caches
// self.sources.
type Builder struct {
	mu         sync.Mutex
	settings   map[string]Setting
	recipeName string
	sources    map[string]*source.Source
}

// NewBuilder returns a Builder over settings (keyed by "train", "val",
// "test") using the recipe registered as recipeName.
func NewBuilder(settings map[string]Setting, recipeName string) *Builder {
	return &Builder{
		settings:   settings,
		recipeName: recipeName,
		sources:    make(map[string]*source.Source),
	}
}

// Source returns the Source for which, building and caching it on first
// use.
func (b *Builder) Source(which string) (*source.Source, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sources[which]; ok {
		return s, nil
	}
	st, ok := b.settings[which]
	if !ok {
		return nil, fmt.Errorf("%w: no Setting for %q", ErrSetting, which)
	}
	s, err := source.New(st.sourceConfig())
	if err != nil {
		return nil, err
	}
	b.sources[which] = s
	return s, nil
}

func (b *Builder) build(which string) (pipeline.Factory, error) {
	st, ok := b.settings[which]
	if !ok {
		return nil, fmt.Errorf("%w: no Setting for %q", ErrSetting, which)
	}
	src, err := b.Source(which)
	if err != nil {
		return nil, err
	}
	factory, err := lookup(b.recipeName)
	if err != nil {
		return nil, err
	}
	recipe, err := factory(src, st.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("reader: building recipe %q: %w", b.recipeName, err)
	}

	var pl *pipeline.Pipeline
	switch which {
	case "train":
		pl, err = recipe.Train()
	case "val":
		pl, err = recipe.Val()
	case "test":
		pl, err = recipe.Test()
	default:
		return nil, fmt.Errorf("%w: unknown split %q", ErrSetting, which)
	}
	if err != nil {
		return nil, err
	}
	return pl.Reader(false)
}

// Train builds the training reader.
func (b *Builder) Train() (pipeline.Factory, error) { return b.build("train") }

// Val builds the validation reader.
func (b *Builder) Val() (pipeline.Factory, error) { return b.build("val") }

// Test builds the test reader.
func (b *Builder) Test() (pipeline.Factory, error) { return b.build("test") }
