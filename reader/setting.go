// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reader assembles a Source and a Pipeline for a named recipe
// ("train"/"val"/"test"), grounded on the original's ReaderBuilder.
package reader

import (
	"fmt"

	"code.hybscloud.com/datareader/source"
)

// Setting is one named reader's configuration: a source URI plus the
// source and pipeline parameters a Recipe needs to build its readers.
type Setting struct {
	URI    string
	Source source.Config
	// Pipeline carries recipe-specific knobs (crop size, mean/std,
	// worker count, ...); its shape is owned by whichever Recipe is
	// registered under the builder's recipe name, not by this package.
	Pipeline map[string]any
}

func (s Setting) sourceConfig() source.Config {
	cfg := s.Source
	if s.URI != "" {
		cfg.URI = s.URI
	}
	return cfg
}

// ErrSetting reports a missing or malformed Setting.
var ErrSetting = fmt.Errorf("reader: invalid setting")
