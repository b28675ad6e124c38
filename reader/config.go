// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reader

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"code.hybscloud.com/datareader/source"
)

// tomlSetting mirrors Setting in a TOML-friendly shape; source.Config's
// FileType is spelled as a string in the file.
type tomlSetting struct {
	URI       string         `toml:"uri"`
	PartID    int            `toml:"part_id"`
	PartCount int            `toml:"part_count"`
	FileType  string         `toml:"file_type"`
	Pipeline  map[string]any `toml:"pipeline"`
}

// LoadSettings reads a TOML file of the form:
//
//	[train]
//	uri = "file:/data/train"
//	part_count = 8
//	file_type = "textfile"
//	[train.pipeline]
//	crop_size = 224
//
// into a map keyed by split name ("train", "val", "test"), the
// config-file path real training setups use instead of building
// Settings by hand.
func LoadSettings(path string) (map[string]Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reader: reading %s: %w", path, err)
	}
	var raw map[string]tomlSetting
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reader: parsing %s: %w", path, err)
	}
	out := make(map[string]Setting, len(raw))
	for split, ts := range raw {
		ft := source.TextFile
		if ts.FileType == "seqfile" {
			ft = source.SeqFile
		}
		out[split] = Setting{
			URI: ts.URI,
			Source: source.Config{
				PartID:    ts.PartID,
				PartCount: ts.PartCount,
				FileType:  ft,
			},
			Pipeline: ts.Pipeline,
		}
	}
	return out, nil
}
