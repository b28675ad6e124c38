// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reader

import (
	"os"
	"path/filepath"
	"testing"

	"code.hybscloud.com/datareader/pipeline"
	"code.hybscloud.com/datareader/source"
)

type fakeRecipe struct {
	src *source.Source
}

func (r *fakeRecipe) Train() (*pipeline.Pipeline, error) {
	return pipeline.New(source.PipelineFactory(r.src.Reader(1)), false), nil
}
func (r *fakeRecipe) Val() (*pipeline.Pipeline, error)  { return r.Train() }
func (r *fakeRecipe) Test() (*pipeline.Pipeline, error) { return r.Train() }

func init() {
	Register("fake", func(src *source.Source, _ map[string]any) (Recipe, error) {
		return &fakeRecipe{src: src}, nil
	})
}

func TestBuilderTrainReadsPartition(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x\ny\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(map[string]Setting{
		"train": {URI: dir, Source: source.Config{PartCount: 1, FileType: source.TextFile}},
	}, "fake")

	factory, err := b.Train()
	if err != nil {
		t.Fatal(err)
	}
	rd := factory()
	var lines []string
	for {
		s, err := rd.Next()
		if err != nil {
			break
		}
		lines = append(lines, string(s.Payload()))
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
}

func TestBuilderUnknownRecipe(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x\n"), 0o644)
	b := NewBuilder(map[string]Setting{
		"train": {URI: dir, Source: source.Config{PartCount: 1}},
	}, "does-not-exist")
	if _, err := b.Train(); err == nil {
		t.Fatal("expected error for unregistered recipe")
	}
}

func TestLoadSettingsFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	content := `
[train]
uri = "file:/data/train"
part_count = 8
file_type = "textfile"
[train.pipeline]
crop_size = 224
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	tr, ok := settings["train"]
	if !ok {
		t.Fatal("expected a train setting")
	}
	if tr.URI != "file:/data/train" || tr.Source.PartCount != 8 {
		t.Fatalf("unexpected setting: %+v", tr)
	}
	if tr.Pipeline["crop_size"] != int64(224) {
		t.Fatalf("expected crop_size 224, got %v (%T)", tr.Pipeline["crop_size"], tr.Pipeline["crop_size"])
	}
}
