// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string][]string) {
	t.Helper()
	for name, lines := range files {
		content := ""
		for _, l := range lines {
			content += l + "\n"
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPartitionIsDeterministicModulo(t *testing.T) {
	flist := []string{"a", "b", "c", "d", "e", "f", "g"}
	for part := 0; part < 3; part++ {
		got := partition(flist, part, 3)
		for i, f := range flist {
			if i%3 == part {
				found := false
				for _, g := range got {
					if g == f {
						found = true
					}
				}
				if !found {
					t.Fatalf("expected %q in partition %d", f, part)
				}
			}
		}
	}
}

func TestNewRejectsUnsupportedScheme(t *testing.T) {
	_, err := New(Config{URI: "s3://bucket/key", PartCount: 1})
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestNewRejectsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Config{URI: dir, PartCount: 1})
	if err == nil {
		t.Fatal("expected error for empty directory")
	}
}

// A single-partition Source over textfiles yields every line across
// every file, across every pass, with per-file counts reported via
// Notify.
func TestSingleReaderYieldsEveryLineEveryPass(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]string{
		"a.txt": {"a0", "a1"},
		"b.txt": {"b0", "b1", "b2"},
	})

	var notified []string
	cfg := Config{
		URI:       dir,
		PartCount: 1,
		FileType:  TextFile,
		Notify: func(_ int, fname string, n int) {
			notified = append(notified, filepath.Base(fname))
			_ = n
		},
	}
	src, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(src.FileList()) != 2 {
		t.Fatalf("expected 2 files, got %d", len(src.FileList()))
	}

	rd := src.Reader(2)
	stream := rd()
	var lines []string
	for {
		rec, err := stream.Next()
		if err != nil {
			break
		}
		lines = append(lines, string(rec.Value))
	}
	if len(lines) != 10 {
		t.Fatalf("expected 5 lines * 2 passes = 10, got %d: %v", len(lines), lines)
	}
	if len(notified) != 4 {
		t.Fatalf("expected notify called 4 times (2 files * 2 passes), got %d", len(notified))
	}
}

// Partitioning across two parts never assigns a file to both.
func TestTwoPartitionsAreDisjoint(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]string{
		"f0.txt": {"x"}, "f1.txt": {"x"}, "f2.txt": {"x"}, "f3.txt": {"x"},
	})
	s0, err := New(Config{URI: dir, PartID: 0, PartCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	s1, err := New(Config{URI: dir, PartID: 1, PartCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	all := append(append([]string{}, s0.FileList()...), s1.FileList()...)
	sort.Strings(all)
	seen := map[string]bool{}
	for _, f := range all {
		if seen[f] {
			t.Fatalf("file %q assigned to both partitions", f)
		}
		seen[f] = true
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 total files across partitions, got %d", len(all))
	}
}
