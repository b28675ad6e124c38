// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package source partitions a file-backed corpus across workers and
// drives the per-file record reader that feeds a pipeline.Factory.
package source

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileType selects the per-file record reader.
type FileType int

const (
	// TextFile splits a file into newline-delimited records with the
	// trailing delimiter stripped.
	TextFile FileType = iota
	// SeqFile consumes an externally defined binary key/value record
	// stream; Config.Reader must be supplied.
	SeqFile
)

// NotifyFunc is called once a file has been fully consumed, reporting
// how many records it yielded — the hook the original uses to log
// per-file throughput.
type NotifyFunc func(fileIndex int, fileName string, sampleCount int)

// Config describes one Source partition.
type Config struct {
	// URI is "file:/<path>" or a bare relative/absolute local path.
	URI string
	// PartID and PartCount select which files this Source owns:
	// file i belongs to part p iff i mod PartCount == p.
	PartID    int
	PartCount int
	// FileType selects the built-in textfile reader or defers to Reader
	// for seqfile.
	FileType FileType
	// Reader is required when FileType == SeqFile; optional for
	// TextFile (defaults to the built-in line reader).
	Reader RecordReader
	// Notify is called after each file is drained.
	Notify NotifyFunc
}

// ErrSource reports an unsupported URI scheme or an empty partition.
var ErrSource = fmt.Errorf("source: error")

func errSource(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSource, fmt.Sprintf(format, args...))
}

// Source is a partitioned, restartable collection of files.
type Source struct {
	cfg   Config
	flist []string
	log   *logrus.Entry
}

// New lists the directory or single file named by cfg.URI, sorts it
// lexicographically, and keeps only the files this partition owns.
func New(cfg Config) (*Source, error) {
	if cfg.PartCount <= 0 {
		cfg.PartCount = 1
	}
	if cfg.PartID < 0 || cfg.PartID >= cfg.PartCount {
		return nil, errSource("part_id %d out of range [0,%d)", cfg.PartID, cfg.PartCount)
	}
	path, err := resolveURI(cfg.URI)
	if err != nil {
		return nil, err
	}
	all, err := listDir(path)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errSource("no files found under %q", cfg.URI)
	}
	sort.Strings(all)
	owned := partition(all, cfg.PartID, cfg.PartCount)
	if len(owned) == 0 {
		return nil, errSource("empty partition %d/%d for %q", cfg.PartID, cfg.PartCount, cfg.URI)
	}
	return &Source{
		cfg:   cfg,
		flist: owned,
		log:   logrus.WithField("component", "source"),
	}, nil
}

// resolveURI accepts "file:/<path>", and relative/absolute local paths.
// Anything else is rejected.
func resolveURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "file:/"):
		return uri[len("file:/"):], nil
	case strings.HasPrefix(uri, "."), strings.HasPrefix(uri, "/"):
		return uri, nil
	default:
		return "", errSource("unsupported uri scheme %q", uri)
	}
}

func listDir(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errSource("%v", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errSource("%v", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(path, e.Name()))
	}
	return out, nil
}

// partition returns the files whose index satisfies i mod partCount ==
// partID, preserving flist's order.
func partition(flist []string, partID, partCount int) []string {
	var out []string
	for i, f := range flist {
		if i%partCount == partID {
			out = append(out, f)
		}
	}
	return out
}

// FileList returns the files owned by this partition, in sorted order.
func (s *Source) FileList() []string {
	out := make([]string, len(s.flist))
	copy(out, s.flist)
	return out
}

type fileState struct {
	rdr   FileReader
	file  *os.File
	fname string
	fi    int
	count int
}

// onePass returns a Factory driving every owned file, in a freshly
// randomized order, exactly once per RecordStream it produces — the Go
// analogue of the original's `_make_reader`.
func (s *Source) onePass() Factory {
	return func() RecordStream {
		order := rand.Perm(len(s.flist))
		idx := 0
		var cur fileState
		return RecordStreamFunc(func() (Record, error) {
			for {
				if cur.rdr == nil {
					if idx >= len(order) {
						return Record{}, errEOF
					}
					fi := order[idx]
					fname := s.flist[fi]
					f, err := os.Open(fname)
					if err != nil {
						return Record{}, err
					}
					rr := s.cfg.Reader
					if rr == nil {
						rr = TextLineReader{}
					}
					rdr, err := rr.Open(f)
					if err != nil {
						f.Close()
						return Record{}, err
					}
					cur = fileState{rdr: rdr, file: f, fname: fname, fi: fi}
				}
				rec, err := cur.rdr.Next()
				if err != nil {
					cur.file.Close()
					if s.cfg.Notify != nil {
						s.cfg.Notify(cur.fi, cur.fname, cur.count)
					}
					if !isEOF(err) {
						return Record{}, err
					}
					cur = fileState{}
					idx++
					continue
				}
				cur.count++
				return rec, nil
			}
		})
	}
}

// Reader wraps the single-pass driver to replay passCount times, or
// indefinitely when passCount <= 0.
func (s *Source) Reader(passCount int) Factory {
	mk := s.onePass()
	return func() RecordStream {
		pass := 0
		var cur RecordStream
		return RecordStreamFunc(func() (Record, error) {
			for {
				if cur == nil {
					if passCount > 0 && pass >= passCount {
						return Record{}, errEOF
					}
					cur = mk()
					pass++
				}
				rec, err := cur.Next()
				if err == nil {
					return rec, nil
				}
				if !isEOF(err) {
					return Record{}, err
				}
				cur = nil
			}
		})
	}
}
