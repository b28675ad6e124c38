// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"bufio"
	"io"
)

// Record is one unit a file yields. Key is nil for textfile records;
// seqfile records carry both Key and Value as an opaque
// (key_bytes, value_bytes) stream.
type Record struct {
	Key   []byte
	Value []byte
}

// RecordStream is a pull-based iterator over one open file's records.
// Next returns io.EOF once the file is exhausted: the contract a
// textfile or seqfile reader implements.
type RecordStream interface {
	Next() (Record, error)
}

// RecordStreamFunc adapts a function to RecordStream.
type RecordStreamFunc func() (Record, error)

// Next implements RecordStream.
func (f RecordStreamFunc) Next() (Record, error) { return f() }

// FileReader is the still-open-file analogue of RecordStream, returned
// by RecordReader.Open. It is the same shape as RecordStream; the
// separate name only documents intent at call sites.
type FileReader = RecordStream

// RecordReader constructs a FileReader over an already-opened file.
// TextFile's built-in reader implements this; a seqfile format is
// supplied by the caller as an external collaborator.
type RecordReader interface {
	Open(r io.Reader) (FileReader, error)
}

// TextLineReader implements RecordReader for newline-delimited text:
// each record is one line with its trailing '\n' stripped.
type TextLineReader struct{}

// Open implements RecordReader.
func (TextLineReader) Open(r io.Reader) (FileReader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return RecordStreamFunc(func() (Record, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Record{}, err
			}
			return Record{}, errEOF
		}
		line := sc.Text()
		buf := make([]byte, len(line))
		copy(buf, line)
		return Record{Value: buf}, nil
	}), nil
}

// Factory produces a fresh RecordStream on every call, the Go analogue
// of Python's "iterator maker" — mirrors pipeline.Factory's shape but
// over Record rather than pipeline.Sample, since source predates any
// knowledge of how its records become samples.
type Factory func() RecordStream
