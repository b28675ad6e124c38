// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

// compileBuffered spins a single prefetch goroutine per Reader that
// keeps up to size samples ready ahead of the consumer, decoupling
// upstream stall (disk I/O, decode latency) from the pace of whatever
// consumes the pipeline — the original's buffered_reader thread plus a
// bounded queue.Queue, collapsed here to a buffered channel since the
// producer and consumer are both in-process goroutines.
func compileBuffered(size int, upstream Factory) Factory {
	if size <= 0 {
		size = 1
	}
	return func() Reader {
		r := &bufferedReader{out: make(chan bufItem, size)}
		go r.run(upstream())
		return r
	}
}

type bufItem struct {
	s   Sample
	err error
}

type bufferedReader struct {
	out chan bufItem
}

func (r *bufferedReader) run(upstream Reader) {
	for {
		s, err := upstream.Next()
		r.out <- bufItem{s: s, err: err}
		if err != nil {
			close(r.out)
			return
		}
	}
}

func (r *bufferedReader) Next() (Sample, error) {
	item, ok := <-r.out
	if !ok {
		return nil, errEOF
	}
	return item.s, item.err
}
