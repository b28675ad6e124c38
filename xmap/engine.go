// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/datareader/queue"
	"code.hybscloud.com/iox"
)

// Source is a pull-based sample producer. Next returns io.EOF once
// exhausted, matching the convention used throughout this module.
type Source[S any] interface {
	Next() (S, error)
}

// Reader is the output side of Run: a pull-based iterator over mapped
// samples, same convention as Source.
type Reader[S any] interface {
	Next() (S, error)
	// Close cancels the engine's context, which makes the driver and
	// any blocked worker return, and waits up to Config.JoinTimeout for
	// them to exit; it does not enqueue end sentinels. Safe to call more
	// than once and safe to skip if Next already returned io.EOF.
	Close()
}

// Result carries one element back to the driver loop.
type Result[S any] struct {
	Value S
	Err   error
}

type elem[S any] struct {
	isEnd bool
	err   error
	id    uint64
	value S
}

// Run starts cfg.WorkerCount workers pulling from src and applying
// cfg.Mapper, returning a Reader over the mapped stream. Run validates
// cfg and returns ErrInvalidConfig synchronously for an unsatisfiable
// configuration (e.g. WorkerCount == 0) rather than starting any
// goroutines.
func Run[S any](ctx context.Context, src Source[S], cfg Config[S]) (Reader[S], error) {
	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("%w: worker_count must be > 0", ErrInvalidConfig)
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer_size must be > 0", ErrInvalidConfig)
	}
	if cfg.preFeed() > cfg.BufferSize {
		return nil, fmt.Errorf("%w: pre_feed must be <= buffer_size", ErrInvalidConfig)
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}

	switch cfg.Mode {
	case SubprocessSharedMemory:
		if cfg.SplitPayload == nil || cfg.JoinPayload == nil {
			return nil, fmt.Errorf("%w: SubprocessSharedMemory requires SplitPayload and JoinPayload", ErrInvalidConfig)
		}
		return newSharedEngine(ctx, src, cfg), nil
	default:
		return newGenericEngine(ctx, src, cfg), nil
	}
}

type genericEngine[S any] struct {
	cfg    Config[S]
	src    Source[S]
	ctx    context.Context
	cancel context.CancelFunc

	inQ  queue.Queue[elem[S]]
	outQ queue.Queue[elem[S]]

	wg        sync.WaitGroup
	resultCh  chan Result[S]
	startOnce sync.Once
	closeOnce sync.Once
	finalErr  error
	log       *logrus.Entry
}

func newGenericEngine[S any](ctx context.Context, src Source[S], cfg Config[S]) *genericEngine[S] {
	cctx, cancel := context.WithCancel(ctx)
	qcap := queueCapacity(cfg.BufferSize, cfg.WorkerCount)
	e := &genericEngine[S]{
		cfg:      cfg,
		src:      src,
		ctx:      cctx,
		cancel:   cancel,
		inQ:      queue.Build[elem[S]](queue.New(qcap)),
		outQ:     queue.Build[elem[S]](queue.New(qcap).SingleConsumer()),
		resultCh: make(chan Result[S]),
		log:      logrus.WithField("component", "xmap"),
	}
	e.startOnce.Do(e.start)
	return e
}

func queueCapacity(bufferSize, workerCount int) int {
	n := bufferSize
	if workerCount*2 > n {
		n = workerCount * 2
	}
	if n < 2 {
		n = 2
	}
	return n
}

func (e *genericEngine[S]) start() {
	e.wg.Add(e.cfg.WorkerCount)
	for i := 0; i < e.cfg.WorkerCount; i++ {
		go e.worker(i)
	}
	go e.drive()
}

func (e *genericEngine[S]) Next() (S, error) {
	r, ok := <-e.resultCh
	if !ok {
		var zero S
		if e.finalErr != nil {
			return zero, e.finalErr
		}
		return zero, io.EOF
	}
	return r.Value, r.Err
}

func (e *genericEngine[S]) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		done := make(chan struct{})
		go func() { e.wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(e.cfg.JoinTimeout):
			e.log.Warn("workers still alive past join timeout")
		}
	})
}

func (e *genericEngine[S]) putIn(v elem[S]) error   { return blockingPut(e.ctx, e.inQ, v) }
func (e *genericEngine[S]) getIn() (elem[S], bool)  { return blockingGet(e.ctx, e.inQ) }
func (e *genericEngine[S]) putOut(v elem[S]) error  { return blockingPut(e.ctx, e.outQ, v) }
func (e *genericEngine[S]) getOut() (elem[S], bool) { return blockingGet(e.ctx, e.outQ) }

func (e *genericEngine[S]) worker(_ int) {
	defer e.wg.Done()
	for {
		in, ok := e.getIn()
		if !ok {
			return
		}
		if in.isEnd {
			_ = e.putIn(in)
			_ = e.putOut(in)
			return
		}
		out, err := e.apply(in.value)
		if err != nil {
			sentinel := elem[S]{isEnd: true, err: err}
			_ = e.putIn(sentinel)
			_ = e.putOut(sentinel)
			return
		}
		_ = e.putOut(elem[S]{id: in.id, value: out})
	}
}

func (e *genericEngine[S]) apply(v S) (out S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerFailure, r)
		}
	}()
	out, err = e.cfg.Mapper(v)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrWorkerFailure, err)
	}
	return out, err
}

func (e *genericEngine[S]) drive() {
	defer close(e.resultCh)

	sourceDone := false
	feedID := uint64(0)
	var feedErr error

	feedOne := func() {
		v, err := e.src.Next()
		if err != nil {
			sourceDone = true
			if !errors.Is(err, io.EOF) {
				feedErr = err
			}
			return
		}
		item := elem[S]{id: feedID, value: v}
		feedID++
		if err := e.putIn(item); err != nil {
			sourceDone = true
			feedErr = err
		}
	}

	for i := 0; i < e.cfg.preFeed() && !sourceDone; i++ {
		feedOne()
	}

	pending := map[uint64]S{}
	nextOut := uint64(0)
	finished := 0
	sentinelsSent := false
	var fatalErr error

	for {
		out, ok := e.getOut()
		if !ok {
			if e.finalErr == nil {
				e.finalErr = e.ctx.Err()
			}
			return
		}

		if out.isEnd {
			finished++
			if out.err != nil && fatalErr == nil {
				fatalErr = out.err
			}
		} else if e.cfg.PreserveOrder {
			pending[out.id] = out.value
			if len(pending) > e.cfg.BufferSize && fatalErr == nil {
				fatalErr = ErrOrdering
			}
			for {
				v, found := pending[nextOut]
				if !found {
					break
				}
				delete(pending, nextOut)
				nextOut++
				e.resultCh <- Result[S]{Value: v}
			}
		} else {
			e.resultCh <- Result[S]{Value: out.value}
		}

		shuttingDown := sourceDone || fatalErr != nil

		if !shuttingDown {
			feedOne()
			shuttingDown = sourceDone || fatalErr != nil
		}
		if shuttingDown && !sentinelsSent {
			for i := 0; i < e.cfg.WorkerCount-finished; i++ {
				_ = e.putIn(elem[S]{isEnd: true})
			}
			sentinelsSent = true
		}
		if shuttingDown && finished >= e.cfg.WorkerCount {
			break
		}
	}

	switch {
	case feedErr != nil:
		e.finalErr = feedErr
	case fatalErr != nil:
		e.finalErr = fatalErr
	}
}

func blockingPut[T any](ctx context.Context, q queue.Queue[T], v T) error {
	backoff := iox.Backoff{}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := q.Enqueue(&v)
		if err == nil {
			return nil
		}
		if !queue.IsWouldBlock(err) {
			return err
		}
		backoff.Wait()
	}
}

func blockingGet[T any](ctx context.Context, q queue.Queue[T]) (T, bool) {
	backoff := iox.Backoff{}
	for {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, false
		}
		v, err := q.Dequeue()
		if err == nil {
			return v, true
		}
		if !queue.IsWouldBlock(err) {
			var zero T
			return zero, false
		}
		backoff.Wait()
	}
}

const defaultJoinTimeout = 3 * time.Second
