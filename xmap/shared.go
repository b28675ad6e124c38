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

	"code.hybscloud.com/datareader/arena"
	"code.hybscloud.com/datareader/queue"
)

// sharedMeta is the small, gob-encodable sideband that rides alongside
// every payload on a SubprocessSharedMemory queue: what the xmap
// protocol itself needs (ordering id, sentinel/fault markers) plus an
// opaque Aux blob for whatever the caller's SplitPayload wants to carry
// alongside the payload.
type sharedMeta struct {
	ID      uint64
	IsEnd   bool
	ErrText string
	Aux     []byte
}

type sharedEngine[S any] struct {
	cfg    Config[S]
	src    Source[S]
	ctx    context.Context
	cancel context.CancelFunc

	mem  *arena.Arena
	inQ  *queue.SharedQueue[sharedMeta]
	outQ *queue.SharedQueue[sharedMeta]

	wg        sync.WaitGroup
	resultCh  chan Result[S]
	closeOnce sync.Once
	finalErr  error
	log       *logrus.Entry
}

func newSharedEngine[S any](ctx context.Context, src Source[S], cfg Config[S]) *sharedEngine[S] {
	cctx, cancel := context.WithCancel(ctx)
	capBytes := cfg.SharedMemBytes
	if capBytes <= 0 {
		capBytes = arena.DefaultCapacity
	}
	pageBytes := cfg.PageBytes
	if pageBytes <= 0 {
		pageBytes = arena.DefaultPageSize
	}
	mem := arena.New(arena.WithCapacity(capBytes), arena.WithPageSize(pageBytes))
	qcap := queueCapacity(cfg.BufferSize, cfg.WorkerCount)

	e := &sharedEngine[S]{
		cfg:      cfg,
		src:      src,
		ctx:      cctx,
		cancel:   cancel,
		mem:      mem,
		inQ:      queue.NewShared[sharedMeta](queue.ModeMPMC, qcap, mem),
		outQ:     queue.NewShared[sharedMeta](queue.ModeMPSC, qcap, mem),
		resultCh: make(chan Result[S]),
		log:      logrus.WithField("component", "xmap_shared"),
	}
	e.wg.Add(cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		go e.worker(i)
	}
	go e.drive()
	return e
}

func (e *sharedEngine[S]) Next() (S, error) {
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

func (e *sharedEngine[S]) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		done := make(chan struct{})
		go func() { e.wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(e.cfg.JoinTimeout):
			e.log.Warn("workers still alive past join timeout")
		}
		if err := e.mem.Close(); err != nil {
			e.log.WithError(err).Warn("closing xmap arena")
		}
	})
}

func (e *sharedEngine[S]) apply(v S) (out S, err error) {
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

func (e *sharedEngine[S]) worker(_ int) {
	defer e.wg.Done()
	for {
		el, err := e.inQ.Get(e.ctx, false)
		if err != nil {
			return
		}
		if el.IsControl {
			_ = e.inQ.PutControl(e.ctx, el.Meta)
			_ = e.outQ.PutControl(e.ctx, el.Meta)
			return
		}

		sample := e.cfg.JoinPayload(el.Payload, el.Meta.Aux)
		out, err := e.apply(sample)
		if err != nil {
			sentinel := sharedMeta{IsEnd: true, ErrText: err.Error()}
			_ = e.inQ.PutControl(e.ctx, sentinel)
			_ = e.outQ.PutControl(e.ctx, sentinel)
			return
		}

		payload, aux := e.cfg.SplitPayload(out)
		if err := e.outQ.Put(e.ctx, payload, sharedMeta{ID: el.Meta.ID, Aux: aux}, nil); err != nil {
			return
		}
	}
}

func (e *sharedEngine[S]) drive() {
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
		payload, aux := e.cfg.SplitPayload(v)
		if err := e.inQ.Put(e.ctx, payload, sharedMeta{ID: feedID, Aux: aux}, nil); err != nil {
			sourceDone = true
			feedErr = err
			return
		}
		feedID++
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
		el, err := e.outQ.Get(e.ctx, false)
		if err != nil {
			if e.finalErr == nil {
				e.finalErr = err
			}
			return
		}

		if el.IsControl {
			finished++
			if el.Meta.ErrText != "" && fatalErr == nil {
				fatalErr = fmt.Errorf("%w: %s", ErrWorkerFailure, el.Meta.ErrText)
			}
		} else if e.cfg.PreserveOrder {
			v := e.cfg.JoinPayload(el.Payload, el.Meta.Aux)
			pending[el.Meta.ID] = v
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
			e.resultCh <- Result[S]{Value: e.cfg.JoinPayload(el.Payload, el.Meta.Aux)}
		}

		shuttingDown := sourceDone || fatalErr != nil

		if !shuttingDown {
			feedOne()
			shuttingDown = sourceDone || fatalErr != nil
		}
		if shuttingDown && !sentinelsSent {
			for i := 0; i < e.cfg.WorkerCount-finished; i++ {
				_ = e.inQ.PutControl(e.ctx, sharedMeta{IsEnd: true})
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
