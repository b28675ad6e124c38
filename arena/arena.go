// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package arena implements the page-allocated shared-memory backing store
// that SharedBuffer handles are carved out of, and the blocking
// SharedQueue in package queue passes between pipeline stages.
//
// A real multi-process deployment would back an Arena with OS shared
// memory (mmap over a memfd or SysV/POSIX shm segment) so sibling
// processes can map the same bytes. This package instead backs an Arena
// with a single process-owned []byte: the allocator, bitmap and handle
// arithmetic are unchanged either way, and a single-process byte slice
// keeps the library portable and testable without platform-specific
// syscalls. xmap's SubprocessSharedMemory mode is the seam where a real
// deployment would swap in an mmap-backed Arena without touching anything
// above it — see DESIGN.md.
package arena

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity is the default total size of an Arena's backing store.
const DefaultCapacity = 1 << 30 // 1 GiB

// DefaultPageSize is the default page granularity pages are allocated in.
const DefaultPageSize = 64 << 10 // 64 KiB

// ArenaID identifies an Arena across process boundaries: a process-scoped
// tag plus a monotonically increasing sequence number, so a SharedBuffer
// handle can be resolved back to its owning Arena even after the owning
// process has created and torn down several arenas.
type ArenaID struct {
	PID int32
	Seq uint32
}

func (id ArenaID) String() string {
	return fmt.Sprintf("%d-%d", id.PID, id.Seq)
}

var arenaSeq uint32
var registry sync.Map // ArenaID -> *Arena

// Arena is a page-allocated region of (logically) shared memory. All
// allocation and free calls serialize on a single mutex, matching the
// original design's single intra-process lock around the bitmap; raw byte
// copies (putBytes/getBytes) do not take the lock, since once a
// SharedBuffer handle exists its page range is exclusively owned by the
// holder until Free.
type Arena struct {
	id       ArenaID
	mu       sync.Mutex
	mem      []byte
	pages    *pageAllocator
	pageSize int
	log      *logrus.Entry
}

// Option configures New.
type Option func(*arenaConfig)

type arenaConfig struct {
	capacity int
	pageSize int
	logger   *logrus.Logger
}

// WithCapacity overrides DefaultCapacity.
func WithCapacity(bytes int) Option { return func(c *arenaConfig) { c.capacity = bytes } }

// WithPageSize overrides DefaultPageSize.
func WithPageSize(bytes int) Option { return func(c *arenaConfig) { c.pageSize = bytes } }

// WithLogger attaches a logrus.Logger used for leak diagnostics on Close.
func WithLogger(l *logrus.Logger) Option { return func(c *arenaConfig) { c.logger = l } }

// New creates an Arena, registering it so SharedBuffer handles produced by
// it can be resolved back to this Arena by ArenaID.
func New(opts ...Option) *Arena {
	cfg := arenaConfig{capacity: DefaultCapacity, pageSize: DefaultPageSize, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	pageCount := cfg.capacity / cfg.pageSize
	if pageCount <= headerPages {
		panic("arena: capacity must hold more than the reserved header page")
	}

	id := ArenaID{PID: int32(os.Getpid()), Seq: atomic.AddUint32(&arenaSeq, 1)}
	a := &Arena{
		id:       id,
		mem:      make([]byte, cfg.capacity),
		pages:    newPageAllocator(pageCount),
		pageSize: cfg.pageSize,
		log:      cfg.logger.WithField("arena", id.String()),
	}
	registry.Store(id, a)
	return a
}

// ID returns the arena's identity.
func (a *Arena) ID() ArenaID { return a.id }

// Alloc reserves enough whole pages to hold size bytes and returns a
// zero-length SharedBuffer handle over them.
func (a *Arena) Alloc(size int) (SharedBuffer, error) {
	if size < 0 {
		return SharedBuffer{}, ErrOutOfMemory
	}
	pages := (size + a.pageSize - 1) / a.pageSize
	if pages == 0 {
		pages = 1
	}

	a.mu.Lock()
	start, err := a.pages.mallocPages(pages)
	a.mu.Unlock()
	if err != nil {
		return SharedBuffer{}, err
	}

	return SharedBuffer{
		arenaID:   a.id,
		pageStart: start,
		capBytes:  pages * a.pageSize,
	}, nil
}

// Free releases the pages backing b. Freeing a handle from a different
// arena, or double-freeing a handle, is a fatal programming error: Free
// panics rather than returning an error, since the bitmap can no longer
// be trusted once that happens.
func (a *Arena) Free(b SharedBuffer) {
	if b.arenaID != a.id {
		a.log.WithField("handle_arena", b.arenaID).Panic(ErrCrossArenaFree)
	}
	pages := b.capBytes / a.pageSize

	a.mu.Lock()
	err := a.pages.freePages(b.pageStart, pages)
	a.mu.Unlock()
	if err != nil {
		a.log.WithField("page_start", b.pageStart).Panic(err)
	}
}

// Close releases the Arena's registry entry, logging if pages are still
// in use — a leaked SharedBuffer is a caller bug, and an Arena going out
// of scope with pages still allocated is the most actionable place to
// surface it.
func (a *Arena) Close() error {
	registry.Delete(a.id)
	a.mu.Lock()
	inUse := a.pages.pagesInUse
	a.mu.Unlock()
	if inUse > headerPages {
		a.log.WithField("pages_in_use", inUse).Warn("arena closed with outstanding allocations")
	}
	return nil
}

func (a *Arena) putBytes(offset int, data []byte) {
	copy(a.mem[offset:], data)
}

func (a *Arena) getBytes(offset, length int) []byte {
	return a.mem[offset : offset+length]
}

func lookupArena(id ArenaID) (*Arena, error) {
	v, ok := registry.Load(id)
	if !ok {
		return nil, ErrInvalidFree
	}
	return v.(*Arena), nil
}
