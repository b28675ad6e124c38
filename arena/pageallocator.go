// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

// headerPages is the number of pages reserved at the front of every
// arena for the allocator's own bookkeeping (magic/cursor/pages-in-use
// in the original; here the equivalent state just lives in the Go
// struct, but the page itself is still reserved so page accounting and
// Scenario E's page arithmetic match the original byte layout exactly).
const headerPages = 1

// pageAllocator is a bump allocator over a fixed number of fixed-size
// pages. It tracks free/used pages with one byte per page (byte value 0
// for free and 1 for used, not the ASCII '0'/'1' characters) and a
// cursor that resumes where the last allocation left off.
//
// malloc never coalesces freed runs into a best-fit search, and — this
// is intentional, not an oversight, see the Open Questions in this
// module's design notes — it does not scan page-by-page for a free run
// either: it checks exactly the window [cursor, cursor+n). If that
// window runs past the end of the arena, the cursor resets to
// headerPages and the window is checked once more at the new position.
// Either way exactly one candidate window is tested; a request that
// doesn't fit there fails with ErrOutOfMemory even if free space exists
// elsewhere in the bitmap. This can starve a long-running allocator
// under an adversarial alloc/free pattern; it is not silently papered
// over here, it is simply how the allocator this is adapted from works.
type pageAllocator struct {
	pageCount  int
	cursor     int
	pagesInUse int
	bitmap     []byte // 0 = free, 1 = in use
}

func newPageAllocator(pageCount int) *pageAllocator {
	if pageCount <= headerPages {
		panic("arena: pageCount must be > headerPages")
	}
	pa := &pageAllocator{
		pageCount: pageCount,
		cursor:    headerPages,
		bitmap:    make([]byte, pageCount),
	}
	for i := 0; i < headerPages; i++ {
		pa.bitmap[i] = 1
	}
	pa.pagesInUse = headerPages
	return pa
}

// mallocPages finds n consecutive free pages starting at the cursor (or,
// failing that, at headerPages after one wrap) and marks them in use,
// returning the index of the first page.
func (pa *pageAllocator) mallocPages(n int) (int, error) {
	if n <= 0 || n > pa.pageCount-headerPages {
		return 0, ErrOutOfMemory
	}

	start := pa.cursor
	end := start + n
	if end > pa.pageCount {
		start = headerPages
		end = start + n
	}
	for i := start; i < end; i++ {
		if pa.bitmap[i] != 0 {
			return 0, ErrOutOfMemory
		}
	}

	for i := start; i < end; i++ {
		pa.bitmap[i] = 1
	}
	pa.cursor = end
	if pa.cursor >= pa.pageCount {
		pa.cursor = headerPages
	}
	pa.pagesInUse += n
	return start, nil
}

// freePages clears n pages starting at start, all within a single
// contiguous run — mallocPages never hands out a run that wraps, so
// freePages never needs to either.
func (pa *pageAllocator) freePages(start, n int) error {
	if n <= 0 || start < headerPages || start+n > pa.pageCount {
		return ErrInvalidFree
	}
	for i := start; i < start+n; i++ {
		if pa.bitmap[i] == 0 {
			return ErrInvalidFree
		}
	}
	for i := start; i < start+n; i++ {
		pa.bitmap[i] = 0
	}
	pa.pagesInUse -= n
	return nil
}

// isEmpty reports whether no allocatable pages are currently allocated
// (the header page itself is always counted as in use).
func (pa *pageAllocator) isEmpty() bool { return pa.pagesInUse == headerPages }

// isFull reports whether every allocatable page is currently allocated.
func (pa *pageAllocator) isFull() bool { return pa.pagesInUse == pa.pageCount }
