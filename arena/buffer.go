// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

// SharedBuffer is a handle onto a run of pages inside an Arena. It is a
// plain value — copying it copies the handle, not the bytes it points
// to — and is affine by convention: once passed to Arena.Free, the value
// should not be used again. Arena.Free takes the handle by value and does
// not clear it; freeing the same handle a second time is caught by the
// owning Arena's bitmap check and panics.
type SharedBuffer struct {
	arenaID   ArenaID
	pageStart int
	capBytes  int
	usedBytes int
}

// ArenaID reports the arena that owns this buffer's pages.
func (b SharedBuffer) ArenaID() ArenaID { return b.arenaID }

// Capacity reports the number of bytes available (rounded up to whole
// pages at allocation time).
func (b SharedBuffer) Capacity() int { return b.capBytes }

// Size reports the number of bytes written (the "used" length), which is
// the logical extent of Get's non-negative offsets.
func (b SharedBuffer) Size() int { return b.usedBytes }

// Put copies data into the buffer at offset, which must be at or past the
// buffer's current Size — Put is append-only, mirroring the original
// producer pattern of writing a payload once, left to right. Writing
// before the current used offset returns ErrAlreadyWritten; writing past
// Capacity returns ErrBufferTooSmall.
func (b *SharedBuffer) Put(offset int, data []byte) (int, error) {
	if offset < 0 {
		return 0, ErrBufferTooSmall
	}
	if offset < b.usedBytes {
		return 0, ErrAlreadyWritten
	}
	end := offset + len(data)
	if end > b.capBytes {
		return 0, ErrBufferTooSmall
	}

	a, err := lookupArena(b.arenaID)
	if err != nil {
		return 0, err
	}
	a.putBytes(b.pageStart*a.pageSize+offset, data)
	b.usedBytes = end
	return len(data), nil
}

// Get returns a view of length bytes starting at offset. A negative
// offset is interpreted relative to the end of the written region (Size),
// matching the canonical "offset relative to used" semantics: Get(-4, 4)
// returns the last 4 written bytes. The returned slice aliases the
// arena's backing memory and is only valid until the buffer is resized or
// freed.
func (b SharedBuffer) Get(offset, length int) ([]byte, error) {
	if offset < 0 {
		offset = b.usedBytes + offset
	}
	if offset < 0 || length < 0 || offset+length > b.usedBytes {
		return nil, ErrBufferTooSmall
	}

	a, err := lookupArena(b.arenaID)
	if err != nil {
		return nil, err
	}
	return a.getBytes(b.pageStart*a.pageSize+offset, length), nil
}

// Resize grows the buffer's capacity to at least newCap, reallocating and
// copying the written bytes if necessary. Shrinking is a no-op: Capacity
// never decreases on its own, only via Free.
func (b *SharedBuffer) Resize(newCap int) error {
	if newCap <= b.capBytes {
		return nil
	}

	a, err := lookupArena(b.arenaID)
	if err != nil {
		return err
	}
	grown, err := a.Alloc(newCap)
	if err != nil {
		return err
	}
	if b.usedBytes > 0 {
		data := a.getBytes(b.pageStart*a.pageSize, b.usedBytes)
		if _, err := grown.Put(0, data); err != nil {
			return err
		}
	}
	old := *b
	*b = grown
	a.Free(old)
	return nil
}

// Truncate sets the buffer's used length directly, without touching the
// underlying bytes. It is used to shrink Size back down after an
// over-sized Put (e.g. a reused scratch buffer) established a larger
// extent than the final payload needs.
func (b *SharedBuffer) Truncate(newUsed int) error {
	if newUsed < 0 || newUsed > b.capBytes {
		return ErrBufferTooSmall
	}
	b.usedBytes = newUsed
	return nil
}
