// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import "errors"

// ErrOutOfMemory is returned when an arena has no run of free pages large
// enough to satisfy an allocation request.
var ErrOutOfMemory = errors.New("arena: out of memory")

// ErrInvalidFree indicates a free targeting pages that are not currently
// allocated (double free, or a handle from a prior generation). It is a
// fatal condition: the caller's Arena.Free panics with this error rather
// than returning it, since a corrupted bitmap cannot be trusted for any
// further allocation.
var ErrInvalidFree = errors.New("arena: invalid free")

// ErrCrossArenaFree indicates a SharedBuffer handle being freed against an
// Arena that did not allocate it. Like ErrInvalidFree, this is fatal.
var ErrCrossArenaFree = errors.New("arena: cross-arena free")

// ErrBufferTooSmall is returned when a Put or Get would read or write past
// a SharedBuffer's allocated capacity or recorded length.
var ErrBufferTooSmall = errors.New("arena: buffer too small")

// ErrAlreadyWritten is returned by Put when the requested offset falls
// inside a region the buffer has already committed — SharedBuffer.Put is
// append-only by design (see buffer.go).
var ErrAlreadyWritten = errors.New("arena: region already written")
