// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"
	"sync"

	"github.com/gogpu/framebridge"
)

// bufferState is the ownership state of an acquired Buffer.
type bufferState uint8

const (
	bufferOwned bufferState = iota
	bufferTransferred
	bufferReleased
	bufferForfeited
)

func (s bufferState) String() string {
	switch s {
	case bufferOwned:
		return "owned"
	case bufferTransferred:
		return "transferred"
	case bufferReleased:
		return "released"
	case bufferForfeited:
		return "forfeited"
	default:
		return "unknown"
	}
}

// PoolStats reports BufferPool activity.
type PoolStats struct {
	// Allocations is the number of buffers allocated.
	Allocations uint64
	// Reuses is the number of acquisitions served by the pooled buffer.
	Reuses uint64
	// Outstanding is the number of acquired buffers not yet released or
	// forfeited.
	Outstanding int
}

// BufferPool keeps at most one reusable frame buffer.
//
// Acquire hands out the pooled buffer when it is idle and allocates a
// fresh one otherwise; Release puts a buffer back only if the slot is
// empty. Every acquisition yields a new Buffer handle, so a stale handle
// can never release the pooled memory twice.
//
// Thread safety: all methods are safe for concurrent use.
type BufferPool struct {
	size int

	mu    sync.Mutex
	idle  []byte
	stats PoolStats
}

// NewBufferPool creates a pool of buffers of the given size in bytes.
// A non-positive size selects framebridge.FrameSize.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = framebridge.FrameSize
	}
	return &BufferPool{size: size}
}

// Size returns the buffer size in bytes.
func (p *BufferPool) Size() int {
	return p.size
}

// Acquire returns a buffer owned by the caller.
func (p *BufferPool) Acquire() *Buffer {
	p.mu.Lock()
	data := p.idle
	p.idle = nil
	if data != nil {
		p.stats.Reuses++
	} else {
		p.stats.Allocations++
	}
	p.stats.Outstanding++
	p.mu.Unlock()

	if data == nil {
		data = make([]byte, p.size)
		framebridge.Logger().Debug("resource: frame buffer allocated", "bytes", p.size)
	}
	return &Buffer{pool: p, data: data}
}

// Stats returns a snapshot of the pool counters.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *BufferPool) put(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Outstanding--
	if data != nil && p.idle == nil && len(data) == p.size {
		p.idle = data
	}
}

func (p *BufferPool) drop() {
	p.mu.Lock()
	p.stats.Outstanding--
	p.mu.Unlock()
}

// Buffer is one acquisition of a pool buffer.
//
// Its lifecycle is owned -> (Transfer -> transferred -> Reclaim ->
// owned)* -> Release. Bytes is only legal while owned. Release must be
// called exactly once; a Buffer whose transfer never comes back is
// abandoned with Forfeit.
type Buffer struct {
	pool *BufferPool

	mu    sync.Mutex
	data  []byte
	state bufferState
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	return b.pool.size
}

// Bytes returns the pixel memory. The slice must not be retained past
// Transfer or Release.
func (b *Buffer) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != bufferOwned {
		return nil, violation("buffer", "read", b.state.String())
	}
	return b.data, nil
}

// Transfer hands the memory to the engine. Until Reclaim the caller no
// longer owns it.
func (b *Buffer) Transfer() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != bufferOwned {
		return nil, violation("buffer", "transfer", b.state.String())
	}
	data := b.data
	b.data = nil
	b.state = bufferTransferred
	return data, nil
}

// Reclaim takes back memory returned by the engine. data must be exactly
// Len bytes; it may be the transferred slice or a replacement.
func (b *Buffer) Reclaim(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != bufferTransferred {
		return violation("buffer", "reclaim", b.state.String())
	}
	if len(data) != b.pool.size {
		return fmt.Errorf("resource: returned buffer is %d bytes, want %d", len(data), b.pool.size)
	}
	b.data = data
	b.state = bufferOwned
	return nil
}

// Release returns the buffer to the pool.
func (b *Buffer) Release() error {
	b.mu.Lock()
	if b.state != bufferOwned {
		state := b.state
		b.mu.Unlock()
		return violation("buffer", "release", state.String())
	}
	data := b.data
	b.data = nil
	b.state = bufferReleased
	b.mu.Unlock()

	b.pool.put(data)
	return nil
}

// Forfeit abandons a transferred buffer that will not come back, for
// example because the channel closed while the engine held it.
func (b *Buffer) Forfeit() error {
	b.mu.Lock()
	if b.state != bufferTransferred {
		state := b.state
		b.mu.Unlock()
		return violation("buffer", "forfeit", state.String())
	}
	b.state = bufferForfeited
	b.mu.Unlock()

	b.pool.drop()
	return nil
}
