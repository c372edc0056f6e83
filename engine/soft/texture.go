// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framebridge"
)

// Errors returned by shared textures.
var (
	// ErrNoTextureSlot is returned by RenderLayers in shared mode when every
	// texture slot is held by a consumer.
	ErrNoTextureSlot = errors.New("soft: no free texture slot")

	// ErrTextureReleased is returned when a released texture is used.
	ErrTextureReleased = errors.New("soft: texture released")
)

// slotPool is a fixed set of engine-owned BGRA8 frame stores.
type slotPool struct {
	size int

	mu   sync.Mutex
	free [][]byte
	live int
}

func newSlotPool(size int) *slotPool {
	return &slotPool{size: size}
}

// get returns a free store, allocating one while fewer than size
// stores exist.
func (p *slotPool) get() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		pix := p.free[n-1]
		p.free = p.free[:n-1]
		p.live++
		return pix, nil
	}
	if p.live+len(p.free) >= p.size {
		return nil, ErrNoTextureSlot
	}
	p.live++
	return make([]byte, framebridge.FrameSize), nil
}

func (p *slotPool) put(pix []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live--
	p.free = append(p.free, pix)
}

func (p *slotPool) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// texture is a rendered frame held in a slot.
type texture struct {
	pool *slotPool

	mu  sync.Mutex
	pix []byte
}

func (t *texture) Width() int                     { return framebridge.FrameWidth }
func (t *texture) Height() int                    { return framebridge.FrameHeight }
func (t *texture) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func (t *texture) ReadPixels(dst []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pix == nil {
		return ErrTextureReleased
	}
	if len(dst) < len(t.pix) {
		return fmt.Errorf("soft: read destination is %d bytes, want %d", len(dst), len(t.pix))
	}
	copy(dst, t.pix)
	return nil
}

func (t *texture) Release() error {
	t.mu.Lock()
	pix := t.pix
	t.pix = nil
	t.mu.Unlock()
	if pix == nil {
		return ErrTextureReleased
	}
	t.pool.put(pix)
	return nil
}
