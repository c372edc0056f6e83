// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framebridge"
)

// SharedTexture is a texture resident in engine-owned memory.
//
// The engine hands out a SharedTexture per shared-handle frame. The
// receiver reads it with ReadPixels and must call Release exactly once,
// otherwise the engine leaks the underlying resource.
type SharedTexture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Format returns the pixel format. RGBA8 and BGRA8 are supported by
	// ImportedTexture.Frame.
	Format() gputypes.TextureFormat

	// ReadPixels copies the texture into dst, tightly packed, in the
	// texture's own format.
	ReadPixels(dst []byte) error

	// Release returns the texture to the engine.
	Release() error
}

// TrackerStats reports TextureTracker activity.
type TrackerStats struct {
	Imports     uint64
	Releases    uint64
	Rejected    uint64
	Outstanding int
}

// TextureTracker enforces the one-outstanding-import rule of
// shared-handle mode.
//
// Thread safety: all methods are safe for concurrent use.
type TextureTracker struct {
	mu          sync.Mutex
	outstanding *ImportedTexture
	stats       TrackerStats
}

// NewTextureTracker creates an empty tracker.
func NewTextureTracker() *TextureTracker {
	return &TextureTracker{}
}

// Import borrows tex. If another import is still outstanding, tex is
// released immediately so it cannot leak, and a lifecycle violation is
// returned.
func (t *TextureTracker) Import(tex SharedTexture) (*ImportedTexture, error) {
	if tex == nil {
		return nil, errors.New("resource: import of nil texture")
	}

	t.mu.Lock()
	if t.outstanding != nil {
		t.stats.Rejected++
		t.mu.Unlock()
		if err := tex.Release(); err != nil {
			framebridge.Logger().Warn("resource: release of rejected texture failed", "err", err)
		}
		return nil, violation("texture", "import", "another import outstanding")
	}
	it := &ImportedTexture{tracker: t, tex: tex}
	t.outstanding = it
	t.stats.Imports++
	t.mu.Unlock()

	framebridge.Logger().Debug("resource: texture imported",
		"width", tex.Width(), "height", tex.Height(), "format", tex.Format().String())
	return it, nil
}

// Outstanding reports whether an import has not been released yet.
func (t *TextureTracker) Outstanding() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outstanding != nil
}

// Ready returns a lifecycle violation while an import is outstanding.
// A shared-mode requester calls it before asking the engine for the next
// texture, so the refused request never reaches the engine.
func (t *TextureTracker) Ready() error {
	t.mu.Lock()
	busy := t.outstanding != nil
	if busy {
		t.stats.Rejected++
	}
	t.mu.Unlock()
	if busy {
		return violation("texture", "request", "another import outstanding")
	}
	return nil
}

// Stats returns a snapshot of the tracker counters.
func (t *TextureTracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	if t.outstanding != nil {
		s.Outstanding = 1
	}
	return s
}

func (t *TextureTracker) released(it *ImportedTexture) {
	t.mu.Lock()
	if t.outstanding == it {
		t.outstanding = nil
	}
	t.stats.Releases++
	t.mu.Unlock()
}

// ImportedTexture is a borrowed SharedTexture. Frame extracts its pixels,
// Release gives it back; they must be called in that order and Release
// exactly once.
type ImportedTexture struct {
	tracker *TextureTracker
	tex     SharedTexture

	mu       sync.Mutex
	consumed bool
	released bool
}

// Width returns the texture width in pixels.
func (it *ImportedTexture) Width() int { return it.tex.Width() }

// Height returns the texture height in pixels.
func (it *ImportedTexture) Height() int { return it.tex.Height() }

// Frame copies the texture into dst as tightly packed RGBA8.
// dst must hold Width*Height*4 bytes.
func (it *ImportedTexture) Frame(dst []byte) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.released {
		return violation("texture", "consume", "released")
	}

	want := it.tex.Width() * it.tex.Height() * framebridge.BytesPerPixel
	if len(dst) < want {
		return fmt.Errorf("resource: frame destination is %d bytes, want %d", len(dst), want)
	}

	format := it.tex.Format()
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		if err := it.tex.ReadPixels(dst[:want]); err != nil {
			return fmt.Errorf("resource: read texture: %w", err)
		}
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		if err := it.tex.ReadPixels(dst[:want]); err != nil {
			return fmt.Errorf("resource: read texture: %w", err)
		}
		swizzleBGRA(dst[:want])
	default:
		return fmt.Errorf("resource: unsupported texture format %s", format)
	}

	it.consumed = true
	return nil
}

// Consumed reports whether Frame has succeeded at least once.
func (it *ImportedTexture) Consumed() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.consumed
}

// Release returns the texture to the engine.
func (it *ImportedTexture) Release() error {
	it.mu.Lock()
	if it.released {
		it.mu.Unlock()
		return violation("texture", "release", "released")
	}
	it.released = true
	it.mu.Unlock()

	it.tracker.released(it)
	if err := it.tex.Release(); err != nil {
		return fmt.Errorf("resource: release texture: %w", err)
	}
	return nil
}

// swizzleBGRA converts BGRA8 pixels to RGBA8 in place.
func swizzleBGRA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
