// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framebridge"
)

// textureDestroyer matches GPU textures that free their memory explicitly.
type textureDestroyer interface {
	Destroy()
}

// TextureOptions configures a TextureSink.
type TextureOptions struct {
	// FlipY uploads rows bottom-up, for scenes whose texture origin is the
	// bottom-left corner.
	FlipY bool
}

// TextureSink uploads frames into a GPU texture.
//
// The texture is created lazily from the first frame. Later frames of the
// same size update it in place. When the size changes a new texture is
// created and the old one is destroyed on the next upload, since the GPU
// may still be sampling it.
type TextureSink struct {
	creator gpucontext.TextureCreator
	opts    TextureOptions

	mu         sync.Mutex
	texture    gpucontext.Texture
	oldTexture gpucontext.Texture
	scratch    []byte
	frames     uint64
	closed     bool
}

// NewTextureSink creates a sink that creates textures through creator.
func NewTextureSink(creator gpucontext.TextureCreator, opts TextureOptions) *TextureSink {
	return &TextureSink{creator: creator, opts: opts}
}

// OnFrameReady uploads f.
func (s *TextureSink) OnFrameReady(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data := f.Pix[:f.Width*f.Height*framebridge.BytesPerPixel]
	if s.opts.FlipY {
		data = s.flip(data, f.Width, f.Height)
	}

	if s.oldTexture != nil {
		destroy(s.oldTexture)
		s.oldTexture = nil
	}

	if s.texture != nil && (s.texture.Width() != f.Width || s.texture.Height() != f.Height) {
		s.oldTexture = s.texture
		s.texture = nil
	}

	if s.texture == nil {
		tex, err := s.creator.NewTextureFromRGBA(f.Width, f.Height, data)
		if err != nil {
			return fmt.Errorf("present: NewTextureFromRGBA failed: %w", err)
		}
		s.texture = tex
		s.frames++
		return nil
	}

	updater, ok := s.texture.(gpucontext.TextureUpdater)
	if !ok {
		return fmt.Errorf("present: texture %T cannot be updated", s.texture)
	}
	if err := updater.UpdateData(data); err != nil {
		return fmt.Errorf("present: texture update failed: %w", err)
	}
	s.frames++
	return nil
}

// Draw draws the current texture at (x, y). It does nothing before the
// first frame.
func (s *TextureSink) Draw(drawer gpucontext.TextureDrawer, x, y float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.texture == nil {
		return nil
	}
	return drawer.DrawTexture(s.texture, x, y)
}

// Texture returns the current texture, or nil before the first frame.
func (s *TextureSink) Texture() gpucontext.Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texture
}

// Frames returns the number of frames uploaded.
func (s *TextureSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close destroys the textures. Close is idempotent.
func (s *TextureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.oldTexture != nil {
		destroy(s.oldTexture)
		s.oldTexture = nil
	}
	if s.texture != nil {
		destroy(s.texture)
		s.texture = nil
	}
	return nil
}

func (s *TextureSink) flip(data []byte, width, height int) []byte {
	if cap(s.scratch) < len(data) {
		s.scratch = make([]byte, len(data))
	}
	out := s.scratch[:len(data)]
	stride := width * framebridge.BytesPerPixel
	for y := range height {
		copy(out[(height-1-y)*stride:(height-y)*stride], data[y*stride:(y+1)*stride])
	}
	return out
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
