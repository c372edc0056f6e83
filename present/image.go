// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
)

// ImageSink copies frames into an image and optionally encodes each one
// as PNG.
type ImageSink struct {
	open func(index uint64) (io.WriteCloser, error)

	mu     sync.Mutex
	img    *image.RGBA
	index  uint64
	frames uint64
}

// NewImageSink creates an ImageSink. If open is not nil it is called for
// every frame and the frame is written to the returned writer as PNG.
func NewImageSink(open func(index uint64) (io.WriteCloser, error)) *ImageSink {
	return &ImageSink{open: open}
}

// OnFrameReady copies f and encodes it if the sink writes files.
func (s *ImageSink) OnFrameReady(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := image.Rect(0, 0, f.Width, f.Height)
	if s.img == nil || s.img.Rect != r {
		s.img = image.NewRGBA(r)
	}
	copy(s.img.Pix, f.Pix)
	s.index = f.Index
	s.frames++

	if s.open == nil {
		return nil
	}
	w, err := s.open(f.Index)
	if err != nil {
		return fmt.Errorf("present: open frame %d: %w", f.Index, err)
	}
	if err := png.Encode(w, s.img); err != nil {
		_ = w.Close()
		return fmt.Errorf("present: encode frame %d: %w", f.Index, err)
	}
	return w.Close()
}

// Latest returns a copy of the most recent frame and its index. ok is
// false before the first frame.
func (s *ImageSink) Latest() (img *image.RGBA, index uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, 0, false
	}
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out, s.index, true
}

// Frames returns the number of frames received.
func (s *ImageSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
