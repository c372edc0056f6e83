// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present hands completed frames to whatever displays them.
//
// TextureSink uploads frames into a GPU texture through gpucontext, the
// way a 3D scene would display them. ImageSink keeps the latest frame as
// an image and can encode every frame as PNG.
package present

import (
	"errors"
	"fmt"

	"github.com/gogpu/framebridge"
)

// ErrClosed is returned when a closed sink receives a frame.
var ErrClosed = errors.New("present: sink is closed")

// Frame is one completed frame. Pix holds Width*Height RGBA8 pixels,
// row-major, top-left origin, and is only valid during OnFrameReady.
type Frame struct {
	Index  uint64
	Width  int
	Height int
	Pix    []byte
}

// Validate checks that Pix matches the dimensions.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("present: invalid frame size %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * framebridge.BytesPerPixel; len(f.Pix) < want {
		return fmt.Errorf("present: frame %d has %d bytes, want %d", f.Index, len(f.Pix), want)
	}
	return nil
}

// Presenter consumes completed frames. OnFrameReady is called once per
// completed request with exactly that request's pixels.
type Presenter interface {
	OnFrameReady(f Frame) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(f Frame) error

// OnFrameReady calls fn.
func (fn PresenterFunc) OnFrameReady(f Frame) error {
	return fn(f)
}
