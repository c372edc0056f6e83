// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/resource"
)

// Result is a completed frame. It owns either a pixel buffer (copy mode)
// or an imported texture (shared mode) and must be released exactly once.
type Result struct {
	// Frame is the frame index the result was rendered for.
	Frame uint64

	// Mode is the transport the frame arrived by.
	Mode engine.Mode

	// Width and Height are the frame dimensions in pixels.
	Width, Height int

	pool *resource.BufferPool

	mu  sync.Mutex
	buf *resource.Buffer
	tex *resource.ImportedTexture
}

// Pixels returns the frame as tightly packed RGBA8 rows, top-left origin.
// The slice is valid until Release.
//
// In shared mode the first call extracts the texture into a pooled buffer
// and releases the texture right away.
func (r *Result) Pixels() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf != nil {
		return r.buf.Bytes()
	}

	buf := r.pool.Acquire()
	data, err := buf.Bytes()
	if err != nil {
		return nil, errors.Join(err, buf.Release())
	}
	if err := r.tex.Frame(data); err != nil {
		return nil, errors.Join(err, buf.Release())
	}
	tex := r.tex
	r.tex = nil
	r.buf = buf
	if err := tex.Release(); err != nil {
		return nil, fmt.Errorf("frame: release texture after extraction: %w", err)
	}
	return data, nil
}

// Release gives the frame's resources back. Calling it twice is a
// lifecycle violation.
func (r *Result) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.tex != nil {
		errs = append(errs, r.tex.Release())
	}
	if r.buf != nil {
		errs = append(errs, r.buf.Release())
	}
	return errors.Join(errs...)
}

func newCopyResult(frameIndex uint64, buf *resource.Buffer) *Result {
	return &Result{
		Frame:  frameIndex,
		Mode:   engine.ModeCopy,
		Width:  framebridge.FrameWidth,
		Height: framebridge.FrameHeight,
		buf:    buf,
	}
}

func newSharedResult(frameIndex uint64, tex *resource.ImportedTexture, pool *resource.BufferPool) *Result {
	return &Result{
		Frame:  frameIndex,
		Mode:   engine.ModeShared,
		Width:  tex.Width(),
		Height: tex.Height(),
		pool:   pool,
		tex:    tex,
	}
}
