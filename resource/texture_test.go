// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/framebridge"
)

type fakeTexture struct {
	w, h     int
	format   gputypes.TextureFormat
	pix      []byte
	readErr  error
	releases atomic.Int32
}

func newFakeTexture(w, h int, format gputypes.TextureFormat) *fakeTexture {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 1, 2, 3, 4
	}
	return &fakeTexture{w: w, h: h, format: format, pix: pix}
}

func (f *fakeTexture) Width() int                     { return f.w }
func (f *fakeTexture) Height() int                    { return f.h }
func (f *fakeTexture) Format() gputypes.TextureFormat { return f.format }

func (f *fakeTexture) ReadPixels(dst []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	copy(dst, f.pix)
	return nil
}

func (f *fakeTexture) Release() error {
	f.releases.Add(1)
	return nil
}

func TestImportFrameRelease(t *testing.T) {
	tr := NewTextureTracker()
	tex := newFakeTexture(2, 2, gputypes.TextureFormatRGBA8Unorm)

	it, err := tr.Import(tex)
	require.NoError(t, err)
	assert.True(t, tr.Outstanding())
	assert.Equal(t, 2, it.Width())
	assert.Equal(t, 2, it.Height())

	dst := make([]byte, 16)
	require.NoError(t, it.Frame(dst))
	assert.Equal(t, []byte{1, 2, 3, 4}, dst[:4])
	assert.True(t, it.Consumed())

	require.NoError(t, it.Release())
	assert.False(t, tr.Outstanding())
	assert.Equal(t, int32(1), tex.releases.Load())

	s := tr.Stats()
	assert.Equal(t, uint64(1), s.Imports)
	assert.Equal(t, uint64(1), s.Releases)
	assert.Zero(t, s.Outstanding)
}

func TestImportSwizzlesBGRA(t *testing.T) {
	tr := NewTextureTracker()
	it, err := tr.Import(newFakeTexture(1, 1, gputypes.TextureFormatBGRA8Unorm))
	require.NoError(t, err)

	dst := make([]byte, 4)
	require.NoError(t, it.Frame(dst))
	assert.Equal(t, []byte{3, 2, 1, 4}, dst)
	require.NoError(t, it.Release())
}

func TestImportTwiceWithoutReleaseIsViolation(t *testing.T) {
	tr := NewTextureTracker()
	first := newFakeTexture(1, 1, gputypes.TextureFormatRGBA8Unorm)
	second := newFakeTexture(1, 1, gputypes.TextureFormatRGBA8Unorm)

	it, err := tr.Import(first)
	require.NoError(t, err)

	_, err = tr.Import(second)
	isViolation(t, err)
	assert.Equal(t, int32(1), second.releases.Load(), "rejected handle must not leak")
	assert.Equal(t, uint64(1), tr.Stats().Rejected)

	require.NoError(t, it.Release())
	assert.Equal(t, int32(1), first.releases.Load())
}

func TestReadyWhileImportOutstanding(t *testing.T) {
	tr := NewTextureTracker()
	require.NoError(t, tr.Ready())

	it, err := tr.Import(newFakeTexture(1, 1, gputypes.TextureFormatRGBA8Unorm))
	require.NoError(t, err)
	isViolation(t, tr.Ready())
	assert.Equal(t, uint64(1), tr.Stats().Rejected)

	require.NoError(t, it.Release())
	assert.NoError(t, tr.Ready())
}

func TestImportedTextureViolations(t *testing.T) {
	tr := NewTextureTracker()
	tex := newFakeTexture(1, 1, gputypes.TextureFormatRGBA8Unorm)
	it, err := tr.Import(tex)
	require.NoError(t, err)
	require.NoError(t, it.Release())

	isViolation(t, it.Release())
	isViolation(t, it.Frame(make([]byte, 4)))
	assert.Equal(t, int32(1), tex.releases.Load())
}

func TestImportedTextureErrors(t *testing.T) {
	tr := NewTextureTracker()

	_, err := tr.Import(nil)
	require.Error(t, err)

	tex := newFakeTexture(2, 1, gputypes.TextureFormatRGBA8Unorm)
	it, err := tr.Import(tex)
	require.NoError(t, err)

	err = it.Frame(make([]byte, 4))
	require.Error(t, err)
	assert.NotErrorIs(t, err, framebridge.ErrLifecycleViolation)

	tex.readErr = errors.New("device lost")
	err = it.Frame(make([]byte, 8))
	assert.ErrorIs(t, err, tex.readErr)
	assert.False(t, it.Consumed())
	require.NoError(t, it.Release())

	depth := newFakeTexture(1, 1, gputypes.TextureFormatDepth32Float)
	it, err = tr.Import(depth)
	require.NoError(t, err)
	assert.Error(t, it.Frame(make([]byte, 4)))
	require.NoError(t, it.Release())
}
