// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTexture implements the texture interfaces for testing.
type mockTexture struct {
	width     int
	height    int
	data      []byte
	destroyed bool
	updated   int
	failWith  error
}

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

func (m *mockTexture) UpdateData(data []byte) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.data = bytes.Clone(data)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() {
	m.destroyed = true
}

// mockCreator implements gpucontext.TextureCreator for testing.
type mockCreator struct {
	textures []*mockTexture
	failNext bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock texture creation failed")
	}
	tex := &mockTexture{width: width, height: height, data: bytes.Clone(data)}
	m.textures = append(m.textures, tex)
	return tex, nil
}

// mockDrawer implements gpucontext.TextureDrawer for testing.
type mockDrawer struct {
	creator   *mockCreator
	drawn     gpucontext.Texture
	drawnX    float32
	drawnY    float32
	drawCount int
}

func (m *mockDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawn = tex
	m.drawnX, m.drawnY = x, y
	m.drawCount++
	return nil
}

func (m *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	return m.creator
}

// rows builds a w x h frame whose row y is filled with byte(y+1).
func rows(index uint64, w, h int) Frame {
	pix := make([]byte, w*h*4)
	for y := range h {
		for i := y * w * 4; i < (y+1)*w*4; i++ {
			pix[i] = byte(y + 1)
		}
	}
	return Frame{Index: index, Width: w, Height: h, Pix: pix}
}

func TestFrameValidate(t *testing.T) {
	assert.NoError(t, rows(0, 2, 2).Validate())
	assert.Error(t, Frame{Width: 0, Height: 2}.Validate())
	assert.Error(t, Frame{Width: 2, Height: 2, Pix: make([]byte, 15)}.Validate())
}

func TestTextureSinkCreatesThenUpdates(t *testing.T) {
	creator := &mockCreator{}
	s := NewTextureSink(creator, TextureOptions{})

	require.NoError(t, s.OnFrameReady(rows(0, 2, 2)))
	require.Len(t, creator.textures, 1)
	tex := creator.textures[0]
	assert.Equal(t, byte(1), tex.data[0])
	assert.Zero(t, tex.updated)

	next := rows(1, 2, 2)
	next.Pix[0] = 9
	require.NoError(t, s.OnFrameReady(next))
	assert.Len(t, creator.textures, 1, "same size reuses the texture")
	assert.Equal(t, 1, tex.updated)
	assert.Equal(t, byte(9), tex.data[0])
	assert.Equal(t, uint64(2), s.Frames())
	assert.Same(t, tex, s.Texture())
}

func TestTextureSinkFlipY(t *testing.T) {
	creator := &mockCreator{}
	s := NewTextureSink(creator, TextureOptions{FlipY: true})

	f := rows(0, 1, 3)
	require.NoError(t, s.OnFrameReady(f))
	tex := creator.textures[0]
	assert.Equal(t, byte(3), tex.data[0], "last row first")
	assert.Equal(t, byte(1), tex.data[8])
	assert.Equal(t, byte(1), f.Pix[0], "input is not modified")
}

func TestTextureSinkResizeDefersDestroy(t *testing.T) {
	creator := &mockCreator{}
	s := NewTextureSink(creator, TextureOptions{})

	require.NoError(t, s.OnFrameReady(rows(0, 2, 2)))
	require.NoError(t, s.OnFrameReady(rows(1, 4, 2)))
	require.Len(t, creator.textures, 2)
	assert.False(t, creator.textures[0].destroyed, "old texture may still be in use")

	require.NoError(t, s.OnFrameReady(rows(2, 4, 2)))
	assert.True(t, creator.textures[0].destroyed)
	assert.False(t, creator.textures[1].destroyed)
}

func TestTextureSinkErrors(t *testing.T) {
	creator := &mockCreator{failNext: true}
	s := NewTextureSink(creator, TextureOptions{})

	assert.Error(t, s.OnFrameReady(rows(0, 2, 2)))
	assert.Error(t, s.OnFrameReady(Frame{Width: 2, Height: 2}))

	require.NoError(t, s.OnFrameReady(rows(1, 2, 2)))
	creator.textures[0].failWith = errors.New("device lost")
	assert.ErrorIs(t, s.OnFrameReady(rows(2, 2, 2)), creator.textures[0].failWith)
}

func TestTextureSinkDrawAndClose(t *testing.T) {
	creator := &mockCreator{}
	drawer := &mockDrawer{creator: creator}
	s := NewTextureSink(drawer.TextureCreator(), TextureOptions{})

	require.NoError(t, s.Draw(drawer, 0, 0))
	assert.Zero(t, drawer.drawCount, "nothing to draw before the first frame")

	require.NoError(t, s.OnFrameReady(rows(0, 2, 2)))
	require.NoError(t, s.Draw(drawer, 10, 20))
	assert.Equal(t, 1, drawer.drawCount)
	assert.Same(t, creator.textures[0], drawer.drawn)
	assert.Equal(t, float32(10), drawer.drawnX)
	assert.Equal(t, float32(20), drawer.drawnY)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, creator.textures[0].destroyed)
	assert.ErrorIs(t, s.OnFrameReady(rows(1, 2, 2)), ErrClosed)
	assert.ErrorIs(t, s.Draw(drawer, 0, 0), ErrClosed)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func TestImageSink(t *testing.T) {
	var encoded []*bytes.Buffer
	s := NewImageSink(func(uint64) (io.WriteCloser, error) {
		b := &bytes.Buffer{}
		encoded = append(encoded, b)
		return nopCloser{b}, nil
	})

	_, _, ok := s.Latest()
	assert.False(t, ok)

	require.NoError(t, s.OnFrameReady(rows(5, 2, 3)))
	img, index, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(5), index)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, byte(3), img.Pix[img.PixOffset(0, 2)])

	require.Len(t, encoded, 1)
	decoded, err := png.Decode(encoded[0])
	require.NoError(t, err)
	r, _, _, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(2*0x101), r)
	assert.Equal(t, uint64(1), s.Frames())
}

func TestImageSinkOpenError(t *testing.T) {
	s := NewImageSink(func(uint64) (io.WriteCloser, error) {
		return nil, errors.New("disk full")
	})
	assert.Error(t, s.OnFrameReady(rows(0, 1, 1)))

	mem := NewImageSink(nil)
	require.NoError(t, mem.OnFrameReady(rows(0, 1, 1)))
	assert.Equal(t, uint64(1), mem.Frames())
}
