// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/framebridge/engine"
)

// Object generates layer content.
type Object interface {
	Generate(frame uint64, params map[string]any, width, height int) (*image.NRGBA, error)
}

// ObjectFunc adapts a function to Object.
type ObjectFunc func(frame uint64, params map[string]any, width, height int) (*image.NRGBA, error)

// Generate calls f.
func (f ObjectFunc) Generate(frame uint64, params map[string]any, width, height int) (*image.NRGBA, error) {
	return f(frame, params, width, height)
}

// Effect transforms layer content in place.
type Effect interface {
	Apply(img *image.NRGBA, frame uint64, params map[string]any) error
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(img *image.NRGBA, frame uint64, params map[string]any) error

// Apply calls f.
func (f EffectFunc) Apply(img *image.NRGBA, frame uint64, params map[string]any) error {
	return f(img, frame, params)
}

// Test bar colors, left to right.
var barColors = [...]color.NRGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff},
}

// barScroll is the horizontal scroll of the test pattern per frame.
const barScroll = 8

func testObject(frame uint64, _ map[string]any, width, height int) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	barWidth := max(width/len(barColors), 1)
	shift := int(frame * barScroll % uint64(width))
	for x := range width {
		c := barColors[((x+shift)%width)/barWidth%len(barColors)]
		for y := range height {
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

func solidObject(_ uint64, params map[string]any, width, height int) (*image.NRGBA, error) {
	c, err := paramColor(params, "color", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

func checkerObject(_ uint64, params map[string]any, width, height int) (*image.NRGBA, error) {
	size, err := paramInt(params, "size", 32)
	if err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, fmt.Errorf("soft: checker size must be positive, got %d", size)
	}
	colors := [2]color.NRGBA{{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, {R: 0x00, G: 0x00, B: 0x00, A: 0xff}}
	if v, ok := params["colors"]; ok {
		var list []string
		switch l := v.(type) {
		case []string:
			list = l
		case []any:
			for i, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("soft: checker color %d is %T, want string", i, item)
				}
				list = append(list, s)
			}
		}
		if len(list) != 2 {
			return nil, errors.New("soft: checker colors must be a list of two colors")
		}
		for i, s := range list {
			if colors[i], err = engine.ParseColor(s); err != nil {
				return nil, err
			}
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, colors[(x/size+y/size)%2])
		}
	}
	return img, nil
}

func invertEffect(img *image.NRGBA, _ uint64, _ map[string]any) error {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = 0xff - pix[i]
		pix[i+1] = 0xff - pix[i+1]
		pix[i+2] = 0xff - pix[i+2]
	}
	return nil
}

func grayscaleEffect(img *image.NRGBA, _ uint64, _ map[string]any) error {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		// Rec. 601 luma in 16.16 fixed point.
		y := (19595*uint32(pix[i]) + 38470*uint32(pix[i+1]) + 7471*uint32(pix[i+2]) + 1<<15) >> 16
		pix[i], pix[i+1], pix[i+2] = uint8(y), uint8(y), uint8(y)
	}
	return nil
}

func opacityEffect(img *image.NRGBA, _ uint64, params map[string]any) error {
	amount, err := paramFloat(params, "amount", 1)
	if err != nil {
		return err
	}
	if amount < 0 || amount > 1 || math.IsNaN(amount) {
		return fmt.Errorf("soft: opacity amount %v outside [0, 1]", amount)
	}
	pix := img.Pix
	for i := 3; i < len(pix); i += 4 {
		pix[i] = uint8(math.Round(float64(pix[i]) * amount))
	}
	return nil
}

func paramFloat(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("soft: parameter %q is %T, want number", key, v)
	}
}

func paramInt(params map[string]any, key string, def int) (int, error) {
	f, err := paramFloat(params, key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("soft: parameter %q is %v, want integer", key, f)
	}
	return int(f), nil
}

func paramColor(params map[string]any, key string, def color.NRGBA) (color.NRGBA, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("soft: parameter %q is %T, want color string", key, v)
	}
	return engine.ParseColor(s)
}
