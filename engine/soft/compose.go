// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/timeline"
)

// renderer is a snapshot of the engine state needed for one frame.
type renderer struct {
	objects    map[string]Object
	effects    map[string]Effect
	cfg        engine.Config
	background color.NRGBA
}

// compose clears dst to the background and draws layers in order.
func (r *renderer) compose(ctx context.Context, dst *image.RGBA, frame uint64, layers []timeline.FrameLayer) error {
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(r.background), image.Point{}, xdraw.Src)
	for i := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := r.layer(frame, &layers[i])
		if err != nil {
			return fmt.Errorf("soft: layer %d: %w", i, err)
		}
		place(dst, img, layers[i].Transform)
	}
	framebridge.Logger().Debug("soft: frame composed", "frame", frame, "layers", len(layers))
	return nil
}

// resolve checks that every plugin layers names is registered and
// enabled.
func (r *renderer) resolve(layers []timeline.FrameLayer) error {
	for i := range layers {
		if !available(r, r.objects, layers[i].Object.Name) {
			return fmt.Errorf("soft: layer %d: %w: object %q", i, engine.ErrUnknownPlugin, layers[i].Object.Name)
		}
		for _, ef := range layers[i].Effects {
			if !available(r, r.effects, ef.Name) {
				return fmt.Errorf("soft: layer %d: %w: effect %q", i, engine.ErrUnknownPlugin, ef.Name)
			}
		}
	}
	return nil
}

func available[P any](r *renderer, plugins map[string]P, name string) bool {
	_, ok := plugins[name]
	return ok && !r.cfg.PluginDisabled(name)
}

// layer generates one layer image and applies its effects.
func (r *renderer) layer(frame uint64, l *timeline.FrameLayer) (*image.NRGBA, error) {
	name := l.Object.Name
	obj, ok := r.objects[name]
	if !ok || r.cfg.PluginDisabled(name) {
		return nil, fmt.Errorf("%w: object %q", engine.ErrUnknownPlugin, name)
	}

	w, err := paramInt(l.Object.Parameters, "width", framebridge.FrameWidth)
	if err != nil {
		return nil, err
	}
	h, err := paramInt(l.Object.Parameters, "height", framebridge.FrameHeight)
	if err != nil {
		return nil, err
	}
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("soft: object %q size %dx%d", name, w, h)
	}

	img, err := obj.Generate(frame, l.Object.Parameters, w, h)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}

	for _, ef := range l.Effects {
		eff, ok := r.effects[ef.Name]
		if !ok || r.cfg.PluginDisabled(ef.Name) {
			return nil, fmt.Errorf("%w: effect %q", engine.ErrUnknownPlugin, ef.Name)
		}
		if err := eff.Apply(img, frame, ef.Parameters); err != nil {
			return nil, fmt.Errorf("effect %q: %w", ef.Name, err)
		}
	}
	return img, nil
}

// place draws src over dst with transform t. The layer is scaled and
// rotated about its center; (X, Y) is where its unrotated top-left
// corner lands.
func place(dst *image.RGBA, src *image.NRGBA, t timeline.Transform) {
	alpha := min(max(t.Alpha, 0), 1)
	if alpha == 0 || t.Scale <= 0 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 0xff))})

	if t.Scale == 1 && math.Mod(t.Rotation, 360) == 0 && t.X == math.Trunc(t.X) && t.Y == math.Trunc(t.Y) {
		sr := src.Bounds()
		r := sr.Add(image.Pt(int(t.X), int(t.Y)))
		xdraw.DrawMask(dst, r, src, sr.Min, mask, image.Point{}, xdraw.Over)
		return
	}

	w, h := float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
	cx, cy := w/2, h/2
	sin, cos := math.Sincos(t.Rotation * math.Pi / 180)
	a, b := t.Scale*cos, -t.Scale*sin
	d, e := t.Scale*sin, t.Scale*cos
	m := f64.Aff3{
		a, b, t.X + t.Scale*cx - (a*cx + b*cy),
		d, e, t.Y + t.Scale*cy - (d*cx + e*cy),
	}
	xdraw.BiLinear.Transform(dst, m, src, src.Bounds(), xdraw.Over, &xdraw.Options{SrcMask: mask})
}
