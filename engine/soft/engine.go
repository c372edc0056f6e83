// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/resource"
	"github.com/gogpu/framebridge/timeline"
)

// Engine is a software compositing engine. It implements engine.Engine.
//
// Thread safety: Engine is safe for concurrent use.
type Engine struct {
	mu          sync.RWMutex
	objects     map[string]Object
	effects     map[string]Effect
	initialized bool
	cfg         engine.Config
	mode        engine.Mode
	background  color.NRGBA
	slots       *slotPool
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine with the built-in plugins registered.
func New() *Engine {
	e := &Engine{
		objects: make(map[string]Object),
		effects: make(map[string]Effect),
	}
	e.RegisterObject("test_object", ObjectFunc(testObject))
	e.RegisterObject("solid", ObjectFunc(solidObject))
	e.RegisterObject("checker", ObjectFunc(checkerObject))
	e.RegisterEffect("invert", EffectFunc(invertEffect))
	e.RegisterEffect("grayscale", EffectFunc(grayscaleEffect))
	e.RegisterEffect("opacity", EffectFunc(opacityEffect))
	return e
}

// RegisterObject adds or replaces an object plugin.
func (e *Engine) RegisterObject(key string, obj Object) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects[key] = obj
}

// RegisterEffect adds or replaces an effect plugin.
func (e *Engine) RegisterEffect(key string, eff Effect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.effects[key] = eff
}

// Initialize validates cfg and prepares the engine. Calling it again
// after a successful initialization is an error.
func (e *Engine) Initialize(ctx context.Context, cfg engine.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, _ := cfg.TransportMode()
	bg, _ := cfg.BackgroundColor()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return errors.New("soft: already initialized")
	}
	e.cfg = cfg
	e.mode = mode
	e.background = bg
	e.slots = newSlotPool(cfg.Render.TextureSlots)
	e.initialized = true

	framebridge.Logger().Info("soft: engine initialized",
		"mode", mode.String(), "slots", cfg.Render.TextureSlots, "objects", len(e.objects), "effects", len(e.effects))
	return nil
}

// EnumeratePlugins lists enabled plugins sorted by key, objects first.
func (e *Engine) EnumeratePlugins(ctx context.Context) ([]engine.Plugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return nil, engine.ErrNotInitialized
	}

	caser := cases.Title(language.English)
	var plugins []engine.Plugin
	add := func(key string, kind engine.PluginKind) {
		if e.cfg.PluginDisabled(key) {
			return
		}
		plugins = append(plugins, engine.Plugin{
			Key:         key,
			DisplayName: caser.String(strings.ReplaceAll(key, "_", " ")),
			Kind:        kind,
		})
	}
	for key := range e.objects {
		add(key, engine.KindObject)
	}
	for key := range e.effects {
		add(key, engine.KindEffect)
	}
	slices.SortFunc(plugins, func(a, b engine.Plugin) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return strings.Compare(a.Key, b.Key)
	})
	return plugins, nil
}

// Mode returns the transport mode. It is ModeCopy before Initialize.
func (e *Engine) Mode() engine.Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// Live returns the number of shared textures not yet released.
func (e *Engine) Live() int {
	e.mu.RLock()
	slots := e.slots
	e.mu.RUnlock()
	if slots == nil {
		return 0
	}
	return slots.liveCount()
}

// RenderLayers composites layers for frame. See engine.Engine.
func (e *Engine) RenderLayers(ctx context.Context, frame uint64, layers []timeline.FrameLayer, target []byte) (resource.SharedTexture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	if !e.initialized {
		e.mu.RUnlock()
		return nil, engine.ErrNotInitialized
	}
	r := renderer{
		objects:    maps.Clone(e.objects),
		effects:    maps.Clone(e.effects),
		cfg:        e.cfg,
		background: e.background,
	}
	mode, slots := e.mode, e.slots
	e.mu.RUnlock()

	if err := r.resolve(layers); err != nil {
		return nil, err
	}

	switch mode {
	case engine.ModeCopy:
		if len(target) != framebridge.FrameSize {
			return nil, fmt.Errorf("soft: target is %d bytes, want %d", len(target), framebridge.FrameSize)
		}
		return nil, r.compose(ctx, frameImage(target), frame, layers)

	default:
		if target != nil {
			return nil, fmt.Errorf("soft: target buffer given in %s mode", mode)
		}
		pix, err := slots.get()
		if err != nil {
			return nil, err
		}
		if err := r.compose(ctx, frameImage(pix), frame, layers); err != nil {
			slots.put(pix)
			return nil, err
		}
		rgbaToBGRA(pix)
		return &texture{pool: slots, pix: pix}, nil
	}
}

// Shutdown returns the engine to its uninitialized state. It fails with
// engine.ErrTexturesLive while shared textures are unreleased.
func (e *Engine) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	if n := e.slots.liveCount(); n > 0 {
		return fmt.Errorf("%w: %d", engine.ErrTexturesLive, n)
	}
	e.initialized = false
	e.slots = nil
	framebridge.Logger().Info("soft: engine shut down")
	return nil
}

func frameImage(pix []byte) *image.RGBA {
	return &image.RGBA{
		Pix:    pix,
		Stride: framebridge.FrameStride,
		Rect:   image.Rect(0, 0, framebridge.FrameWidth, framebridge.FrameHeight),
	}
}

func rgbaToBGRA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
