// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/framebridge/resource"
	"github.com/gogpu/framebridge/timeline"
)

// Errors returned by engine implementations.
var (
	// ErrNotInitialized is returned when an engine is used before
	// Initialize or after Shutdown.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrUnknownPlugin is returned when a layer references an object or
	// effect the engine does not provide.
	ErrUnknownPlugin = errors.New("engine: unknown plugin")

	// ErrTexturesLive is returned by Shutdown while shared textures are
	// still held by a consumer.
	ErrTexturesLive = errors.New("engine: shared textures still live")
)

// Mode is the pixel delivery transport of a session. It is fixed when the
// engine is initialized and never changes per frame.
type Mode uint8

const (
	// ModeCopy moves a caller-owned pixel buffer through the engine.
	ModeCopy Mode = iota

	// ModeShared returns a handle to an engine-owned texture.
	ModeShared
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCopy:
		return "copy"
	case ModeShared:
		return "shared"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses a configuration name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "copy", "":
		return ModeCopy, nil
	case "shared":
		return ModeShared, nil
	default:
		return ModeCopy, fmt.Errorf("engine: unknown transport mode %q", s)
	}
}

// PluginKind distinguishes visual objects from effects.
type PluginKind uint8

const (
	// KindObject generates layer content.
	KindObject PluginKind = iota
	// KindEffect transforms layer content.
	KindEffect
)

// String returns the kind name.
func (k PluginKind) String() string {
	if k == KindEffect {
		return "effect"
	}
	return "object"
}

// Plugin describes one plugin offered by the engine.
type Plugin struct {
	Key         string     `json:"key"`
	DisplayName string     `json:"displayName"`
	Kind        PluginKind `json:"kind"`
}

// Dirs holds the resource locations handed to the engine. They are
// opaque to everything but the engine and its configuration.
type Dirs struct {
	DataDir        string
	LocalDataDir   string
	ResourceDir    string
	PluginManager  string
	DefaultPlugins string
	Dist           string
}

// Engine renders timeline layers into frames.
//
// Implementations must be safe for concurrent use, although the frame
// protocol never issues more than one RenderLayers call at a time.
type Engine interface {
	// Initialize performs one-time setup. Rendering before Initialize
	// fails with ErrNotInitialized.
	Initialize(ctx context.Context, cfg Config) error

	// EnumeratePlugins lists the plugins available to layers.
	EnumeratePlugins(ctx context.Context) ([]Plugin, error)

	// Mode returns the transport mode fixed at initialization.
	Mode() Mode

	// RenderLayers composites layers for the given frame index.
	//
	// In ModeCopy, target is a caller-owned buffer of
	// framebridge.FrameSize bytes that receives RGBA8 pixels, and the
	// returned texture is nil. In ModeShared, target is nil and the
	// returned texture must be released by the consumer exactly once.
	RenderLayers(ctx context.Context, frame uint64, layers []timeline.FrameLayer, target []byte) (resource.SharedTexture, error)

	// Shutdown releases engine resources.
	Shutdown(ctx context.Context) error
}
