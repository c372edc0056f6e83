// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package control defines the generic control channel between the UI and
// the engine host, separate from the dedicated frame channel.
package control

import (
	"context"
	"errors"

	"github.com/gogpu/framebridge/engine"
)

// ErrUnknownPath is returned by Path for names outside the PathName set.
var ErrUnknownPath = errors.New("control: unknown path name")

// PathName names a location the host can resolve.
type PathName string

// Resolvable locations.
const (
	PathUserData       PathName = "userData"
	PathTemp           PathName = "temp"
	PathExe            PathName = "exe"
	PathResources      PathName = "resources"
	PathPluginManager  PathName = "pluginManager"
	PathDefaultPlugins PathName = "defaultPlugins"
	PathDist           PathName = "dist"
)

// Control is the set of control operations the engine host answers.
type Control interface {
	// RequestChannel asks the host for a dedicated frame channel. The
	// channel itself arrives as a "frame-port" notification.
	RequestChannel(ctx context.Context) error

	// EnumeratePlugins lists the engine's plugins.
	EnumeratePlugins(ctx context.Context) ([]engine.Plugin, error)

	// Path resolves a named location.
	Path(ctx context.Context, name PathName) (string, error)

	// TransportMode reports the session's pixel delivery transport.
	TransportMode(ctx context.Context) (engine.Mode, error)
}
