// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package host runs the engine side of a session. A Host owns an
// explicitly constructed engine, answers control operations and offers
// the dedicated frame channel over a notification bus.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/channel"
	"github.com/gogpu/framebridge/control"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/frame"
)

// Host serves one session. It implements control.Control.
type Host struct {
	eng  engine.Engine
	dirs engine.Dirs
	bus  *channel.Bus

	mu          sync.Mutex
	initialized bool
	cfg         engine.Config
	port        *channel.Port
	server      *frame.Server
	ctx         context.Context
	cancel      context.CancelFunc
	channels    int

	servers sync.WaitGroup
}

var _ control.Control = (*Host)(nil)

// New creates a Host for eng. The dedicated channel is offered on bus.
func New(eng engine.Engine, dirs engine.Dirs, bus *channel.Bus) *Host {
	return &Host{eng: eng, dirs: dirs, bus: bus}
}

// Initialize loads the configuration from dirs and initializes the engine.
func (h *Host) Initialize(ctx context.Context) error {
	cfg, err := engine.LoadConfig(h.dirs)
	if err != nil {
		return err
	}
	return h.InitializeWith(ctx, cfg)
}

// InitializeWith initializes the engine with cfg.
func (h *Host) InitializeWith(ctx context.Context, cfg engine.Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return errors.New("host: already initialized")
	}
	if err := h.eng.Initialize(ctx, cfg); err != nil {
		return fmt.Errorf("host: initialize engine: %w", err)
	}
	h.cfg = cfg
	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.initialized = true
	return nil
}

// Config returns the configuration the engine was initialized with.
func (h *Host) Config() engine.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// RequestChannel creates a dedicated channel, serves frames on one end
// and posts the other end as a "frame-port" notification. A live channel
// is torn down first so that only one exists per session.
func (h *Host) RequestChannel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	if !h.initialized {
		h.mu.Unlock()
		return engine.ErrNotInitialized
	}
	old := h.port
	retained, offered := channel.Pipe(0)
	srv := frame.NewServer(h.eng, retained)
	h.port = retained
	h.server = srv
	h.channels++
	serveCtx := h.ctx
	h.servers.Add(1)
	h.mu.Unlock()

	if old != nil {
		_ = old.Close()
		framebridge.Logger().Info("host: previous dedicated channel torn down")
	}

	go func() {
		defer h.servers.Done()
		if err := srv.Serve(serveCtx); err != nil && serveCtx.Err() == nil {
			framebridge.Logger().Error("host: frame server stopped", "err", err)
		}
	}()

	h.bus.Post(channel.Notification{Kind: channel.KindFramePort, Port: offered})
	return nil
}

// EnumeratePlugins lists the engine's plugins.
func (h *Host) EnumeratePlugins(ctx context.Context) ([]engine.Plugin, error) {
	return h.eng.EnumeratePlugins(ctx)
}

// TransportMode reports the engine's transport mode.
func (h *Host) TransportMode(ctx context.Context) (engine.Mode, error) {
	if err := ctx.Err(); err != nil {
		return engine.ModeCopy, err
	}
	h.mu.Lock()
	initialized := h.initialized
	h.mu.Unlock()
	if !initialized {
		return engine.ModeCopy, engine.ErrNotInitialized
	}
	return h.eng.Mode(), nil
}

// Path resolves a named location.
func (h *Host) Path(ctx context.Context, name control.PathName) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch name {
	case control.PathUserData:
		return h.dirs.DataDir, nil
	case control.PathTemp:
		return os.TempDir(), nil
	case control.PathExe:
		return os.Executable()
	case control.PathResources:
		return h.dirs.ResourceDir, nil
	case control.PathPluginManager:
		return h.dirs.PluginManager, nil
	case control.PathDefaultPlugins:
		return h.dirs.DefaultPlugins, nil
	case control.PathDist:
		return h.dirs.Dist, nil
	default:
		return "", fmt.Errorf("%w: %q", control.ErrUnknownPath, name)
	}
}

// Server returns the frame server of the current channel, or nil.
func (h *Host) Server() *frame.Server {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.server
}

// Channels returns how many dedicated channels have been created.
func (h *Host) Channels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channels
}

// Shutdown closes the dedicated channel, waits for its server and shuts
// the engine down.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.initialized {
		h.mu.Unlock()
		return nil
	}
	port := h.port
	h.port = nil
	h.server = nil
	h.initialized = false
	cancel := h.cancel
	h.mu.Unlock()

	if port != nil {
		_ = port.Close()
	}
	cancel()
	h.servers.Wait()

	if err := h.eng.Shutdown(ctx); err != nil {
		return fmt.Errorf("host: shutdown engine: %w", err)
	}
	framebridge.Logger().Info("host: session closed", "channels", h.Channels())
	return nil
}
