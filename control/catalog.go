// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package control

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/engine"
)

// PluginLister is the part of Control a Catalog needs.
type PluginLister interface {
	EnumeratePlugins(ctx context.Context) ([]engine.Plugin, error)
}

// Catalog caches the plugin list. It is queried lazily on first use and
// kept after the first successful query; failures are not cached.
type Catalog struct {
	src   PluginLister
	group singleflight.Group

	mu      sync.RWMutex
	plugins []engine.Plugin
	loaded  bool
}

// NewCatalog creates a Catalog backed by src.
func NewCatalog(src PluginLister) *Catalog {
	return &Catalog{src: src}
}

// Plugins returns the cached plugin list, querying it on first use.
// Concurrent first calls share one query.
func (c *Catalog) Plugins(ctx context.Context) ([]engine.Plugin, error) {
	c.mu.RLock()
	if c.loaded {
		out := slices.Clone(c.plugins)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("plugins", func() (any, error) {
		c.mu.RLock()
		if c.loaded {
			defer c.mu.RUnlock()
			return c.plugins, nil
		}
		c.mu.RUnlock()

		plugins, err := c.src.EnumeratePlugins(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.plugins = slices.Clone(plugins)
		c.loaded = true
		c.mu.Unlock()
		framebridge.Logger().Debug("control: plugin catalog loaded", "count", len(plugins))
		return plugins, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]engine.Plugin)), nil
}

// DisplayNames maps plugin keys to display names.
func (c *Catalog) DisplayNames(ctx context.Context) (map[string]string, error) {
	plugins, err := c.Plugins(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(plugins))
	for _, p := range plugins {
		names[p.Key] = p.DisplayName
	}
	return names, nil
}

// Invalidate drops the cached list. The next Plugins call queries again.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plugins = nil
	c.loaded = false
}
