// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/framebridge"
)

// ConfigFile is the configuration file name inside Dirs.DataDir.
const ConfigFile = "config.toml"

//go:embed default-config.toml
var defaultConfig []byte

// Config is the persisted engine configuration.
type Config struct {
	Render  RenderConfig  `toml:"render"`
	Plugins PluginsConfig `toml:"plugins"`
	Log     LogConfig     `toml:"log"`
}

// RenderConfig configures frame production.
type RenderConfig struct {
	Mode         string `toml:"mode"`
	Background   string `toml:"background"`
	TextureSlots int    `toml:"texture_slots"`
}

// PluginsConfig configures plugin availability.
type PluginsConfig struct {
	Disabled []string `toml:"disabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	var cfg Config
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		panic(fmt.Sprintf("engine: embedded default config: %v", err))
	}
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseMode(c.Render.Mode); err != nil {
		return err
	}
	if _, err := ParseColor(c.Render.Background); err != nil {
		return err
	}
	if c.Render.TextureSlots < 1 {
		return fmt.Errorf("engine: texture_slots must be at least 1, got %d", c.Render.TextureSlots)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// TransportMode returns the configured transport mode.
func (c Config) TransportMode() (Mode, error) {
	return ParseMode(c.Render.Mode)
}

// BackgroundColor parses the configured background.
func (c Config) BackgroundColor() (color.NRGBA, error) {
	return ParseColor(c.Render.Background)
}

// LogLevel parses the configured log level.
func (c Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("engine: log level: %w", err)
	}
	return l, nil
}

// PluginDisabled reports whether key is listed in plugins.disabled.
func (c Config) PluginDisabled(key string) bool {
	for _, d := range c.Plugins.Disabled {
		if d == key {
			return true
		}
	}
	return false
}

// LoadConfig reads <DataDir>/config.toml, creating the data directory and
// writing the default configuration on first run.
//
// A file that does not decode into Config is merged over the defaults:
// user values whose type matches the default are kept, the rest are
// dropped. The merged configuration is written back.
func LoadConfig(dirs Dirs) (Config, error) {
	if dirs.DataDir == "" {
		return Config{}, errors.New("engine: data directory not set")
	}
	if err := os.MkdirAll(dirs.DataDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("engine: create data directory: %w", err)
	}

	path := filepath.Join(dirs.DataDir, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, defaultConfig, 0o644); err != nil {
			return Config{}, fmt.Errorf("engine: write default config: %w", err)
		}
		framebridge.Logger().Info("engine: default config written", "path", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("engine: read config: %w", err)
	}

	cfg := DefaultConfig()
	err = toml.Unmarshal(data, &cfg)
	if err == nil {
		return cfg, nil
	}
	framebridge.Logger().Warn("engine: config does not decode, merging with defaults",
		"path", path, "err", err)

	cfg, err = mergeWithDefaults(data)
	if err != nil {
		return Config{}, err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("engine: encode merged config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return Config{}, fmt.Errorf("engine: write merged config: %w", err)
	}
	return cfg, nil
}

func mergeWithDefaults(user []byte) (Config, error) {
	var defaults, overrides map[string]any
	if err := toml.Unmarshal(defaultConfig, &defaults); err != nil {
		return Config{}, fmt.Errorf("engine: embedded default config: %w", err)
	}
	if err := toml.Unmarshal(user, &overrides); err != nil {
		return Config{}, fmt.Errorf("engine: config is not valid TOML: %w", err)
	}
	merge(defaults, overrides, "")

	merged, err := toml.Marshal(defaults)
	if err != nil {
		return Config{}, fmt.Errorf("engine: encode merged config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(merged, &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: merged config does not decode: %w", err)
	}
	return cfg, nil
}

// merge copies src into dst recursively. Values that conflict in type
// with an existing dst value are dropped.
func merge(dst, src map[string]any, prefix string) {
	for k, v := range src {
		key := prefix + k
		cur, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		if dm, ok := cur.(map[string]any); ok {
			if sm, ok := v.(map[string]any); ok {
				merge(dm, sm, key+".")
				continue
			}
		}
		if reflect.TypeOf(cur) != reflect.TypeOf(v) {
			framebridge.Logger().Warn("engine: config value dropped", "key", key,
				"want", reflect.TypeOf(cur).String(), "got", reflect.TypeOf(v).String())
			continue
		}
		dst[k] = v
	}
}

// ParseColor parses #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("engine: invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("engine: invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
