// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	mode, err := cfg.TransportMode()
	require.NoError(t, err)
	assert.Equal(t, ModeCopy, mode)
	assert.Equal(t, 2, cfg.Render.TextureSlots)
	assert.Empty(t, cfg.Plugins.Disabled)

	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 0xff}, bg)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigFirstRunWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	cfg, err := LoadConfig(Dirs{DataDir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	written, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, written)
}

func TestLoadConfigUserValues(t *testing.T) {
	dir := t.TempDir()
	user := "[render]\nmode = \"shared\"\ntexture_slots = 3\n\n[plugins]\ndisabled = [\"checker\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(user), 0o644))

	cfg, err := LoadConfig(Dirs{DataDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "shared", cfg.Render.Mode)
	assert.Equal(t, 3, cfg.Render.TextureSlots)
	assert.Equal(t, "#000000ff", cfg.Render.Background, "missing keys keep their defaults")
	assert.True(t, cfg.PluginDisabled("checker"))
	assert.False(t, cfg.PluginDisabled("solid"))

	// A config that decodes cleanly is not rewritten.
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, user, string(data))
}

func TestLoadConfigMergesMistypedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	user := "[render]\nmode = \"shared\"\ntexture_slots = \"many\"\n\n[log]\nlevel = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(user), 0o644))

	cfg, err := LoadConfig(Dirs{DataDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "shared", cfg.Render.Mode)
	assert.Equal(t, 2, cfg.Render.TextureSlots, "mistyped value falls back to the default")
	assert.Equal(t, "debug", cfg.Log.Level)

	var rewritten Config
	_, err = toml.DecodeFile(path, &rewritten)
	require.NoError(t, err, "merged config must be written back")
	assert.Equal(t, cfg.Render, rewritten.Render)
	assert.Equal(t, cfg.Log, rewritten.Log)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(Dirs{})
	require.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("[render\nmode ="), 0o644))
	_, err = LoadConfig(Dirs{DataDir: dir})
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Render.Mode = "mmap" }},
		{"background", func(c *Config) { c.Render.Background = "#12" }},
		{"background digits", func(c *Config) { c.Render.Background = "#zzzzzz" }},
		{"slots", func(c *Config) { c.Render.TextureSlots = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = ParseColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("shared")
	require.NoError(t, err)
	assert.Equal(t, ModeShared, m)
	assert.Equal(t, "shared", m.String())

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCopy, m)

	_, err = ParseMode("zero-copy")
	assert.Error(t, err)
	assert.Equal(t, "Mode(9)", Mode(9).String())
	assert.Equal(t, "effect", KindEffect.String())
}
