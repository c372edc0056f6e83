// Command framedemo runs a host and a viewer in one process and writes the
// composited frames as PNG files.
//
// Usage:
//
//	framedemo -data ./data -out ./frames -frames 30 -mode shared
//
// FRAMEBRIDGE_DATA_DIR, optionally set in a .env file, provides the
// default for -data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/channel"
	"github.com/gogpu/framebridge/control"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/engine/soft"
	"github.com/gogpu/framebridge/frame"
	"github.com/gogpu/framebridge/host"
	"github.com/gogpu/framebridge/present"
	"github.com/gogpu/framebridge/timeline"
	"github.com/gogpu/framebridge/viewer"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var (
		dataDir = flag.String("data", envOr("FRAMEBRIDGE_DATA_DIR", "framebridge-data"), "data directory holding config.toml")
		outDir  = flag.String("out", "frames", "output directory for PNG frames (empty disables writing)")
		frames  = flag.Int("frames", 30, "number of frames to present")
		fps     = flag.Int("fps", 30, "playback rate")
		mode    = flag.String("mode", "", "transport mode override: copy or shared")
		level   = flag.String("log", "", "log level override: debug, info, warn or error")
	)
	flag.Parse()

	if err := run(*dataDir, *outDir, *frames, *fps, *mode, *level); err != nil {
		log.Fatalf("framedemo: %v", err)
	}
}

func run(dataDir, outDir string, frames, fps int, mode, level string) error {
	if frames <= 0 || fps <= 0 {
		return errors.New("frames and fps must be positive")
	}

	dirs := engine.Dirs{DataDir: dataDir}
	cfg, err := engine.LoadConfig(dirs)
	if err != nil {
		return err
	}
	if mode != "" {
		cfg.Render.Mode = mode
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	framebridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := channel.NewBus()
	h := host.New(soft.New(), dirs, bus)
	if err := h.InitializeWith(ctx, cfg); err != nil {
		return err
	}
	defer func() {
		if err := h.Shutdown(context.Background()); err != nil {
			framebridge.Logger().Error("framedemo: shutdown", "err", err)
		}
	}()

	if err := listPlugins(ctx, control.NewCatalog(h)); err != nil {
		return err
	}

	hs := channel.NewHandshaker(h, bus)
	port, err := hs.Establish(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = hs.Teardown() }()

	transport, err := h.TransportMode(ctx)
	if err != nil {
		return err
	}
	client := frame.NewClient(hs, frame.WithMode(transport))

	store := timeline.NewStore()
	if err := store.Replace(demoLayers(uint64(frames))); err != nil {
		return err
	}

	var sink present.Presenter = present.NewImageSink(nil)
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		sink = present.NewImageSink(func(index uint64) (io.WriteCloser, error) {
			return os.Create(filepath.Join(outDir, fmt.Sprintf("frame-%05d.png", index)))
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var presented atomic.Int64
	counted := present.PresenterFunc(func(f present.Frame) error {
		if err := sink.OnFrameReady(f); err != nil {
			return err
		}
		if presented.Add(1) >= int64(frames) {
			cancel()
		}
		return nil
	})
	player := viewer.NewPlayer(store, client, counted)

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return player.Run(gctx, time.Second/time.Duration(fps))
	})
	g.Go(func() error {
		select {
		case <-port.Done():
			return framebridge.ErrChannelClosed
		case <-gctx.Done():
			return nil
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	ps, cs := player.Stats(), client.Stats()
	framebridge.Logger().Info("framedemo: done",
		"mode", transport,
		"presented", ps.Presented,
		"skipped", ps.Skipped,
		"failed", ps.Failed,
		"stale", cs.Stale,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func listPlugins(ctx context.Context, catalog *control.Catalog) error {
	names, err := catalog.DisplayNames(ctx)
	if err != nil {
		return err
	}
	for key, name := range names {
		framebridge.Logger().Debug("framedemo: plugin", "key", key, "name", name)
	}
	return nil
}

// demoLayers builds a timeline of n frames: the test pattern for the whole
// run, a rotated checker on top and a fading solid in the second half.
func demoLayers(n uint64) []timeline.Layer {
	last := n - 1

	bars := timeline.Layer{From: 0, To: last, Z: 0}
	bars.Transform = timeline.IdentityTransform()
	bars.Object = timeline.ObjectRef{Name: "test_object"}

	checker := timeline.Layer{From: 0, To: last, Z: 1}
	checker.Transform = timeline.Transform{X: 760, Y: 340, Scale: 1, Rotation: 15, Alpha: 0.8}
	checker.Object = timeline.ObjectRef{
		Name: "checker",
		Parameters: map[string]any{
			"width":  400,
			"height": 400,
			"size":   40,
			"colors": []string{"#202020", "#e0e0e0"},
		},
	}

	badge := timeline.Layer{From: n / 2, To: last, Z: 2}
	badge.Transform = timeline.Transform{X: 80, Y: 80, Scale: 1, Alpha: 1}
	badge.Object = timeline.ObjectRef{
		Name:       "solid",
		Parameters: map[string]any{"width": 320, "height": 180, "color": "#ff6a00"},
	}
	badge.Effects = []timeline.Effect{{Name: "opacity", Parameters: map[string]any{"amount": 0.6}}}

	return []timeline.Layer{bars, checker, badge}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
