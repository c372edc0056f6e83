// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewer drives the display loop: it reads the playback position,
// selects the active layers, requests the frame and presents it.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/frame"
	"github.com/gogpu/framebridge/present"
	"github.com/gogpu/framebridge/timeline"
)

// Requester fetches composited frames. *frame.Client implements it.
type Requester interface {
	RequestFrame(ctx context.Context, frameIndex uint64, layers []timeline.FrameLayer) (*frame.Result, error)
}

// Stats reports Player activity.
type Stats struct {
	// Presented is the number of frames handed to the presenter.
	Presented uint64
	// Skipped is the number of ticks dropped because a frame was in flight.
	Skipped uint64
	// Failed is the number of ticks that ended in an error.
	Failed uint64
}

// Option configures a Player.
type Option func(*Player)

// WithErrorHandler sets the function that receives tick errors that do
// not stop Run. The default logs them.
func WithErrorHandler(fn func(frameIndex uint64, err error)) Option {
	return func(p *Player) {
		p.onError = fn
	}
}

// Player presents the frame at the store's playback position once per
// tick and advances the position while playing.
type Player struct {
	store     *timeline.Store
	frames    Requester
	presenter present.Presenter
	onError   func(frameIndex uint64, err error)

	busy atomic.Bool

	mu    sync.Mutex
	stats Stats
}

// NewPlayer creates a Player.
func NewPlayer(store *timeline.Store, frames Requester, presenter present.Presenter, opts ...Option) *Player {
	p := &Player{
		store:     store,
		frames:    frames,
		presenter: presenter,
		onError: func(frameIndex uint64, err error) {
			framebridge.Logger().Warn("viewer: frame failed", "frame", frameIndex, "err", err)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns a snapshot of the player counters.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Tick presents one frame. The frame index is the playback position at
// dispatch time. If another tick is in flight, Tick counts a skip and
// returns nil.
func (p *Player) Tick(ctx context.Context) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.count(func(s *Stats) { s.Skipped++ })
		return nil
	}
	defer p.busy.Store(false)
	return p.tick(ctx)
}

func (p *Player) tick(ctx context.Context) error {
	pos, layers := p.store.Select()

	res, err := p.frames.RequestFrame(ctx, pos, layers)
	if err != nil {
		p.count(func(s *Stats) { s.Failed++ })
		return err
	}

	pix, err := res.Pixels()
	if err == nil {
		err = p.presenter.OnFrameReady(present.Frame{
			Index:  res.Frame,
			Width:  res.Width,
			Height: res.Height,
			Pix:    pix,
		})
	}
	if rerr := res.Release(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	if err != nil {
		p.count(func(s *Stats) { s.Failed++ })
		return err
	}

	p.count(func(s *Stats) { s.Presented++ })
	p.store.Advance()
	return nil
}

// Run ticks every interval until ctx is done or the frame channel
// closes. Ticks that fire while a frame is in flight are dropped, so a
// slow engine skips frames instead of queuing them. Other tick errors go
// to the error handler.
func (p *Player) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("viewer: tick interval %v is not positive", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	type outcome struct {
		frame uint64
		err   error
	}
	results := make(chan outcome, 1)
	running := false

	for {
		select {
		case <-ctx.Done():
			if running {
				<-results
			}
			return ctx.Err()

		case r := <-results:
			running = false
			switch {
			case r.err == nil:
			case errors.Is(r.err, framebridge.ErrChannelClosed):
				return r.err
			case ctx.Err() != nil:
			default:
				p.onError(r.frame, r.err)
			}

		case <-ticker.C:
			if running {
				p.count(func(s *Stats) { s.Skipped++ })
				continue
			}
			running = true
			go func() {
				pos := p.store.Position()
				results <- outcome{frame: pos, err: p.Tick(ctx)}
			}()
		}
	}
}

func (p *Player) count(fn func(*Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}
