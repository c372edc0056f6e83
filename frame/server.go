// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/channel"
	"github.com/gogpu/framebridge/engine"
)

// ServerStats reports Server activity.
type ServerStats struct {
	Served uint64
	Failed uint64
}

// Server answers frame requests on the engine side of the dedicated
// channel.
type Server struct {
	eng  engine.Engine
	port *channel.Port

	mu    sync.Mutex
	stats ServerStats
}

// NewServer creates a Server answering requests received on port.
func NewServer(eng engine.Engine, port *channel.Port) *Server {
	return &Server{eng: eng, port: port}
}

// Serve starts the port and answers requests until the channel closes,
// which returns nil, or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.port.Start()
	for {
		msg, err := s.port.Recv(ctx)
		if errors.Is(err, framebridge.ErrChannelClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.handle(ctx, msg); err != nil {
			if errors.Is(err, framebridge.ErrChannelClosed) {
				return nil
			}
			return err
		}
	}
}

// Stats returns a snapshot of the server counters.
func (s *Server) Stats() ServerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Server) handle(ctx context.Context, msg channel.Message) error {
	req, ok := msg.Payload.(request)
	if msg.Kind != KindRequest || !ok {
		framebridge.Logger().Warn("frame: unexpected message on engine side", "kind", msg.Kind)
		return nil
	}

	resp := response{ID: req.ID, Frame: req.Frame}
	target := msg.Data
	if err := s.render(ctx, req, target, &resp); err != nil {
		resp.Err = err
		framebridge.Logger().Warn("frame: composition failed", "frame", req.Frame, "err", err)
	}

	s.mu.Lock()
	if resp.Err != nil {
		s.stats.Failed++
	} else {
		s.stats.Served++
	}
	s.mu.Unlock()

	// The target goes back even on failure so the client can reclaim it.
	out := channel.Message{Kind: KindResponse, Payload: resp, Data: target}
	if err := s.port.Send(ctx, out); err != nil {
		if resp.Texture != nil {
			if rerr := resp.Texture.Release(); rerr != nil {
				framebridge.Logger().Warn("frame: release of undelivered texture failed", "err", rerr)
			}
		}
		return err
	}
	return nil
}

func (s *Server) render(ctx context.Context, req request, target []byte, resp *response) error {
	if mode := s.eng.Mode(); req.Mode != mode {
		return fmt.Errorf("%w: request %s, engine %s", errModeMismatch, req.Mode, mode)
	}
	if err := validate(req.Layers); err != nil {
		return err
	}
	tex, err := s.eng.RenderLayers(ctx, req.Frame, req.Layers, target)
	if err != nil {
		return err
	}
	resp.Texture = tex
	return nil
}
