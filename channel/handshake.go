// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/framebridge"
)

// ErrHandshakeTornDown is returned to callers waiting on a negotiation
// that was abandoned by Teardown.
var ErrHandshakeTornDown = errors.New("channel: handshake torn down")

// Requester asks the engine, over the generic control channel, to create
// a dedicated channel.
type Requester interface {
	RequestChannel(ctx context.Context) error
}

// Subscriber is the notification source the handshake listens on.
type Subscriber interface {
	Subscribe(kind string) (<-chan Notification, func())
}

// Handshaker establishes the dedicated frame channel once per session.
type Handshaker struct {
	control Requester
	notes   Subscriber

	group singleflight.Group

	mu       sync.Mutex
	port     *Port
	teardown chan struct{}
	attempts int
}

// NewHandshaker creates a Handshaker that requests the channel through
// control and receives it from notes.
func NewHandshaker(control Requester, notes Subscriber) *Handshaker {
	return &Handshaker{
		control:  control,
		notes:    notes,
		teardown: make(chan struct{}),
	}
}

// Establish returns the dedicated channel, negotiating it if needed.
//
// A live channel is returned as is. Concurrent calls share one
// negotiation and observe the same Port. ctx bounds only the caller's own
// wait: the negotiation itself keeps waiting for the engine's notification
// until it arrives or Teardown is called.
func (h *Handshaker) Establish(ctx context.Context) (*Port, error) {
	if p, ok := h.Port(); ok {
		return p, nil
	}

	ch := h.group.DoChan("establish", func() (any, error) {
		return h.negotiate(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Port), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handshaker) negotiate(ctx context.Context) (*Port, error) {
	if p, ok := h.Port(); ok {
		return p, nil
	}

	h.mu.Lock()
	h.attempts++
	teardown := h.teardown
	h.mu.Unlock()

	notes, cancel := h.notes.Subscribe(KindFramePort)
	defer cancel()

	if err := h.control.RequestChannel(ctx); err != nil {
		return nil, fmt.Errorf("channel: request dedicated channel: %w", err)
	}

	var n Notification
	select {
	case n = <-notes:
	case <-teardown:
		select {
		case n = <-notes:
			if n.Port != nil {
				_ = n.Port.Close()
			}
		default:
		}
		return nil, ErrHandshakeTornDown
	}
	if n.Port == nil {
		return nil, fmt.Errorf("channel: %q notification without port", n.Kind)
	}

	h.mu.Lock()
	if h.teardown != teardown {
		h.mu.Unlock()
		_ = n.Port.Close()
		return nil, ErrHandshakeTornDown
	}
	n.Port.Start()
	h.port = n.Port
	h.mu.Unlock()

	framebridge.Logger().Info("channel: dedicated channel established")
	return n.Port, nil
}

// Port returns the live channel, if any.
func (h *Handshaker) Port() (*Port, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.port == nil || h.port.Closed() {
		return nil, false
	}
	return h.port, true
}

// Attempts returns how many negotiations have been started.
func (h *Handshaker) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Teardown closes the live channel and abandons a pending negotiation.
// The next Establish negotiates a new channel.
func (h *Handshaker) Teardown() error {
	h.mu.Lock()
	p := h.port
	h.port = nil
	close(h.teardown)
	h.teardown = make(chan struct{})
	h.mu.Unlock()

	if p != nil {
		return p.Close()
	}
	return nil
}
