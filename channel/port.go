// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package channel

import (
	"context"
	"sync"

	"github.com/gogpu/framebridge"
)

// DefaultCapacity is the per-direction queue length used by Pipe when a
// non-positive capacity is given.
const DefaultCapacity = 4

// Message is a unit sent over a Port.
type Message struct {
	// Kind identifies the message type.
	Kind string

	// Payload is the structured part of the message.
	Payload any

	// Data is the binary part. Ownership moves with the message.
	Data []byte
}

// link is the state shared by both ends of a pipe.
type link struct {
	done      chan struct{}
	closeOnce sync.Once
}

func (l *link) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Port is one end of a Pipe.
//
// Send may be called before Start; messages queue until the receiving
// Port is started. Recv blocks until this Port is started. Closing either
// end closes the pipe: Recv drains already queued messages and then
// returns framebridge.ErrChannelClosed.
//
// Port is safe for concurrent use, but message order is only defined per
// sending goroutine.
type Port struct {
	in   chan Message
	out  chan Message
	link *link

	startOnce sync.Once
	started   chan struct{}
}

// Pipe creates two connected Ports with the given queue capacity per
// direction.
func Pipe(capacity int) (*Port, *Port) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ab := make(chan Message, capacity)
	ba := make(chan Message, capacity)
	l := &link{done: make(chan struct{})}

	a := &Port{in: ba, out: ab, link: l, started: make(chan struct{})}
	b := &Port{in: ab, out: ba, link: l, started: make(chan struct{})}
	return a, b
}

// Start enables message delivery on this Port. Calling Start again has no
// effect.
func (p *Port) Start() {
	p.startOnce.Do(func() { close(p.started) })
}

// Started reports whether Start has been called.
func (p *Port) Started() bool {
	select {
	case <-p.started:
		return true
	default:
		return false
	}
}

// Send queues msg for the peer. It blocks while the queue is full.
func (p *Port) Send(ctx context.Context, msg Message) error {
	select {
	case <-p.link.done:
		return framebridge.ErrChannelClosed
	default:
	}

	select {
	case p.out <- msg:
		return nil
	case <-p.link.done:
		return framebridge.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv returns the next message from the peer.
func (p *Port) Recv(ctx context.Context) (Message, error) {
	select {
	case <-p.started:
	case <-p.link.done:
		return Message{}, framebridge.ErrChannelClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}

	// Queued messages win over close so that a response sent just before
	// the peer closed is still delivered.
	select {
	case msg := <-p.in:
		return msg, nil
	default:
	}

	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.link.done:
		select {
		case msg := <-p.in:
			return msg, nil
		default:
			return Message{}, framebridge.ErrChannelClosed
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close closes the pipe for both ends. Close is idempotent.
func (p *Port) Close() error {
	p.link.close()
	return nil
}

// Done returns a channel that is closed when the pipe closes.
func (p *Port) Done() <-chan struct{} {
	return p.link.done
}

// Closed reports whether the pipe has been closed.
func (p *Port) Closed() bool {
	select {
	case <-p.link.done:
		return true
	default:
		return false
	}
}
