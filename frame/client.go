// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/gogpu/framebridge"
	"github.com/gogpu/framebridge/channel"
	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/resource"
	"github.com/gogpu/framebridge/timeline"
)

// errNoBuffer is returned when a copy-mode response does not carry the
// request's buffer back.
var errNoBuffer = errors.New("frame: response without pixel buffer")

// Link provides the dedicated channel. *channel.Handshaker implements it.
type Link interface {
	// Port returns the live channel, if one is established.
	Port() (*channel.Port, bool)
}

// ClientStats reports Client activity.
type ClientStats struct {
	// Dispatched is the number of requests sent.
	Dispatched uint64
	// Completed is the number of requests resolved with a frame.
	Completed uint64
	// Failed is the number of requests rejected after dispatch.
	Failed uint64
	// Abandoned is the number of requests whose caller stopped waiting.
	Abandoned uint64
	// Stale is the number of responses that matched no request.
	Stale uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMode sets the transport mode. It must match the engine's mode.
// The default is engine.ModeCopy.
func WithMode(m engine.Mode) ClientOption {
	return func(c *Client) {
		c.mode = m
	}
}

// WithBufferPool sets the pool frame buffers come from.
func WithBufferPool(p *resource.BufferPool) ClientOption {
	return func(c *Client) {
		c.buffers = p
	}
}

// WithTextureTracker sets the tracker shared-mode textures are imported
// through.
func WithTextureTracker(t *resource.TextureTracker) ClientOption {
	return func(c *Client) {
		c.textures = t
	}
}

// call is the single-slot future of one request.
type call struct {
	id    uuid.UUID
	frame uint64
	port  *channel.Port
	buf   *resource.Buffer

	done      chan struct{}
	res       *Result
	err       error
	abandoned bool
}

// Client requests frames over the dedicated channel.
//
// Thread safety: RequestFrame may be called from multiple goroutines;
// requests are serialized.
type Client struct {
	link     Link
	mode     engine.Mode
	buffers  *resource.BufferPool
	textures *resource.TextureTracker

	// gate admits one request at a time. It is released when the request
	// resolves, not when the caller stops waiting.
	gate *semaphore.Weighted

	mu      sync.Mutex
	port    *channel.Port
	pending map[uuid.UUID]*call
	stats   ClientStats
}

// NewClient creates a Client that sends requests over the channel link
// provides.
func NewClient(link Link, opts ...ClientOption) *Client {
	c := &Client{
		link:    link,
		mode:    engine.ModeCopy,
		gate:    semaphore.NewWeighted(1),
		pending: make(map[uuid.UUID]*call),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.buffers == nil {
		c.buffers = resource.NewBufferPool(framebridge.FrameSize)
	}
	if c.textures == nil {
		c.textures = resource.NewTextureTracker()
	}
	return c
}

// Mode returns the transport mode.
func (c *Client) Mode() engine.Mode {
	return c.mode
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() ClientStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// RequestFrame renders frameIndex with the given layers and waits for the
// result.
//
// It fails with framebridge.ErrChannelNotReady before the channel is
// established and with framebridge.ErrChannelClosed when the channel is or
// becomes closed. An engine failure is a *framebridge.CompositionError.
// In shared mode, requesting while a previous Result still holds its
// texture fails with framebridge.ErrLifecycleViolation.
// If ctx is done first, RequestFrame returns ctx.Err(); the request stays
// in flight and blocks the next one until its response arrives or the
// channel closes.
func (c *Client) RequestFrame(ctx context.Context, frameIndex uint64, layers []timeline.FrameLayer) (*Result, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	cl, err := c.dispatch(ctx, frameIndex, layers)
	if err != nil {
		c.gate.Release(1)
		return nil, err
	}

	select {
	case <-cl.done:
		return cl.res, cl.err
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-cl.done:
		return cl.res, cl.err
	default:
	}
	cl.abandoned = true
	c.stats.Abandoned++
	framebridge.Logger().Debug("frame: request abandoned by caller", "frame", frameIndex, "id", cl.id)
	return nil, ctx.Err()
}

// dispatch sends one request. The gate must be held.
func (c *Client) dispatch(ctx context.Context, frameIndex uint64, layers []timeline.FrameLayer) (*call, error) {
	if c.mode == engine.ModeShared {
		if err := c.textures.Ready(); err != nil {
			return nil, err
		}
	}
	port, err := c.attach()
	if err != nil {
		return nil, err
	}

	cl := &call{
		id:    uuid.New(),
		frame: frameIndex,
		port:  port,
		done:  make(chan struct{}),
	}
	msg := channel.Message{
		Kind:    KindRequest,
		Payload: request{ID: cl.id, Frame: frameIndex, Layers: layers, Mode: c.mode},
	}
	if c.mode == engine.ModeCopy {
		cl.buf = c.buffers.Acquire()
		data, err := cl.buf.Transfer()
		if err != nil {
			return nil, errors.Join(err, cl.buf.Release())
		}
		msg.Data = data
	}

	c.mu.Lock()
	c.pending[cl.id] = cl
	c.mu.Unlock()

	if err := port.Send(ctx, msg); err != nil {
		c.mu.Lock()
		_, pending := c.pending[cl.id]
		delete(c.pending, cl.id)
		c.mu.Unlock()
		if !pending {
			// The reader saw the channel close and already rejected cl.
			return cl, nil
		}
		if cl.buf != nil {
			// The message never left, so the buffer is still ours.
			if rerr := cl.buf.Reclaim(msg.Data); rerr == nil {
				rerr = cl.buf.Release()
				err = errors.Join(err, rerr)
			}
		}
		return nil, err
	}

	c.mu.Lock()
	c.stats.Dispatched++
	c.mu.Unlock()
	framebridge.Logger().Debug("frame: request dispatched", "frame", frameIndex, "id", cl.id, "mode", c.mode.String())
	return cl, nil
}

// attach returns the live port, starting a response reader the first time
// a port is seen.
func (c *Client) attach() (*channel.Port, error) {
	p, ok := c.link.Port()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		if c.port != nil {
			return nil, framebridge.ErrChannelClosed
		}
		return nil, framebridge.ErrChannelNotReady
	}
	if p != c.port {
		c.port = p
		go c.read(p)
	}
	return p, nil
}

// read resolves pending requests from responses on p until p closes.
func (c *Client) read(p *channel.Port) {
	for {
		msg, err := p.Recv(context.Background())
		if err != nil {
			c.rejectAll(p, err)
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg channel.Message) {
	resp, ok := msg.Payload.(response)
	if msg.Kind != KindResponse || !ok {
		framebridge.Logger().Warn("frame: unexpected message on client side", "kind", msg.Kind)
		return
	}

	c.mu.Lock()
	cl, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	} else {
		c.stats.Stale++
	}
	c.mu.Unlock()

	if !ok {
		framebridge.Logger().Warn("frame: response matches no request", "frame", resp.Frame, "id", resp.ID)
		if resp.Texture != nil {
			if err := resp.Texture.Release(); err != nil {
				framebridge.Logger().Warn("frame: release of stale texture failed", "err", err)
			}
		}
		return
	}

	res, err := c.complete(cl, resp, msg.Data)
	c.resolve(cl, res, err)
}

// complete turns a response into a Result or an error, settling the
// request's buffer either way.
func (c *Client) complete(cl *call, resp response, data []byte) (*Result, error) {
	if cl.buf != nil {
		if data == nil {
			return nil, errors.Join(errNoBuffer, cl.buf.Forfeit(), releaseTexture(resp.Texture))
		}
		if err := cl.buf.Reclaim(data); err != nil {
			return nil, errors.Join(err, cl.buf.Forfeit(), releaseTexture(resp.Texture))
		}
	}

	if resp.Err != nil || resp.Frame != cl.frame {
		var errs []error
		if cl.buf != nil {
			errs = append(errs, cl.buf.Release())
		}
		errs = append(errs, releaseTexture(resp.Texture))
		ferr := failure(cl.frame, resp)
		if err := errors.Join(errs...); err != nil {
			return nil, errors.Join(ferr, err)
		}
		return nil, ferr
	}

	if c.mode == engine.ModeCopy {
		if resp.Texture != nil {
			framebridge.Logger().Warn("frame: unexpected texture in copy mode", "frame", cl.frame)
			if err := resp.Texture.Release(); err != nil {
				return nil, errors.Join(err, cl.buf.Release())
			}
		}
		return newCopyResult(cl.frame, cl.buf), nil
	}

	if resp.Texture == nil {
		return nil, fmt.Errorf("frame: shared-mode response for frame %d without texture", cl.frame)
	}
	imp, err := c.textures.Import(resp.Texture)
	if err != nil {
		return nil, err
	}
	return newSharedResult(cl.frame, imp, c.buffers), nil
}

// resolve settles cl exactly once and opens the gate.
func (c *Client) resolve(cl *call, res *Result, err error) {
	c.mu.Lock()
	abandoned := cl.abandoned
	if !abandoned {
		cl.res, cl.err = res, err
		close(cl.done)
	}
	if err != nil {
		c.stats.Failed++
	} else {
		c.stats.Completed++
	}
	c.mu.Unlock()

	if err != nil {
		framebridge.Logger().Debug("frame: request failed", "frame", cl.frame, "id", cl.id, "err", err)
	}
	if abandoned && res != nil {
		if rerr := res.Release(); rerr != nil {
			framebridge.Logger().Warn("frame: release of abandoned frame failed", "frame", cl.frame, "err", rerr)
		}
	}
	c.gate.Release(1)
}

// rejectAll fails every request sent on p. The buffers they carried are
// gone with the channel.
func (c *Client) rejectAll(p *channel.Port, cause error) {
	c.mu.Lock()
	var calls []*call
	for id, cl := range c.pending {
		if cl.port == p {
			calls = append(calls, cl)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()

	if len(calls) > 0 {
		framebridge.Logger().Warn("frame: channel closed with requests in flight", "count", len(calls), "cause", cause)
	}
	for _, cl := range calls {
		if cl.buf != nil {
			if err := cl.buf.Forfeit(); err != nil {
				framebridge.Logger().Warn("frame: forfeit failed", "err", err)
			}
		}
		c.resolve(cl, nil, framebridge.ErrChannelClosed)
	}
}

// failure classifies a failed response. The engine stopping because its
// context ended is not a composition failure.
func failure(frameIndex uint64, resp response) error {
	if resp.Err == nil {
		return &framebridge.CompositionError{
			Frame:  frameIndex,
			Reason: fmt.Sprintf("response is for frame %d", resp.Frame),
		}
	}
	if errors.Is(resp.Err, context.Canceled) || errors.Is(resp.Err, context.DeadlineExceeded) {
		return fmt.Errorf("frame: engine abandoned frame %d: %w", frameIndex, resp.Err)
	}
	return &framebridge.CompositionError{Frame: frameIndex, Reason: resp.Err.Error(), Err: resp.Err}
}

func releaseTexture(tex resource.SharedTexture) error {
	if tex == nil {
		return nil
	}
	return tex.Release()
}
