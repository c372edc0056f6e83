// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame implements the per-frame request/response protocol over
// the dedicated channel.
//
// A Client sends one request per frame and waits for exactly one
// response. Only one request is in flight at a time: request N+1 is not
// dispatched before request N has resolved or been rejected.
//
//	client := frame.NewClient(handshaker, frame.WithMode(engine.ModeCopy))
//	res, err := client.RequestFrame(ctx, 42, layers)
//	if err != nil {
//	    return err
//	}
//	defer res.Release()
//	pix, err := res.Pixels()
//
// A Server runs on the engine side of the channel and answers requests by
// calling engine.Engine.RenderLayers.
//
// In copy mode the client's pooled buffer travels with the request and
// comes back with the response; the client does not touch it in
// between. In shared mode the response carries an engine-owned texture
// that the client imports, extracts and releases.
package frame
