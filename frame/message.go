// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gogpu/framebridge/engine"
	"github.com/gogpu/framebridge/resource"
	"github.com/gogpu/framebridge/timeline"
)

// Message kinds on the dedicated channel.
const (
	KindRequest  = "frame-request"
	KindResponse = "frame-response"
)

// request asks the engine to render one frame. In copy mode the target
// buffer travels in channel.Message.Data.
type request struct {
	ID     uuid.UUID
	Frame  uint64
	Layers []timeline.FrameLayer
	Mode   engine.Mode
}

// response answers exactly one request. In copy mode the target buffer
// travels back in channel.Message.Data, also when Err is set.
type response struct {
	ID      uuid.UUID
	Frame   uint64
	Texture resource.SharedTexture
	Err     error
}

var (
	// errModeMismatch is returned when a request's transport mode differs
	// from the engine's.
	errModeMismatch = errors.New("transport mode mismatch")
)

// validate rejects descriptor lists the engine cannot interpret.
func validate(layers []timeline.FrameLayer) error {
	for i := range layers {
		if layers[i].Object.Name == "" {
			return fmt.Errorf("layer %d: empty object name", i)
		}
		for j, ef := range layers[i].Effects {
			if ef.Name == "" {
				return fmt.Errorf("layer %d: effect %d: empty name", i, j)
			}
		}
	}
	return nil
}
