// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store errors.
var (
	// ErrLayerNotFound is returned when an operation names an unknown layer ID.
	ErrLayerNotFound = errors.New("timeline: layer not found")

	// ErrDuplicateLayer is returned when a layer ID is already in the store.
	ErrDuplicateLayer = errors.New("timeline: duplicate layer id")

	// ErrInvalidRange is returned when a layer's From is after its To.
	ErrInvalidRange = errors.New("timeline: invalid time range")
)

// PlaybackState is the playback state of the viewer.
type PlaybackState int

// Playback states.
const (
	Playing PlaybackState = iota
	Paused
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Store holds the timeline layers and the playback position.
//
// Store has a single writer and many readers: mutations take the write
// lock, reads return copies so callers never observe later edits.
// Layers are kept in insertion order, which is the tie-break order used by
// Select for layers with equal Z.
type Store struct {
	mu       sync.RWMutex
	layers   []Layer
	position uint64
	state    PlaybackState
}

// NewStore creates an empty store positioned at frame 0 and playing.
func NewStore() *Store {
	return &Store{}
}

// Add appends a layer. A layer without an ID is assigned a new UUID.
// The stored layer is returned.
func (s *Store) Add(l Layer) (Layer, error) {
	if l.From > l.To {
		return Layer{}, fmt.Errorf("%w: from=%d to=%d", ErrInvalidRange, l.From, l.To)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(l.ID) >= 0 {
		return Layer{}, fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID)
	}
	l = l.clone()
	s.layers = append(s.layers, l)
	return l.clone(), nil
}

// Update replaces the layer with the same ID, keeping its insertion
// position.
func (s *Store) Update(l Layer) error {
	if l.From > l.To {
		return fmt.Errorf("%w: from=%d to=%d", ErrInvalidRange, l.From, l.To)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(l.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, l.ID)
	}
	s.layers[i] = l.clone()
	return nil
}

// Remove deletes the layer with the given ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return nil
}

// Reorder sets the Z index of a layer.
func (s *Store) Reorder(id string, z int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.layers[i].Z = z
	return nil
}

// Replace swaps the whole layer set. Insertion order becomes the order of
// layers. Nothing is changed if any layer is invalid.
func (s *Store) Replace(layers []Layer) error {
	next := make([]Layer, 0, len(layers))
	seen := make(map[string]struct{}, len(layers))
	for _, l := range layers {
		if l.From > l.To {
			return fmt.Errorf("%w: layer %q from=%d to=%d", ErrInvalidRange, l.ID, l.From, l.To)
		}
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID)
		}
		seen[l.ID] = struct{}{}
		next = append(next, l.clone())
	}

	s.mu.Lock()
	s.layers = next
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the layer with the given ID.
func (s *Store) Get(id string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Layer{}, false
	}
	return s.layers[i].clone(), true
}

// Layers returns a copy of all layers in insertion order.
func (s *Store) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.clone()
	}
	return out
}

// Len returns the number of layers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Position returns the current frame index.
func (s *Store) Position() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// SetPosition moves playback to frame index f.
func (s *Store) SetPosition(f uint64) {
	s.mu.Lock()
	s.position = f
	s.mu.Unlock()
}

// Advance moves playback forward one frame if playing and returns the new
// position.
func (s *Store) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		s.position++
	}
	return s.position
}

// State returns the playback state.
func (s *Store) State() PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState sets the playback state.
func (s *Store) SetState(st PlaybackState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Select returns the layers to render at the current position together
// with that position, read under one lock.
func (s *Store) Select() (uint64, []FrameLayer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position, Select(s.position, s.layers)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}
