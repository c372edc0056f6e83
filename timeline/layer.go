// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timeline

// Transform places a referenced object in the frame.
type Transform struct {
	// X, Y is the position of the object in frame pixels.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Scale is a uniform scale factor (1 = native size).
	Scale float64 `json:"scale"`

	// Rotation is the rotation in degrees, clockwise in frame space.
	Rotation float64 `json:"rotation"`

	// Alpha is the opacity in [0, 1].
	Alpha float64 `json:"alpha"`
}

// IdentityTransform returns a transform that draws an object at the
// origin, unscaled, unrotated and fully opaque.
func IdentityTransform() Transform {
	return Transform{Scale: 1, Alpha: 1}
}

// ObjectRef names an object plugin and carries its parameters.
// Parameters are opaque here and interpreted only by the engine.
type ObjectRef struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Effect is one entry of a layer's effect chain. Like ObjectRef its
// contents are defined by the engine and passed through unmodified.
type Effect struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// FrameLayer is the unit sent to the engine for each active layer of a
// frame. The transform fields are encoded inline next to obj and effects.
type FrameLayer struct {
	Transform

	Object  ObjectRef `json:"obj"`
	Effects []Effect  `json:"effects"`
}

// Layer is a FrameLayer placed on the timeline.
//
// From and To are inclusive frame indices. Z controls draw order among
// simultaneously active layers; lower values are drawn first.
type Layer struct {
	FrameLayer

	ID   string `json:"id"`
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
	Z    int    `json:"z"`
}

// Active reports whether the layer covers frame index f.
func (l Layer) Active(f uint64) bool {
	return l.From <= f && f <= l.To
}

// clone returns a copy of l that shares no slices or maps with it.
func (l Layer) clone() Layer {
	c := l
	c.Object.Parameters = cloneParams(l.Object.Parameters)
	if l.Effects != nil {
		c.Effects = make([]Effect, len(l.Effects))
		for i, e := range l.Effects {
			c.Effects[i] = Effect{Name: e.Name, Parameters: cloneParams(e.Parameters)}
		}
	}
	return c
}

// cloneParams copies the top level of a parameter map. Values are opaque
// and treated as immutable.
func cloneParams(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	c := make(map[string]any, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
