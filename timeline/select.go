// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timeline

import (
	"cmp"
	"slices"
)

// Select returns the layers to render for frame index f.
//
// Layers whose inclusive [From, To] range covers f are kept and ordered by
// ascending Z. Layers with equal Z keep their relative order in layers.
// The result is a fresh slice of FrameLayers; IDs and time ranges are
// store-internal and are not part of the output.
//
// Select does not modify layers and returns identical output for
// identical input.
func Select(f uint64, layers []Layer) []FrameLayer {
	active := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if l.Active(f) {
			active = append(active, l)
		}
	}

	slices.SortStableFunc(active, func(a, b Layer) int {
		return cmp.Compare(a.Z, b.Z)
	})

	out := make([]FrameLayer, len(active))
	for i, l := range active {
		out[i] = l.clone().FrameLayer
	}
	return out
}
