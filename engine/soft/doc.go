// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements a software compositing engine.
//
// Each layer's object plugin generates a straight-alpha image, the
// layer's effects are applied in order, and the result is drawn over the
// frame background with the layer transform: scaled and rotated about
// its center, placed with its top-left corner at (X, Y), and faded by
// Alpha.
//
// Built-in objects:
//
//	test_object  scrolling color bars, animated by frame index
//	solid        parameters: color ("#RRGGBB[AA]"), width, height
//	checker      parameters: size, colors (two colors), width, height
//
// Built-in effects:
//
//	invert       inverts color channels
//	grayscale    replaces color with luma
//	opacity      parameters: amount in [0, 1]
//
// In shared mode rendered frames live in a bounded set of engine-owned
// BGRA8 texture slots that consumers must release.
package soft
