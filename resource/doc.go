// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package resource owns the lifecycle of the pixel-producing resources of
// the frame pipeline.
//
// Copy mode uses a BufferPool: a single reusable FrameSize buffer whose
// ownership moves requester -> engine -> requester and never overlaps.
//
// Shared-handle mode uses a TextureTracker: an engine-owned SharedTexture
// is imported, its pixels extracted with Frame, and then released exactly
// once. At most one import may be outstanding.
//
// Violations (double release, use after release, stacked imports) are
// returned as framebridge.ErrLifecycleViolation and logged at error level.
// Builds tagged framedebug panic instead.
package resource
