// Package framebridge carries composited video frames from a native
// compositing engine to a rendering front-end.
//
// # Overview
//
// A session has two sides. The UI side owns the timeline (package timeline),
// asks the engine for a dedicated frame channel (package channel), and
// requests one composited frame at a time (package frame). The engine side
// (package host) owns an explicitly constructed engine instance (package
// engine), answers control requests, and serves frame requests on its end of
// the dedicated channel.
//
// # Transport modes
//
// Two pixel transports are supported, fixed for a session:
//   - Copy mode: a reusable FrameSize buffer is transferred to the engine,
//     filled, and transferred back.
//   - Shared-handle mode: the engine renders into a texture it owns and
//     returns a handle that the UI side imports, reads, and releases exactly
//     once.
//
// Resource ownership is tracked at runtime by package resource. Double
// releases, consume-after-release and stacked imports are reported as
// ErrLifecycleViolation, and panic in builds tagged framedebug.
//
// # Frame geometry
//
// Frames are FrameWidth x FrameHeight pixels, RGBA8, row-major, top-left
// origin. Vertical flipping is a presentation concern (package present).
//
// # Architecture
//
//	timeline.Store -> timeline.Select -> frame.Client -> channel.Port
//	    -> frame.Server -> engine.Engine -> resource -> present.Presenter
package framebridge

// Frame geometry shared by every component of the pipeline.
const (
	// FrameWidth is the width of every composited frame in pixels.
	FrameWidth = 1920

	// FrameHeight is the height of every composited frame in pixels.
	FrameHeight = 1080

	// BytesPerPixel is the size of one RGBA8 pixel.
	BytesPerPixel = 4

	// FrameStride is the number of bytes per frame row.
	FrameStride = FrameWidth * BytesPerPixel

	// FrameSize is the number of bytes in one frame buffer.
	FrameSize = FrameStride * FrameHeight
)

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
