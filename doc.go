// Package postfx provides a runtime-editable compute post-processing
// effect for the GoGPU ecosystem.
//
// # Overview
//
// postfx injects a user-supplied fragment of WGSL compute code into a
// fixed shader template, compiles it on demand with gogpu/naga, and
// dispatches the resulting compute pipeline once per rendered frame
// against the frame's color buffer — per view, in place. The body can
// be rewritten from any goroutine while the render loop is running;
// the effect picks up the change at the next frame.
//
// # Quick Start
//
//	// The host owns the device; postfx receives it.
//	adapter := wgpu.NewHALAdapter(device, queue, nil)
//
//	fx, err := postfx.New(adapter)
//	if err != nil {
//	    return err
//	}
//	defer fx.Teardown()
//
//	// From anywhere, at any time:
//	fx.SetBody("color.rgb *= 2.0;")
//
//	// From the host's render callback, once per frame:
//	fx.RenderFrame(frame)
//
// # Architecture
//
// The package is organized into:
//   - Public API: [Effect], [SourceStore], [Compiler], [Template], [FrameContext]
//   - gpucore: backend abstraction ([gpucore.GPUAdapter], opaque resource IDs)
//   - backend: adapter registry; backend/wgpu adapts gogpu/wgpu HAL devices
//   - cache: bind group memoization with eviction hooks
//
// Exactly one shader/pipeline pair is live at a time. A new compile
// frees the old pair before installing the new one; a failed compile
// frees it too, so a stale effect is never dispatched over rejected
// source. All compile and dispatch failures are absorbed and logged —
// the frame loop keeps running and the pass degrades to a passthrough.
//
// # Threading
//
// [Effect.SetBody] is safe from any goroutine. Everything else —
// RenderFrame, Teardown — belongs to the single render goroutine that
// the host compositor drives. GPU handles never cross goroutines.
package postfx
