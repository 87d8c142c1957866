package postfx

import (
	"fmt"

	"github.com/gogpu/postfx/gpucore"
)

// EffectStage tags the point in the host's frame where an effect
// callback fires. The effect only dispatches for the stage it was
// configured with (post-transparency by default).
type EffectStage int

const (
	// StagePreOpaque runs before opaque geometry.
	StagePreOpaque EffectStage = iota

	// StagePostOpaque runs after opaque geometry, before transparency.
	StagePostOpaque

	// StagePostTransparency runs after the transparent pass, on the
	// final color buffer. This is the stage post-process effects use.
	StagePostTransparency
)

// String returns the string representation of an EffectStage.
func (s EffectStage) String() string {
	switch s {
	case StagePreOpaque:
		return "PreOpaque"
	case StagePostOpaque:
		return "PostOpaque"
	case StagePostTransparency:
		return "PostTransparency"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// FrameContext is the per-frame view the host compositor hands to
// [Effect.RenderFrame]. It is an injection point, not an inheritance
// relationship: the host implements it and invokes the effect once per
// rendered frame from its render goroutine.
//
// Implementations are only read during the RenderFrame call; the
// effect never retains them across frames.
type FrameContext interface {
	// Stage reports which effect stage this callback is for.
	Stage() EffectStage

	// RenderSize reports the internal render resolution. Either
	// dimension may be 0 (minimized window, surface loss); the effect
	// skips dispatch for such frames.
	RenderSize() (width, height uint32)

	// ViewCount reports the number of views: 1 for mono rendering,
	// more for stereo/XR.
	ViewCount() int

	// ColorTexture returns the color image for the given view index,
	// previously registered with the adapter by the host.
	// view is in [0, ViewCount()).
	ColorTexture(view int) gpucore.TextureID
}
