package postfx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/postfx/cache"
	"github.com/gogpu/postfx/gpucore"
)

// Effect errors.
var (
	// ErrNilAdapter is returned by New when no adapter is supplied.
	ErrNilAdapter = errors.New("postfx: adapter is required")

	// ErrNoCompute is returned by New when the adapter reports no
	// compute shader support.
	ErrNoCompute = errors.New("postfx: adapter does not support compute")
)

// workgroupDim is the workgroup edge length baked into the template's
// @workgroup_size(8, 8, 1) directive. Dispatch counts must cover the
// raster size in units of this dimension.
const workgroupDim = 8

// pushConstantSize is the size of the per-dispatch parameter block:
// raster width, raster height, two padding floats, 16-byte aligned.
const pushConstantSize = 16

// defaultBindGroupCacheCapacity covers stereo (two views) across a few
// pipeline rebuilds before eviction kicks in.
const defaultBindGroupCacheCapacity = 8

// shaderState tracks the compile lifecycle of the effect shader.
type shaderState int

const (
	// stateUncompiled means no body text was ever consumed.
	stateUncompiled shaderState = iota

	// stateValid means the last compile succeeded and a pipeline is live.
	stateValid

	// stateInvalid means the last compile failed; dispatch is skipped
	// until a new body compiles successfully.
	stateInvalid
)

// String returns the string representation of a shaderState.
func (s shaderState) String() string {
	switch s {
	case stateUncompiled:
		return "Uncompiled"
	case stateValid:
		return "Valid"
	case stateInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// bindGroupKey identifies a memoized bind group. Bind groups are pure
// functions of (pipeline, bound image), so they are safe to cache by
// this key; entries die with their pipeline.
type bindGroupKey struct {
	pipeline gpucore.ComputePipelineID
	texture  gpucore.TextureID
}

// Effect is a runtime-editable compute post-processing pass.
//
// An Effect merges a user-supplied WGSL fragment into a fixed compute
// template, compiles it on demand, and dispatches the resulting
// pipeline once per frame per view against the frame's color buffer,
// in place.
//
// Two actors touch an Effect:
//
//   - a configuration actor (any goroutine, any frequency) calling
//     [Effect.SetBody];
//   - a render actor (exactly one goroutine, once per frame) calling
//     [Effect.RenderFrame] and, at end of life, [Effect.Teardown].
//
// The only shared state is the pending body text inside [SourceStore];
// all GPU handles are owned exclusively by the render actor.
//
// Compile and pipeline errors are absorbed: they are logged and the
// pass silently does nothing until a subsequent body compiles. The
// frame loop is never aborted.
type Effect struct {
	adapter  gpucore.GPUAdapter
	source   SourceStore
	compiler *Compiler

	stage      EffectStage
	entryPoint string

	state      shaderState
	pipeline   pipelineState
	bindGroups *cache.LRU[bindGroupKey, gpucore.BindGroupID]
}

// New creates an Effect on the given adapter.
//
// New is called from the render goroutine (or before it starts); the
// returned Effect's RenderFrame and Teardown must stay on that
// goroutine.
func New(adapter gpucore.GPUAdapter, opts ...Option) (*Effect, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	if !adapter.SupportsCompute() {
		return nil, ErrNoCompute
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Effect{
		adapter:    adapter,
		compiler:   NewCompiler(o.template),
		stage:      o.stage,
		entryPoint: o.entryPoint,
	}
	e.bindGroups = cache.New(o.cacheCapacity,
		cache.WithOnEvict(func(_ bindGroupKey, id gpucore.BindGroupID) {
			adapter.DestroyBindGroup(id)
		}))
	return e, nil
}

// SetBody replaces the shader body that will be compiled into the
// effect. The text is merged into the template at the next frame; the
// last write before that frame wins.
//
// Safe to call from any goroutine. Never blocks on compilation.
func (e *Effect) SetBody(text string) {
	e.source.SetBody(text)
}

// State reporting for tests and diagnostics.

// Valid reports whether a compiled pipeline is currently live.
func (e *Effect) Valid() bool {
	return e.state == stateValid
}

// BindGroupStats returns bind group cache counters.
func (e *Effect) BindGroupStats() cache.Stats {
	return e.bindGroups.Stats()
}

// RenderFrame runs the per-frame effect callback. The host compositor
// calls it once per rendered frame from the render goroutine.
//
// The sequence is: stage check, consume a pending body (compile and
// swap the pipeline if one is pending), then dispatch the current
// pipeline against every view's color image. All failures are logged
// and absorbed; the method never panics the frame loop and has no
// result to propagate.
func (e *Effect) RenderFrame(frame FrameContext) {
	if frame == nil || frame.Stage() != e.stage {
		return
	}

	e.checkShader()

	if e.state != stateValid {
		return
	}

	width, height := frame.RenderSize()
	if width == 0 || height == 0 {
		// Degenerate frame, a normal skip condition.
		return
	}

	xGroups := (width-1)/workgroupDim + 1
	yGroups := (height-1)/workgroupDim + 1
	push := packPushConstants(width, height)

	views := frame.ViewCount()
	dispatched := 0
	for view := 0; view < views; view++ {
		texture := frame.ColorTexture(view)
		if texture == gpucore.InvalidID {
			Logger().Warn("postfx: view has no color texture", slog.Int("view", view))
			continue
		}

		group, err := e.viewBindGroup(texture)
		if err != nil {
			Logger().Warn("postfx: bind group creation failed",
				slog.Int("view", view), slog.Any("error", err))
			continue
		}

		pass := e.adapter.BeginComputePass()
		pass.SetPipeline(e.pipeline.pipeline)
		pass.SetBindGroup(0, group)
		pass.SetPushConstants(push)
		pass.Dispatch(xGroups, yGroups, 1)
		pass.End()
		dispatched++
	}

	if dispatched > 0 {
		e.adapter.Submit()
	}
}

// Teardown releases the shader/pipeline pair and every cached bind
// group. Idempotent: calling it twice, or without ever having
// compiled, is a no-op. Must run on the render goroutine or be
// externally serialized against it.
func (e *Effect) Teardown() {
	e.bindGroups.Purge()
	e.pipeline.release(e.adapter)
	e.state = stateUncompiled
}

// checkShader consumes a pending body update, if any, and moves the
// state machine. A failed compile releases the previous pipeline so a
// stale effect is never dispatched over rejected source.
func (e *Effect) checkShader() {
	body, dirty := e.source.TakeIfDirty()
	if !dirty {
		return
	}

	shader, err := e.compiler.Compile(body)
	if err != nil {
		e.invalidate()
		var ce *CompileError
		if errors.As(err, &ce) {
			Logger().Warn("postfx: shader compile failed",
				slog.String("diagnostic", ce.Diagnostic),
				slog.String("source", ce.Source))
		} else {
			Logger().Warn("postfx: shader compile failed", slog.Any("error", err))
		}
		return
	}

	old := e.pipeline.pipeline
	pipeline, err := e.pipeline.apply(e.adapter, shader, e.entryPoint)
	if old != gpucore.InvalidID {
		e.dropBindGroups(old)
	}
	if err != nil {
		e.state = stateInvalid
		Logger().Warn("postfx: pipeline creation failed", slog.Any("error", err))
		return
	}

	e.state = stateValid
	Logger().Info("postfx: effect pipeline rebuilt",
		slog.Uint64("pipeline", uint64(pipeline)),
		slog.Int("body_bytes", len(body)))
}

// invalidate releases the current pair and marks the state Invalid.
func (e *Effect) invalidate() {
	if old := e.pipeline.pipeline; old != gpucore.InvalidID {
		e.dropBindGroups(old)
	}
	e.pipeline.release(e.adapter)
	e.state = stateInvalid
}

// dropBindGroups evicts every cached bind group tied to a pipeline.
// Entries keyed by a freed pipeline are unreachable and must not
// outlive it.
func (e *Effect) dropBindGroups(pipeline gpucore.ComputePipelineID) {
	e.bindGroups.DeleteFunc(func(k bindGroupKey, _ gpucore.BindGroupID) bool {
		return k.pipeline == pipeline
	})
}

// viewBindGroup returns the memoized bind group mapping binding 0 to
// the view's color image, creating it on first use.
func (e *Effect) viewBindGroup(texture gpucore.TextureID) (gpucore.BindGroupID, error) {
	key := bindGroupKey{pipeline: e.pipeline.pipeline, texture: texture}
	return e.bindGroups.GetOrCreate(key, func() (gpucore.BindGroupID, error) {
		return e.adapter.CreateBindGroup(key.pipeline, 0, []gpucore.BindGroupEntry{
			{Binding: 0, Texture: texture},
		})
	})
}

// packPushConstants builds the 16-byte parameter block: raster width
// and height as float32 plus two zero floats of padding, little-endian.
func packPushConstants(width, height uint32) []byte {
	buf := make([]byte, pushConstantSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(height)))
	// buf[8:16] stays zero: two padding floats.
	return buf
}
