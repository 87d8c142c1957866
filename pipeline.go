package postfx

import (
	"fmt"

	"github.com/gogpu/postfx/gpucore"
)

// pipelineState owns the compiled shader module and the compute
// pipeline derived from it. The two handles are always valid or
// invalid together: the pipeline is lifetime-bound to the module, and
// destroying the module cascades to the pipeline on the adapter
// (see [gpucore.GPUAdapter.DestroyShaderModule]).
//
// Only the render goroutine touches these fields, so no locking is
// needed; replacement is atomic with respect to the render loop's own
// resource access by construction.
type pipelineState struct {
	module   gpucore.ShaderModuleID
	pipeline gpucore.ComputePipelineID
}

// valid reports whether a shader/pipeline pair is live.
// The two handles are valid only together.
func (p *pipelineState) valid() bool {
	return p.pipeline != gpucore.InvalidID
}

// apply replaces the current shader/pipeline pair with one built from
// shader. The old pair, if any, is released first. On pipeline
// creation failure the new module is released too, leaving both
// handles invalid.
func (p *pipelineState) apply(adapter gpucore.GPUAdapter, shader *CompiledShader, entryPoint string) (gpucore.ComputePipelineID, error) {
	p.release(adapter)

	module, err := adapter.CreateShaderModule(shader.Words, "postfx effect")
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("postfx: create shader module: %w", err)
	}

	pipeline, err := adapter.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:      "postfx effect pipeline",
		Module:     module,
		EntryPoint: entryPoint,
	})
	if err != nil {
		// The module is inert without a pipeline; free it so both
		// handles stay invalid together.
		adapter.DestroyShaderModule(module)
		return gpucore.InvalidID, fmt.Errorf("postfx: create compute pipeline: %w", err)
	}

	p.module = module
	p.pipeline = pipeline
	return pipeline, nil
}

// release frees the shader/pipeline pair. Destroying the module
// cascades to the pipeline, so the pipeline handle must not be freed
// separately. Idempotent: safe to call repeatedly and safe to call
// when nothing was ever compiled.
func (p *pipelineState) release(adapter gpucore.GPUAdapter) {
	if p.module != gpucore.InvalidID {
		adapter.DestroyShaderModule(p.module)
	}
	p.module = gpucore.InvalidID
	p.pipeline = gpucore.InvalidID
}
