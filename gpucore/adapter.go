package gpucore

// GPUAdapter abstracts over different GPU backend implementations.
//
// This interface is the surface the post-processing effect needs from a
// GPU backend: shader module and compute pipeline lifecycle, bind group
// creation against host-registered textures, and compute pass recording.
// Implementations must be thread-safe for concurrent use; the effect
// itself calls them from its render goroutine only.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroy* on an already-destroyed or zero ID is a no-op, not an error
//   - IDs become invalid after destruction and must not be reused
//
// Ownership cascade: a compute pipeline is owned by the shader module it
// was created from. [GPUAdapter.DestroyShaderModule] releases the module
// AND every pipeline created from it; callers must not destroy such
// pipelines a second time.
type GPUAdapter interface {
	// === Capabilities ===

	// SupportsCompute returns whether compute shaders are supported.
	SupportsCompute() bool

	// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
	// Typical values are [256, 256, 64] or [1024, 1024, 1024].
	MaxWorkgroupSize() [3]uint32

	// === Shader and Pipeline Lifecycle ===

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	// The SPIR-V is compiled by naga before being passed here.
	//
	// Parameters:
	//   - spirv: SPIR-V bytecode as uint32 words
	//   - label: optional debug label
	//
	// Returns the module ID or an error if creation fails.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module and cascades to every
	// compute pipeline created from it. Zero or unknown IDs are ignored.
	DestroyShaderModule(id ShaderModuleID)

	// CreateComputePipeline creates a compute pipeline from a module.
	// The pipeline becomes lifetime-bound to desc.Module.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline without touching
	// its module. Zero or unknown IDs are ignored. Rarely needed directly;
	// the usual path is the DestroyShaderModule cascade.
	DestroyComputePipeline(id ComputePipelineID)

	// === Host Texture Registration ===

	// RegisterTexture makes a host-owned texture addressable by ID.
	// The adapter does not take ownership; the host frees the texture.
	RegisterTexture(info *TextureInfo) (TextureID, error)

	// UnregisterTexture forgets a host texture. Bind groups referencing
	// it become invalid and must be destroyed by their owners.
	UnregisterTexture(id TextureID)

	// ReadTexture reads back the full contents of a registered texture.
	// This stalls until the GPU is idle; debug paths only.
	ReadTexture(id TextureID) ([]byte, error)

	// === Bind Groups ===

	// CreateBindGroup creates a bind group for the given pipeline and
	// group index. Bind groups are pure functions of their inputs and
	// are safe to cache keyed by (pipeline, entries).
	CreateBindGroup(pipeline ComputePipelineID, group uint32, entries []BindGroupEntry) (BindGroupID, error)

	// DestroyBindGroup releases a bind group. Zero or unknown IDs are ignored.
	DestroyBindGroup(id BindGroupID)

	// === Command Recording and Execution ===

	// BeginComputePass begins a compute pass.
	// Returns an encoder for recording compute commands.
	// The encoder must be ended with ComputePassEncoder.End().
	BeginComputePass() ComputePassEncoder

	// Submit submits recorded commands to the GPU.
	// Call this after ending all compute passes to execute them.
	Submit()

	// WaitIdle waits for all GPU operations to complete.
	// Use sparingly as this causes a full GPU-CPU synchronization.
	WaitIdle()

	// Destroy releases adapter-internal resources. The adapter must not
	// be used afterwards. Host-owned textures are not touched.
	Destroy()
}

// ComputePassEncoder records compute commands.
//
// Usage:
//  1. Obtain encoder from GPUAdapter.BeginComputePass()
//  2. Set pipeline, bind group, and push constants
//  3. Dispatch compute workgroups
//  4. Call End() to finish recording
//  5. Call GPUAdapter.Submit() to execute
//
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified group index.
	SetBindGroup(index uint32, group BindGroupID)

	// SetPushConstants uploads a small frame-local parameter block for
	// the next dispatch. len(data) must be a multiple of 16 bytes.
	// Backends without native push constants emulate this with an
	// internal uniform slot.
	SetPushConstants(data []byte)

	// Dispatch dispatches compute workgroups.
	// x, y, z are the number of workgroups in each dimension.
	// Total threads = x * y * z * workgroup_size.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	// After this call, the encoder cannot be used again.
	End()
}
