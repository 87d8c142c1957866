package gpucore

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a GPU texture.
//
// Color images owned by the host compositor enter the adapter through
// [GPUAdapter.RegisterTexture]; the effect never creates textures itself.
type TextureID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
//
// A compute pipeline is derived 1:1 from a shader module and is
// lifetime-bound to it: destroying the module releases the pipeline.
// See [GPUAdapter.DestroyShaderModule].
type ComputePipelineID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// InvalidID is the zero value, representing an invalid/null resource.
// All ID types use 0 as their invalid sentinel.
const InvalidID = 0

// BindGroupEntry binds one resource to a binding slot within a group.
// Only texture bindings exist in this adapter surface; the parameter
// block travels as push-constant bytes, not as a bound resource.
type BindGroupEntry struct {
	// Binding is the @binding index within the group.
	Binding uint32

	// Texture is the bound texture resource.
	Texture TextureID
}

// ComputePipelineDesc describes a compute pipeline to create.
type ComputePipelineDesc struct {
	// Label is an optional debug name.
	Label string

	// Module is the compiled shader module.
	Module ShaderModuleID

	// EntryPoint is the compute entry function name, e.g. "main".
	EntryPoint string
}

// TextureInfo describes a host-owned texture being registered with
// the adapter.
type TextureInfo struct {
	// Label is an optional debug name.
	Label string

	// Width and Height are the texture dimensions in pixels.
	Width  uint32
	Height uint32

	// Format is the pixel format of the texture.
	Format gputypes.TextureFormat
}
