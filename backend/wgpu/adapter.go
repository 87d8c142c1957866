// Package wgpu provides a GPU backend using gogpu/wgpu HAL directly.
package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/postfx/gpucore"
)

// paramsBufferSize is the size of the uniform slot used to emulate push
// constants. WebGPU core has no push constants, so per-dispatch parameters
// travel through a small uniform buffer at group 1 binding 0, which the
// effect shader template declares.
const paramsBufferSize = 16

// pipelineResources groups a compute pipeline with the layouts it was
// created with. Layouts are pipeline-scoped because the effect binding
// contract is fixed: group 0 holds the storage color image, group 1 holds
// the parameter uniform.
type pipelineResources struct {
	pipeline     hal.ComputePipeline
	imageLayout  hal.BindGroupLayout
	paramsLayout hal.BindGroupLayout
	layout       hal.PipelineLayout
	paramsGroup  hal.BindGroup
	module       gpucore.ShaderModuleID
}

// HALAdapter implements gpucore.GPUAdapter using gogpu/wgpu/hal directly.
// It bridges the gpucore abstraction and the HAL layer.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple
// goroutines. All resource operations are protected by a mutex.
type HALAdapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	limits       types.Limits
	hasCompute   bool
	maxWorkgroup [3]uint32

	nextID atomic.Uint64

	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	computePipelines map[gpucore.ComputePipelineID]*pipelineResources
	// modulePipelines implements the ownership cascade: destroying a
	// module releases every pipeline created from it.
	modulePipelines map[gpucore.ShaderModuleID][]gpucore.ComputePipelineID
	textures        map[gpucore.TextureID]*registeredTexture
	bindGroups      map[gpucore.BindGroupID]hal.BindGroup

	// paramsBuffer is the push-constant emulation slot, created lazily
	// on the first pipeline.
	paramsBuffer   hal.Buffer
	paramsBufferID uint64

	// Command encoder for the current frame.
	encoder    hal.CommandEncoder
	hasEncoder bool
}

// registeredTexture tracks a host texture made addressable by ID.
// The hal handle may be nil when the host registered by description only;
// bind group creation then falls back to the ID-as-handle scheme the HAL
// resolves internally.
type registeredTexture struct {
	info    gpucore.TextureInfo
	texture hal.Texture
	view    hal.TextureView
	owned   bool
}

// NewHALAdapter creates a new HALAdapter wrapping the given device and queue.
// If limits is nil, default limits are used.
func NewHALAdapter(device hal.Device, queue hal.Queue, limits *types.Limits) *HALAdapter {
	var lim types.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = types.DefaultLimits()
	}

	adapter := &HALAdapter{
		device:           device,
		queue:            queue,
		limits:           lim,
		hasCompute:       true,
		maxWorkgroup:     [3]uint32{lim.MaxComputeWorkgroupSizeX, lim.MaxComputeWorkgroupSizeY, lim.MaxComputeWorkgroupSizeZ},
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		computePipelines: make(map[gpucore.ComputePipelineID]*pipelineResources),
		modulePipelines:  make(map[gpucore.ShaderModuleID][]gpucore.ComputePipelineID),
		textures:         make(map[gpucore.TextureID]*registeredTexture),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
	}

	// Start ID generation at 1 (0 is invalid)
	adapter.nextID.Store(1)

	return adapter
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// === Capabilities ===

// SupportsCompute returns whether compute shaders are supported.
func (a *HALAdapter) SupportsCompute() bool {
	return a.hasCompute
}

// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
func (a *HALAdapter) MaxWorkgroupSize() [3]uint32 {
	return a.maxWorkgroup
}

// === Shader and Pipeline Lifecycle ===

// CreateShaderModule creates a shader module from SPIR-V bytecode.
func (a *HALAdapter) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("empty SPIR-V bytecode")
	}

	desc := &hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	}

	module, err := a.device.CreateShaderModule(desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create shader module: %w", err)
	}

	id := gpucore.ShaderModuleID(a.newID())

	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()

	return id, nil
}

// DestroyShaderModule releases a shader module and every compute pipeline
// created from it.
func (a *HALAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	var dependents []*pipelineResources
	if ok {
		delete(a.shaderModules, id)
		for _, pid := range a.modulePipelines[id] {
			if res, exists := a.computePipelines[pid]; exists {
				delete(a.computePipelines, pid)
				dependents = append(dependents, res)
			}
		}
		delete(a.modulePipelines, id)
	}
	a.mu.Unlock()

	if !ok {
		return
	}
	for _, res := range dependents {
		a.destroyPipelineResources(res)
	}
	a.device.DestroyShaderModule(module)
}

// CreateComputePipeline creates a compute pipeline for the effect binding
// contract: group 0 binding 0 is a read-write storage color image, group 1
// binding 0 is the 16-byte parameter uniform. The pipeline becomes
// lifetime-bound to desc.Module.
func (a *HALAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("nil compute pipeline descriptor")
	}

	a.mu.RLock()
	shaderModule, moduleOK := a.shaderModules[desc.Module]
	a.mu.RUnlock()

	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("shader module %d not found", desc.Module)
	}

	if err := a.ensureParamsBuffer(); err != nil {
		return gpucore.InvalidID, err
	}

	imageLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "effect-image-layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Storage: &types.StorageTextureBindingLayout{
					Access:        types.StorageTextureAccessReadWrite,
					Format:        types.TextureFormatRGBA16Float,
					ViewDimension: types.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create image bind group layout: %w", err)
	}

	paramsLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "effect-params-layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: paramsBufferSize,
				},
			},
		},
	})
	if err != nil {
		a.device.DestroyBindGroupLayout(imageLayout)
		return gpucore.InvalidID, fmt.Errorf("failed to create params bind group layout: %w", err)
	}

	pipelineLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "effect-pipeline-layout",
		BindGroupLayouts: []hal.BindGroupLayout{imageLayout, paramsLayout},
	})
	if err != nil {
		a.device.DestroyBindGroupLayout(paramsLayout)
		a.device.DestroyBindGroupLayout(imageLayout)
		return gpucore.InvalidID, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	a.mu.RLock()
	paramsBufferID := a.paramsBufferID
	a.mu.RUnlock()

	paramsGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "effect-params-group",
		Layout: paramsLayout,
		Entries: []types.BindGroupEntry{
			{
				Binding: 0,
				Resource: types.BufferBinding{
					Buffer: types.BufferHandle(paramsBufferID),
					Offset: 0,
					Size:   paramsBufferSize,
				},
			},
		},
	})
	if err != nil {
		a.device.DestroyPipelineLayout(pipelineLayout)
		a.device.DestroyBindGroupLayout(paramsLayout)
		a.device.DestroyBindGroupLayout(imageLayout)
		return gpucore.InvalidID, fmt.Errorf("failed to create params bind group: %w", err)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     shaderModule,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		a.device.DestroyBindGroup(paramsGroup)
		a.device.DestroyPipelineLayout(pipelineLayout)
		a.device.DestroyBindGroupLayout(paramsLayout)
		a.device.DestroyBindGroupLayout(imageLayout)
		return gpucore.InvalidID, fmt.Errorf("failed to create compute pipeline: %w", err)
	}

	id := gpucore.ComputePipelineID(a.newID())

	a.mu.Lock()
	a.computePipelines[id] = &pipelineResources{
		pipeline:     pipeline,
		imageLayout:  imageLayout,
		paramsLayout: paramsLayout,
		layout:       pipelineLayout,
		paramsGroup:  paramsGroup,
		module:       desc.Module,
	}
	a.modulePipelines[desc.Module] = append(a.modulePipelines[desc.Module], id)
	a.mu.Unlock()

	return id, nil
}

// DestroyComputePipeline releases a compute pipeline without touching its
// module.
func (a *HALAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	res, ok := a.computePipelines[id]
	if ok {
		delete(a.computePipelines, id)
		deps := a.modulePipelines[res.module]
		for i, pid := range deps {
			if pid == id {
				a.modulePipelines[res.module] = append(deps[:i], deps[i+1:]...)
				break
			}
		}
	}
	a.mu.Unlock()

	if ok {
		a.destroyPipelineResources(res)
	}
}

// destroyPipelineResources releases a pipeline and its layouts.
// Must be called without mu held.
func (a *HALAdapter) destroyPipelineResources(res *pipelineResources) {
	a.device.DestroyComputePipeline(res.pipeline)
	a.device.DestroyBindGroup(res.paramsGroup)
	a.device.DestroyPipelineLayout(res.layout)
	a.device.DestroyBindGroupLayout(res.paramsLayout)
	a.device.DestroyBindGroupLayout(res.imageLayout)
}

// ensureParamsBuffer lazily creates the push-constant emulation buffer.
func (a *HALAdapter) ensureParamsBuffer() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.paramsBuffer != nil {
		return nil
	}

	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "effect-params",
		Size:  paramsBufferSize,
		Usage: types.BufferUsageUniform | types.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create params buffer: %w", err)
	}

	a.paramsBuffer = buffer
	a.paramsBufferID = a.newID()
	return nil
}

// === Host Texture Registration ===

// RegisterTexture makes a host texture addressable by ID. The adapter
// allocates a backing texture matching the description; hosts that already
// own a hal.Texture should use RegisterHALTexture instead so no copy is
// needed.
func (a *HALAdapter) RegisterTexture(info *gpucore.TextureInfo) (gpucore.TextureID, error) {
	if info == nil {
		return gpucore.InvalidID, fmt.Errorf("nil texture info")
	}
	if info.Width == 0 || info.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("texture dimensions must be positive")
	}

	texture, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label: info.Label,
		Size: hal.Extent3D{
			Width:              info.Width,
			Height:             info.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        convertTextureFormat(info.Format),
		Usage:         types.TextureUsageCopySrc | types.TextureUsageCopyDst | types.TextureUsageStorageBinding,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create texture: %w", err)
	}

	view, err := a.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label: info.Label,
	})
	if err != nil {
		a.device.DestroyTexture(texture)
		return gpucore.InvalidID, fmt.Errorf("failed to create texture view: %w", err)
	}

	id := gpucore.TextureID(a.newID())

	a.mu.Lock()
	a.textures[id] = &registeredTexture{
		info:    *info,
		texture: texture,
		view:    view,
		owned:   true,
	}
	a.mu.Unlock()

	return id, nil
}

// RegisterHALTexture makes a host-owned hal texture addressable by ID.
// The adapter does not take ownership; the host frees the texture after
// unregistering it.
func (a *HALAdapter) RegisterHALTexture(texture hal.Texture, view hal.TextureView, info *gpucore.TextureInfo) (gpucore.TextureID, error) {
	if texture == nil {
		return gpucore.InvalidID, fmt.Errorf("nil hal texture")
	}
	if info == nil {
		return gpucore.InvalidID, fmt.Errorf("nil texture info")
	}

	id := gpucore.TextureID(a.newID())

	a.mu.Lock()
	a.textures[id] = &registeredTexture{
		info:    *info,
		texture: texture,
		view:    view,
		owned:   false,
	}
	a.mu.Unlock()

	return id, nil
}

// UnregisterTexture forgets a texture. Adapter-allocated backings are
// destroyed; host-owned textures are left untouched.
func (a *HALAdapter) UnregisterTexture(id gpucore.TextureID) {
	a.mu.Lock()
	reg, ok := a.textures[id]
	if ok {
		delete(a.textures, id)
	}
	a.mu.Unlock()

	if ok && reg.owned {
		if reg.view != nil {
			a.device.DestroyTextureView(reg.view)
		}
		a.device.DestroyTexture(reg.texture)
	}
}

// ReadTexture reads back the full contents of a registered texture.
//
// TODO: HAL buffer mapping is not yet exposed, so the staged copy cannot
// be read back on this backend. Use a software adapter for readback paths.
func (a *HALAdapter) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	a.mu.RLock()
	_, ok := a.textures[id]
	a.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("texture %d not found", id)
	}

	return nil, fmt.Errorf("texture readback not supported on this backend")
}

// === Bind Groups ===

// CreateBindGroup creates a bind group for the given pipeline and group
// index. Only group 0 (the color image) is host-creatable; the parameter
// group is adapter-internal.
func (a *HALAdapter) CreateBindGroup(pipeline gpucore.ComputePipelineID, group uint32, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	if group != 0 {
		return gpucore.InvalidID, fmt.Errorf("group %d is adapter-internal", group)
	}

	a.mu.RLock()
	res, ok := a.computePipelines[pipeline]
	if !ok {
		a.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("compute pipeline %d not found", pipeline)
	}

	halEntries := make([]types.BindGroupEntry, len(entries))
	for i, entry := range entries {
		if _, exists := a.textures[entry.Texture]; !exists {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("texture %d not found", entry.Texture)
		}
		halEntries[i] = types.BindGroupEntry{
			Binding: entry.Binding,
			Resource: types.TextureViewBinding{
				TextureView: types.TextureViewHandle(entry.Texture),
			},
		}
	}
	layout := res.imageLayout
	a.mu.RUnlock()

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "effect-image-group",
		Layout:  layout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group: %w", err)
	}

	id := gpucore.BindGroupID(a.newID())

	a.mu.Lock()
	a.bindGroups[id] = bindGroup
	a.mu.Unlock()

	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	if ok {
		delete(a.bindGroups, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(group)
	}
}

// === Command Recording and Execution ===

// BeginComputePass begins a compute pass.
func (a *HALAdapter) BeginComputePass() gpucore.ComputePassEncoder {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasEncoder {
		encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
			Label: "effect-encoder",
		})
		if err != nil {
			// Return a no-op encoder on error
			return &halComputePassEncoder{adapter: a}
		}

		if err := encoder.BeginEncoding("effect-frame"); err != nil {
			return &halComputePassEncoder{adapter: a}
		}

		a.encoder = encoder
		a.hasEncoder = true
	}

	halPass := a.encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: "effect",
	})

	return &halComputePassEncoder{
		adapter: a,
		pass:    halPass,
	}
}

// Submit submits recorded commands to the GPU.
func (a *HALAdapter) Submit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasEncoder || a.encoder == nil {
		return
	}

	cmdBuffer, err := a.encoder.EndEncoding()
	if err != nil {
		a.encoder = nil
		a.hasEncoder = false
		return
	}

	// Submit without fence (fire and forget)
	_ = a.queue.Submit([]hal.CommandBuffer{cmdBuffer}, nil, 0)

	cmdBuffer.Destroy()
	a.encoder = nil
	a.hasEncoder = false
}

// WaitIdle waits for all GPU operations to complete.
func (a *HALAdapter) WaitIdle() {
	a.Submit()

	fence, err := a.device.CreateFence()
	if err != nil {
		return
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit(nil, fence, 1); err != nil {
		return
	}

	// 5 second timeout
	_, _ = a.device.Wait(fence, 1, 5_000_000_000)
}

// Destroy releases adapter-internal resources. Host-owned textures are
// not touched.
func (a *HALAdapter) Destroy() {
	a.mu.Lock()
	bindGroups := a.bindGroups
	pipelines := a.computePipelines
	modules := a.shaderModules
	textures := a.textures
	paramsBuffer := a.paramsBuffer
	a.bindGroups = make(map[gpucore.BindGroupID]hal.BindGroup)
	a.computePipelines = make(map[gpucore.ComputePipelineID]*pipelineResources)
	a.modulePipelines = make(map[gpucore.ShaderModuleID][]gpucore.ComputePipelineID)
	a.shaderModules = make(map[gpucore.ShaderModuleID]hal.ShaderModule)
	a.textures = make(map[gpucore.TextureID]*registeredTexture)
	a.paramsBuffer = nil
	a.paramsBufferID = 0
	a.encoder = nil
	a.hasEncoder = false
	a.mu.Unlock()

	for _, group := range bindGroups {
		a.device.DestroyBindGroup(group)
	}
	for _, res := range pipelines {
		a.destroyPipelineResources(res)
	}
	for _, module := range modules {
		a.device.DestroyShaderModule(module)
	}
	for _, reg := range textures {
		if reg.owned {
			if reg.view != nil {
				a.device.DestroyTextureView(reg.view)
			}
			a.device.DestroyTexture(reg.texture)
		}
	}
	if paramsBuffer != nil {
		a.device.DestroyBuffer(paramsBuffer)
	}
}

// === Type Conversion Helpers ===

// convertTextureFormat converts gputypes.TextureFormat to types.TextureFormat.
func convertTextureFormat(format gputypes.TextureFormat) types.TextureFormat {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm
	case gputypes.TextureFormatR8Unorm:
		return types.TextureFormatR8Unorm
	case gputypes.TextureFormatRGBA16Float:
		return types.TextureFormatRGBA16Float
	default:
		return types.TextureFormatRGBA16Float
	}
}

// === Compute Pass Encoder ===

// halComputePassEncoder implements gpucore.ComputePassEncoder.
type halComputePassEncoder struct {
	adapter *HALAdapter
	pass    hal.ComputePassEncoder

	// paramsGroup is the parameter bind group of the pipeline most
	// recently set on this pass. SetPushConstants binds it at group 1.
	paramsGroup hal.BindGroup
}

// SetPipeline sets the active compute pipeline.
func (e *halComputePassEncoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	if e.pass == nil {
		return
	}

	e.adapter.mu.RLock()
	res, ok := e.adapter.computePipelines[pipeline]
	e.adapter.mu.RUnlock()

	if ok {
		e.paramsGroup = res.paramsGroup
		e.pass.SetPipeline(res.pipeline)
	}
}

// SetBindGroup sets a bind group at the specified index.
func (e *halComputePassEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if e.pass == nil {
		return
	}

	e.adapter.mu.RLock()
	halGroup, ok := e.adapter.bindGroups[group]
	e.adapter.mu.RUnlock()

	if ok {
		e.pass.SetBindGroup(index, halGroup, nil)
	}
}

// SetPushConstants uploads the per-dispatch parameter block through the
// uniform emulation slot and binds it at group 1.
func (e *halComputePassEncoder) SetPushConstants(data []byte) {
	if e.pass == nil || len(data) == 0 || len(data)%paramsBufferSize != 0 {
		return
	}

	e.adapter.mu.RLock()
	buffer := e.adapter.paramsBuffer
	e.adapter.mu.RUnlock()

	if buffer == nil {
		return
	}

	e.adapter.queue.WriteBuffer(buffer, 0, data)
	if e.paramsGroup != nil {
		e.pass.SetBindGroup(1, e.paramsGroup, nil)
	}
}

// Dispatch dispatches compute workgroups.
func (e *halComputePassEncoder) Dispatch(x, y, z uint32) {
	if e.pass == nil {
		return
	}
	e.pass.Dispatch(x, y, z)
}

// End finishes the compute pass.
func (e *halComputePassEncoder) End() {
	if e.pass == nil {
		return
	}
	e.pass.End()
}
