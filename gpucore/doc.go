// Package gpucore provides shared GPU abstractions for the postfx effect.
//
// This package defines the [GPUAdapter] interface, which abstracts over
// different GPU backend implementations, allowing the same dispatch logic
// to work with:
//   - gogpu/wgpu (Pure Go WebGPU via HAL)
//   - test doubles recording command sequences
//
// # Architecture
//
// The effect talks to an adapter, never to a device directly. Thin
// adapters translate between the [GPUAdapter] interface and specific
// backend APIs:
//
//	            +-----------------+
//	            |     postfx      |
//	            |    (Effect)     |
//	            +--------+--------+
//	                     |
//	      +--------------+--------------+
//	      |                             |
//	+-----v-----------+        +--------v--------+
//	|   wgpu adapter  |        |  mock adapter   |
//	|  (hal.Device)   |        |    (tests)      |
//	+-----------------+        +-----------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([TextureID], [ShaderModuleID],
// [ComputePipelineID], [BindGroupID]). The [GPUAdapter] interface provides
// creation and destruction methods for each resource type. Adapters are
// responsible for tracking the mapping between IDs and actual GPU
// resources.
//
// Two rules shape the surface:
//
//  1. Destroying an invalid or already-destroyed handle is a no-op.
//     Teardown paths never need to guard against double-free.
//
//  2. A compute pipeline is owned by its shader module. Destroying the
//     module cascades to the pipeline, so callers hold a single release
//     edge for the pair.
package gpucore
