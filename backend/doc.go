// Package backend provides backend registration and selection for postfx.
//
// Backends adapt a concrete GPU stack to the [gpucore.GPUAdapter]
// surface the effect dispatches through. They self-register from
// init() functions and are selected by name or priority:
//
//	import (
//	    "github.com/gogpu/postfx/backend"
//	    _ "github.com/gogpu/postfx/backend/wgpu" // registers "wgpu"
//	)
//
//	b, err := backend.InitDefault()
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	fx, err := postfx.New(b.Adapter())
//
// Hosts that already own a device (the usual case for a compositor
// effect) can skip the registry entirely and construct the wgpu
// adapter directly from their device and queue.
package backend
