package backend

import (
	"errors"

	"github.com/gogpu/postfx/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend couples a named GPU backend with its adapter lifecycle.
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "wgpu").
	Name() string

	// Init initializes the backend.
	// This should be called before Adapter().
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Adapter returns the backend's GPU adapter for use by effects.
	// Returns nil before Init or after Close.
	Adapter() gpucore.GPUAdapter
}
