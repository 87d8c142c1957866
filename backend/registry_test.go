package backend

import (
	"testing"

	"github.com/gogpu/postfx/gpucore"
)

// stubBackend is a minimal Backend for registry tests.
type stubBackend struct {
	name    string
	initErr error
	inited  bool
	closed  bool
	adapter gpucore.GPUAdapter
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Init() error {
	if b.initErr != nil {
		return b.initErr
	}
	b.inited = true
	return nil
}

func (b *stubBackend) Close() { b.closed = true }

func (b *stubBackend) Adapter() gpucore.GPUAdapter {
	if !b.inited {
		return nil
	}
	return b.adapter
}

func TestRegisterAndGet(t *testing.T) {
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	defer Unregister("stub")

	if !IsRegistered("stub") {
		t.Fatal("IsRegistered(stub) = false after Register")
	}

	b := Get("stub")
	if b == nil {
		t.Fatal("Get(stub) returned nil")
	}
	if b.Name() != "stub" {
		t.Errorf("Name() = %q, want %q", b.Name(), "stub")
	}
}

func TestGetUnknown(t *testing.T) {
	if b := Get("no-such-backend"); b != nil {
		t.Errorf("Get(no-such-backend) = %v, want nil", b)
	}
}

func TestUnregister(t *testing.T) {
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	Unregister("stub")

	if IsRegistered("stub") {
		t.Error("IsRegistered(stub) = true after Unregister")
	}
}

func TestAvailable(t *testing.T) {
	Register("stub-a", func() Backend { return &stubBackend{name: "stub-a"} })
	Register("stub-b", func() Backend { return &stubBackend{name: "stub-b"} })
	defer Unregister("stub-a")
	defer Unregister("stub-b")

	names := Available()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["stub-a"] || !found["stub-b"] {
		t.Errorf("Available() = %v, want both stub-a and stub-b", names)
	}
}

func TestDefaultPrefersWGPU(t *testing.T) {
	Register(BackendWGPU, func() Backend { return &stubBackend{name: BackendWGPU} })
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	defer Unregister(BackendWGPU)
	defer Unregister("stub")

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != BackendWGPU {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), BackendWGPU)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	defer Unregister("stub")

	// Only the non-priority backend is registered.
	saved := Get(BackendWGPU)
	if saved != nil {
		t.Skip("wgpu backend registered by another test binary")
	}

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != "stub" {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), "stub")
	}
}

func TestInitDefault(t *testing.T) {
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	defer Unregister("stub")

	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	if b.Adapter() != nil {
		// stub has no adapter configured; nil is the expected value
		t.Error("Adapter() != nil for bare stub")
	}
	b.Close()
	if sb, ok := b.(*stubBackend); ok && !sb.closed {
		t.Error("Close() did not reach the backend")
	}
}
