package postfx

import (
	"errors"
	"testing"

	"github.com/gogpu/postfx/gpucore"
)

func testShader() *CompiledShader {
	return &CompiledShader{
		Words:  []uint32{0x07230203, 0x00010000},
		Source: "fn main() {}",
	}
}

func TestPipelineStateApply(t *testing.T) {
	adapter := newMockAdapter()
	var p pipelineState

	if p.valid() {
		t.Fatal("zero pipelineState reports valid")
	}

	pipeline, err := p.apply(adapter, testShader(), "main")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if pipeline == gpucore.InvalidID || !p.valid() {
		t.Fatal("apply did not leave a live pipeline")
	}
	if len(adapter.modules) != 1 || len(adapter.pipelines) != 1 {
		t.Errorf("live modules = %d, pipelines = %d, want 1, 1",
			len(adapter.modules), len(adapter.pipelines))
	}
}

func TestPipelineStateApplyReplacesOld(t *testing.T) {
	adapter := newMockAdapter()
	var p pipelineState

	first, err := p.apply(adapter, testShader(), "main")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	second, err := p.apply(adapter, testShader(), "main")
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}

	if second == first {
		t.Error("second apply returned the first pipeline ID")
	}
	// The first pair is gone, exactly one pair remains live.
	if len(adapter.destroyedModules) != 1 {
		t.Errorf("destroyedModules = %d, want 1", len(adapter.destroyedModules))
	}
	if len(adapter.modules) != 1 || len(adapter.pipelines) != 1 {
		t.Errorf("live modules = %d, pipelines = %d, want 1, 1",
			len(adapter.modules), len(adapter.pipelines))
	}
}

func TestPipelineStateApplyModuleFailure(t *testing.T) {
	adapter := newMockAdapter()
	adapter.moduleErr = errors.New("device lost")
	var p pipelineState

	if _, err := p.apply(adapter, testShader(), "main"); err == nil {
		t.Fatal("apply succeeded, want error")
	}
	if p.valid() {
		t.Error("pipelineState valid after module failure")
	}
}

func TestPipelineStateApplyPipelineFailure(t *testing.T) {
	adapter := newMockAdapter()
	adapter.pipelineErr = errors.New("device lost")
	var p pipelineState

	if _, err := p.apply(adapter, testShader(), "main"); err == nil {
		t.Fatal("apply succeeded, want error")
	}
	if p.valid() {
		t.Error("pipelineState valid after pipeline failure")
	}
	// The orphaned module was released with the failure.
	if len(adapter.modules) != 0 {
		t.Errorf("live modules = %d, want 0", len(adapter.modules))
	}
}

func TestPipelineStateRelease(t *testing.T) {
	adapter := newMockAdapter()
	var p pipelineState

	if _, err := p.apply(adapter, testShader(), "main"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	p.release(adapter)

	if p.valid() {
		t.Error("pipelineState valid after release")
	}
	// One module destroy; the pipeline went down via the cascade, not a
	// separate DestroyComputePipeline call from the state.
	if len(adapter.destroyedModules) != 1 {
		t.Errorf("destroyedModules = %d, want 1", len(adapter.destroyedModules))
	}
	if len(adapter.pipelines) != 0 {
		t.Errorf("live pipelines = %d, want 0", len(adapter.pipelines))
	}

	// Idempotent, including on a never-applied state.
	p.release(adapter)
	var fresh pipelineState
	fresh.release(adapter)
	if len(adapter.destroyedModules) != 1 {
		t.Errorf("destroyedModules = %d after repeat releases, want 1", len(adapter.destroyedModules))
	}
}
