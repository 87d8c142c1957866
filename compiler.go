package postfx

import (
	"fmt"

	"github.com/gogpu/naga"
)

// CompiledShader is the result of a successful compile: the shader
// binary as SPIR-V words plus the merged source it was built from.
type CompiledShader struct {
	// Words is the SPIR-V binary as little-endian 32-bit words.
	Words []uint32

	// Source is the full merged WGSL source, kept for diagnostics.
	Source string
}

// CompileError reports a rejected shader. It carries the backend
// diagnostic and the complete merged source so a failure can be
// reproduced outside the render loop.
type CompileError struct {
	// Diagnostic is the backend compiler's error text.
	Diagnostic string

	// Source is the full merged source that was rejected.
	Source string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("postfx: shader compile failed: %s", e.Diagnostic)
}

// Compiler merges a user body into a fixed template and compiles the
// result to a SPIR-V binary via naga.
//
// The zero value is not usable; construct with [NewCompiler].
type Compiler struct {
	template *Template

	// compile is the backend compile step, WGSL source to SPIR-V
	// bytes. Defaults to naga.Compile; tests substitute a stub.
	compile func(source string) ([]byte, error)
}

// NewCompiler returns a Compiler for the given template. A nil template
// selects [DefaultTemplate].
func NewCompiler(t *Template) *Compiler {
	if t == nil {
		t = DefaultTemplate()
	}
	return &Compiler{
		template: t,
		compile:  naga.Compile,
	}
}

// Compile merges body into the template and compiles the merged source
// for the compute stage. On failure it returns a *CompileError holding
// the backend diagnostic and the merged source.
func (c *Compiler) Compile(body string) (*CompiledShader, error) {
	source := c.template.Merge(body)

	spirv, err := c.compile(source)
	if err != nil {
		return nil, &CompileError{
			Diagnostic: err.Error(),
			Source:     source,
		}
	}

	return &CompiledShader{
		Words:  spirvWords(spirv),
		Source: source,
	}, nil
}

// spirvWords converts SPIR-V bytes to uint32 words.
// SPIR-V is little-endian 32-bit words.
func spirvWords(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}
