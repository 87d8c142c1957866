package postfx

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

// BodyPlaceholder is the reserved token the template must contain
// exactly once. Merge replaces it with the user body verbatim.
//
// This is a literal single-occurrence token replace, not a templating
// engine: a body that itself contains the token as incidental content
// would be mis-substituted. That matches the behavior users of the
// original effect rely on and is kept as documented behavior.
const BodyPlaceholder = "//@postfx:body"

// ExampleBody is a minimal working effect body: a 2x brightness boost.
// Useful as a starting point for interactive editing.
const ExampleBody = "color.rgb *= 2.0;"

// Template errors.
var (
	// ErrNoPlaceholder is returned when the template source does not
	// contain the placeholder token.
	ErrNoPlaceholder = errors.New("postfx: template has no " + BodyPlaceholder + " placeholder")

	// ErrMultiplePlaceholders is returned when the template source
	// contains the placeholder token more than once.
	ErrMultiplePlaceholders = errors.New("postfx: template has multiple " + BodyPlaceholder + " placeholders")
)

//go:embed shaders/effect.wgsl
var defaultTemplateWGSL string

// Template is a fixed WGSL compute shader skeleton with a single
// injection point for a user-supplied body.
//
// The default template declares the contract every merged shader
// honors: a 2D storage image at group 0 binding 0 matching the bound
// color image format, and a 16-byte parameter block (raster size plus
// padding) at group 1 binding 0 that the effect uploads as push
// constants each dispatch.
type Template struct {
	source string
}

// NewTemplate validates src and returns a Template. src must contain
// [BodyPlaceholder] exactly once.
func NewTemplate(src string) (*Template, error) {
	switch n := strings.Count(src, BodyPlaceholder); {
	case n == 0:
		return nil, ErrNoPlaceholder
	case n > 1:
		return nil, fmt.Errorf("%w: %d occurrences", ErrMultiplePlaceholders, n)
	}
	return &Template{source: src}, nil
}

// DefaultTemplate returns the built-in effect template.
func DefaultTemplate() *Template {
	t, err := NewTemplate(defaultTemplateWGSL)
	if err != nil {
		// The embedded template is validated by tests; reaching this
		// means the shipped asset is broken.
		panic(err)
	}
	return t
}

// Source returns the raw template source including the placeholder.
func (t *Template) Source() string {
	return t.source
}

// Merge substitutes the placeholder with body verbatim and returns the
// full shader source ready for compilation.
func (t *Template) Merge(body string) string {
	return strings.Replace(t.source, BodyPlaceholder, body, 1)
}
