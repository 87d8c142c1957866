package postfx

// Option configures an Effect during creation.
// Use functional options to customize Effect behavior.
//
// Example:
//
//	// Default: post-transparency stage, built-in template
//	fx, err := postfx.New(adapter)
//
//	// Custom template and a larger bind group cache
//	fx, err := postfx.New(adapter,
//	    postfx.WithTemplate(tmpl),
//	    postfx.WithBindGroupCacheCapacity(16))
type Option func(*effectOptions)

// effectOptions holds optional configuration for Effect creation.
type effectOptions struct {
	stage         EffectStage
	template      *Template
	entryPoint    string
	cacheCapacity int
}

// defaultOptions returns the default effect options.
func defaultOptions() effectOptions {
	return effectOptions{
		stage:         StagePostTransparency,
		template:      nil, // DefaultTemplate if nil
		entryPoint:    "main",
		cacheCapacity: defaultBindGroupCacheCapacity,
	}
}

// WithStage sets the effect stage the dispatch fires for.
// Frames tagged with any other stage are ignored entirely.
func WithStage(stage EffectStage) Option {
	return func(o *effectOptions) {
		o.stage = stage
	}
}

// WithTemplate sets a custom shader template. The template must
// contain [BodyPlaceholder] exactly once (see [NewTemplate]) and honor
// the binding contract of the default template: color image at group 0
// binding 0, 16-byte parameter block as push constants.
func WithTemplate(t *Template) Option {
	return func(o *effectOptions) {
		o.template = t
	}
}

// WithEntryPoint sets the compute entry function name used when
// building pipelines. Defaults to "main".
func WithEntryPoint(name string) Option {
	return func(o *effectOptions) {
		if name != "" {
			o.entryPoint = name
		}
	}
}

// WithBindGroupCacheCapacity sets how many bind groups the effect
// memoizes. One entry per (pipeline, color image) pair is live at a
// time; the default covers stereo rendering with headroom for texture
// swaps.
func WithBindGroupCacheCapacity(n int) Option {
	return func(o *effectOptions) {
		if n > 0 {
			o.cacheCapacity = n
		}
	}
}
