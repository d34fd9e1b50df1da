package kerf

// Option configures assembly, offsetting and the Adjuster.
//
// Example:
//
//	// Default behavior: skip unsupported entities, keep the original
//	// contour when offsetting fails.
//	adj := kerf.NewAdjuster()
//
//	// Reject anything that is not a planar line, arc, circle or text.
//	adj := kerf.NewAdjuster(kerf.WithStrict(true), kerf.WithWorkers(4))
type Option func(*options)

// options holds optional configuration.
type options struct {
	tolerance float64
	workers   int
	strict    bool
	fallback  bool
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		tolerance: DefaultTolerance,
		workers:   1, // sequential
		strict:    false,
		fallback:  true,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithTolerance sets the distance below which two endpoints coincide.
// Non-positive values are ignored.
func WithTolerance(eps float64) Option {
	return func(o *options) {
		if eps > 0 {
			o.tolerance = eps
		}
	}
}

// WithWorkers sets how many closed contours are offset concurrently.
// Output order does not depend on the worker count. Values below 1 use
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithStrict makes unsupported and non-planar entities fail the whole run
// instead of being skipped or passed through with a warning.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithFallback controls whether a contour that cannot be offset is kept
// unchanged in the output (true, the default) or dropped (false). Either
// way the failure is recorded in the Report.
func WithFallback(fallback bool) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}
