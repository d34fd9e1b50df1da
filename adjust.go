package kerf

import (
	"log/slog"
	"runtime"

	"github.com/gogpu/kerf/internal/parallel"
)

// Failure records a contour that could not be offset.
type Failure struct {
	// Contour is the index of the contour in Result.Original.
	Contour int
	Err     error
}

// Report summarizes one Adjust run.
type Report struct {
	Segments    int // input segments
	Skipped     []Skipped
	Contours    int // assembled contours
	Closed      int
	Open        int
	Annotations int // text-only contours, passed through
	Offset      int // contours successfully offset
	Fallback    int // contours kept un-offset after a failure
	Dropped     int // contours removed after a failure (fallback disabled)
	Failures    []Failure
}

// Result is the output of Adjust.
type Result struct {
	// Original holds the assembled contours before offsetting.
	Original []*Contour

	// Adjusted holds the output contours. With fallback enabled it has
	// one entry per original contour, in the same order.
	Adjusted []*Contour

	Report Report
}

// Segments flattens the adjusted contours for serialization.
func (r *Result) Segments() []Segment {
	return Flatten(r.Adjusted)
}

// Adjuster runs the full kerf compensation pipeline: assemble the
// segments into contours, offset every contour, and apply the fallback
// policy to contours that cannot be offset.
//
// An Adjuster is safe for concurrent use.
type Adjuster struct {
	opts options
}

// NewAdjuster creates an Adjuster with the given options.
func NewAdjuster(opts ...Option) *Adjuster {
	return &Adjuster{opts: buildOptions(opts)}
}

// Adjust assembles segments and offsets every contour by amount. A
// positive amount grows enclosed areas. Per-contour offset failures never
// fail the run; they are recorded in the Report. An error is returned only
// in strict mode, for unsupported or non-planar input.
func (a *Adjuster) Adjust(segments []Segment, amount float64) (*Result, error) {
	log := Logger()

	contours, skipped, err := assemble(segments, a.opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Original: contours,
		Report: Report{
			Segments: len(segments),
			Skipped:  skipped,
			Contours: len(contours),
		},
	}

	results := make([]*Contour, len(contours))
	errs := make([]error, len(contours))
	work := make([]func(), 0, len(contours))
	for i, c := range contours {
		if c.IsOpen() {
			res.Report.Open++
		} else {
			res.Report.Closed++
		}
		if isAnnotation(c) {
			res.Report.Annotations++
			results[i] = c
			continue
		}
		work = append(work, func() {
			results[i], errs[i] = offsetContour(c, amount, a.opts.tolerance)
		})
	}
	a.run(work)

	for i, c := range contours {
		if errs[i] == nil {
			if results[i] != c {
				res.Report.Offset++
			}
			res.Adjusted = append(res.Adjusted, results[i])
			continue
		}

		res.Report.Failures = append(res.Report.Failures, Failure{Contour: i, Err: errs[i]})
		log.Warn("kerf: contour not offset",
			slog.Int("contour", i),
			slog.Int("segments", c.Len()),
			slog.Any("err", errs[i]))

		if a.opts.fallback {
			res.Report.Fallback++
			res.Adjusted = append(res.Adjusted, c)
		} else {
			res.Report.Dropped++
		}
	}

	log.Info("kerf: adjusted drawing",
		slog.Float64("amount", amount),
		slog.Int("contours", res.Report.Contours),
		slog.Int("offset", res.Report.Offset),
		slog.Int("fallback", res.Report.Fallback),
		slog.Int("skipped", len(res.Report.Skipped)))
	return res, nil
}

// run executes the offset jobs, on a worker pool when more than one
// worker is configured.
func (a *Adjuster) run(work []func()) {
	workers := a.opts.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(work) < 2 {
		for _, fn := range work {
			fn()
		}
		return
	}

	pool := parallel.NewWorkerPool(min(workers, len(work)))
	defer pool.Close()
	Logger().Debug("kerf: offsetting contours in parallel",
		slog.Int("contours", len(work)),
		slog.Int("workers", pool.Workers()))
	pool.ExecuteAll(work)
}

// isAnnotation reports whether a contour consists of text only.
func isAnnotation(c *Contour) bool {
	for _, s := range c.segments {
		if s.Kind() != KindText {
			return false
		}
	}
	return true
}
