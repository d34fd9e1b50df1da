package kerf

import (
	"fmt"
	"slices"
)

// DefaultTolerance is the distance below which two endpoints are
// considered the same point, in drawing units.
const DefaultTolerance = 1e-6

// Contour is an ordered sequence of segments forming one continuous path.
//
// An open contour has two free endpoints: Start is the start of the first
// segment and End the end of the last segment in sequence order. Segment
// orientation is implied by the order and is not stored per segment. A
// closed contour has no free endpoints.
//
// Contours are never modified. Combine builds a new contour and leaves
// both inputs untouched.
type Contour struct {
	segments []Segment
	ends     Endpoints
	open     bool
}

// NewContour creates a single-segment contour. Its endpoints come from
// FindEndpoints; circles, text and tilted arcs produce a closed contour.
func NewContour(s Segment) (*Contour, error) {
	ends, ok, err := FindEndpoints(s)
	if err != nil {
		return nil, err
	}
	return &Contour{segments: []Segment{s}, ends: ends, open: ok}, nil
}

// Segments returns a copy of the segment sequence.
func (c *Contour) Segments() []Segment {
	return slices.Clone(c.segments)
}

// Len returns the number of segments.
func (c *Contour) Len() int {
	return len(c.segments)
}

// Endpoints returns the free ends of an open contour.
// ok is false when the contour is closed.
func (c *Contour) Endpoints() (ends Endpoints, ok bool) {
	return c.ends, c.open
}

// IsOpen returns true if the contour has free endpoints.
func (c *Contour) IsOpen() bool {
	return c.open
}

// IsClosed returns true if the contour forms a loop (or is a single
// inherently closed segment such as a circle).
func (c *Contour) IsClosed() bool {
	return !c.open
}

// Length returns the total path length of the contour.
func (c *Contour) Length() float64 {
	var total float64
	for _, s := range c.segments {
		total += SegmentLength(s)
	}
	return total
}

// String implements fmt.Stringer.
func (c *Contour) String() string {
	if !c.open {
		return fmt.Sprintf("Contour{segments: %d, closed}", len(c.segments))
	}
	return fmt.Sprintf("Contour{segments: %d, ends: %v - %v}", len(c.segments), c.ends.Start, c.ends.End)
}

// Combine joins c and other at a shared endpoint using DefaultTolerance.
// See CombineWithin.
func (c *Contour) Combine(other *Contour) (*Contour, bool) {
	return c.CombineWithin(other, DefaultTolerance)
}

// CombineWithin joins c and other into a new contour when one of the free
// ends of c lies within tol of one of the free ends of other.
//
// With c = (a, b) and other = (c, d) the pairs are checked in the fixed
// order ac, ad, bc, bd and the first match wins:
//
//	ac: reverse(c) + other         ends (b, d)
//	ad: other + c                  ends (c, b)
//	bc: c + other                  ends (a, d)
//	bd: c + reverse(other)         ends (a, c)
//
// The result is closed when its remaining two ends also coincide. If
// either contour is closed or no pair matches, ok is false and neither
// input is changed.
func (c *Contour) CombineWithin(other *Contour, tol float64) (combined *Contour, ok bool) {
	if c == nil || other == nil || !c.open || !other.open {
		return nil, false
	}

	a, b := c.ends.Start, c.ends.End
	p, d := other.ends.Start, other.ends.End

	ac := a.Distance(p)
	ad := a.Distance(d)
	bc := b.Distance(p)
	bd := b.Distance(d)

	segments := make([]Segment, 0, len(c.segments)+len(other.segments))
	switch {
	case ac < tol:
		// our start meets their start: reverse ourselves
		segments = append(segments, reversed(c.segments)...)
		segments = append(segments, other.segments...)
		return joined(segments, b, d, bd < tol), true

	case ad < tol:
		segments = append(segments, other.segments...)
		segments = append(segments, c.segments...)
		return joined(segments, p, b, bc < tol), true

	case bc < tol:
		segments = append(segments, c.segments...)
		segments = append(segments, other.segments...)
		return joined(segments, a, d, ad < tol), true

	case bd < tol:
		// our end meets their end: reverse them
		segments = append(segments, c.segments...)
		segments = append(segments, reversed(other.segments)...)
		return joined(segments, a, p, ac < tol), true
	}
	return nil, false
}

func joined(segments []Segment, start, end Vec3, closed bool) *Contour {
	if closed {
		return &Contour{segments: segments}
	}
	return &Contour{segments: segments, ends: Endpoints{Start: start, End: end}, open: true}
}

func reversed(segments []Segment) []Segment {
	out := slices.Clone(segments)
	slices.Reverse(out)
	return out
}

// Flatten concatenates the segments of all contours in order, for
// re-serialization.
func Flatten(contours []*Contour) []Segment {
	n := 0
	for _, c := range contours {
		n += len(c.segments)
	}
	out := make([]Segment, 0, n)
	for _, c := range contours {
		out = append(out, c.segments...)
	}
	return out
}
