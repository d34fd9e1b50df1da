package kerf

import (
	"log/slog"
	"math"
)

// OffsetPair holds the two candidate offsets of one segment. A segment on
// its own does not know which side of the path is inside, so both are
// produced and the reconciliation step picks the one that connects.
type OffsetPair struct {
	// Plus is displaced by +Amount: radius growth for arcs and circles,
	// a shift along direction × normal for lines.
	Plus Segment

	// Minus is displaced by -Amount.
	Minus Segment

	Amount float64
}

// OffsetSegment returns both offset candidates of a segment. Layers and
// normals are preserved. Text and unsupported entities, lines whose
// direction is zero or parallel to their normal, and arcs or circles that
// would collapse to a non-positive radius return an error wrapping
// ErrCannotOffsetEntity.
func OffsetSegment(s Segment, amount float64) (OffsetPair, error) {
	pair := OffsetPair{Amount: amount}

	switch s := s.(type) {
	case Circle:
		plus, minus := s, s
		plus.Radius += amount
		minus.Radius -= amount
		if plus.Radius <= 0 || minus.Radius <= 0 {
			return OffsetPair{}, entityError(s, ErrCannotOffsetEntity)
		}
		pair.Plus, pair.Minus = plus, minus

	case Arc:
		plus, minus := s, s
		plus.Radius += amount
		minus.Radius -= amount
		if plus.Radius <= 0 || minus.Radius <= 0 {
			return OffsetPair{}, entityError(s, ErrCannotOffsetEntity)
		}
		pair.Plus, pair.Minus = plus, minus

	case Line:
		perp := s.P2.Sub(s.P1).Cross(s.PlaneNormal())
		if perp.LengthSq() == 0 {
			return OffsetPair{}, entityError(s, ErrCannotOffsetEntity)
		}
		perp = perp.WithLength(amount)

		plus, minus := s, s
		plus.P1, plus.P2 = s.P1.Add(perp), s.P2.Add(perp)
		minus.P1, minus.P2 = s.P1.Sub(perp), s.P2.Sub(perp)
		pair.Plus, pair.Minus = plus, minus

	default:
		return OffsetPair{}, entityError(s, ErrCannotOffsetEntity)
	}
	return pair, nil
}

// Offset returns a closed contour displaced by amount from c. A positive
// amount grows the enclosed area and a negative one shrinks it.
//
// The side is committed once by the Plus candidate of the first segment;
// every following segment must connect to the running result through one
// of its two candidates (see Reconcile). This is a known simplification:
// the true inside is not determined globally, so for contours whose first
// segment is stored against the overall winding the sign is inverted.
func Offset(c *Contour, amount float64, opts ...Option) (*Contour, error) {
	o := buildOptions(opts)
	return offsetContour(c, amount, o.tolerance)
}

func offsetContour(c *Contour, amount, tol float64) (*Contour, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrCannotOffsetEmptyContour
	}
	if c.IsOpen() {
		return nil, ErrCannotOffsetOpenContour
	}

	pair, err := OffsetSegment(c.segments[0], amount)
	if err != nil {
		return nil, err
	}
	result, err := NewContour(pair.Plus)
	if err != nil {
		return nil, entityError(pair.Plus, ErrCannotOffsetEntity)
	}

	for _, s := range c.segments[1:] {
		pair, err := OffsetSegment(s, amount)
		if err != nil {
			return nil, err
		}
		result, err = Reconcile(result, s, pair, tol)
		if err != nil {
			return nil, err
		}
	}

	if result.IsOpen() {
		return closeCorner(result, tol)
	}
	return result, nil
}

// Reconcile attaches one of the candidates of pair, the offsets of
// original, to the running offset contour.
//
// Plus is tried first, then Minus, using CombineWithin. When neither
// touches the running contour and both sides of the join are lines (a
// sharp polygon corner), the candidate on the same side of the path as
// the running contour is selected and both lines are extended or trimmed
// to their intersection. No join segments are inserted.
//
// The running contour is not modified.
func Reconcile(running *Contour, original Segment, pair OffsetPair, tol float64) (*Contour, error) {
	log := Logger()

	for _, cand := range [2]Segment{pair.Plus, pair.Minus} {
		next, err := NewContour(cand)
		if err != nil {
			return nil, ErrCannotConnectContourAfterAdjustment
		}
		if merged, ok := running.CombineWithin(next, tol); ok {
			log.Debug("kerf: offset segment connected",
				slog.String("entity", kindName(original)),
				slog.Bool("plus", cand == pair.Plus))
			return merged, nil
		}
	}

	if merged, ok := joinCorner(running, original, pair, tol); ok {
		log.Debug("kerf: offset corner joined", slog.String("entity", kindName(original)))
		return merged, nil
	}
	return nil, ErrCannotConnectContourAfterAdjustment
}

// joinCorner connects a line candidate to a line at one free end of the
// running contour by moving both to the intersection of their supporting
// lines. The running contour's end is tried before its start.
func joinCorner(running *Contour, original Segment, pair OffsetPair, tol float64) (*Contour, bool) {
	ol, ok := original.(Line)
	if !ok {
		return nil, false
	}
	ends, open := running.Endpoints()
	if !open {
		return nil, false
	}
	normal := ol.PlaneNormal()
	dist := math.Abs(pair.Amount)

	for _, atEnd := range [2]bool{true, false} {
		r, tailIdx := ends.End, running.Len()-1
		if !atEnd {
			r, tailIdx = ends.Start, 0
		}
		tail, ok := running.segments[tailIdx].(Line)
		if !ok {
			continue
		}

		// v is the original corner the free end was displaced from
		v := nearest(r, ol.P1, ol.P2)
		d1 := r.Sub(v)
		if math.Abs(d1.Length()-dist) >= tol {
			continue
		}
		t1 := r.Sub(farEnd(tail, r))
		side := t1.Cross(d1).Dot(normal)

		for _, cand := range [2]Segment{pair.Plus, pair.Minus} {
			cl, ok := cand.(Line)
			if !ok {
				continue
			}
			near := nearest(v, cl.P1, cl.P2)
			t2 := farEnd(cl, near).Sub(near)
			if side*t2.Cross(near.Sub(v)).Dot(normal) <= 0 {
				continue // displaced to the other side of the path
			}

			x, ok := intersectLines(tail.P1, tail.P2, cl.P1, cl.P2)
			if !ok {
				continue
			}

			segments := running.Segments()
			segments[tailIdx] = moveEnd(tail, r, x)
			adjusted := &Contour{segments: segments, ends: ends, open: true}
			if atEnd {
				adjusted.ends.End = x
			} else {
				adjusted.ends.Start = x
			}

			moved := moveEnd(cl, near, x)
			next := &Contour{
				segments: []Segment{moved},
				ends:     Endpoints{Start: moved.P1, End: moved.P2},
				open:     true,
			}
			if merged, ok := adjusted.CombineWithin(next, tol); ok {
				return merged, true
			}
		}
	}
	return nil, false
}

// closeCorner closes an offset contour whose first and last segments are
// lines that do not yet meet.
func closeCorner(c *Contour, tol float64) (*Contour, error) {
	ends, _ := c.Endpoints()
	segments := c.Segments()

	if ends.Start.Distance(ends.End) < tol {
		return &Contour{segments: segments}, nil
	}

	first, ok1 := segments[0].(Line)
	last, ok2 := segments[len(segments)-1].(Line)
	if !ok1 || !ok2 || len(segments) < 2 {
		return nil, ErrCannotConnectContourAfterAdjustment
	}
	x, ok := intersectLines(first.P1, first.P2, last.P1, last.P2)
	if !ok {
		return nil, ErrCannotConnectContourAfterAdjustment
	}

	segments[0] = moveEnd(first, ends.Start, x)
	segments[len(segments)-1] = moveEnd(last, ends.End, x)
	Logger().Debug("kerf: offset contour closed at corner", slog.Any("at", x))
	return &Contour{segments: segments}, nil
}

// nearest returns whichever of p, q is closer to ref.
func nearest(ref, p, q Vec3) Vec3 {
	if ref.Distance(q) < ref.Distance(p) {
		return q
	}
	return p
}

// farEnd returns the endpoint of l that is not at p.
func farEnd(l Line, p Vec3) Vec3 {
	if l.P1.Distance(p) <= l.P2.Distance(p) {
		return l.P2
	}
	return l.P1
}

// moveEnd returns l with the endpoint at p replaced by x.
func moveEnd(l Line, p, x Vec3) Line {
	if l.P1.Distance(p) <= l.P2.Distance(p) {
		l.P1 = x
	} else {
		l.P2 = x
	}
	return l
}

// intersectLines returns the intersection of the infinite lines through
// p1,p2 and q1,q2. For skew lines it is the closest point on the first
// line. ok is false for parallel or degenerate lines.
func intersectLines(p1, p2, q1, q2 Vec3) (Vec3, bool) {
	u := p2.Sub(p1)
	w := q2.Sub(q1)
	n := u.Cross(w)
	denom := n.LengthSq()
	if denom < 1e-18*u.LengthSq()*w.LengthSq() || denom == 0 {
		return Vec3{}, false
	}
	s := q1.Sub(p1).Cross(w).Dot(n) / denom
	return p1.Add(u.Mul(s)), true
}
