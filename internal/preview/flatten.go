package preview

import "math"

// point is a 2D point.
type point struct {
	X, Y float64
}

func (p point) lerp(q point, t float64) point {
	return point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

func (p point) sub(q point) point {
	return point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p point) add(q point) point {
	return point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p point) mul(s float64) point {
	return point{X: p.X * s, Y: p.Y * s}
}

func (p point) dot(q point) float64 {
	return p.X*q.X + p.Y*q.Y
}

func (p point) length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

func (p point) distance(q point) float64 {
	return p.sub(q).length()
}

// maxArcSpan is the largest angle approximated by a single cubic.
const maxArcSpan = math.Pi / 2

// flattenArc returns a polyline through the circular arc around c with
// radius r from angle a0 sweeping by sweep radians (positive is
// counter-clockwise), within tol of the true arc.
func flattenArc(c point, r, a0, sweep, tol float64) []point {
	n := int(math.Ceil(math.Abs(sweep) / maxArcSpan))
	if n < 1 {
		n = 1
	}
	span := sweep / float64(n)
	// control distance of the standard cubic approximation of a circular arc
	k := 4.0 / 3.0 * math.Tan(span/4) * r

	at := func(a float64) point {
		return point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	tangent := func(a float64) point {
		return point{X: -math.Sin(a), Y: math.Cos(a)}
	}

	points := []point{at(a0)}
	for i := range n {
		s := a0 + span*float64(i)
		e := s + span
		p0, p3 := at(s), at(e)
		p1 := p0.add(tangent(s).mul(k))
		p2 := p3.sub(tangent(e).mul(k))
		points = append(points, flattenCubic(p0, p1, p2, p3, tol)...)
	}
	return points
}

// flattenCubic flattens a cubic Bezier curve into line segments.
// The start point is not included.
func flattenCubic(p0, p1, p2, p3 point, tolerance float64) []point {
	var points []point
	flattenCubicRec(p0, p1, p2, p3, tolerance, 0, &points)
	return points
}

// maxDepth bounds the subdivision for degenerate input.
const maxDepth = 16

// flattenCubicRec recursively subdivides a cubic Bezier curve.
func flattenCubicRec(p0, p1, p2, p3 point, tolerance float64, depth int, points *[]point) {
	d1 := distanceToLine(p1, p0, p3)
	d2 := distanceToLine(p2, p0, p3)

	if math.Max(d1, d2) < tolerance || depth >= maxDepth {
		*points = append(*points, p3)
		return
	}

	// de Casteljau
	q0 := p0.lerp(p1, 0.5)
	q1 := p1.lerp(p2, 0.5)
	q2 := p2.lerp(p3, 0.5)
	r0 := q0.lerp(q1, 0.5)
	r1 := q1.lerp(q2, 0.5)
	s := r0.lerp(r1, 0.5)

	flattenCubicRec(p0, q0, r0, s, tolerance, depth+1, points)
	flattenCubicRec(s, r1, q2, p3, tolerance, depth+1, points)
}

// distanceToLine calculates the distance from point p to segment (a, b).
func distanceToLine(p, a, b point) float64 {
	ab := b.sub(a)
	abLen := ab.length()

	if abLen < 1e-10 {
		return p.distance(a)
	}

	t := p.sub(a).dot(ab) / (abLen * abLen)
	switch {
	case t < 0:
		return p.distance(a)
	case t > 1:
		return p.distance(b)
	}
	return p.distance(a.add(ab.mul(t)))
}
