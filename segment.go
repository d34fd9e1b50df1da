package kerf

import "math"

// Kind identifies the variant of a Segment.
type Kind int

const (
	// KindUnsupported is any drawing entity the core cannot interpret.
	KindUnsupported Kind = iota
	// KindLine is a straight line segment.
	KindLine
	// KindArc is a circular arc.
	KindArc
	// KindCircle is a full circle.
	KindCircle
	// KindText is a text annotation with no geometric contribution.
	KindText
)

// String returns the DXF-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "LINE"
	case KindArc:
		return "ARC"
	case KindCircle:
		return "CIRCLE"
	case KindText:
		return "TEXT"
	default:
		return "UNSUPPORTED"
	}
}

// Segment is one curve record of a drawing.
//
// Segments are immutable values. The concrete types are Line, Arc, Circle,
// Text and Unsupported; the interface is sealed.
type Segment interface {
	// Kind returns the variant of the segment.
	Kind() Kind

	// LayerName returns the drawing layer the segment belongs to.
	LayerName() string

	isSegment()
}

// Line is a straight segment between two points.
type Line struct {
	P1, P2 Vec3

	// Normal is the extrusion direction of the line, used as the plane
	// normal when offsetting. The zero value means +Z.
	Normal Vec3

	Layer string
}

// NewLine creates a line in the XY plane from p1 to p2.
func NewLine(p1, p2 Vec3) Line {
	return Line{P1: p1, P2: p2, Normal: UnitZ}
}

// Kind implements Segment.
func (Line) Kind() Kind { return KindLine }

// LayerName implements Segment.
func (l Line) LayerName() string { return l.Layer }

func (Line) isSegment() {}

// PlaneNormal returns Normal, defaulting to +Z when unset.
func (l Line) PlaneNormal() Vec3 {
	if l.Normal.IsZero() {
		return UnitZ
	}
	return l.Normal
}

// Length returns the length of the line.
func (l Line) Length() float64 {
	return l.P1.Distance(l.P2)
}

// Arc is a circular arc. Angles are in degrees, measured counter-clockwise
// from the local x axis of the plane defined by Normal.
type Arc struct {
	Center     Vec3
	Radius     float64
	Normal     Vec3
	StartAngle float64
	EndAngle   float64

	Layer string
}

// NewArc creates an arc in the XY plane.
func NewArc(center Vec3, radius, startAngle, endAngle float64) Arc {
	return Arc{
		Center:     center,
		Radius:     radius,
		Normal:     UnitZ,
		StartAngle: startAngle,
		EndAngle:   endAngle,
	}
}

// Kind implements Segment.
func (Arc) Kind() Kind { return KindArc }

// LayerName implements Segment.
func (a Arc) LayerName() string { return a.Layer }

func (Arc) isSegment() {}

// Sweep returns the counter-clockwise angular extent in radians,
// in the range (0, 2π].
func (a Arc) Sweep() float64 {
	sweep := math.Mod(a.EndAngle-a.StartAngle, 360)
	if sweep <= 0 {
		sweep += 360
	}
	return sweep * math.Pi / 180
}

// Length returns the arc length.
func (a Arc) Length() float64 {
	return math.Abs(a.Radius) * a.Sweep()
}

// Circle is a full circle. It is inherently closed.
type Circle struct {
	Center Vec3
	Radius float64
	Normal Vec3

	Layer string
}

// NewCircle creates a circle in the XY plane.
func NewCircle(center Vec3, radius float64) Circle {
	return Circle{Center: center, Radius: radius, Normal: UnitZ}
}

// Kind implements Segment.
func (Circle) Kind() Kind { return KindCircle }

// LayerName implements Segment.
func (c Circle) LayerName() string { return c.Layer }

func (Circle) isSegment() {}

// Length returns the circumference.
func (c Circle) Length() float64 {
	return 2 * math.Pi * math.Abs(c.Radius)
}

// Text is an annotation. It is carried through the pipeline untouched.
type Text struct {
	Position Vec3
	Height   float64
	Value    string

	// Multiline marks MTEXT entities.
	Multiline bool

	Layer string
}

// Kind implements Segment.
func (Text) Kind() Kind { return KindText }

// LayerName implements Segment.
func (t Text) LayerName() string { return t.Layer }

func (Text) isSegment() {}

// Unsupported is a drawing entity the core does not model, such as a
// spline or polyline. Type holds the entity name from the source drawing.
type Unsupported struct {
	Type  string
	Layer string
}

// Kind implements Segment.
func (Unsupported) Kind() Kind { return KindUnsupported }

// LayerName implements Segment.
func (u Unsupported) LayerName() string { return u.Layer }

func (Unsupported) isSegment() {}

// SegmentLength returns the path length of a segment.
// Text and unsupported entities have zero length.
func SegmentLength(s Segment) float64 {
	switch s := s.(type) {
	case Line:
		return s.Length()
	case Arc:
		return s.Length()
	case Circle:
		return s.Length()
	}
	return 0
}

// kindName returns the entity name used in error messages.
func kindName(s Segment) string {
	if u, ok := s.(Unsupported); ok && u.Type != "" {
		return u.Type
	}
	if t, ok := s.(Text); ok && t.Multiline {
		return "MTEXT"
	}
	return s.Kind().String()
}
