package kerf

import "math"

// Endpoints is the directionless pair of free ends of a segment or an open
// contour. Start is the beginning of the logical orientation, End its end.
type Endpoints struct {
	Start, End Vec3
}

// FindEndpoints returns the endpoints of a segment.
//
// ok is false for segments whose shape has no start or end (circles, arcs
// outside the XY plane) and for text, which has no geometry. Those segments
// form a closed contour on their own. Segment kinds without an endpoint rule
// return an error wrapping ErrUnsupportedEntity.
func FindEndpoints(s Segment) (ends Endpoints, ok bool, err error) {
	switch s := s.(type) {
	case Line:
		return Endpoints{Start: s.P1, End: s.P2}, true, nil

	case Arc:
		normal := planeNormal(s.Normal)
		if normal != UnitZ {
			return Endpoints{}, false, nil
		}
		axis := Vec3{X: s.Radius}
		start := s.Center.Add(axis.RotateAbout(normal, radians(s.StartAngle)))
		end := s.Center.Add(axis.RotateAbout(normal, radians(s.EndAngle)))
		return Endpoints{Start: start, End: end}, true, nil

	case Circle, Text:
		return Endpoints{}, false, nil
	}
	return Endpoints{}, false, entityError(s, ErrUnsupportedEntity)
}

// CheckPlanar returns an error wrapping ErrThreeDimensionalEntity when the
// segment does not lie in the z = 0 plane with a +Z normal.
func CheckPlanar(s Segment) error {
	flat := true
	switch s := s.(type) {
	case Line:
		flat = planeNormal(s.Normal) == UnitZ && s.P1.Z == 0 && s.P2.Z == 0
	case Arc:
		flat = planeNormal(s.Normal) == UnitZ && s.Center.Z == 0
	case Circle:
		flat = planeNormal(s.Normal) == UnitZ && s.Center.Z == 0
	}
	if !flat {
		return entityError(s, ErrThreeDimensionalEntity)
	}
	return nil
}

// planeNormal treats an unset normal as +Z, the DXF default.
func planeNormal(n Vec3) Vec3 {
	if n.IsZero() {
		return UnitZ
	}
	return n
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
