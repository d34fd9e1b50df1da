package kerf

import (
	"errors"
	"fmt"
)

// Entity errors.
var (
	// ErrUnsupportedEntity is returned when a segment kind has no endpoint
	// rule (splines, polylines, dimensions, ...).
	ErrUnsupportedEntity = errors.New("kerf: unsupported entity")

	// ErrThreeDimensionalEntity is returned when a segment does not lie in
	// the XY plane. Only 2D drawings are supported.
	ErrThreeDimensionalEntity = errors.New("kerf: 3D entity found, only 2D drawings are supported")
)

// Offset errors.
var (
	// ErrCannotOffsetOpenContour is returned when offsetting a contour that
	// still has free endpoints.
	ErrCannotOffsetOpenContour = errors.New("kerf: cannot offset an open contour")

	// ErrCannotOffsetEmptyContour is returned when offsetting a contour
	// without segments.
	ErrCannotOffsetEmptyContour = errors.New("kerf: cannot offset an empty contour")

	// ErrCannotOffsetEntity is returned when a segment kind has no offset rule.
	ErrCannotOffsetEntity = errors.New("kerf: cannot offset entity")

	// ErrCannotConnectContourAfterAdjustment is returned when an offset
	// segment cannot be joined to the rest of the offset contour.
	ErrCannotConnectContourAfterAdjustment = errors.New("kerf: could not connect offset segment to the rest of the contour")
)

// EntityError reports an error caused by a specific segment.
// It unwraps to one of the sentinel errors above.
type EntityError struct {
	// Kind is the entity name, e.g. "SPLINE" or "TEXT".
	Kind string
	Err  error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%v (entity type: %s)", e.Err, e.Kind)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

func entityError(s Segment, err error) error {
	return &EntityError{Kind: kindName(s), Err: err}
}
