// Package kerf reconstructs closed outlines from the loose curve segments of
// a 2D drawing and offsets them to compensate for the kerf of a cutting tool.
//
// # Overview
//
// A laser or waterjet removes a finite width of material along its path.
// To cut a part to size, the tool path must be shifted by half that width:
// outward for outer boundaries, inward for holes. Drawings store outlines as
// an unordered soup of lines, arcs and circles, so the outlines have to be
// rebuilt before they can be offset.
//
// # Quick Start
//
//	import "github.com/gogpu/kerf"
//
//	segments := []kerf.Segment{
//	    kerf.NewLine(kerf.V2(0, 0), kerf.V2(10, 0)),
//	    kerf.NewLine(kerf.V2(10, 0), kerf.V2(10, 10)),
//	    kerf.NewLine(kerf.V2(10, 10), kerf.V2(0, 10)),
//	    kerf.NewLine(kerf.V2(0, 10), kerf.V2(0, 0)),
//	}
//
//	res, err := kerf.NewAdjuster().Adjust(segments, 0.1)
//	if err != nil {
//	    return err
//	}
//	out := res.Segments()
//
// # Pipeline
//
// The package is organized as four stages:
//   - Geometry adapter: FindEndpoints gives the free ends of a segment
//   - Contour: an ordered segment sequence; Combine stitches two contours
//     at a shared endpoint
//   - Assembly: Assemble stitches all segments into maximal contours
//   - Offset: Offset displaces a closed contour by a signed distance
//
// Adjuster chains the stages and applies the fallback policy: a contour that
// cannot be offset is kept unchanged and reported.
//
// # Coordinate System
//
// Drawings are planar in the XY plane with a +Z normal. Arc angles are in
// degrees, counter-clockwise from the x axis. Two points coincide when their
// distance is below the tolerance (DefaultTolerance, 1e-6 drawing units).
//
// # Limitations
//
// The offset side is fixed by the first segment of each contour. Offset
// segments are extended to meet at sharp line corners, but no join segments
// are inserted and self-intersections are not repaired. Splines, polylines
// and 3D entities are not supported.
package kerf

// Version is the current version of the library.
const Version = "0.1.0"
