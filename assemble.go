package kerf

import (
	"log/slog"
	"math"
	"slices"
)

// Skipped records an input segment that could not become a contour.
type Skipped struct {
	// Index is the position of the segment in the input.
	Index int
	Err   error
}

// Assemble stitches independent segments into maximal contours.
//
// Every segment becomes a single-segment contour. Inherently closed ones
// (circles, text, tilted arcs) go straight to the output. The open ones
// form a working set that is reduced by repeatedly taking the first open
// contour as pivot and combining it with the first contour in working-set
// order that shares an endpoint. A pivot with no partner is emitted as is,
// so the result may contain open contours.
//
// Unsupported segments are skipped with a warning, or fail the call when
// WithStrict(true) is given.
func Assemble(segments []Segment, opts ...Option) ([]*Contour, error) {
	o := buildOptions(opts)
	contours, _, err := assemble(segments, o)
	return contours, err
}

func assemble(segments []Segment, o options) ([]*Contour, []Skipped, error) {
	log := Logger()

	var (
		out     []*Contour
		skipped []Skipped
		open    []*Contour
	)
	for i, s := range segments {
		if err := CheckPlanar(s); err != nil {
			if o.strict {
				return nil, nil, err
			}
			log.Warn("kerf: non-planar entity", slog.Int("index", i), slog.String("entity", kindName(s)))
		}

		c, err := NewContour(s)
		if err != nil {
			if o.strict {
				return nil, nil, err
			}
			log.Warn("kerf: skipping entity", slog.Int("index", i), slog.Any("err", err))
			skipped = append(skipped, Skipped{Index: i, Err: err})
			continue
		}
		if c.IsClosed() {
			out = append(out, c)
			continue
		}
		open = append(open, c)
	}

	out = append(out, collapse(open, o.tolerance)...)

	log.Debug("kerf: assembled contours",
		slog.Int("segments", len(segments)),
		slog.Int("contours", len(out)),
		slog.Int("skipped", len(skipped)))
	return out, skipped, nil
}

// collapse reduces a working set of open contours. Contours are addressed
// by their initial index; a merged contour takes over the index of its
// pivot, so working-set order is the index order at all times.
func collapse(open []*Contour, tol float64) []*Contour {
	log := Logger()

	ws := make(map[int]*Contour, len(open))
	index := newEndpointIndex(tol)
	for id, c := range open {
		ws[id] = c
		index.add(id, c)
	}

	var out []*Contour
	for pivot := 0; pivot < len(open); pivot++ {
		c, ok := ws[pivot]
		if !ok {
			continue // merged into an earlier pivot
		}

		for {
			partner, merged := -1, (*Contour)(nil)
			for _, id := range index.candidates(c, pivot) {
				if m, ok := c.CombineWithin(ws[id], tol); ok {
					partner, merged = id, m
					break
				}
			}
			if partner < 0 {
				break
			}

			log.Debug("kerf: stitched contours",
				slog.Int("pivot", pivot),
				slog.Int("partner", partner),
				slog.Int("segments", merged.Len()),
				slog.Bool("closed", merged.IsClosed()))

			index.remove(partner, ws[partner])
			delete(ws, partner)
			index.remove(pivot, c)

			c = merged
			if c.IsClosed() {
				break
			}
			ws[pivot] = c
			index.add(pivot, c)
		}

		index.remove(pivot, c)
		delete(ws, pivot)
		out = append(out, c)
	}
	return out
}

// cell is a grid cell of the endpoint index.
type cell [3]int64

// endpointIndex is a uniform grid over the free endpoints of the working
// set. The cell size equals the tolerance, so two points closer than the
// tolerance always fall in the same or in neighbouring cells.
type endpointIndex struct {
	size  float64
	cells map[cell][]int
}

func newEndpointIndex(tol float64) *endpointIndex {
	return &endpointIndex{size: tol, cells: make(map[cell][]int)}
}

func (x *endpointIndex) cellOf(p Vec3) cell {
	return cell{
		int64(math.Floor(p.X / x.size)),
		int64(math.Floor(p.Y / x.size)),
		int64(math.Floor(p.Z / x.size)),
	}
}

func (x *endpointIndex) add(id int, c *Contour) {
	ends, ok := c.Endpoints()
	if !ok {
		return
	}
	for _, p := range [2]Vec3{ends.Start, ends.End} {
		k := x.cellOf(p)
		x.cells[k] = append(x.cells[k], id)
	}
}

func (x *endpointIndex) remove(id int, c *Contour) {
	ends, ok := c.Endpoints()
	if !ok {
		return
	}
	for _, p := range [2]Vec3{ends.Start, ends.End} {
		k := x.cellOf(p)
		ids := x.cells[k]
		if i := slices.Index(ids, id); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
		}
		if len(ids) == 0 {
			delete(x.cells, k)
		} else {
			x.cells[k] = ids
		}
	}
}

// candidates returns the ids, in ascending order, of contours with an
// endpoint near one of c's endpoints, excluding self.
func (x *endpointIndex) candidates(c *Contour, self int) []int {
	ends, ok := c.Endpoints()
	if !ok {
		return nil
	}
	var ids []int
	for _, p := range [2]Vec3{ends.Start, ends.End} {
		k := x.cellOf(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, id := range x.cells[cell{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if id != self {
							ids = append(ids, id)
						}
					}
				}
			}
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
