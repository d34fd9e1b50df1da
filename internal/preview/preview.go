package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/gogpu/kerf"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Options controls the preview image.
type Options struct {
	// Width and Height are the image size in pixels.
	Width, Height int

	// Margin is the blank border in pixels.
	Margin int

	// StrokeWidth is the line width in pixels.
	StrokeWidth float64

	// Labels draws the contour index next to each original contour.
	Labels bool
}

// DefaultOptions returns the options used when a field is zero.
func DefaultOptions() Options {
	return Options{
		Width:       800,
		Height:      600,
		Margin:      20,
		StrokeWidth: 1.5,
		Labels:      true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Margin < 0 || 2*o.Margin >= min(o.Width, o.Height) {
		o.Margin = d.Margin
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = d.StrokeWidth
	}
	return o
}

// Palette.
var (
	background     color.Color = colornames.White
	originalColor  color.Color = colornames.Darkgray
	openColor      color.Color = colornames.Orange
	adjustedColor  color.Color = colornames.Red
	annotationText color.Color = colornames.Dimgray
	labelColor     color.Color = colornames.Blue
)

// Render draws the original contours in grey, open ones in orange, and the
// adjusted contours in red on top. Text segments are drawn as text.
func Render(original, adjusted []*kerf.Contour, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	v, ok := fit(opts, original, adjusted)
	if !ok {
		return img
	}

	var closedPaths, openPaths [][]point
	for _, c := range original {
		if c.IsOpen() {
			openPaths = append(openPaths, v.contour(c)...)
		} else {
			closedPaths = append(closedPaths, v.contour(c)...)
		}
	}
	var adjustedPaths [][]point
	for _, c := range adjusted {
		adjustedPaths = append(adjustedPaths, v.contour(c)...)
	}

	stroke(img, closedPaths, opts.StrokeWidth, originalColor)
	stroke(img, openPaths, 2*opts.StrokeWidth, openColor)
	stroke(img, adjustedPaths, opts.StrokeWidth, adjustedColor)

	for _, c := range adjusted {
		for _, s := range c.Segments() {
			if t, ok := s.(kerf.Text); ok {
				p := v.toPixel(t.Position)
				drawText(img, t.Value, p, annotationText)
			}
		}
	}
	if opts.Labels {
		for i, c := range original {
			if p, ok := v.anchor(c); ok {
				drawText(img, strconv.Itoa(i), p.add(point{X: 3, Y: -3}), labelColor)
			}
		}
	}
	return img
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// RenderPNG renders the contours and writes the PNG to w.
func RenderPNG(w io.Writer, original, adjusted []*kerf.Contour, opts Options) error {
	return Encode(w, Render(original, adjusted, opts))
}

// viewport maps drawing coordinates to pixels, y up to y down.
type viewport struct {
	minX, minY float64
	scale      float64
	originX    float64
	originY    float64
}

// fit computes a viewport that shows every segment with a uniform scale,
// centered in the image.
func fit(opts Options, sets ...[]*kerf.Contour) (viewport, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	for _, set := range sets {
		for _, c := range set {
			for _, s := range c.Segments() {
				switch s := s.(type) {
				case kerf.Line:
					grow(s.P1.X, s.P1.Y)
					grow(s.P2.X, s.P2.Y)
				case kerf.Arc:
					r := math.Abs(s.Radius)
					grow(s.Center.X-r, s.Center.Y-r)
					grow(s.Center.X+r, s.Center.Y+r)
				case kerf.Circle:
					r := math.Abs(s.Radius)
					grow(s.Center.X-r, s.Center.Y-r)
					grow(s.Center.X+r, s.Center.Y+r)
				case kerf.Text:
					grow(s.Position.X, s.Position.Y)
				}
			}
		}
	}
	if math.IsInf(minX, 1) {
		return viewport{}, false
	}

	w := float64(opts.Width - 2*opts.Margin)
	h := float64(opts.Height - 2*opts.Margin)
	dx, dy := maxX-minX, maxY-minY

	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(w/dx, h/dy)
	case dx > 0:
		scale = w / dx
	case dy > 0:
		scale = h / dy
	}

	return viewport{
		minX:    minX,
		minY:    minY,
		scale:   scale,
		originX: float64(opts.Margin) + (w-dx*scale)/2,
		originY: float64(opts.Height-opts.Margin) - (h-dy*scale)/2,
	}, true
}

func (v viewport) toPixel(p kerf.Vec3) point {
	return point{
		X: v.originX + (p.X-v.minX)*v.scale,
		Y: v.originY - (p.Y-v.minY)*v.scale,
	}
}

// anchor returns the pixel position of the first vertex of c.
func (v viewport) anchor(c *kerf.Contour) (point, bool) {
	if ends, ok := c.Endpoints(); ok {
		return v.toPixel(ends.Start), true
	}
	segs := c.Segments()
	if len(segs) == 0 {
		return point{}, false
	}
	path := v.segment(segs[0])
	if len(path) == 0 {
		return point{}, false
	}
	return path[0], true
}

// contour returns one pixel polyline per segment of c.
func (v viewport) contour(c *kerf.Contour) [][]point {
	var paths [][]point
	for _, s := range c.Segments() {
		if p := v.segment(s); len(p) > 1 {
			paths = append(paths, p)
		}
	}
	return paths
}

// segment flattens s into a pixel polyline. Arcs and circles are
// approximated within a quarter pixel.
func (v viewport) segment(s kerf.Segment) []point {
	tol := 0.25 / v.scale

	var drawing []point
	switch s := s.(type) {
	case kerf.Line:
		return []point{v.toPixel(s.P1), v.toPixel(s.P2)}
	case kerf.Arc:
		start := s.StartAngle * math.Pi / 180
		drawing = flattenArc(point{X: s.Center.X, Y: s.Center.Y}, math.Abs(s.Radius), start, s.Sweep(), tol)
		if s.Normal.Z < 0 {
			mirror(drawing, s.Center.X)
		}
	case kerf.Circle:
		drawing = flattenArc(point{X: s.Center.X, Y: s.Center.Y}, math.Abs(s.Radius), 0, 2*math.Pi, tol)
	default:
		return nil
	}

	out := make([]point, len(drawing))
	for i, p := range drawing {
		out[i] = v.toPixel(kerf.V2(p.X, p.Y))
	}
	return out
}

// mirror reflects points about the vertical line x = cx. Arcs with a -Z
// extrusion have their angles measured clockwise in world space.
func mirror(points []point, cx float64) {
	for i := range points {
		points[i].X = 2*cx - points[i].X
	}
}

// stroke rasterizes every polyline as a chain of square-capped quads.
// All quads share one winding, so overlaps accumulate instead of cancel.
func stroke(dst *image.RGBA, paths [][]point, width float64, col color.Color) {
	if len(paths) == 0 {
		return
	}
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	hw := width / 2

	for _, path := range paths {
		for i := 1; i < len(path); i++ {
			quad(r, path[i-1], path[i], hw)
		}
	}
	r.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func quad(r *vector.Rasterizer, a, b point, hw float64) {
	d := b.sub(a)
	l := d.length()
	if l < 1e-9 {
		d, l = point{X: 1}, 1
	}
	u := d.mul(hw / l)
	n := point{X: -u.Y, Y: u.X}
	a, b = a.sub(u), b.add(u)

	p0, p1, p2, p3 := a.add(n), b.add(n), b.sub(n), a.sub(n)
	r.MoveTo(float32(p0.X), float32(p0.Y))
	r.LineTo(float32(p1.X), float32(p1.Y))
	r.LineTo(float32(p2.X), float32(p2.Y))
	r.LineTo(float32(p3.X), float32(p3.Y))
	r.ClosePath()
}

// drawText draws s with its baseline origin at p.
func drawText(dst draw.Image, s string, p point, col color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)},
	}
	d.DrawString(s)
}
