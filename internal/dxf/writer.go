package dxf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/gogpu/kerf"
)

// writeVersion is the $ACADVER the writer declares (AutoCAD R12).
const writeVersion = "AC1009"

// mtextChunk is the maximum length of one MTEXT string group.
const mtextChunk = 250

// Writer emits DXF group code/value pairs.
type Writer struct {
	w     *bufio.Writer
	codec textCodec
	err   error

	// Skipped counts segments that have no DXF representation.
	Skipped int
}

// NewWriter creates a Writer that encodes text in DefaultCodePage.
func NewWriter(w io.Writer) *Writer {
	cm, _ := lookupCodePage(DefaultCodePage)
	return &Writer{w: bufio.NewWriter(w), codec: textCodec{cm: cm}}
}

func (w *Writer) pair(code int, value string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, "%3d\n%s\n", code, value)
}

func (w *Writer) float(code int, v float64) {
	w.pair(code, strconv.FormatFloat(v, 'f', -1, 64))
}

func (w *Writer) point(code int, p kerf.Vec3) {
	w.float(code, p.X)
	w.float(code+10, p.Y)
	w.float(code+20, p.Z)
}

// normal writes the extrusion direction unless it is the default +Z.
func (w *Writer) normal(n kerf.Vec3) {
	if n.IsZero() || n == kerf.UnitZ {
		return
	}
	w.point(210, n)
}

func (w *Writer) text(code int, s string) {
	w.pair(code, w.codec.encode(s))
}

func (w *Writer) entity(typ, layer string) {
	if layer == "" {
		layer = "0"
	}
	w.pair(0, typ)
	w.text(8, layer)
}

// WriteSegment writes one entity. Unsupported segments are counted in
// Skipped and produce no output.
func (w *Writer) WriteSegment(s kerf.Segment) {
	switch s := s.(type) {
	case kerf.Line:
		w.entity("LINE", s.Layer)
		w.point(10, s.P1)
		w.point(11, s.P2)
		w.normal(s.Normal)

	case kerf.Arc:
		w.entity("ARC", s.Layer)
		w.point(10, s.Center)
		w.float(40, s.Radius)
		w.normal(s.Normal)
		w.float(50, s.StartAngle)
		w.float(51, s.EndAngle)

	case kerf.Circle:
		w.entity("CIRCLE", s.Layer)
		w.point(10, s.Center)
		w.float(40, s.Radius)
		w.normal(s.Normal)

	case kerf.Text:
		if !s.Multiline {
			w.entity("TEXT", s.Layer)
			w.point(10, s.Position)
			w.float(40, s.Height)
			w.text(1, s.Value)
			return
		}
		w.entity("MTEXT", s.Layer)
		w.point(10, s.Position)
		w.float(40, s.Height)
		value := []rune(s.Value)
		for len(value) > mtextChunk {
			w.text(3, string(value[:mtextChunk]))
			value = value[mtextChunk:]
		}
		w.text(1, string(value))

	default:
		w.Skipped++
		kerf.Logger().Warn("dxf: entity not written", slog.String("entity", s.Kind().String()))
	}
}

// Write writes a complete drawing: HEADER, ENTITIES and EOF.
func (w *Writer) Write(segments []kerf.Segment) error {
	w.pair(0, "SECTION")
	w.pair(2, "HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, writeVersion)
	w.pair(9, "$DWGCODEPAGE")
	w.pair(3, DefaultCodePage)
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "ENTITIES")
	for _, s := range segments {
		w.WriteSegment(s)
	}
	w.pair(0, "ENDSEC")
	w.pair(0, "EOF")

	if w.err != nil {
		return fmt.Errorf("dxf: write: %w", w.err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("dxf: write: %w", err)
	}
	return nil
}

// Write writes segments as a DXF drawing to w.
func Write(w io.Writer, segments []kerf.Segment) error {
	return NewWriter(w).Write(segments)
}

// Marshal returns segments as a DXF drawing.
func Marshal(segments []kerf.Segment) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, segments); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
