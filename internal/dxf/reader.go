package dxf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gogpu/kerf"
)

// Reader errors.
var (
	// ErrSyntax is returned for malformed group code/value pairs.
	ErrSyntax = errors.New("dxf: syntax error")

	// ErrBinary is returned for binary DXF files.
	ErrBinary = errors.New("dxf: binary DXF is not supported")
)

// binarySentinel starts every binary DXF file.
var binarySentinel = []byte("AutoCAD Binary DXF")

// maxLine bounds a single line of the file.
const maxLine = 1 << 20

// Drawing is the part of a DXF file the kerf pipeline works with.
type Drawing struct {
	// Version is the $ACADVER header value, e.g. "AC1015".
	Version string

	// CodePage is the $DWGCODEPAGE header value, e.g. "ANSI_1252".
	CodePage string

	// Segments holds the entities of the ENTITIES section in file order.
	Segments []kerf.Segment
}

// codec returns the text codec implied by the header.
func (d *Drawing) codec() textCodec {
	if isUTF8Version(d.Version) {
		return textCodec{}
	}
	cm, ok := lookupCodePage(d.CodePage)
	if !ok && d.CodePage != "" {
		kerf.Logger().Warn("dxf: unknown code page, assuming "+DefaultCodePage,
			slog.String("codepage", d.CodePage))
	}
	return textCodec{cm: cm}
}

// pair is one group code/value pair.
type pair struct {
	code  int
	value []byte
	line  int
}

type pairScanner struct {
	s    *bufio.Scanner
	line int
}

func (ps *pairScanner) scanLine() ([]byte, bool) {
	if !ps.s.Scan() {
		return nil, false
	}
	ps.line++
	return ps.s.Bytes(), true
}

// next returns the next pair, or io.EOF at the end of input.
func (ps *pairScanner) next() (pair, error) {
	codeLine, ok := ps.scanLine()
	if !ok {
		if err := ps.s.Err(); err != nil {
			return pair{}, err
		}
		return pair{}, io.EOF
	}
	line := ps.line
	code, err := strconv.Atoi(string(bytes.TrimSpace(codeLine)))
	if err != nil {
		return pair{}, fmt.Errorf("%w: line %d: invalid group code %q", ErrSyntax, line, codeLine)
	}
	value, ok := ps.scanLine()
	if !ok {
		if err := ps.s.Err(); err != nil {
			return pair{}, err
		}
		return pair{}, fmt.Errorf("%w: line %d: group code %d has no value", ErrSyntax, line, code)
	}
	// values are copied: the scanner reuses its buffer
	return pair{code: code, value: bytes.Clone(value), line: line}, nil
}

// name returns the value with surrounding blanks removed, for section,
// entity and header variable names.
func (p pair) name() string {
	return string(bytes.TrimSpace(p.value))
}

// Read parses an ASCII DXF file.
func Read(r io.Reader) (*Drawing, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(binarySentinel)); bytes.Equal(head, binarySentinel) {
		return nil, ErrBinary
	}

	s := bufio.NewScanner(br)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	ps := &pairScanner{s: s}

	d := &Drawing{}
	var (
		section string
		header  string
		codec   *textCodec
		current *entity
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		if codec == nil {
			c := d.codec()
			codec = &c
		}
		seg, err := current.segment(*codec)
		current = nil
		if err != nil {
			return err
		}
		if seg != nil {
			d.Segments = append(d.Segments, seg)
		}
		return nil
	}

	for {
		p, err := ps.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if p.code == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			switch p.name() {
			case "SECTION":
				sec, err := ps.next()
				if err != nil || sec.code != 2 {
					return nil, fmt.Errorf("%w: line %d: SECTION without a name", ErrSyntax, p.line)
				}
				section = sec.name()
				continue
			case "ENDSEC":
				section = ""
				continue
			case "EOF":
				return d.finish(), nil
			}
		}

		switch section {
		case "HEADER":
			switch {
			case p.code == 9:
				header = p.name()
			case header == "$ACADVER" && p.code == 1:
				d.Version = p.name()
			case header == "$DWGCODEPAGE" && p.code == 3:
				d.CodePage = p.name()
			}

		case "ENTITIES":
			if p.code == 0 {
				current = &entity{typ: p.name()}
				continue
			}
			if current != nil {
				current.pairs = append(current.pairs, p)
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return d.finish(), nil
}

func (d *Drawing) finish() *Drawing {
	kerf.Logger().Debug("dxf: read drawing",
		slog.String("version", d.Version),
		slog.String("codepage", d.CodePage),
		slog.Int("entities", len(d.Segments)))
	return d
}

// Parse parses an ASCII DXF file held in memory.
func Parse(data []byte) (*Drawing, error) {
	return Read(bytes.NewReader(data))
}

// entity collects the pairs of one entity record.
type entity struct {
	typ   string
	pairs []pair
}

// segment converts the entity. Records that belong to a preceding
// polyline return nil.
func (e *entity) segment(codec textCodec) (kerf.Segment, error) {
	layer := "0"
	normal := kerf.UnitZ
	var (
		p1, p2           kerf.Vec3
		radius, height   float64
		startAng, endAng float64
		text, chunks     strings.Builder
	)

	for _, p := range e.pairs {
		var err error
		switch p.code {
		case 8:
			var s string
			if s, err = codec.decode(p.value); err == nil {
				layer = s
			}
		case 1:
			var s string
			if s, err = codec.decode(p.value); err == nil {
				text.WriteString(s)
			}
		case 3:
			var s string
			if s, err = codec.decode(p.value); err == nil {
				chunks.WriteString(s)
			}
		case 10:
			p1.X, err = e.float(p)
		case 20:
			p1.Y, err = e.float(p)
		case 30:
			p1.Z, err = e.float(p)
		case 11:
			p2.X, err = e.float(p)
		case 21:
			p2.Y, err = e.float(p)
		case 31:
			p2.Z, err = e.float(p)
		case 40:
			v, ferr := e.float(p)
			radius, height, err = v, v, ferr
		case 50:
			startAng, err = e.float(p)
		case 51:
			endAng, err = e.float(p)
		case 210:
			normal.X, err = e.float(p)
		case 220:
			normal.Y, err = e.float(p)
		case 230:
			normal.Z, err = e.float(p)
		}
		if err != nil {
			return nil, err
		}
	}

	switch e.typ {
	case "LINE":
		return kerf.Line{P1: p1, P2: p2, Normal: normal, Layer: layer}, nil
	case "ARC":
		return kerf.Arc{Center: p1, Radius: radius, Normal: normal,
			StartAngle: startAng, EndAngle: endAng, Layer: layer}, nil
	case "CIRCLE":
		return kerf.Circle{Center: p1, Radius: radius, Normal: normal, Layer: layer}, nil
	case "TEXT":
		return kerf.Text{Position: p1, Height: height, Value: text.String(), Layer: layer}, nil
	case "MTEXT":
		// code 3 chunks precede the final code 1 chunk
		return kerf.Text{Position: p1, Height: height, Value: chunks.String() + text.String(),
			Multiline: true, Layer: layer}, nil
	case "VERTEX", "SEQEND":
		return nil, nil
	}
	return kerf.Unsupported{Type: e.typ, Layer: layer}, nil
}

func (e *entity) float(p pair) (float64, error) {
	v, err := strconv.ParseFloat(p.name(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s group %d: invalid number %q", ErrSyntax, p.line+1, e.typ, p.code, p.value)
	}
	return v, nil
}
