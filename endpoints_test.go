package kerf

import (
	"errors"
	"math"
	"testing"
)

func TestFindEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		seg    Segment
		wantOK bool
		want   Endpoints
	}{
		{
			name:   "line keeps stored order",
			seg:    NewLine(V2(1, 3), V2(0, 0)),
			wantOK: true,
			want:   Endpoints{Start: V2(1, 3), End: V2(0, 0)},
		},
		{
			name:   "quarter arc",
			seg:    NewArc(V2(1, 2), 2, 0, 90),
			wantOK: true,
			want:   Endpoints{Start: V2(3, 2), End: V2(1, 4)},
		},
		{
			name:   "arc wrapping through zero",
			seg:    NewArc(V2(0, 0), 1, 270, 90),
			wantOK: true,
			want:   Endpoints{Start: V2(0, -1), End: V2(0, 1)},
		},
		{
			name:   "arc with unset normal is planar",
			seg:    Arc{Center: V2(0, 0), Radius: 1, StartAngle: 180, EndAngle: 0},
			wantOK: true,
			want:   Endpoints{Start: V2(-1, 0), End: V2(1, 0)},
		},
		{
			name:   "tilted arc has no endpoints",
			seg:    Arc{Center: V2(0, 0), Radius: 1, Normal: V3(0, 1, 0), EndAngle: 90},
			wantOK: false,
		},
		{
			name:   "flipped arc has no endpoints",
			seg:    Arc{Center: V2(0, 0), Radius: 1, Normal: V3(0, 0, -1), EndAngle: 90},
			wantOK: false,
		},
		{
			name:   "circle is its own contour",
			seg:    NewCircle(V2(5, 5), 1),
			wantOK: false,
		},
		{
			name:   "text has no geometry",
			seg:    Text{Value: "PART-1"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := FindEndpoints(tt.seg)
			if err != nil {
				t.Fatalf("FindEndpoints() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("FindEndpoints() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Start.Approx(tt.want.Start, 1e-12) || !got.End.Approx(tt.want.End, 1e-12) {
				t.Errorf("FindEndpoints() = %v - %v, want %v - %v", got.Start, got.End, tt.want.Start, tt.want.End)
			}
		})
	}
}

func TestFindEndpoints_Deterministic(t *testing.T) {
	arc := NewArc(V2(-3, 7), 2.5, 33, 211)
	first, _, _ := FindEndpoints(arc)
	for range 10 {
		again, _, _ := FindEndpoints(arc)
		if again != first {
			t.Fatalf("FindEndpoints() = %v, want %v on every call", again, first)
		}
	}
}

func TestFindEndpoints_Unsupported(t *testing.T) {
	_, ok, err := FindEndpoints(Unsupported{Type: "SPLINE"})
	if ok {
		t.Error("unsupported entity reported endpoints")
	}
	if !errors.Is(err, ErrUnsupportedEntity) {
		t.Fatalf("error = %v, want ErrUnsupportedEntity", err)
	}
	var ee *EntityError
	if !errors.As(err, &ee) || ee.Kind != "SPLINE" {
		t.Errorf("error = %#v, want EntityError with kind SPLINE", err)
	}
}

func TestCheckPlanar(t *testing.T) {
	tests := []struct {
		name   string
		seg    Segment
		planar bool
	}{
		{"flat line", NewLine(V2(0, 0), V2(1, 1)), true},
		{"line lifted", NewLine(V3(0, 0, 1), V3(1, 1, 1)), false},
		{"line with tilted extrusion", Line{P2: V2(1, 0), Normal: V3(1, 0, 0)}, false},
		{"flat arc", NewArc(V2(0, 0), 1, 0, 90), true},
		{"tilted arc", Arc{Radius: 1, Normal: V3(0, 1, 1)}, false},
		{"flat circle", NewCircle(V2(1, 1), 2), true},
		{"raised circle", NewCircle(V3(1, 1, 4), 2), false},
		{"text", Text{Value: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPlanar(tt.seg)
			if tt.planar && err != nil {
				t.Errorf("CheckPlanar() = %v, want nil", err)
			}
			if !tt.planar && !errors.Is(err, ErrThreeDimensionalEntity) {
				t.Errorf("CheckPlanar() = %v, want ErrThreeDimensionalEntity", err)
			}
		})
	}
}

func TestSegmentLength(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want float64
	}{
		{"line", NewLine(V2(0, 0), V2(3, 4)), 5},
		{"quarter arc", NewArc(V2(0, 0), 2, 0, 90), math.Pi},
		{"arc across zero", NewArc(V2(0, 0), 1, 350, 10), 20 * math.Pi / 180},
		{"equal angles is a full turn", NewArc(V2(0, 0), 1, 90, 90), 2 * math.Pi},
		{"circle", NewCircle(V2(0, 0), 1), 2 * math.Pi},
		{"text", Text{Value: "abc"}, 0},
		{"unsupported", Unsupported{Type: "SPLINE"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentLength(tt.seg); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SegmentLength() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		seg  Segment
		want string
	}{
		{Line{}, "LINE"},
		{Arc{}, "ARC"},
		{Circle{}, "CIRCLE"},
		{Text{}, "TEXT"},
		{Unsupported{Type: "HATCH"}, "UNSUPPORTED"},
	}
	for _, tt := range tests {
		if got := tt.seg.Kind().String(); got != tt.want {
			t.Errorf("%T.Kind() = %q, want %q", tt.seg, got, tt.want)
		}
	}
	if got := kindName(Text{Multiline: true}); got != "MTEXT" {
		t.Errorf("kindName(mtext) = %q, want MTEXT", got)
	}
}
