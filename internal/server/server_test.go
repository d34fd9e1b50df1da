package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gogpu/kerf"
	"github.com/gogpu/kerf/internal/config"
	"github.com/gogpu/kerf/internal/dxf"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, edit func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Preview.Width, cfg.Preview.Height = 120, 90
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, cfg.Validate())
	return New(cfg)
}

func squareDXF(t *testing.T) []byte {
	t.Helper()
	data, err := dxf.Marshal([]kerf.Segment{
		kerf.NewLine(kerf.V2(0, 0), kerf.V2(1, 0)),
		kerf.NewLine(kerf.V2(1, 0), kerf.V2(1, 1)),
		kerf.NewLine(kerf.V2(1, 1), kerf.V2(0, 1)),
		kerf.NewLine(kerf.V2(0, 1), kerf.V2(0, 0)),
	})
	require.NoError(t, err)
	return data
}

// mixedDXF holds a square, a stray line and a spline.
func mixedDXF() []byte {
	lines := []string{
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "10", "0", "20", "0", "11", "1", "21", "0",
		"0", "LINE", "10", "1", "20", "0", "11", "1", "21", "1",
		"0", "LINE", "10", "1", "20", "1", "11", "0", "21", "1",
		"0", "LINE", "10", "0", "20", "1", "11", "0", "21", "0",
		"0", "LINE", "10", "5", "20", "5", "11", "6", "21", "5",
		"0", "SPLINE", "8", "CUT",
		"0", "ENDSEC", "0", "EOF",
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func post(t *testing.T, s *Server, target string, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/dxf")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	return resp
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(readAll(t, resp), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	for path, want := range map[string]string{
		"/health/live":  "alive",
		"/health/ready": "ready",
	} {
		resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeJSON(t, resp, &body)
		assert.Equal(t, want, body["status"])
	}
}

func TestOffset(t *testing.T) {
	s := newTestServer(t, nil)
	resp := post(t, s, "/api/offset?amount=0.1", squareDXF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/dxf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "adjusted.dxf")

	d, err := dxf.Parse(readAll(t, resp))
	require.NoError(t, err)
	require.Len(t, d.Segments, 4)

	var length float64
	for _, seg := range d.Segments {
		l, ok := seg.(kerf.Line)
		require.True(t, ok)
		for _, p := range []kerf.Vec3{l.P1, l.P2} {
			assert.True(t, near(p.X, -0.1) || near(p.X, 1.1), "x = %v", p.X)
			assert.True(t, near(p.Y, -0.1) || near(p.Y, 1.1), "y = %v", p.Y)
		}
		length += l.Length()
	}
	assert.InDelta(t, 4.8, length, 1e-9)
}

func TestOffset_KerfInside(t *testing.T) {
	s := newTestServer(t, nil)
	resp := post(t, s, "/api/offset?kerf=0.2&inside=true", squareDXF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	d, err := dxf.Parse(readAll(t, resp))
	require.NoError(t, err)
	var length float64
	for _, seg := range d.Segments {
		length += kerf.SegmentLength(seg)
	}
	assert.InDelta(t, 3.2, length, 1e-9)
}

func TestOffset_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "part.dxf")
	require.NoError(t, err)
	_, err = fw.Write(squareDXF(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/offset?amount=0.1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	s := newTestServer(t, nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "part-kerf.dxf")

	d, err := dxf.Parse(readAll(t, resp))
	require.NoError(t, err)
	assert.Len(t, d.Segments, 4)
}

func TestContours(t *testing.T) {
	s := newTestServer(t, nil)
	resp := post(t, s, "/api/contours?amount=0.1", mixedDXF())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r reportResponse
	decodeJSON(t, resp, &r)
	assert.NotEmpty(t, r.RequestID)
	assert.Equal(t, 0.1, r.Amount)
	assert.Equal(t, 6, r.Segments)
	assert.Equal(t, 1, r.Closed)
	assert.Equal(t, 1, r.Open)
	assert.Equal(t, 1, r.Offset)
	assert.Equal(t, 1, r.Fallback)

	require.Len(t, r.Contours, 2)
	assert.Equal(t, contourResponse{Index: 0, Segments: 4, Closed: true, Length: 4}, r.Contours[0])
	assert.Equal(t, contourResponse{Index: 1, Segments: 1, Closed: false, Length: 1}, r.Contours[1])

	require.Len(t, r.Skipped, 1)
	assert.Equal(t, 5, r.Skipped[0].Index)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, 1, r.Failures[0].Index)
	assert.Equal(t, kerf.ErrCannotOffsetOpenContour.Error(), r.Failures[0].Error)
}

func TestContours_Strict(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Offset.Strict = true })
	resp := post(t, s, "/api/contours", mixedDXF())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Contains(t, body["error"], "unsupported")
	assert.NotEmpty(t, body["request_id"])
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)
	resp := post(t, s, "/api/preview?amount=0.1", squareDXF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(readAll(t, resp)))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestCache(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.CacheSize = 2 })
	data := squareDXF(t)

	assert.Equal(t, "MISS", post(t, s, "/api/offset?amount=0.1", data).Header.Get("X-Cache"))
	assert.Equal(t, "HIT", post(t, s, "/api/offset?amount=0.1", data).Header.Get("X-Cache"))
	assert.Equal(t, "HIT", post(t, s, "/api/contours?amount=0.1", data).Header.Get("X-Cache"))
	assert.Equal(t, "MISS", post(t, s, "/api/offset?amount=0.2", data).Header.Get("X-Cache"))

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	require.NoError(t, err)
	var st map[string]any
	decodeJSON(t, resp, &st)
	assert.Equal(t, true, st["enabled"])
	assert.EqualValues(t, 2, st["len"])
	assert.EqualValues(t, 2, st["hits"])
	assert.EqualValues(t, 2, st["misses"])
}

func TestCache_Disabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.CacheSize = 0 })
	resp := post(t, s, "/api/offset?amount=0.1", squareDXF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Cache"))

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	require.NoError(t, err)
	var st map[string]any
	decodeJSON(t, resp, &st)
	assert.Equal(t, false, st["enabled"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(HeaderRequestID))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(HeaderRequestID, id)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(HeaderRequestID))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   []byte
	}{
		{"empty body", "/api/offset", nil},
		{"bad amount", "/api/offset?amount=wide", []byte("0\nEOF\n")},
		{"infinite amount", "/api/offset?amount=Inf", []byte("0\nEOF\n")},
		{"negative kerf", "/api/offset?kerf=-1", []byte("0\nEOF\n")},
		{"bad inside", "/api/offset?inside=maybe", []byte("0\nEOF\n")},
		{"not dxf", "/api/contours", []byte("not a dxf\n")},
		{"binary dxf", "/api/preview", []byte("AutoCAD Binary DXF\r\n\x1a\x00")},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			decodeJSON(t, resp, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrors_MissingFormFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("amount", "0.1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/offset", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	s := newTestServer(t, nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "adjusted.dxf"},
		{"part.dxf", "part-kerf.dxf"},
		{"dir/Part.DXF", "Part-kerf.dxf"},
		{"noext", "noext-kerf.dxf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputName(tt.in), tt.in)
	}
}

func near(a, b float64) bool { return abs(a-b) < 1e-9 }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
