package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gogpu/kerf"
	"github.com/gogpu/kerf/internal/cache"
	"github.com/gogpu/kerf/internal/config"
	"github.com/gogpu/kerf/internal/dxf"
	"github.com/gogpu/kerf/internal/preview"
)

// ============================================================
// Server
// ============================================================

// Server serves the kerf pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	adjuster *kerf.Adjuster
	app      *fiber.App

	// results memoizes adjusted drawings by content hash and amount.
	// Nil when caching is disabled.
	results *cache.Cache[string, *kerf.Result]
}

// New creates a Server with its routes registered. Extra middleware, such
// as the access logger, runs after panic recovery and request tagging.
func New(cfg *config.Config, middleware ...fiber.Handler) *Server {
	s := &Server{
		cfg:      cfg,
		adjuster: kerf.NewAdjuster(cfg.Offset.Options()...),
	}
	if cfg.Server.CacheSize > 0 {
		s.results = cache.New[string, *kerf.Result](cfg.Server.CacheSize)
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "kerfd",
		BodyLimit:    cfg.Server.BodyLimitMB << 20,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(RequestID())
	for _, h := range middleware {
		s.app.Use(h)
	}

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	api := s.app.Group("/api")
	api.Post("/offset", s.offset)
	api.Post("/preview", s.preview)
	api.Post("/contours", s.contours)
	api.Get("/cache", s.cacheStats)
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured port until the app shuts down.
func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf(":%s", s.cfg.Server.Port))
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ============================================================
// Handlers
// ============================================================

// offset returns the adjusted drawing as DXF.
func (s *Server) offset(c fiber.Ctx) error {
	up, err := s.adjust(c)
	if err != nil {
		return err
	}
	out, err := dxf.Marshal(up.result.Segments())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/dxf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", outputName(up.filename)))
	return c.Send(out)
}

// preview returns a PNG of the original and adjusted contours.
func (s *Server) preview(c fiber.Ctx) error {
	up, err := s.adjust(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := preview.RenderPNG(&buf, up.result.Original, up.result.Adjusted, s.cfg.Preview.Options()); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// contours returns the assembly and offset report as JSON.
func (s *Server) contours(c fiber.Ctx) error {
	up, err := s.adjust(c)
	if err != nil {
		return err
	}
	return c.JSON(newReportResponse(requestID(c), up.amount, up.result))
}

func (s *Server) cacheStats(c fiber.Ctx) error {
	if s.results == nil {
		return c.JSON(fiber.Map{"enabled": false})
	}
	st := s.results.Stats()
	return c.JSON(fiber.Map{
		"enabled":   true,
		"len":       st.Len,
		"capacity":  st.Capacity,
		"hits":      st.Hits,
		"misses":    st.Misses,
		"evictions": st.Evictions,
		"hit_rate":  st.HitRate,
	})
}

// ============================================================
// Pipeline
// ============================================================

// upload is an adjusted request body.
type upload struct {
	filename string
	amount   float64
	result   *kerf.Result
}

// adjust reads the drawing and the amount from the request and runs the
// pipeline, consulting the result cache first.
func (s *Server) adjust(c fiber.Ctx) (*upload, error) {
	amount, err := s.amount(c)
	if err != nil {
		return nil, err
	}
	name, data, err := readDrawing(c)
	if err != nil {
		return nil, err
	}

	log := kerf.Logger().With(slog.String("request_id", requestID(c)))
	key := cacheKey(data, amount)
	if s.results != nil {
		if res, ok := s.results.Get(key); ok {
			c.Set("X-Cache", "HIT")
			log.Debug("server: cache hit", slog.String("key", key[:16]))
			return &upload{filename: name, amount: amount, result: res}, nil
		}
		c.Set("X-Cache", "MISS")
	}

	d, err := dxf.Parse(data)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res, err := s.adjuster.Adjust(d.Segments, amount)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	log.Info("server: adjusted drawing",
		slog.String("file", name),
		slog.Int("bytes", len(data)),
		slog.Float64("amount", amount),
		slog.Int("contours", res.Report.Contours),
		slog.Int("failures", len(res.Report.Failures)))

	if s.results != nil {
		s.results.Set(key, res)
	}
	return &upload{filename: name, amount: amount, result: res}, nil
}

// amount returns the offset distance: the amount query parameter, half
// the kerf query parameter, or the configured default. The inside
// parameter negates it.
func (s *Server) amount(c fiber.Ctx) (float64, error) {
	o := s.cfg.Offset

	if v := c.Query("amount"); v != "" {
		f, err := parseFinite(v)
		if err != nil {
			return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid amount %q", v))
		}
		o.Amount, o.Kerf = f, 0
	}
	if v := c.Query("kerf"); v != "" {
		f, err := parseFinite(v)
		if err != nil || f < 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid kerf %q", v))
		}
		o.Kerf = f
	}
	if v := c.Query("inside"); v != "" {
		inside, err := strconv.ParseBool(v)
		if err != nil {
			return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid inside %q", v))
		}
		if inside {
			o.Direction = config.Inside
		} else {
			o.Direction = config.Outside
		}
	}
	return o.Distance(), nil
}

func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// readDrawing returns the uploaded file of a multipart request, or the
// raw body otherwise.
func readDrawing(c fiber.Ctx) (string, []byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		body := c.Body()
		if len(body) == 0 {
			return "", nil, fiber.NewError(fiber.StatusBadRequest, "body required")
		}
		return "", bytes.Clone(body), nil
	}

	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "file required in multipart/form-data")
	}
	f, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "empty file")
	}
	return file.Filename, data, nil
}

// cacheKey identifies a drawing and an offset amount.
func cacheKey(data []byte, amount float64) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ":" + strconv.FormatFloat(amount, 'g', -1, 64)
}

// outputName derives the download name from the uploaded file name.
func outputName(name string) string {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "adjusted.dxf"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "-kerf.dxf"
}

// errorHandler renders every error as a JSON body.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		kerf.Logger().Error("server: request failed",
			slog.String("request_id", requestID(c)),
			slog.String("path", c.Path()),
			slog.Any("err", err))
	}
	return c.Status(code).JSON(fiber.Map{
		"error":      err.Error(),
		"request_id": requestID(c),
	})
}
