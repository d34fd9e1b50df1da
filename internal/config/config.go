// Package config loads the settings shared by the kerf command and the
// kerfd service: offset parameters, preview size and server limits.
//
// Values are resolved in order: defaults, then a TOML or YAML file, then
// environment variables. Command-line flags are applied last by the
// commands themselves.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/kerf"
	"github.com/gogpu/kerf/internal/preview"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Errors.
var (
	// ErrUnknownFormat is returned for config files that are neither TOML
	// nor YAML.
	ErrUnknownFormat = errors.New("config: unknown file format")

	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("config: invalid value")
)

// Offset directions.
const (
	Outside = "outside"
	Inside  = "inside"
)

// Config is the complete application configuration.
type Config struct {
	Offset  Offset  `toml:"offset" yaml:"offset"`
	Preview Preview `toml:"preview" yaml:"preview"`
	Server  Server  `toml:"server" yaml:"server"`
}

// Offset holds the kerf compensation parameters.
type Offset struct {
	// Amount is the signed offset distance, used when Kerf is zero.
	Amount float64 `toml:"amount" yaml:"amount"`

	// Kerf is the cut width of the tool. When set, the offset distance is
	// half of it.
	Kerf float64 `toml:"kerf" yaml:"kerf"`

	// Direction is "outside" (grow parts) or "inside" (shrink them).
	Direction string `toml:"direction" yaml:"direction"`

	Tolerance float64 `toml:"tolerance" yaml:"tolerance"`
	Workers   int     `toml:"workers" yaml:"workers"`
	Strict    bool    `toml:"strict" yaml:"strict"`
	Fallback  bool    `toml:"fallback" yaml:"fallback"`
}

// Preview holds the PNG preview settings.
type Preview struct {
	Width       int     `toml:"width" yaml:"width"`
	Height      int     `toml:"height" yaml:"height"`
	StrokeWidth float64 `toml:"stroke_width" yaml:"stroke_width"`
	Labels      bool    `toml:"labels" yaml:"labels"`
}

// Server holds the kerfd settings. Timeouts are in seconds.
type Server struct {
	Port         string `toml:"port" yaml:"port"`
	ReadTimeout  int    `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout" yaml:"write_timeout"`
	BodyLimitMB  int    `toml:"body_limit_mb" yaml:"body_limit_mb"`
	CacheSize    int    `toml:"cache_size" yaml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := preview.DefaultOptions()
	return &Config{
		Offset: Offset{
			Direction: Outside,
			Tolerance: kerf.DefaultTolerance,
			Workers:   1,
			Fallback:  true,
		},
		Preview: Preview{
			Width:       p.Width,
			Height:      p.Height,
			StrokeWidth: p.StrokeWidth,
			Labels:      p.Labels,
		},
		Server: Server{
			Port:         "3000",
			ReadTimeout:  10,
			WriteTimeout: 10,
			BodyLimitMB:  16,
			CacheSize:    64,
		},
	}
}

// Load returns the configuration from path (may be empty) merged over the
// defaults, with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cfg.decode(filepath.Ext(path), data); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".toml":
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		return d.Decode(c)
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// ApplyEnv overrides fields from KERF_* variables and PORT.
// Malformed values are logged and ignored.
func (c *Config) ApplyEnv() {
	o := &c.Offset
	o.Amount = getEnvAsFloat("KERF_AMOUNT", o.Amount)
	o.Kerf = getEnvAsFloat("KERF_KERF", o.Kerf)
	o.Direction = getEnv("KERF_DIRECTION", o.Direction)
	o.Tolerance = getEnvAsFloat("KERF_TOLERANCE", o.Tolerance)
	o.Workers = getEnvAsInt("KERF_WORKERS", o.Workers)
	o.Strict = getEnvAsBool("KERF_STRICT", o.Strict)
	o.Fallback = getEnvAsBool("KERF_FALLBACK", o.Fallback)

	s := &c.Server
	s.Port = getEnv("PORT", s.Port)
	s.ReadTimeout = getEnvAsInt("KERF_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvAsInt("KERF_WRITE_TIMEOUT", s.WriteTimeout)
	s.BodyLimitMB = getEnvAsInt("KERF_BODY_LIMIT_MB", s.BodyLimitMB)
	s.CacheSize = getEnvAsInt("KERF_CACHE_SIZE", s.CacheSize)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	o := c.Offset
	switch {
	case o.Direction != Outside && o.Direction != Inside:
		return fmt.Errorf("%w: direction %q, want %q or %q", ErrInvalid, o.Direction, Outside, Inside)
	case o.Kerf < 0:
		return fmt.Errorf("%w: negative kerf %v", ErrInvalid, o.Kerf)
	case o.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalid, o.Tolerance)
	case o.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalid, o.Workers)
	case math.IsNaN(o.Amount) || math.IsInf(o.Amount, 0):
		return fmt.Errorf("%w: amount %v", ErrInvalid, o.Amount)
	}

	p := c.Preview
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: preview size %dx%d", ErrInvalid, p.Width, p.Height)
	}

	s := c.Server
	switch {
	case s.Port == "":
		return fmt.Errorf("%w: empty port", ErrInvalid)
	case s.BodyLimitMB <= 0:
		return fmt.Errorf("%w: body limit %d MB", ErrInvalid, s.BodyLimitMB)
	case s.CacheSize < 0:
		return fmt.Errorf("%w: cache size %d", ErrInvalid, s.CacheSize)
	}
	return nil
}

// Distance returns the signed offset distance: half the kerf when a kerf
// is set, Amount otherwise, negated for inside cuts.
func (o Offset) Distance() float64 {
	d := o.Amount
	if o.Kerf > 0 {
		d = o.Kerf / 2
	}
	if o.Direction == Inside {
		return -math.Abs(d)
	}
	return d
}

// Options returns the library options for the offset settings.
func (o Offset) Options() []kerf.Option {
	return []kerf.Option{
		kerf.WithTolerance(o.Tolerance),
		kerf.WithWorkers(o.Workers),
		kerf.WithStrict(o.Strict),
		kerf.WithFallback(o.Fallback),
	}
}

// Options returns the preview renderer options.
func (p Preview) Options() preview.Options {
	d := preview.DefaultOptions()
	return preview.Options{
		Width:       p.Width,
		Height:      p.Height,
		Margin:      d.Margin,
		StrokeWidth: p.StrokeWidth,
		Labels:      p.Labels,
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		ignored(key, value)
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		ignored(key, value)
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		ignored(key, value)
	}
	return defaultVal
}

func ignored(key, value string) {
	kerf.Logger().Warn("config: ignoring malformed environment variable",
		slog.String("key", key), slog.String("value", value))
}
