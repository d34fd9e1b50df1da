// Command kerf offsets the cut contours of a DXF drawing to compensate for
// the kerf of a laser, plasma or waterjet cutter.
//
// Usage:
//
//	kerf [flags] input.dxf
//
// The adjusted drawing is written next to the input as input-kerf.dxf
// unless -o is given. Use "-" to read from stdin or write to stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/kerf"
	"github.com/gogpu/kerf/internal/config"
	"github.com/gogpu/kerf/internal/dxf"
	"github.com/gogpu/kerf/internal/preview"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// flags holds the command line. Zero values mean "not given"; set records
// which flags appeared so that they override the config file.
type flags struct {
	output     string
	preview    string
	configPath string
	amount     float64
	kerfWidth  float64
	inside     bool
	tolerance  float64
	workers    int
	strict     bool
	noFallback bool
	verbose    bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, []string, error) {
	f := &flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("kerf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: kerf [flags] input.dxf")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.output, "o", "", "output DXF file (default input-kerf.dxf)")
	fs.StringVar(&f.preview, "preview", "", "write a PNG preview to this file")
	fs.StringVar(&f.configPath, "config", "", "TOML or YAML config file")
	fs.Float64Var(&f.amount, "amount", 0, "signed offset distance, positive grows parts")
	fs.Float64Var(&f.kerfWidth, "kerf", 0, "cut width; offsets by half of it")
	fs.BoolVar(&f.inside, "inside", false, "shrink parts instead of growing them")
	fs.Float64Var(&f.tolerance, "tolerance", kerf.DefaultTolerance, "endpoint matching tolerance")
	fs.IntVar(&f.workers, "workers", 1, "offset workers, 0 for one per CPU")
	fs.BoolVar(&f.strict, "strict", false, "fail on unsupported or 3D entities")
	fs.BoolVar(&f.noFallback, "no-fallback", false, "drop contours that cannot be offset")
	fs.BoolVar(&f.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, fs.Args(), nil
}

// apply overrides cfg with the flags that were given.
func (f *flags) apply(cfg *config.Config) {
	o := &cfg.Offset
	if f.set["amount"] {
		o.Amount, o.Kerf = f.amount, 0
	}
	if f.set["kerf"] {
		o.Kerf = f.kerfWidth
	}
	if f.set["inside"] {
		o.Direction = config.Outside
		if f.inside {
			o.Direction = config.Inside
		}
	}
	if f.set["tolerance"] {
		o.Tolerance = f.tolerance
	}
	if f.set["workers"] {
		o.Workers = f.workers
	}
	if f.set["strict"] {
		o.Strict = f.strict
	}
	if f.set["no-fallback"] {
		o.Fallback = !f.noFallback
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, rest, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "usage: kerf [flags] input.dxf")
		return 2
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	kerf.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer kerf.SetLogger(nil)

	if err := adjustFile(f, rest[0], stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "kerf: %v\n", err)
		return 1
	}
	return 0
}

func adjustFile(f *flags, input string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := readDrawing(input, stdin)
	if err != nil {
		return err
	}

	amount := cfg.Offset.Distance()
	res, err := kerf.NewAdjuster(cfg.Offset.Options()...).Adjust(d.Segments, amount)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = defaultOutput(input)
	}
	if err := writeOutput(output, stdout, func(w io.Writer) error {
		return dxf.Write(w, res.Segments())
	}); err != nil {
		return err
	}
	if f.preview != "" {
		if err := writeOutput(f.preview, stdout, func(w io.Writer) error {
			return preview.RenderPNG(w, res.Original, res.Adjusted, cfg.Preview.Options())
		}); err != nil {
			return err
		}
	}

	printReport(stderr, amount, &res.Report)
	return nil
}

func readDrawing(input string, stdin io.Reader) (*dxf.Drawing, error) {
	if input == "-" {
		return dxf.Read(stdin)
	}
	file, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d, err := dxf.Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return d, nil
}

// writeOutput creates path and calls write. The file is removed when
// write fails.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return write(file)
}

func defaultOutput(input string) string {
	if input == "-" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "-kerf.dxf"
}

func printReport(w io.Writer, amount float64, r *kerf.Report) {
	fmt.Fprintf(w, "offset %g: %d segments, %d contours (%d closed, %d open), %d offset, %d kept, %d dropped, %d skipped\n",
		amount, r.Segments, r.Contours, r.Closed, r.Open, r.Offset, r.Fallback, r.Dropped, len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  segment %d skipped: %v\n", s.Index, s.Err)
	}
	for _, fl := range r.Failures {
		fmt.Fprintf(w, "  contour %d not offset: %v\n", fl.Contour, fl.Err)
	}
}
