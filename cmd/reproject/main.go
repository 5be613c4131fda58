// Command reproject converts the coordinate columns of a CSV file from one
// coordinate reference system to another.
//
// Usage:
//
//	reproject -in points.csv -from EPSG:2039 -to EPSG:4326 [-x X] [-y Y]
//	          [-out path] [-encoding windows-1255] [-preview N] [-flip]
//	          [-catalog crs.yaml] [-offline]
//	reproject -list [-catalog crs.yaml]
//
// Fields default to the columns named x/longitude/lng/long and
// y/latitude/lat. The output defaults to "<name>_<crs>.csv" next to the
// input; "-out -" writes to stdout.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JonMunkholm/reproject/internal/config"
	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/JonMunkholm/reproject/internal/crs"
	"github.com/JonMunkholm/reproject/internal/csvio"
	"github.com/JonMunkholm/reproject/internal/logging"
	"github.com/JonMunkholm/reproject/internal/store"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	in       string
	out      string
	from     string
	to       string
	x        string
	y        string
	encoding string
	catalog  string
	preview  int
	flip     bool
	offline  bool
	list     bool
	verbose  bool
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("reproject", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.in, "in", "", "input CSV file (required)")
	fs.StringVar(&o.out, "out", "", `output file, "-" for stdout (default "<name>_<crs>.csv" next to the input)`)
	fs.StringVar(&o.from, "from", "", "input CRS, e.g. EPSG:2039 or a proj4 string")
	fs.StringVar(&o.to, "to", "", "output CRS")
	fs.StringVar(&o.x, "x", "", "X column (default: auto-detected)")
	fs.StringVar(&o.y, "y", "", "Y column (default: auto-detected)")
	fs.StringVar(&o.encoding, "encoding", cfg.Convert.DefaultEncoding, "input text encoding")
	fs.StringVar(&o.catalog, "catalog", cfg.CRS.CatalogPath, "YAML file of CRS presets")
	fs.IntVar(&o.preview, "preview", 0, "print the first N converted rows")
	fs.BoolVar(&o.flip, "flip", false, "swap -from and -to")
	fs.BoolVar(&o.offline, "offline", false, "do not download definitions or use the database")
	fs.BoolVar(&o.list, "list", false, "list the CRS presets and exit")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !o.list && o.in == "" {
		fs.Usage()
		return nil, errors.New("-in is required")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logging.SetupWriter(stderr, level, "text")

	catalog, err := loadCatalog(opts.catalog)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if opts.list {
		if err := csvio.RenderPreview(stdout, catalogTable(catalog), 0); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	if err := convert(ctx, cfg, opts, catalog, stdout, stderr); err != nil {
		slog.Debug("conversion failed", "error", err)
		fmt.Fprintln(stderr, core.FormatUserError(err))
		return 1
	}
	return 0
}

func loadCatalog(path string) (*crs.Catalog, error) {
	if path == "" {
		return crs.DefaultCatalog(), nil
	}
	return crs.LoadCatalog(path)
}

func catalogTable(c *crs.Catalog) *core.Table {
	records := make([][]string, len(c.Entries))
	for i, e := range c.Entries {
		records[i] = []string{e.Code, e.Name}
	}
	return core.NewTable([]string{"code", "name"}, records)
}

func convert(ctx context.Context, cfg *config.Config, opts *options, catalog *crs.Catalog, stdout, stderr io.Writer) error {
	table, err := readInput(opts.in, opts.encoding, cfg.Convert.MaxFileSize)
	if err != nil {
		return err
	}

	registry := crs.NewRegistry()
	if err := catalog.Register(registry); err != nil {
		return err
	}
	resolver := &crs.Resolver{Registry: registry}

	var history core.HistoryStore
	if !opts.offline {
		if cfg.CRS.FetchEnabled {
			resolver.Fetcher = crs.NewFetcher(cfg.CRS.FetchURL, cfg.CRS.FetchTimeout)
		}
		if cfg.Database.Enabled() {
			pool, err := store.Connect(ctx, cfg.Database.URL, store.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			st := store.New(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			history = st
			resolver.Store = st
		}
	}

	fields := core.GuessFields(table.Header)
	if opts.x != "" {
		fields.X = opts.x
	}
	if opts.y != "" {
		fields.Y = opts.y
	}

	from, to := crs.Normalize(opts.from), crs.Normalize(opts.to)
	if opts.flip {
		from, to = crs.Flip(from, to)
	}

	engine := crs.NewEngine(registry)
	defer engine.Close()
	service := core.NewService(engine.Transform, resolver, history, core.ServiceConfig{
		MaxConcurrent: 1,
		Timeout:       cfg.Convert.Timeout,
		MaxRows:       cfg.Convert.MaxRows,
	})

	ctx = core.ContextWithUserAgent(ctx, "reproject-cli")
	result, err := service.Convert(ctx, core.ConvertParams{
		FileName:  filepath.Base(opts.in),
		Table:     table,
		Fields:    fields,
		InputCRS:  from,
		OutputCRS: to,
	})
	if err != nil {
		return err
	}

	outPath := opts.out
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(opts.in), csvio.OutputFileName(opts.in, to))
	}

	summary := stdout
	if outPath == "-" {
		if err := csvio.WriteTable(stdout, result.Table); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		summary = stderr
	} else if err := writeFile(outPath, result.Table); err != nil {
		return err
	}

	if opts.preview > 0 {
		if err := csvio.RenderPreview(summary, result.Table, opts.preview); err != nil {
			return err
		}
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(summary, "Converted %d rows (%d passed through) from %s to %s in %v\n",
		result.Converted, result.Passed, from, to, result.Duration.Round(time.Millisecond))
	if outPath != "-" {
		p.Fprintf(summary, "Wrote %s\n", outPath)
	}
	return nil
}

func readInput(path, encoding string, maxSize int64) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no file provided: %s does not exist", path)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return csvio.ReadTable(csvio.NewSizeLimitedReader(f, maxSize), encoding)
}

func writeFile(path string, t *core.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := csvio.WriteTable(w, t); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
