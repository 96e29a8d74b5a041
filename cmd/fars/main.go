// Command fars summarizes and maps FARS accident census files.
//
// Usage:
//
//	fars summarize [-xlsx FILE] [-publish] YEAR...
//	fars map -state N -year Y [-out FILE]
//	fars read PATH
//	fars serve
//
// Files are resolved as FARS_DATA_DIR/accident_<year>.csv.bz2.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fars-census-service/internal/adapter/excel"
	httpadapter "github.com/couchcryptid/fars-census-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fars-census-service/internal/adapter/kafka"
	"github.com/couchcryptid/fars-census-service/internal/adapter/mapbox"
	"github.com/couchcryptid/fars-census-service/internal/adapter/mapcache"
	"github.com/couchcryptid/fars-census-service/internal/adapter/plotmap"
	"github.com/couchcryptid/fars-census-service/internal/config"
	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/observability"
	"github.com/couchcryptid/fars-census-service/internal/pipeline"
)

const usage = `usage:
  fars summarize [-xlsx FILE] [-publish] YEAR...
  fars map -state N -year Y [-out FILE]
  fars read PATH
  fars serve`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	app := newApp(cfg, stderr)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "summarize":
		err = app.summarize(rest, stdout)
	case "map":
		err = app.mapState(rest, stdout)
	case "read":
		err = app.read(rest, stdout)
	case "serve":
		err = app.serve()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", cmd, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		app.logger.Error(cmd+" failed", "error", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

// app wires configuration into the pipeline and adapters.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	dir     dataset.Dir
}

func newApp(cfg *config.Config, logOut io.Writer) *app {
	return &app{
		cfg:     cfg,
		logger:  observability.NewLoggerTo(logOut, cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
		dir:     dataset.Dir(cfg.DataDir),
	}
}

// renderer picks Mapbox when enabled, otherwise the local gonum/plot renderer,
// and wraps it in the rendered-map cache.
func (a *app) renderer() (domain.Renderer, string) {
	var inner domain.Renderer
	name := plotmap.Name
	if a.cfg.MapboxEnabled {
		inner = mapbox.NewClient(mapbox.Options{
			Token:      a.cfg.MapboxToken,
			Style:      a.cfg.MapboxStyle,
			Width:      a.cfg.MapWidth,
			Height:     a.cfg.MapHeight,
			MaxMarkers: a.cfg.MapMaxMarkers,
			Timeout:    a.cfg.MapboxTimeout,
		}, a.logger)
		name = mapbox.Name
		a.logger.Info("mapbox rendering enabled", "style", a.cfg.MapboxStyle, "timeout", a.cfg.MapboxTimeout)
	} else {
		inner = plotmap.NewRenderer(a.cfg.MapWidth, a.cfg.MapHeight)
		a.logger.Debug("mapbox rendering disabled, using local plot renderer")
	}
	return mapcache.NewCachedRenderer(inner, a.cfg.MapCacheSize, a.metrics), name
}

func (a *app) summarize(args []string, stdout io.Writer) error {
	fs := flagSet("summarize")
	xlsxPath := fs.String("xlsx", "", "also write the summary as an XLSX workbook")
	publish := fs.Bool("publish", false, "publish the summary to Kafka")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	years, err := domain.ParseYears(fs.Args())
	if err != nil {
		return err
	}

	report, err := pipeline.NewSummarizer(a.dir, a.logger, a.metrics).SummarizeYears(years)
	if err != nil {
		return err
	}
	table := report.Summary.Table()

	if err := printSummary(stdout, table); err != nil {
		return err
	}

	if *xlsxPath != "" {
		if err := excel.SaveSummary(*xlsxPath, table); err != nil {
			return err
		}
		a.logger.Info("summary workbook written", "path", *xlsxPath)
	}

	if *publish {
		if !a.cfg.KafkaEnabled {
			return errors.New("-publish requires KAFKA_BROKERS")
		}
		w := kafkaadapter.NewWriter(a.cfg, a.logger)
		defer w.Close()
		if _, err := w.PublishSummary(context.Background(), table); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) mapState(args []string, stdout io.Writer) error {
	fs := flagSet("map")
	stateArg := fs.String("state", "", "FARS STATE code")
	yearArg := fs.String("year", "", "census year")
	out := fs.String("out", "", "output image path (default state_<N>_<year>.png)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *stateArg == "" || *yearArg == "" {
		fs.Usage()
		return errUsage
	}

	state, err := domain.ParseState(*stateArg)
	if err != nil {
		return err
	}
	year, err := domain.ParseYear(*yearArg)
	if err != nil {
		return err
	}

	renderer, name := a.renderer()
	mapper := pipeline.NewStateMapper(a.dir, renderer, name, a.logger, a.metrics)

	path := *out
	if path == "" {
		path = fmt.Sprintf("state_%d_%d.png", state, year)
	}
	outcome, err := renderToFile(path, func(w io.Writer) (pipeline.MapOutcome, error) {
		return mapper.MapState(context.Background(), state, year, w)
	})
	if err != nil {
		return err
	}
	printOutcome(stdout, outcome, path)
	return nil
}

func (a *app) read(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: fars read PATH")
		return errUsage
	}
	df, err := dataset.Read(args[0])
	if err != nil {
		return err
	}
	printDataset(stdout, df)
	return nil
}

func (a *app) serve() error {
	renderer, name := a.renderer()
	summarizer := pipeline.NewSummarizer(a.dir, a.logger, a.metrics)
	mapper := pipeline.NewStateMapper(a.dir, renderer, name, a.logger, a.metrics)

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.dir, summarizer, mapper, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// renderToFile renders into memory and writes path only when a map was drawn,
// so a failed or empty render leaves any existing file untouched.
func renderToFile(path string, render func(io.Writer) (pipeline.MapOutcome, error)) (pipeline.MapOutcome, error) {
	var buf bytes.Buffer
	outcome, err := render(&buf)
	if err != nil || !outcome.Rendered {
		return outcome, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return outcome, fmt.Errorf("write %s: %w", path, err)
	}
	return outcome, nil
}
