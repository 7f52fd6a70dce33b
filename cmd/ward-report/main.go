package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/Garsondee/Ward-Sense/internal/batch"
	"github.com/Garsondee/Ward-Sense/internal/config"
	"github.com/Garsondee/Ward-Sense/internal/report"
	"github.com/Garsondee/Ward-Sense/internal/sim"
	"github.com/Garsondee/Ward-Sense/internal/store"
	"github.com/Garsondee/Ward-Sense/internal/telemetry"
)

type options struct {
	configPath string
	preset     string
	variants   []sim.Variant
	runs       int
	steps      int
	seedBase   uint64
	seedStep   uint64
	workers    int

	outDir      string
	snappy      bool
	sqlitePath  string
	postgresURL string
	s3Bucket    string
	s3Prefix    string
	s3Region    string
	s3Endpoint  string
	metricsFile string
	chartPath   string
	propPath    string
	copy        bool
	level       log.Level
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ward-report",
		Level:           opts.level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("ward-report failed", "err", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	var variants, level string

	fs := flag.NewFlagSet("ward-report", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.configPath, "config", "", "YAML parameter file overlaid on the preset")
	fs.StringVar(&opts.preset, "preset", "default", "parameter preset ("+strings.Join(config.PresetNames(), ", ")+")")
	fs.StringVar(&variants, "variants", "all", "comma-separated model variants, or all")
	fs.IntVar(&opts.runs, "runs", 50, "independent runs per variant")
	fs.IntVar(&opts.steps, "steps", 365, "steps per run")
	fs.Uint64Var(&opts.seedBase, "seed-base", sim.DefaultSeed, "seed of run 0")
	fs.Uint64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	fs.IntVar(&opts.workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	fs.StringVar(&opts.outDir, "out-dir", "results", "directory for CSV, report and chart output")
	fs.BoolVar(&opts.snappy, "snappy", false, "snappy-frame the raw CSV files")
	fs.StringVar(&opts.sqlitePath, "sqlite", "", "also store rows in this SQLite database")
	fs.StringVar(&opts.postgresURL, "postgres", "", "also store rows in this PostgreSQL database URL")
	fs.StringVar(&opts.s3Bucket, "s3-bucket", "", "upload produced files to this S3 bucket")
	fs.StringVar(&opts.s3Prefix, "s3-prefix", "ward-sense", "S3 key prefix")
	fs.StringVar(&opts.s3Region, "s3-region", "", "S3 region (default: AWS config chain)")
	fs.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	fs.StringVar(&opts.chartPath, "chart", "cumulative_resistant.png", "chart file name inside -out-dir (empty disables)")
	fs.StringVar(&opts.propPath, "proportion-chart", "proportion_new_resistant.png", "new resistant proportion chart inside -out-dir (empty disables)")
	fs.BoolVar(&opts.copy, "copy", false, "copy the text report to the clipboard")
	fs.StringVar(&level, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if opts.runs <= 0 {
		return options{}, fmt.Errorf("-runs must be > 0")
	}
	if opts.steps <= 0 {
		return options{}, fmt.Errorf("-steps must be > 0")
	}
	if opts.workers < 0 {
		return options{}, fmt.Errorf("-workers must be >= 0")
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return options{}, fmt.Errorf("-log-level: %w", err)
	}
	opts.level = lvl
	opts.variants, err = parseVariants(variants)
	if err != nil {
		return options{}, fmt.Errorf("-variants: %w", err)
	}
	return opts, nil
}

func parseVariants(s string) ([]sim.Variant, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return sim.AllVariants(), nil
	}
	seen := map[sim.Variant]bool{}
	var out []sim.Variant
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := sim.ParseVariant(part)
		if err != nil {
			return nil, err
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no variants selected")
	}
	return out, nil
}

func loadParams(opts options) (sim.Params, error) {
	p, err := config.Preset(opts.preset)
	if err != nil {
		return sim.Params{}, err
	}
	if opts.configPath != "" {
		if p, err = config.LoadOnto(opts.configPath, p); err != nil {
			return sim.Params{}, err
		}
	}
	return config.FromEnv(p)
}

func run(ctx context.Context, opts options, logger *log.Logger, out io.Writer) error {
	params, err := loadParams(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	logger.Info("starting",
		"variants", len(opts.variants), "runs", opts.runs, "steps", opts.steps,
		"seed_base", opts.seedBase, "seed_step", opts.seedStep, "nurses", params.NurseCount())

	recorder := telemetry.NewRecorder()
	csvSink := store.CSVSink{Dir: opts.outDir, Snappy: opts.snappy}
	sinks := []store.Sink{csvSink}
	artifacts := []string{}

	if opts.sqlitePath != "" {
		db, err := store.OpenSQLite(opts.sqlitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
		artifacts = append(artifacts, opts.sqlitePath)
	}
	if opts.postgresURL != "" {
		pg, err := store.OpenPostgres(ctx, opts.postgresURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		sinks = append(sinks, pg)
	}

	means := map[sim.Variant][]batch.MeanRow{}
	var cumulative, proportion []report.Series
	var plain []string
	for _, v := range opts.variants {
		r := &batch.Runner{
			Variant:  v,
			Params:   params,
			Runs:     opts.runs,
			Steps:    opts.steps,
			SeedBase: opts.seedBase,
			SeedStep: opts.seedStep,
			Workers:  opts.workers,
			Logger:   logger,
			Observer: recorder,
		}
		logger.Info("running", "model", v.Title())
		res, err := r.Run(ctx)
		if err != nil {
			return err
		}
		for _, s := range sinks {
			if err := s.Write(ctx, res); err != nil {
				return err
			}
		}
		artifacts = append(artifacts, csvSink.Path(v))
		logger.Info("saved", "model", v.Title(), "path", csvSink.Path(v))

		mean := res.Mean()
		means[v] = mean
		cumulative = append(cumulative, report.Series{Label: v.Title(), Values: batch.CumulativeResistant(mean)})
		proportion = append(proportion, report.Series{Label: v.Title(), Values: batch.NewResistantProportion(mean)})
		plain = append(plain, report.PlainSummary(report.Summarize(v, mean)))
	}

	text := report.Comparison(means)
	fmt.Fprint(out, text)

	reportPath := filepath.Join(opts.outDir, "report.txt")
	if err := os.WriteFile(reportPath, []byte(strings.Join(plain, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	artifacts = append(artifacts, reportPath)

	charts := []struct {
		name, title string
		series      []report.Series
	}{
		{opts.chartPath, "Cumulative resistant cases (mean across runs)", cumulative},
		{opts.propPath, "New resistant cases / susceptible (mean across runs)", proportion},
	}
	for _, c := range charts {
		if c.name == "" {
			continue
		}
		path := filepath.Join(opts.outDir, c.name)
		if err := writeChart(path, c.title, c.series); err != nil {
			return err
		}
		artifacts = append(artifacts, path)
		logger.Info("chart written", "path", path)
	}

	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
		artifacts = append(artifacts, opts.metricsFile)
	}

	if opts.copy {
		if err := report.CopyToClipboard(strings.Join(plain, "\n")); err != nil {
			logger.Warn("clipboard copy skipped", "err", err)
		} else {
			logger.Info("report copied to clipboard")
		}
	}

	if opts.s3Bucket != "" {
		up, err := store.NewS3Uploader(ctx, store.S3Options{
			Bucket:   opts.s3Bucket,
			Prefix:   opts.s3Prefix,
			Region:   opts.s3Region,
			Endpoint: opts.s3Endpoint,
		})
		if err != nil {
			return err
		}
		for _, a := range artifacts {
			key, err := up.Upload(ctx, a)
			if err != nil {
				return err
			}
			logger.Info("uploaded", "key", key)
		}
	}
	return nil
}

func writeChart(path, title string, series []report.Series) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close chart: %w", cerr)
		}
	}()
	return report.LineChart(f, title, series)
}
