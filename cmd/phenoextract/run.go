package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"phenoextract/internal/config"
	"phenoextract/internal/datasource"
	"phenoextract/internal/datasource/httpds"
	"phenoextract/internal/datasource/s3src"
	"phenoextract/internal/extract"
	"phenoextract/internal/metrics"
	"phenoextract/internal/metrics/datadog"
	"phenoextract/internal/metrics/prompush"
	"phenoextract/internal/output"
)

// run validates inputs, executes one extraction and writes its outputs.
// Errors found before the run log is open are returned as is; later ones
// are logged first and returned as loggedError.
func run(ctx context.Context, opts *options, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	formats, err := output.ParseFormats(opts.outputFormats)
	if err != nil {
		return err
	}
	outOpt := output.Options{Prefix: opts.outputPrefix, Formats: formats, SQLDSN: opts.sqlDSN, SQLitePath: opts.sqlitePath}
	if err := outOpt.Validate(); err != nil {
		return err
	}

	resolver := &datasource.Resolver{
		HTTP: httpds.NewClient(httpds.Config{MaxRetries: opts.httpRetries}),
		S3:   s3src.ConfigFromEnv(),
	}
	cfg, err := loadConfig(ctx, resolver, opts.configFile)
	if err != nil {
		return err
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid: %s", opts.configFile)
	}
	if opts.validate {
		fmt.Fprintf(stderr, "configuration is valid: %s\n", opts.configFile)
		return nil
	}

	log, closeLog, err := openRunLog(opts.outputPrefix, opts.logFormat, opts.verbose, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	flush := setupMetrics(opts, log)
	defer flush()

	if err := extractAndWrite(ctx, opts, cfg, resolver, outOpt, log); err != nil {
		log.Error("extraction failed", "err", err)
		return loggedError{err}
	}
	return nil
}

func loadConfig(ctx context.Context, op *datasource.Resolver, location string) (config.Config, error) {
	rc, err := op.Open(ctx, location)
	if err != nil {
		return config.Config{}, fmt.Errorf("open config: %w", err)
	}
	defer rc.Close()

	cfg, err := config.Decode(rc)
	if err != nil {
		return config.Config{}, fmt.Errorf("%s: %w", location, err)
	}
	return config.Normalize(cfg), nil
}

func extractAndWrite(ctx context.Context, opts *options, cfg config.Config, op extract.Opener, outOpt output.Options, log *slog.Logger) error {
	job := opts.metricsJob
	started := time.Now()

	res, err := extract.Run(ctx, cfg, extract.Inputs{
		DataFile: opts.dataFile,
		References: extract.ReferencePaths{
			Dictionary:      opts.dictionaryFile,
			Coding:          opts.codingFile,
			CategoryTree:    opts.treeFile,
			FieldProperties: opts.propsFile,
		},
	}, extract.Options{
		Opener: op,
		Logger: log,
		OnStep: func(step string, err error, d time.Duration) {
			metrics.RecordStep(job, step, err, d)
		},
	})
	if err != nil {
		return err
	}

	log.Info("narrow dataset digest", "xxh3", fmt.Sprintf("%016x", res.Narrow.Digest()), "rows", res.Narrow.Len())
	metrics.RecordRow(job, "narrow_rows", int64(res.Narrow.Len()))
	for _, st := range res.Stages {
		metrics.RecordStage(job, st.Name, st.In, st.Out)
	}
	if res.Wide != nil {
		metrics.RecordRow(job, "wide_rows", int64(res.Wide.Len()))
		metrics.RecordRow(job, "coercion_failures", int64(len(res.Wide.Warnings)))
	}

	outOpt.Logger = log
	start := time.Now()
	written, err := output.Write(ctx, output.Tables{
		Narrow:     res.Narrow,
		Wide:       res.Wide,
		Dictionary: res.Dictionary,
		Codings:    res.Codings,
	}, outOpt)
	metrics.RecordStep(job, "write-outputs", err, time.Since(start))
	if err != nil {
		return err
	}

	log.Info("run complete", "outputs", len(written), "elapsed", time.Since(started).Truncate(time.Millisecond))
	return nil
}

// setupMetrics installs the selected metrics backend and returns a flush
// function for shutdown. A backend that cannot be created is logged and
// metrics stay disabled.
func setupMetrics(opts *options, log *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch opts.metricsBackend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}

	case "pushgateway":
		url := firstNonEmpty(opts.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		b, err = prompush.NewBackend(opts.metricsJob, url)
		log.Info("metrics backend", "backend", "pushgateway", "url", url, "job", opts.metricsJob)

	case "datadog":
		addr := firstNonEmpty(opts.statsdAddr, os.Getenv("DD_DOGSTATSD_URL"), "127.0.0.1:8125")
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"job:" + opts.metricsJob},
		})
		log.Info("metrics backend", "backend", "datadog", "addr", addr)

	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", opts.metricsBackend)
		return func() {}
	}

	if err != nil {
		log.Warn("metrics backend unavailable; metrics disabled", "backend", opts.metricsBackend, "err", err)
		return func() {}
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "err", err)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
