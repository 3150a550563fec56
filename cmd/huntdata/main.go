package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-hunt-reports/config"
	"github.com/aluiziolira/go-hunt-reports/models"
	"github.com/aluiziolira/go-hunt-reports/parser"
	"github.com/aluiziolira/go-hunt-reports/pipeline"
	"github.com/aluiziolira/go-hunt-reports/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	defaultCfg := config.DefaultConfig()
	yearDefault := defaultCfg.Year
	if value, ok, err := config.EnvInt("HUNT_YEAR"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid HUNT_YEAR: %v\n", err)
		os.Exit(1)
	} else if ok {
		yearDefault = value
	}
	parallelDefault := defaultCfg.Parallelism
	if value, ok, err := config.EnvInt("HUNT_PARALLEL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid HUNT_PARALLEL: %v\n", err)
		os.Exit(1)
	} else if ok {
		parallelDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("HUNT_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("HUNT_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	var sourceURLs stringList
	indexURL := flag.String("index-url", defaultCfg.IndexURL, "Agency index page to crawl for report links")
	year := flag.Int("year", yearDefault, "License year to collect (0 for all years)")
	rawDir := flag.String("raw-dir", defaultCfg.RawDir, "Directory for downloaded report files")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	columnMap := flag.String("column-map", "", "Column overrides as field=Header,field=Header")
	flag.Var(&sourceURLs, "source-url", "Fetch this URL directly instead of crawling (repeatable)")
	includePDF := flag.Bool("include-pdf", false, "Also download and parse PDF reports")
	noDownload := flag.Bool("no-download", false, "Skip downloads and parse files already in the raw directory")
	discoverOnly := flag.Bool("discover-only", false, "Crawl and write a manifest without downloading")
	manifestIn := flag.String("manifest-in", "", "Read sources from this manifest instead of crawling")
	manifestOut := flag.String("manifest-out", "", "Write discovered sources to this manifest")
	parallelism := flag.Int("parallel", parallelDefault, "Number of concurrent requests and parse workers")
	delayMs := flag.Int("delay", int(defaultCfg.Delay/time.Millisecond), "Delay between requests (milliseconds)")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "HTTP timeout (seconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per URL")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.IndexURL = *indexURL
	cfg.Year = *year
	cfg.RawDir = *rawDir
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.ColumnOverrides = *columnMap
	cfg.SourceURLs = sourceURLs
	cfg.IncludePDF = *includePDF
	cfg.NoDownload = *noDownload
	cfg.DiscoverOnly = *discoverOnly
	cfg.ManifestIn = *manifestIn
	cfg.ManifestOut = *manifestOut
	cfg.Parallelism = *parallelism
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.MaxRetries = *maxRetries
	cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(*retryBackoffMaxMs) * time.Millisecond
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	overrides, err := parser.ParseOverrides(cfg.ColumnOverrides)
	if err != nil {
		slog.Error("invalid column overrides", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	startTime := time.Now()

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	inputs, filesFound, failed, err := collectInputs(ctx, cfg, s)
	if err != nil {
		slog.Error("collecting report files failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.DiscoverOnly {
		slog.Info("discovery complete",
			slog.Int("files_found", filesFound),
			slog.String("manifest", cfg.ManifestOut),
		)
		shutdownMetrics(metricsServer)
		return
	}

	p := pipeline.NewPipeline(overrides)
	p.Start(cfg.Parallelism)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", slog.String("file", path), slog.Any("error", err))
			continue
		}
		name := filepath.Base(path)
		file := models.InputFile{
			Name: name,
			Kind: parser.DetectKind(name, data),
			Data: data,
			Year: cfg.Year,
		}
		if err := p.Submit(file); err != nil {
			slog.Error("submitting file failed", slog.String("file", name), slog.Any("error", err))
			break
		}
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	records := p.Records()
	if len(records) == 0 {
		slog.Warn("no records produced from any source")
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Write(records); err != nil {
		slog.Error("writing output failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownMetrics(metricsServer)

	result := &models.RunResult{
		StartTime:      startTime,
		EndTime:        time.Now(),
		FilesFound:     filesFound,
		FilesFetched:   len(inputs),
		FailedURLs:     failed,
		RecordsWritten: len(records),
	}
	printSummary(result, cfg.OutputFile, p.GetMetrics())
}

// collectInputs resolves the run mode into a list of local file paths to
// parse: direct source URLs, a saved manifest, a fresh crawl, or the raw
// directory as-is when downloads are disabled.
func collectInputs(ctx context.Context, cfg *config.Config, s *scraper.Scraper) (inputs []string, filesFound int, failed []string, err error) {
	if cfg.NoDownload {
		inputs, err = listRawFiles(cfg.RawDir)
		if err != nil {
			return nil, 0, nil, err
		}
		slog.Info("reusing raw directory", slog.String("dir", cfg.RawDir), slog.Int("files", len(inputs)))
		return inputs, len(inputs), nil, nil
	}

	var sources []models.SourceFile
	switch {
	case len(cfg.SourceURLs) > 0:
		for _, u := range cfg.SourceURLs {
			sources = append(sources, models.SourceFile{URL: u, Category: scraper.ClassifySource(u)})
		}
	case cfg.ManifestIn != "":
		m, loadErr := scraper.LoadManifest(cfg.ManifestIn)
		if loadErr != nil {
			return nil, 0, nil, loadErr
		}
		sources = m.Sources(cfg.Year, cfg.IncludePDF)
		slog.Info("loaded manifest",
			slog.String("file", cfg.ManifestIn),
			slog.Int("sources", len(sources)),
		)
	default:
		discovery, discErr := s.Discover(ctx)
		if discErr != nil {
			return nil, 0, nil, discErr
		}
		slog.Info("discovery finished",
			slog.Int("report_pages", len(discovery.ReportPages)),
			slog.Int("files", len(discovery.Files)),
		)
		if cfg.ManifestOut != "" {
			m := scraper.NewManifest(cfg.IndexURL, cfg.Year, discovery)
			if saveErr := m.Save(cfg.ManifestOut); saveErr != nil {
				return nil, 0, nil, saveErr
			}
			slog.Info("manifest written", slog.String("file", cfg.ManifestOut))
		}
		sources = discovery.Files
	}

	if cfg.DiscoverOnly {
		return nil, len(sources), nil, nil
	}

	saved, failedURLs := s.Download(ctx, sources, cfg.RawDir)
	return saved, len(sources), failedURLs, nil
}

func listRawFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		csvFilename := strings.TrimSuffix(filename, ".json") + ".csv"
		return pipeline.NewDualWriter(filename, csvFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func shutdownMetrics(server *http.Server) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(result *models.RunResult, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Hunt report run complete")

	fmt.Printf("  Files found:   %d\n", result.FilesFound)
	fmt.Printf("  Files fetched: %d\n", result.FilesFetched)
	fmt.Printf("  Failed URLs:   %d\n", len(result.FailedURLs))
	if parsed, ok := metrics["files_parsed"].(int64); ok {
		fmt.Printf("  Files parsed:  %d\n", parsed)
	}
	if skipped, ok := metrics["skipped_files"].(map[string]int); ok && len(skipped) > 0 {
		fmt.Printf("  Skipped:       %v\n", skipped)
	}
	fmt.Printf("  Records:       %d\n", result.RecordsWritten)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
