// Package scraper discovers and downloads agency report files.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-hunt-reports/config"
	"github.com/aluiziolira/go-hunt-reports/models"
)

// reportPageKeywords mark index links that lead to report listing pages.
var reportPageKeywords = []string{
	"harvest-report",
	"draw-report",
	"draw-odds",
	"draw-result",
	"draw-success",
}

var (
	yearTokenRE    = regexp.MustCompile(`(20\d{2})`)
	yearRangeRE    = regexp.MustCompile(`(20\d{2})\s*[-/]\s*(20\d{2})`)
	dispositionRE  = regexp.MustCompile(`filename="?([^";]+)"?`)
	dataExtensions = []string{".csv", ".json", ".xlsx", ".xls"}
)

// Discovery is the outcome of one crawl: the report pages visited and
// the unique data files found on them.
type Discovery struct {
	ReportPages []string
	Files       []models.SourceFile
}

// Scraper crawls an agency hunting page for report files.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	fetcher   *Fetcher
	Metrics   *Metrics

	mu    sync.Mutex
	pages map[string]struct{}
	files map[string]models.SourceFile

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("index url must include a host")
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.MaxDepth(2),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		fetcher:   fetcher,
		Metrics:   metrics,
		pages:     make(map[string]struct{}),
		files:     make(map[string]models.SourceFile),
	}, nil
}

// Discover crawls the index page, follows report-page links one level
// deep, and returns the de-duplicated data file links sorted by filename.
func (s *Scraper) Discover(ctx context.Context) (*Discovery, error) {
	s.configureHandlers(ctx)

	if err := s.collector.Visit(s.cfg.IndexURL); err != nil {
		return nil, fmt.Errorf("initial visit: %w", err)
	}
	s.collector.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	pages := make([]string, 0, len(s.pages))
	for page := range s.pages {
		pages = append(pages, page)
	}
	sort.Strings(pages)

	files := make([]models.SourceFile, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].Filename) < strings.ToLower(files[j].Filename)
	})

	return &Discovery{ReportPages: pages, Files: files}, nil
}

func (s *Scraper) configureHandlers(ctx context.Context) {
	s.handlersOnce.Do(func() {
		s.collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
			if ctx.Err() != nil {
				return
			}
			abs := e.Request.AbsoluteURL(e.Attr("href"))
			if abs == "" {
				return
			}
			lower := strings.ToLower(abs)

			if isFileLink(lower) {
				filename := guessFilename(abs, "downloaded_report")
				if !matchesTargetYear(abs+" "+filename, s.cfg.Year) {
					return
				}
				if !s.cfg.IncludePDF && strings.Contains(lower, ".pdf") {
					return
				}
				s.mu.Lock()
				if _, seen := s.files[abs]; !seen {
					s.files[abs] = models.SourceFile{
						URL:      abs,
						Filename: filename,
						Category: ClassifySource(abs),
					}
					s.Metrics.IncDiscovered("file")
				}
				s.mu.Unlock()
				return
			}

			if isReportPageLink(lower) && matchesTargetYear(abs, s.cfg.Year) {
				s.mu.Lock()
				_, seen := s.pages[abs]
				if !seen {
					s.pages[abs] = struct{}{}
					s.Metrics.IncDiscovered("page")
				}
				s.mu.Unlock()
				if !seen {
					if err := e.Request.Visit(abs); err != nil {
						slog.Debug("report page visit", slog.String("url", abs), slog.Any("error", err))
					}
				}
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			if r != nil {
				statusCode = r.StatusCode
			}
			s.Metrics.IncError(classifyFetchError(err, statusCode))
			slog.Error("crawl error",
				slog.Int("status", statusCode),
				slog.Any("error", err),
			)
		})

		s.collector.OnResponse(func(r *colly.Response) {
			if r.StatusCode >= http.StatusBadRequest {
				slog.Error("non-200 response",
					slog.Int("status", r.StatusCode),
					slog.String("url", r.Request.URL.String()),
				)
			}
		})
	})
}

// Download fetches each source file into destDir, preferring a filename
// hinted by Content-Disposition when the discovered name has no
// extension. Individual failures are reported, not fatal.
func (s *Scraper) Download(ctx context.Context, files []models.SourceFile, destDir string) ([]string, []string) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		slog.Error("create raw dir", slog.String("dir", destDir), slog.Any("error", err))
		return nil, urlsOf(files)
	}

	var saved []string
	var failed []string
	for _, src := range files {
		if ctx.Err() != nil {
			failed = append(failed, src.URL)
			continue
		}

		result, err := s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			failed = append(failed, src.URL)
			slog.Error("download failed", slog.String("url", src.URL), slog.Any("error", err))
			continue
		}

		name := src.Filename
		if name == "" {
			name = guessFilename(src.URL, "downloaded_report")
		}
		target := filepath.Join(destDir, name)
		if hinted := dispositionFilename(result.Header); hinted != "" {
			if filepath.Ext(name) == "" && filepath.Ext(hinted) != "" {
				target = filepath.Join(destDir, hinted)
			}
		}

		if err := os.WriteFile(target, result.Body, 0o644); err != nil {
			failed = append(failed, src.URL)
			slog.Error("write file", slog.String("path", target), slog.Any("error", err))
			continue
		}
		s.Metrics.IncDownloaded()
		saved = append(saved, target)
		slog.Info("downloaded", slog.String("url", src.URL), slog.String("path", target))
	}
	return saved, failed
}

// RetryWindow gives the scheduler a hint of the worst-case retry time.
func (s *Scraper) RetryWindow() time.Duration {
	return time.Duration(s.cfg.MaxRetries) * s.cfg.RetryBackoffMax
}

func dispositionFilename(header http.Header) string {
	m := dispositionRE.FindStringSubmatch(header.Get("Content-Disposition"))
	if m == nil {
		return ""
	}
	return path.Base(strings.ReplaceAll(m[1], "%20", " "))
}

func isFileLink(lowerURL string) bool {
	trimmed := lowerURL
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, ext := range dataExtensions {
		if strings.HasSuffix(trimmed, ext) {
			return true
		}
	}
	if strings.HasSuffix(trimmed, ".pdf") {
		return true
	}
	return strings.Contains(lowerURL, "/download/") || strings.Contains(lowerURL, "wpdmdl=")
}

func isReportPageLink(lowerURL string) bool {
	for _, k := range reportPageKeywords {
		if strings.Contains(lowerURL, k) {
			return true
		}
	}
	return false
}

// ClassifySource labels a file URL as a draw or harvest report.
func ClassifySource(url string) string {
	u := strings.ToLower(url)
	if strings.Contains(u, "harvest") {
		return "harvest"
	}
	if strings.Contains(u, "draw") {
		return "draw"
	}
	return "other"
}

func guessFilename(rawURL, fallback string) string {
	withoutQuery := rawURL
	if i := strings.IndexByte(withoutQuery, '?'); i >= 0 {
		withoutQuery = withoutQuery[:i]
	}
	parsed, err := url.Parse(withoutQuery)
	if err != nil {
		return fallback
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}

// extractYears pulls 4-digit year tokens, expanding short season ranges
// like "2023-2024" into both endpoints.
func extractYears(text string) map[int]struct{} {
	years := make(map[int]struct{})
	for _, m := range yearTokenRE.FindAllStringSubmatch(text, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil {
			years[y] = struct{}{}
		}
	}
	for _, m := range yearRangeRE.FindAllStringSubmatch(text, -1) {
		a, errA := strconv.Atoi(m[1])
		b, errB := strconv.Atoi(m[2])
		if errA != nil || errB != nil {
			continue
		}
		if a <= b && b-a <= 2 {
			for y := a; y <= b; y++ {
				years[y] = struct{}{}
			}
		}
	}
	return years
}

// matchesTargetYear accepts text that mentions the target year or no
// year at all. Zero year means no filtering.
func matchesTargetYear(text string, year int) bool {
	if year == 0 {
		return true
	}
	years := extractYears(text)
	if len(years) == 0 {
		return true
	}
	_, ok := years[year]
	return ok
}

func urlsOf(files []models.SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.URL
	}
	return out
}
