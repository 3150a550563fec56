// Package pipeline coordinates per-file parsing and the merge reduction
// that produces the final canonical dataset.
package pipeline

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-hunt-reports/models"
	"github.com/aluiziolira/go-hunt-reports/parser"
)

// ErrPipelineClosed is returned when Submit is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// Pipeline fans report files out to parse workers and funnels their
// records into a single-threaded merge reducer. Parsing one file is a
// pure function of its bytes plus the shared override table, so workers
// share no mutable state; the merge table alone does, and only the
// reducer goroutine touches it.
type Pipeline struct {
	overrides map[string]string

	fileCh   chan models.InputFile
	resultCh chan []models.Record
	merger   *Merger

	wg        sync.WaitGroup
	reducerWG sync.WaitGroup

	metrics metrics

	mu     sync.Mutex // guards closed
	closed bool

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a modest in-memory buffer and
// starts its reducer.
func NewPipeline(overrides map[string]string) *Pipeline {
	p := &Pipeline{
		overrides: overrides,
		fileCh:    make(chan models.InputFile, 64),
		resultCh:  make(chan []models.Record, 64),
		merger:    NewMerger(),
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}

	p.reducerWG.Add(1)
	go p.reduce()
	return p
}

// Start launches parse workers.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit enqueues files for parsing.
func (p *Pipeline) Submit(files ...models.InputFile) error {
	for _, f := range files {
		if len(f.Data) == 0 {
			p.metrics.addSkip("empty_file")
			continue
		}
		if err := p.enqueue(f); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for in-flight parses and the reducer to finish. After it
// returns, Records holds the final dataset.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.closeOnce.Do(func() {
		close(p.fileCh)
	})
	p.wg.Wait()

	p.signalShutdown()
	close(p.resultCh)
	p.reducerWG.Wait()
	return nil
}

// Records returns the merged dataset, sorted. Call after Close.
func (p *Pipeline) Records() []models.Record {
	return p.merger.Records()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snap := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Any("files_parsed", snap["files_parsed"]),
					slog.Any("records", snap["records"]),
					slog.Any("skipped_files", snap["skipped_files"]),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	for file := range p.fileCh {
		records, err := parser.ParseFile(file, p.overrides)
		if err != nil {
			p.metrics.addSkip(skipReason(err))
			slog.Warn("skipping file", slog.String("file", file.Name), slog.Any("error", err))
			continue
		}
		p.metrics.addParsed(len(records))
		if len(records) == 0 {
			slog.Debug("no canonical rows", slog.String("file", file.Name))
			continue
		}
		p.resultCh <- records
	}
}

// reduce is the single goroutine allowed to touch the merge table.
func (p *Pipeline) reduce() {
	defer p.reducerWG.Done()
	for records := range p.resultCh {
		p.merger.AddAll(records)
	}
}

func skipReason(err error) string {
	var mapErr *parser.MappingError
	if errors.As(err, &mapErr) {
		return "missing_mappings"
	}
	var structErr *parser.StructuralError
	if errors.As(err, &structErr) {
		return "structure_not_found"
	}
	return "parse_error"
}

func (p *Pipeline) enqueue(file models.InputFile) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPipelineClosed
	}

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.fileCh <- file:
		return nil
	}
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu          sync.Mutex
	filesParsed int64
	records     int64
	skipped     map[string]int
}

func newMetrics() metrics {
	return metrics{
		skipped: make(map[string]int),
	}
}

func (m *metrics) addParsed(records int) {
	m.mu.Lock()
	m.filesParsed++
	m.records += int64(records)
	m.mu.Unlock()
}

func (m *metrics) addSkip(reason string) {
	m.mu.Lock()
	m.skipped[reason]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	skipped := make(map[string]int, len(m.skipped))
	for k, v := range m.skipped {
		skipped[k] = v
	}

	return map[string]interface{}{
		"files_parsed":  m.filesParsed,
		"records":       m.records,
		"skipped_files": skipped,
	}
}
