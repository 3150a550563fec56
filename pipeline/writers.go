package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// OutputWriter persists the final canonical dataset.
type OutputWriter interface {
	Write(records []models.Record) error
	Close() error
	Validate() error
}

// JSONWriter writes the dataset as an indented JSON array, the shape the
// downstream map application consumes.
type JSONWriter struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	return &JSONWriter{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Write emits the whole dataset as one array with a trailing newline.
func (jw *JSONWriter) Write(records []models.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	enc := json.NewEncoder(jw.writer)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []models.Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// csvHeader lists the canonical columns in output order.
var csvHeader = []string{
	"year", "zone", "species", "weapon", "huntCode",
	"drawApplicants", "drawTags", "hunterSuccessRate",
	"season", "gmu", "type", "huntDates", "bagLimit",
	"licensesSold", "huntersReporting", "percentReporting",
	"estimatedBulls", "estimatedCows", "estimatedHarvestTotal",
	"satisfactionRating", "daysHunted",
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []models.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for i := range records {
		if err := cw.writer.Write(csvRecord(&records[i])); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

func csvRecord(r *models.Record) []string {
	return []string{
		strconv.Itoa(r.Year),
		r.Zone,
		r.Species,
		r.Weapon,
		r.HuntCode,
		numCell(r.DrawApplicants),
		numCell(r.DrawTags),
		numCell(r.HunterSuccessRate),
		r.Season,
		r.GMU,
		r.Type,
		r.HuntDates,
		r.BagLimit,
		numCell(r.LicensesSold),
		numCell(r.HuntersReporting),
		numCell(r.PercentReporting),
		numCell(r.EstimatedBulls),
		numCell(r.EstimatedCows),
		numCell(r.EstimatedHarvestTotal),
		numCell(r.SatisfactionRating),
		numCell(r.DaysHunted),
	}
}

func numCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
