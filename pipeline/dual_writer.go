package pipeline

import (
	"fmt"
	"sync"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// DualWriter outputs the dataset to both JSON and CSV simultaneously.
type DualWriter struct {
	jsonWriter *JSONWriter
	csvWriter  *CSVWriter
	mu         sync.Mutex
}

// NewDualWriter creates a writer pair for both output formats.
func NewDualWriter(jsonFilename, csvFilename string) (*DualWriter, error) {
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		jsonWriter.Close()
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	return &DualWriter{
		jsonWriter: jsonWriter,
		csvWriter:  csvWriter,
	}, nil
}

// Write writes records in both formats.
func (dw *DualWriter) Write(records []models.Record) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("json write failed: %w", err)
	}
	if err := dw.csvWriter.Write(records); err != nil {
		return fmt.Errorf("csv write failed: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close failed: %w", err))
	}
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.jsonWriter.Validate(); err != nil {
		return fmt.Errorf("json output invalid: %w", err)
	}
	if err := dw.csvWriter.Validate(); err != nil {
		return fmt.Errorf("csv output invalid: %w", err)
	}
	return nil
}
