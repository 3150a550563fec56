package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// DetectKind classifies raw bytes, preferring the filename extension and
// falling back to the byte signature.
func DetectKind(name string, data []byte) models.FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return models.KindCSV
	case ".json":
		return models.KindJSON
	case ".xlsx", ".xls":
		return models.KindXLSX
	case ".pdf":
		return models.KindPDF
	}

	head := data
	if len(head) > 8 {
		head = head[:8]
	}
	switch {
	case bytes.HasPrefix(head, []byte("PK")):
		return models.KindXLSX
	case bytes.HasPrefix(head, []byte("%PDF")):
		return models.KindPDF
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return models.KindUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return models.KindJSON
	}
	return models.KindCSV
}

// ParseFile normalizes one report file into canonical records, routing by
// detected kind. Returned errors are the taxonomy types: *MappingError
// and *StructuralError mean "skip this file"; rows that fail coercion are
// already dropped inside the format parsers.
func ParseFile(file models.InputFile, overrides map[string]string) ([]models.Record, error) {
	kind := file.Kind
	if kind == "" || kind == models.KindUnknown {
		kind = DetectKind(file.Name, file.Data)
	}

	switch kind {
	case models.KindCSV:
		return ParseCSV(file.Name, file.Data, file.Year, overrides)
	case models.KindJSON:
		return ParseJSON(file.Name, file.Data, file.Year, overrides)
	case models.KindXLSX:
		return ParseDrawOddsXLSX(file.Name, file.Data, file.Year)
	case models.KindPDF:
		return ParsePDF(file.Name, file.Data, file.Year, overrides)
	default:
		return nil, &StructuralError{File: file.Name, Reason: "unsupported file kind"}
	}
}
