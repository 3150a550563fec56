package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// ParseCSV normalizes a comma-delimited report with a header row into
// canonical records. A leading byte-order mark is tolerated. Rows whose
// required fields do not coerce are dropped individually.
func ParseCSV(name string, data []byte, fallbackYear int, overrides map[string]string) ([]models.Record, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, &StructuralError{File: name, Reason: "empty file"}
	}
	if err != nil {
		return nil, &StructuralError{File: name, Reason: fmt.Sprintf("unreadable header row: %v", err)}
	}

	cm := InferColumnMap(headers).WithOverrides(overrides)
	if missing := cm.Missing(requiredFields); len(missing) > 0 {
		return nil, &MappingError{File: name, Missing: missing}
	}

	var out []models.Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line; skip it and keep reading.
			continue
		}
		rec, err := CanonicalRow(zipRow(headers, fields), cm, fallbackYear)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// zipRow pairs headers with one line's fields. Short lines leave the
// trailing headers unset; extra fields beyond the header count are
// ignored. Duplicate headers keep the last value, as csv.DictReader does.
func zipRow(headers, fields []string) models.Value {
	keys := make([]string, 0, len(headers))
	values := make(map[string]models.Value, len(headers))
	for i, h := range headers {
		if i >= len(fields) {
			break
		}
		if _, seen := values[h]; !seen {
			keys = append(keys, h)
		}
		values[h] = models.StringValue(strings.TrimSpace(fields[i]))
	}
	return models.ObjectValue(keys, values)
}
