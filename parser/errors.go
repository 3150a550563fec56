package parser

import (
	"fmt"
	"strings"
)

// MappingError reports that a file's headers never resolved the canonical
// fields a format requires. The file is skipped; the run continues.
type MappingError struct {
	File    string
	Missing []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: no column mapping for %s", e.File, strings.Join(e.Missing, ", "))
}

// StructuralError reports that a file's table structure could not be
// located at all (no header row, no worksheet, no matching layout).
type StructuralError struct {
	File   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// CoercionError reports a single row whose required fields could not be
// coerced. The row is dropped; the rest of the file keeps processing.
type CoercionError struct {
	Fields []string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("unresolved fields: %s", strings.Join(e.Fields, ", "))
}

// OverrideError reports a malformed manual column-map override. This is
// operator configuration, so callers treat it as fatal to the run.
type OverrideError struct {
	Item   string
	Reason string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("invalid column-map item %q: %s", e.Item, e.Reason)
}
