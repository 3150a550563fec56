package models

import "time"

// FileKind tags the detected raw format of a source file.
type FileKind string

const (
	KindCSV     FileKind = "csv"
	KindJSON    FileKind = "json"
	KindXLSX    FileKind = "xlsx"
	KindPDF     FileKind = "pdf"
	KindUnknown FileKind = "unknown"
)

// SourceFile is a downloadable report discovered on an agency page.
type SourceFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Category string `json:"category,omitempty"` // draw, harvest, or other
}

// InputFile is one already-fetched report handed to the pipeline.
// Year is the fallback output year; zero means none available.
type InputFile struct {
	Name string
	Kind FileKind
	Data []byte
	Year int
}

// RunResult summarizes one end-to-end run for the final report.
type RunResult struct {
	StartTime      time.Time
	EndTime        time.Time
	PagesCrawled   int
	FilesFound     int
	FilesFetched   int
	FailedURLs     []string
	RetryCount     int
	RecordsWritten int
}
