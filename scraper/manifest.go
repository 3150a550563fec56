package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// Manifest records the outcome of a discovery run so downloads can be
// replayed or audited without re-crawling the agency site.
type Manifest struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Source      string              `json:"source"`
	Year        int                 `json:"year,omitempty"`
	ReportPages []string            `json:"reportPages"`
	Files       []models.SourceFile `json:"files"`
}

// NewManifest builds a manifest from a discovery result.
func NewManifest(source string, year int, d *Discovery) *Manifest {
	return &Manifest{
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Year:        year,
		ReportPages: d.ReportPages,
		Files:       d.Files,
	}
}

// LoadManifest reads a manifest previously written by Save.
func LoadManifest(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, err)
	}
	return &m, nil
}

// Save writes the manifest as indented JSON.
func (m *Manifest) Save(filename string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", filename, err)
	}
	return nil
}

// Sources returns the manifest files worth downloading for a run. A zero
// year keeps everything; otherwise files are kept when their URL or
// filename mentions the year, or mentions no year at all. PDF files are
// skipped unless includePDF is set.
func (m *Manifest) Sources(year int, includePDF bool) []models.SourceFile {
	out := make([]models.SourceFile, 0, len(m.Files))
	for _, f := range m.Files {
		name := f.Filename
		if name == "" {
			name = guessFilename(f.URL, "")
		}
		if !includePDF && strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		if !matchesTargetYear(f.URL+" "+name, year) {
			continue
		}
		kept := f
		kept.Filename = name
		out = append(out, kept)
	}
	return out
}
