package scraper

import (
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-hunt-reports/models"
)

func TestManifestRoundTrip(t *testing.T) {
	d := &Discovery{
		ReportPages: []string{"http://example.test/2024-deer-harvest-report/"},
		Files: []models.SourceFile{
			{URL: "http://example.test/files/harvest_2024.csv", Filename: "harvest_2024.csv", Category: "harvest"},
		},
	}

	filename := filepath.Join(t.TempDir(), "manifest.json")
	m := NewManifest("http://example.test/hunting/", 2024, d)
	if err := m.Save(filename); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadManifest(filename)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Year != 2024 || loaded.Source != "http://example.test/hunting/" {
		t.Fatalf("unexpected manifest: %+v", loaded)
	}
	if len(loaded.ReportPages) != 1 || len(loaded.Files) != 1 {
		t.Fatalf("manifest content lost: %+v", loaded)
	}
	if loaded.Files[0].Filename != "harvest_2024.csv" {
		t.Fatalf("file entry = %+v", loaded.Files[0])
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestManifestSources(t *testing.T) {
	m := &Manifest{
		Files: []models.SourceFile{
			{URL: "http://example.test/files/harvest_2024.csv", Filename: "harvest_2024.csv", Category: "harvest"},
			{URL: "http://example.test/files/harvest_2023.csv", Filename: "harvest_2023.csv", Category: "harvest"},
			{URL: "http://example.test/files/elk_harvest_2024.pdf", Filename: "elk_harvest_2024.pdf", Category: "harvest"},
			{URL: "http://example.test/files/draw_odds.xlsx", Category: "draw"},
		},
	}

	sources := m.Sources(2024, false)
	if len(sources) != 2 {
		t.Fatalf("sources = %+v, want 2024 csv plus undated xlsx", sources)
	}
	if sources[0].Filename != "harvest_2024.csv" {
		t.Fatalf("first source = %+v", sources[0])
	}
	// Missing filenames are recovered from the URL path.
	if sources[1].Filename != "draw_odds.xlsx" {
		t.Fatalf("second source = %+v", sources[1])
	}

	withPDF := m.Sources(2024, true)
	if len(withPDF) != 3 {
		t.Fatalf("sources with pdf = %+v, want 3", withPDF)
	}

	all := m.Sources(0, true)
	if len(all) != 4 {
		t.Fatalf("unfiltered sources = %+v, want all 4", all)
	}
}
