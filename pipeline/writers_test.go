package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-hunt-reports/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{
			Year:              2024,
			Zone:              "12",
			Species:           "Elk",
			Weapon:            "Rifle",
			HuntCode:          "ELK-1-100",
			DrawApplicants:    models.Num(500),
			DrawTags:          models.Num(12),
			HunterSuccessRate: models.Num(34.5),
		},
		{
			Year:    2024,
			Zone:    "34",
			Species: "Deer",
			Weapon:  "Bow",
		},
	}
}

func TestJSONWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out", "records.json")

	w, err := NewJSONWriter(filename)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var decoded []models.Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded = %d records, want 2", len(decoded))
	}
	if decoded[0].HuntCode != "ELK-1-100" || *decoded[0].DrawApplicants != 500 {
		t.Fatalf("unexpected first record: %+v", decoded[0])
	}
	if strings.Contains(string(data), "drawTags\": null") {
		t.Fatalf("absent numerics must be omitted, not null")
	}
	if !strings.Contains(string(data), `"drawApplicants": 500`) {
		t.Fatalf("integral numerics should print without decimals: %s", data)
	}
}

func TestJSONWriterEmptyDataset(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "records.json")

	w, err := NewJSONWriter(filename)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("empty dataset should serialize as [], got %q", data)
	}
}

func TestCSVWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "records.csv")

	w, err := NewCSVWriter(filename)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "year" || rows[0][4] != "huntCode" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "2024" || rows[1][5] != "500" || rows[1][7] != "34.5" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	// Absent numerics stay empty cells.
	if rows[2][5] != "" || rows[2][7] != "" {
		t.Fatalf("absent numerics should be empty: %v", rows[2])
	}
}

func TestDualWriter(t *testing.T) {
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "records.json")
	csvFile := filepath.Join(dir, "records.csv")

	w, err := NewDualWriter(jsonFile, csvFile)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, filename := range []string{jsonFile, csvFile} {
		info, err := os.Stat(filename)
		if err != nil {
			t.Fatalf("stat %s: %v", filename, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", filename)
		}
	}
}
