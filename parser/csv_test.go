package parser

import (
	"errors"
	"testing"
)

func TestParseCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbf" +
		"Game Management Unit,Species,Weapon,Total Applicants,Permits,Success %\n" +
		"12,Elk,Rifle,\"1,234\",12,34.5%\n" +
		"34,Deer,Bow,90,10,20\n")

	records, err := ParseCSV("draw.csv", data, 2024, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	first := records[0]
	if first.Zone != "12" || first.Species != "Elk" || first.Weapon != "Rifle" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if *first.DrawApplicants != 1234 || *first.DrawTags != 12 || *first.HunterSuccessRate != 34.5 {
		t.Fatalf("unexpected numerics: %+v", first)
	}
	if first.Year != 2024 {
		t.Fatalf("year = %d, want fallback 2024", first.Year)
	}
}

func TestParseCSVDropsBadRows(t *testing.T) {
	data := []byte("Zone,Species,Weapon,Applicants,Tags,Success Rate\n" +
		"12,Elk,Rifle,100,5,20\n" +
		"34,Deer,Bow,N/A,10,20\n" + // applicants unresolved
		"56,Elk,Muzzleloader,80,4,15\n")

	records, err := ParseCSV("draw.csv", data, 2024, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (bad row dropped)", len(records))
	}
	if records[0].Zone != "12" || records[1].Zone != "56" {
		t.Fatalf("unexpected survivors: %+v", records)
	}
}

func TestParseCSVMissingMappings(t *testing.T) {
	data := []byte("Zone,Species\n12,Elk\n")

	_, err := ParseCSV("draw.csv", data, 2024, nil)
	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MappingError", err)
	}
	if len(me.Missing) != 4 {
		t.Fatalf("missing = %v, want 4 fields", me.Missing)
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, err := ParseCSV("draw.csv", nil, 2024, nil)
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StructuralError", err)
	}
}

func TestParseCSVOverrides(t *testing.T) {
	data := []byte("Unit Code,Species,Weapon,Applicants,Tags,Success Rate\n" +
		"12,Elk,Rifle,100,5,20\n")

	_, err := ParseCSV("draw.csv", data, 2024, nil)
	if err == nil {
		t.Fatalf("expected mapping error without override")
	}

	records, err := ParseCSV("draw.csv", data, 2024, map[string]string{FieldZone: "Unit Code"})
	if err != nil {
		t.Fatalf("parse with override: %v", err)
	}
	if len(records) != 1 || records[0].Zone != "12" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestZipRowShortLine(t *testing.T) {
	row := zipRow([]string{"a", "b", "c"}, []string{"1", "2"})

	if !row.Has("a") || !row.Has("b") {
		t.Fatalf("expected first two fields present")
	}
	if row.Has("c") {
		t.Fatalf("unset trailing header should be absent")
	}
}
