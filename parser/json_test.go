package parser

import (
	"errors"
	"testing"
)

func TestParseJSONNestedDrawReport(t *testing.T) {
	data := []byte(`[
		{
			"year": 2024,
			"species": "Elk",
			"huntCode": "ELK-1-100",
			"unitDescription": "Unit 12: north of the river",
			"applicants": {"huntTotal": {"total": 500}},
			"allocation": {"licensesByResidency": {"total": 12}}
		},
		{
			"year": 2024,
			"species": "Elk",
			"huntCode": "ELK-1-101",
			"applicants": 90,
			"licenses": 10
		}
	]`)

	records, err := ParseJSON("draw.json", data, 0, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	first := records[0]
	if first.Zone != "12" {
		t.Fatalf("zone = %q, want unit number from description", first.Zone)
	}
	if first.HuntCode != "ELK-1-100" || first.Weapon != "Any" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if *first.DrawApplicants != 500 || *first.DrawTags != 12 || *first.HunterSuccessRate != 0 {
		t.Fatalf("unexpected numerics: %+v", first)
	}

	second := records[1]
	if second.Zone != "ELK-1-101" {
		t.Fatalf("zone without description should fall back to hunt code, got %q", second.Zone)
	}
	if *second.DrawApplicants != 90 || *second.DrawTags != 10 {
		t.Fatalf("flat applicants/licenses should be used: %+v", second)
	}
}

func TestParseJSONHarvestReport(t *testing.T) {
	data := []byte(`{"rows": [
		{
			"year": 2024,
			"gmu": "15",
			"species": "Elk",
			"weapon": "Rifle",
			"hunterSuccessRate": "22.5%",
			"licensesSold": 1200,
			"estimatedBulls": 80,
			"estimatedCows": 40,
			"estimatedHarvestTotal": 120,
			"bagLimit": "MB"
		}
	]}`)

	records, err := ParseJSON("harvest.json", data, 0, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Zone != "15" || rec.GMU != "15" {
		t.Fatalf("gmu should supply the zone: %+v", rec)
	}
	if *rec.HunterSuccessRate != 22.5 {
		t.Fatalf("success = %v, want 22.5", *rec.HunterSuccessRate)
	}
	if rec.DrawApplicants != nil || rec.DrawTags != nil {
		t.Fatalf("harvest rows carry no draw numbers: %+v", rec)
	}
	if *rec.LicensesSold != 1200 || *rec.EstimatedHarvestTotal != 120 || rec.BagLimit != "MB" {
		t.Fatalf("passthrough fields lost: %+v", rec)
	}
}

func TestParseJSONGenericRows(t *testing.T) {
	data := []byte(`{"data": [
		{"Zone": "12", "Species": "Elk", "Weapon": "Rifle", "Applicants": "1,234", "Tags": 12, "Success Rate": "34.5"}
	]}`)

	records, err := ParseJSON("generic.json", data, 2024, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Zone != "12" || *rec.DrawApplicants != 1234 || *rec.HunterSuccessRate != 34.5 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParseJSONStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `{"rows": [`},
		{name: "no rows", data: `{"meta": {"count": 0}}`},
		{name: "scalar", data: `42`},
		{name: "empty array", data: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON("bad.json", []byte(tt.data), 2024, nil)
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StructuralError", err)
			}
		})
	}
}

func TestParseJSONRowsMissingYearDropped(t *testing.T) {
	data := []byte(`[
		{"huntCode": "ELK-1-100", "applicants": 50, "licenses": 5},
		{"huntCode": "ELK-1-101", "applicants": 90, "licenses": 10, "year": 2023}
	]`)

	records, err := ParseJSON("draw.json", data, 0, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (yearless row dropped)", len(records))
	}
	if records[0].Year != 2023 {
		t.Fatalf("year = %d, want 2023", records[0].Year)
	}
}
