package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aluiziolira/go-hunt-reports/models"
)

func rowFromPairs(t *testing.T, pairs ...string) models.Value {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("pairs must come in key/value couples")
	}
	keys := make([]string, 0, len(pairs)/2)
	fields := make(map[string]models.Value, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		keys = append(keys, pairs[i])
		fields[pairs[i]] = models.StringValue(pairs[i+1])
	}
	return models.ObjectValue(keys, fields)
}

func TestCanonicalRow(t *testing.T) {
	headers := []string{"Game Management Unit", "Species", "Weapon", "Total Applicants", "Permits", "Success %"}
	cm := InferColumnMap(headers)

	row := rowFromPairs(t,
		"Game Management Unit", " 12 ",
		"Species", "Elk",
		"Weapon", "Rifle",
		"Total Applicants", "1,234",
		"Permits", "12",
		"Success %", "34.567%",
	)

	rec, err := CanonicalRow(row, cm, 2024)
	if err != nil {
		t.Fatalf("canonical row: %v", err)
	}

	want := &models.Record{
		Year:              2024,
		Zone:              "12",
		Species:           "Elk",
		Weapon:            "Rifle",
		DrawApplicants:    models.Num(1234),
		DrawTags:          models.Num(12),
		HunterSuccessRate: models.Num(34.57),
	}
	if !reflect.DeepEqual(rec, want) {
		t.Fatalf("record = %+v, want %+v", rec, want)
	}
}

func TestCanonicalRowYearColumnBeatsFallback(t *testing.T) {
	headers := []string{"Year", "Zone", "Species", "Weapon", "Applicants", "Tags", "Success Rate"}
	cm := InferColumnMap(headers)

	row := rowFromPairs(t,
		"Year", "2022",
		"Zone", "34",
		"Species", "Deer",
		"Weapon", "Bow",
		"Applicants", "90",
		"Tags", "10",
		"Success Rate", "20",
	)

	rec, err := CanonicalRow(row, cm, 2024)
	if err != nil {
		t.Fatalf("canonical row: %v", err)
	}
	if rec.Year != 2022 {
		t.Fatalf("year = %d, want 2022", rec.Year)
	}
}

func TestCanonicalRowUnresolvedFields(t *testing.T) {
	headers := []string{"Zone", "Species", "Weapon", "Applicants", "Tags", "Success Rate"}
	cm := InferColumnMap(headers)

	row := rowFromPairs(t,
		"Zone", "12",
		"Species", "Elk",
		"Weapon", "Rifle",
		"Applicants", "N/A",
		"Tags", "",
		"Success Rate", "20",
	)

	_, err := CanonicalRow(row, cm, 2024)
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *CoercionError", err)
	}
	want := []string{FieldDrawApplicants, FieldDrawTags}
	if !reflect.DeepEqual(ce.Fields, want) {
		t.Fatalf("fields = %v, want %v", ce.Fields, want)
	}
}

func TestCanonicalRowNoYearAnywhere(t *testing.T) {
	headers := []string{"Zone", "Species", "Weapon", "Applicants", "Tags", "Success Rate"}
	cm := InferColumnMap(headers)

	row := rowFromPairs(t,
		"Zone", "12",
		"Species", "Elk",
		"Weapon", "Rifle",
		"Applicants", "100",
		"Tags", "5",
		"Success Rate", "20",
	)

	_, err := CanonicalRow(row, cm, 0)
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *CoercionError", err)
	}
	if !reflect.DeepEqual(ce.Fields, []string{FieldYear}) {
		t.Fatalf("fields = %v, want [year]", ce.Fields)
	}
}

func TestCanonicalRowHuntCode(t *testing.T) {
	headers := []string{"Hunt Code", "Zone", "Species", "Weapon", "Applicants", "Tags", "Success Rate"}
	cm := InferColumnMap(headers)

	row := rowFromPairs(t,
		"Hunt Code", " ELK-1-100 ",
		"Zone", "12",
		"Species", "Elk",
		"Weapon", "Rifle",
		"Applicants", "100",
		"Tags", "5",
		"Success Rate", "20",
	)

	rec, err := CanonicalRow(row, cm, 2024)
	if err != nil {
		t.Fatalf("canonical row: %v", err)
	}
	if rec.HuntCode != "ELK-1-100" {
		t.Fatalf("hunt code = %q, want trimmed original", rec.HuntCode)
	}
}
