package parser

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Game  Management\tUnit ", want: "game management unit"},
		{in: "Success %", want: "success %"},
		{in: "ZONE", want: "zone"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.in); got != tt.want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInferColumnMapSynonyms(t *testing.T) {
	headers := []string{"Game Management Unit", "Species", "Weapon", "Total Applicants", "Permits", "Success %"}

	cm := InferColumnMap(headers)

	want := ColumnMap{
		FieldZone:              "Game Management Unit",
		FieldSpecies:           "Species",
		FieldWeapon:            "Weapon",
		FieldDrawApplicants:    "Total Applicants",
		FieldDrawTags:          "Permits",
		FieldHunterSuccessRate: "Success %",
	}
	if !reflect.DeepEqual(cm, want) {
		t.Fatalf("map = %v, want %v", cm, want)
	}
	if missing := cm.Missing(requiredFields); missing != nil {
		t.Fatalf("missing = %v, want none", missing)
	}
}

func TestInferColumnMapFirstMatchInSourceOrder(t *testing.T) {
	// Both "GMU" and "Unit" are zone synonyms; the earlier header wins.
	cm := InferColumnMap([]string{"GMU", "Unit"})

	if got := cm[FieldZone]; got != "GMU" {
		t.Fatalf("zone = %q, want %q", got, "GMU")
	}
}

func TestInferColumnMapReportsMissing(t *testing.T) {
	cm := InferColumnMap([]string{"Zone", "Species"})

	missing := cm.Missing(requiredFields)
	want := []string{FieldWeapon, FieldDrawApplicants, FieldDrawTags, FieldHunterSuccessRate}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
}

func TestWithOverridesBeatsInference(t *testing.T) {
	cm := InferColumnMap([]string{"Zone", "Unit Code"})
	if got := cm[FieldZone]; got != "Zone" {
		t.Fatalf("inferred zone = %q, want %q", got, "Zone")
	}

	layered := cm.WithOverrides(map[string]string{FieldZone: "Unit Code"})
	if got := layered[FieldZone]; got != "Unit Code" {
		t.Fatalf("overridden zone = %q, want %q", got, "Unit Code")
	}
	// Original map is untouched.
	if got := cm[FieldZone]; got != "Zone" {
		t.Fatalf("base map mutated: zone = %q", got)
	}
}

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides("zone=Unit Code, drawTags = Permits Issued")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := map[string]string{
		FieldZone:     "Unit Code",
		FieldDrawTags: "Permits Issued",
	}
	if !reflect.DeepEqual(overrides, want) {
		t.Fatalf("overrides = %v, want %v", overrides, want)
	}
}

func TestParseOverridesEmpty(t *testing.T) {
	overrides, err := ParseOverrides("   ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if overrides != nil {
		t.Fatalf("overrides = %v, want nil", overrides)
	}
}

func TestParseOverridesErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing equals", raw: "zoneUnit Code"},
		{name: "unknown key", raw: "zones=Unit Code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOverrides(tt.raw)
			var oe *OverrideError
			if !errors.As(err, &oe) {
				t.Fatalf("err = %v, want *OverrideError", err)
			}
		})
	}
}
