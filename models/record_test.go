package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMergeKeyNormalization(t *testing.T) {
	a := Record{Year: 2024, Zone: " Unit  12 ", Species: "ELK", Weapon: "Rifle"}
	b := Record{Year: 2024, Zone: "unit 12", Species: "elk", Weapon: " RIFLE"}

	if a.MergeKey() != b.MergeKey() {
		t.Fatalf("keys differ: %+v vs %+v", a.MergeKey(), b.MergeKey())
	}
}

func TestMergeKeyHuntCodeWins(t *testing.T) {
	withCode := Record{Year: 2024, Zone: "12", Species: "Elk", Weapon: "Rifle", HuntCode: "ELK-1-100"}
	key := withCode.MergeKey()

	if key.HuntCode != "elk-1-100" {
		t.Fatalf("hunt code = %q, want %q", key.HuntCode, "elk-1-100")
	}
	if key.Species != "" || key.Weapon != "" {
		t.Fatalf("species/weapon should be zeroed with a hunt code, got %+v", key)
	}

	other := Record{Year: 2024, Zone: "12", Species: "Deer", Weapon: "Bow", HuntCode: " ELK-1-100 "}
	if other.MergeKey() != key {
		t.Fatalf("same hunt code should yield same key")
	}
}

func TestRecordJSONOmitsAbsentNumbers(t *testing.T) {
	rec := Record{Year: 2024, Zone: "12", Species: "Elk", Weapon: "Rifle", DrawApplicants: Num(500)}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `"drawApplicants":500`) {
		t.Fatalf("applicants should marshal without decimal point: %s", out)
	}
	if strings.Contains(out, "drawTags") {
		t.Fatalf("absent numeric should be omitted: %s", out)
	}
	if strings.Contains(out, "huntCode") {
		t.Fatalf("empty hunt code should be omitted: %s", out)
	}
}
