package parser

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// rowContainerKeys are probed in order when the payload is an object
// instead of a bare array of rows.
var rowContainerKeys = []string{"rows", "data", "results", "items"}

var unitsRE = regexp.MustCompile(`(?i)\bUnits?\s+([^:]+)`)

// harvestPassthrough lists the harvest-report fields carried through to
// the canonical record unchanged when present and non-empty.
var harvestPassthrough = []string{
	"season",
	"gmu",
	"type",
	"huntCode",
	"huntDates",
	"bagLimit",
	"licensesSold",
	"huntersReporting",
	"percentReporting",
	"estimatedBulls",
	"estimatedCows",
	"estimatedHarvestTotal",
	"satisfactionRating",
	"daysHunted",
}

// ParseJSON normalizes a JSON report. Nested draw-report payloads and
// harvest payloads have dedicated extractors; anything else goes through
// generic header-based mapping with harvest extraction as a row-level
// fallback.
func ParseJSON(name string, data []byte, fallbackYear int, overrides map[string]string) ([]models.Record, error) {
	payload, err := models.ParseValue(data)
	if err != nil {
		return nil, &StructuralError{File: name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	rows := extractRows(payload)
	if len(rows) == 0 {
		return nil, &StructuralError{File: name, Reason: "no row array found"}
	}

	if isNestedDrawReport(rows) {
		var out []models.Record
		for _, row := range rows {
			if rec := nestedDrawRow(row, fallbackYear); rec != nil {
				out = append(out, *rec)
			}
		}
		return out, nil
	}

	cm := InferColumnMap(rows[0].Keys()).WithOverrides(overrides)

	var out []models.Record
	for _, row := range rows {
		// Harvest-specific fields keep their full context instead of
		// collapsing to the draw-only canonical shape.
		if row.Has("licensesSold") || row.Has("estimatedHarvestTotal") {
			if rec := harvestRow(row, fallbackYear); rec != nil {
				out = append(out, *rec)
				continue
			}
		}

		if rec, err := CanonicalRow(row, cm, fallbackYear); err == nil {
			out = append(out, *rec)
			continue
		}

		if rec := harvestRow(row, fallbackYear); rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// extractRows finds the object rows in a payload: either a top-level
// array, or the first present container key holding one.
func extractRows(payload models.Value) []models.Value {
	objectsOf := func(v models.Value) []models.Value {
		var rows []models.Value
		for _, item := range v.Items() {
			if item.Kind() == models.KindObject {
				rows = append(rows, item)
			}
		}
		return rows
	}

	switch payload.Kind() {
	case models.KindArray:
		return objectsOf(payload)
	case models.KindObject:
		for _, key := range rowContainerKeys {
			if child, ok := payload.Field(key); ok && child.Kind() == models.KindArray {
				return objectsOf(child)
			}
		}
	}
	return nil
}

// isNestedDrawReport samples the first rows (at most 10) and reports
// whether every one carries both huntCode and applicants keys.
func isNestedDrawReport(rows []models.Value) bool {
	sample := rows
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, row := range sample {
		if !row.Has("huntCode") || !row.Has("applicants") {
			return false
		}
	}
	return true
}

// nestedDrawRow extracts a draw-report row shaped like
// {year, species, huntCode, unitDescription, licenses,
// applicants:{huntTotal:{total}}, allocation:{licensesByResidency:{total}}}.
func nestedDrawRow(row models.Value, fallbackYear int) *models.Record {
	huntCode := strings.TrimSpace(fieldText(row, "huntCode"))
	if huntCode == "" {
		return nil
	}

	year := fallbackYear
	if y, ok := CoerceNumber(fieldValue(row, "year")); ok {
		year = int(y)
	}
	if year == 0 {
		return nil
	}

	species := strings.TrimSpace(fieldText(row, "species"))
	if species == "" {
		species = "Unknown"
	}
	unitDescription := strings.TrimSpace(fieldText(row, "unitDescription"))

	applicants, applicantsOK := CoerceNumber(nestedField(row, "applicants", "huntTotal", "total"))
	if !applicantsOK {
		applicants, applicantsOK = CoerceNumber(fieldValue(row, "applicants"))
	}

	licenses, licensesOK := CoerceNumber(fieldValue(row, "licenses"))
	tags, tagsOK := CoerceNumber(nestedField(row, "allocation", "licensesByResidency", "total"))
	if !tagsOK {
		tags, tagsOK = licenses, licensesOK
	}
	if !applicantsOK {
		applicants, applicantsOK = licenses, licensesOK
	}
	if !applicantsOK || !tagsOK {
		return nil
	}

	zone := unitDescription
	if zone == "" {
		zone = huntCode
	}
	if m := unitsRE.FindStringSubmatch(unitDescription); m != nil {
		zone = strings.TrimSpace(m[1])
	}

	return &models.Record{
		Year:              year,
		Zone:              zone,
		HuntCode:          huntCode,
		Species:           species,
		Weapon:            "Any",
		DrawApplicants:    models.Num(math.Round(applicants)),
		DrawTags:          models.Num(math.Round(tags)),
		HunterSuccessRate: models.Num(0), // pending a harvest merge
	}
}

// harvestRow extracts a harvest-report row, where draw applicant counts
// are unknown. Requires a zone (or gmu) and a parsable success rate.
func harvestRow(row models.Value, fallbackYear int) *models.Record {
	year := fallbackYear
	if y, ok := CoerceNumber(fieldValue(row, "year")); ok {
		year = int(y)
	}
	if year == 0 {
		return nil
	}

	zone := strings.TrimSpace(fieldText(row, "zone"))
	if zone == "" {
		zone = strings.TrimSpace(fieldText(row, "gmu"))
	}
	success, successOK := CoerceNumber(fieldValue(row, "hunterSuccessRate"))
	if zone == "" || !successOK {
		return nil
	}

	species := strings.TrimSpace(fieldText(row, "species"))
	if species == "" {
		species = "Unknown"
	}
	weapon := strings.TrimSpace(fieldText(row, "weapon"))
	if weapon == "" {
		weapon = "Any"
	}

	rec := &models.Record{
		Year:              year,
		Zone:              zone,
		Species:           species,
		Weapon:            weapon,
		HunterSuccessRate: models.Num(round2(success)),
	}
	for _, key := range harvestPassthrough {
		v, ok := row.Field(key)
		if !ok || v.Empty() {
			continue
		}
		setPassthrough(rec, key, v)
	}
	return rec
}

// setPassthrough assigns one enumerated passthrough field on the record.
func setPassthrough(rec *models.Record, key string, v models.Value) {
	switch key {
	case "season":
		rec.Season = v.Text()
	case "gmu":
		rec.GMU = v.Text()
	case "type":
		rec.Type = v.Text()
	case "huntCode":
		rec.HuntCode = strings.TrimSpace(v.Text())
	case "huntDates":
		rec.HuntDates = v.Text()
	case "bagLimit":
		rec.BagLimit = v.Text()
	default:
		n, ok := CoerceNumber(v)
		if !ok {
			return
		}
		switch key {
		case "licensesSold":
			rec.LicensesSold = models.Num(n)
		case "huntersReporting":
			rec.HuntersReporting = models.Num(n)
		case "percentReporting":
			rec.PercentReporting = models.Num(n)
		case "estimatedBulls":
			rec.EstimatedBulls = models.Num(n)
		case "estimatedCows":
			rec.EstimatedCows = models.Num(n)
		case "estimatedHarvestTotal":
			rec.EstimatedHarvestTotal = models.Num(n)
		case "satisfactionRating":
			rec.SatisfactionRating = models.Num(n)
		case "daysHunted":
			rec.DaysHunted = models.Num(n)
		}
	}
}

func fieldValue(row models.Value, key string) models.Value {
	v, _ := row.Field(key)
	return v
}

func fieldText(row models.Value, key string) string {
	return fieldValue(row, key).Text()
}

func nestedField(row models.Value, path ...string) models.Value {
	v := row
	for _, key := range path {
		child, ok := v.Field(key)
		if !ok {
			return models.Null
		}
		v = child
	}
	return v
}
