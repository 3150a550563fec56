// Package parser turns raw report files in drifting agency schemas into
// canonical hunt records.
package parser

import (
	"regexp"
	"strings"
)

// Canonical field names of the output schema.
const (
	FieldYear              = "year"
	FieldZone              = "zone"
	FieldSpecies           = "species"
	FieldWeapon            = "weapon"
	FieldDrawApplicants    = "drawApplicants"
	FieldDrawTags          = "drawTags"
	FieldHunterSuccessRate = "hunterSuccessRate"
	FieldHuntCode          = "huntCode"
)

// requiredFields must all resolve for a generic row to canonicalize.
var requiredFields = []string{
	FieldZone,
	FieldSpecies,
	FieldWeapon,
	FieldDrawApplicants,
	FieldDrawTags,
	FieldHunterSuccessRate,
}

// canonicalKeys is every key a manual override may target, including the
// harvest passthrough fields.
var canonicalKeys = map[string]struct{}{
	FieldYear: {}, FieldZone: {}, FieldSpecies: {}, FieldWeapon: {},
	FieldDrawApplicants: {}, FieldDrawTags: {}, FieldHunterSuccessRate: {},
	FieldHuntCode: {},
	"season":    {}, "gmu": {}, "type": {}, "huntDates": {}, "bagLimit": {},
	"licensesSold": {}, "huntersReporting": {}, "percentReporting": {},
	"estimatedBulls": {}, "estimatedCows": {}, "estimatedHarvestTotal": {},
	"satisfactionRating": {}, "daysHunted": {},
}

// columnSynonyms maps canonical fields to the normalized header spellings
// agencies have used across years. Matching is exact after normalization;
// the table order is the documented precedence, overrides come last.
var columnSynonyms = map[string][]string{
	FieldYear:    {"year", "season year", "license year"},
	FieldZone:    {"zone", "gmu", "unit", "game management unit", "hunt code zone", "hunt unit"},
	FieldSpecies: {"species", "animal", "game species"},
	FieldWeapon:  {"weapon", "sporting arm", "hunt type", "method"},
	FieldDrawApplicants: {
		"draw applicants",
		"applicants",
		"first choice applicants",
		"total applicants",
		"apps",
	},
	FieldDrawTags: {"draw tags", "tags", "licenses", "permits", "quota", "available licenses"},
	FieldHunterSuccessRate: {
		"hunter success rate",
		"success rate",
		"harvest success",
		"success %",
		"percent success",
	},
	FieldHuntCode: {"hunt code", "huntcode", "code", "hunt"},
}

var headerSpaceRE = regexp.MustCompile(`\s+`)

// NormalizeHeader lowercases, trims, and collapses internal whitespace.
func NormalizeHeader(h string) string {
	return headerSpaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), " ")
}

// ColumnMap associates canonical field names with the raw source header
// that supplies them for one file. Immutable once built.
type ColumnMap map[string]string

// InferColumnMap scans headers in source order and, per canonical field,
// selects the first header whose normalized form equals the field name or
// one of its synonyms. No fuzzy or partial matching.
func InferColumnMap(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	cm := make(ColumnMap)
	for canonical, synonyms := range columnSynonyms {
		for i, nh := range normalized {
			if nh == canonical || contains(synonyms, nh) {
				cm[canonical] = headers[i]
				break
			}
		}
	}
	return cm
}

// WithOverrides layers manual overrides on top of an inferred map.
// An override replaces the inferred entry even when its header is absent
// from the file; the miss surfaces later when the field is read.
func (cm ColumnMap) WithOverrides(overrides map[string]string) ColumnMap {
	if len(overrides) == 0 {
		return cm
	}
	out := make(ColumnMap, len(cm)+len(overrides))
	for k, v := range cm {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Missing returns the given canonical fields that have no mapping yet,
// preserving their order.
func (cm ColumnMap) Missing(fields []string) []string {
	var missing []string
	for _, f := range fields {
		if _, ok := cm[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// ParseOverrides parses the manual override syntax: comma-separated
// canonical=Source Header pairs. Unknown canonical keys and items without
// an equals sign are operator errors, fatal to the whole run.
func ParseOverrides(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, &OverrideError{Item: part, Reason: "expected canonical=Source Header"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if _, known := canonicalKeys[key]; !known {
			return nil, &OverrideError{Item: part, Reason: "unknown canonical key " + key}
		}
		out[key] = value
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
