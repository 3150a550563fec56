package parser

import (
	"math"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// CanonicalRow converts one raw row into a canonical record through the
// column map. fallbackYear (zero = none) supplies the year when the row
// has no usable year column. A *CoercionError names the required fields
// that did not resolve; such rows are dropped, the file continues.
func CanonicalRow(row models.Value, cm ColumnMap, fallbackYear int) (*models.Record, error) {
	get := func(field string) models.Value {
		source, ok := cm[field]
		if !ok {
			return models.Null
		}
		v, _ := row.Field(source)
		return v
	}
	text := func(field string) (string, bool) {
		v := get(field)
		if v.IsNull() {
			return "", false
		}
		return v.Text(), true
	}

	zone, zoneOK := text(FieldZone)
	species, speciesOK := text(FieldSpecies)
	weapon, weaponOK := text(FieldWeapon)
	applicants, applicantsOK := CoerceNumber(get(FieldDrawApplicants))
	tags, tagsOK := CoerceNumber(get(FieldDrawTags))
	success, successOK := CoerceNumber(get(FieldHunterSuccessRate))

	var unresolved []string
	for _, miss := range []struct {
		field string
		ok    bool
	}{
		{FieldZone, zoneOK},
		{FieldSpecies, speciesOK},
		{FieldWeapon, weaponOK},
		{FieldDrawApplicants, applicantsOK},
		{FieldDrawTags, tagsOK},
		{FieldHunterSuccessRate, successOK},
	} {
		if !miss.ok {
			unresolved = append(unresolved, miss.field)
		}
	}
	if len(unresolved) > 0 {
		return nil, &CoercionError{Fields: unresolved}
	}

	year := fallbackYear
	if y, ok := CoerceNumber(get(FieldYear)); ok {
		year = int(y)
	}
	if year == 0 {
		return nil, &CoercionError{Fields: []string{FieldYear}}
	}

	rec := &models.Record{
		Year:              year,
		Zone:              strings.TrimSpace(zone),
		Species:           strings.TrimSpace(species),
		Weapon:            strings.TrimSpace(weapon),
		DrawApplicants:    models.Num(math.Round(applicants)),
		DrawTags:          models.Num(math.Round(tags)),
		HunterSuccessRate: models.Num(round2(success)),
	}
	if code, ok := text(FieldHuntCode); ok {
		if code = strings.TrimSpace(code); code != "" {
			rec.HuntCode = code
		}
	}
	return rec, nil
}
