package pipeline

import (
	"sort"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// Merger folds candidate records from all processed files into one
// deduplicated dataset. It is the run's only mutable state and must be
// fed from a single goroutine: the field rules are commutative and
// idempotent under sequential application, but not under concurrent
// unsynchronized writes to the same key.
type Merger struct {
	records map[models.Key]*models.Record
}

// NewMerger returns an empty accumulator.
func NewMerger() *Merger {
	return &Merger{records: make(map[models.Key]*models.Record)}
}

// numericFields is the prefer-larger set: later, more complete reports
// supersede partial early counts, and a previously observed higher count
// never regresses.
var numericFields = []struct {
	get func(*models.Record) *float64
	set func(*models.Record, *float64)
}{
	{func(r *models.Record) *float64 { return r.DrawApplicants }, func(r *models.Record, v *float64) { r.DrawApplicants = v }},
	{func(r *models.Record) *float64 { return r.DrawTags }, func(r *models.Record, v *float64) { r.DrawTags = v }},
	{func(r *models.Record) *float64 { return r.LicensesSold }, func(r *models.Record, v *float64) { r.LicensesSold = v }},
	{func(r *models.Record) *float64 { return r.HuntersReporting }, func(r *models.Record, v *float64) { r.HuntersReporting = v }},
	{func(r *models.Record) *float64 { return r.PercentReporting }, func(r *models.Record, v *float64) { r.PercentReporting = v }},
	{func(r *models.Record) *float64 { return r.EstimatedBulls }, func(r *models.Record, v *float64) { r.EstimatedBulls = v }},
	{func(r *models.Record) *float64 { return r.EstimatedCows }, func(r *models.Record, v *float64) { r.EstimatedCows = v }},
	{func(r *models.Record) *float64 { return r.EstimatedHarvestTotal }, func(r *models.Record, v *float64) { r.EstimatedHarvestTotal = v }},
	{func(r *models.Record) *float64 { return r.HunterSuccessRate }, func(r *models.Record, v *float64) { r.HunterSuccessRate = v }},
	{func(r *models.Record) *float64 { return r.SatisfactionRating }, func(r *models.Record, v *float64) { r.SatisfactionRating = v }},
	{func(r *models.Record) *float64 { return r.DaysHunted }, func(r *models.Record, v *float64) { r.DaysHunted = v }},
}

var stringFields = []struct {
	get func(*models.Record) string
	set func(*models.Record, string)
}{
	{func(r *models.Record) string { return r.Zone }, func(r *models.Record, v string) { r.Zone = v }},
	{func(r *models.Record) string { return r.Species }, func(r *models.Record, v string) { r.Species = v }},
	{func(r *models.Record) string { return r.Weapon }, func(r *models.Record, v string) { r.Weapon = v }},
	{func(r *models.Record) string { return r.HuntCode }, func(r *models.Record, v string) { r.HuntCode = v }},
	{func(r *models.Record) string { return r.Season }, func(r *models.Record, v string) { r.Season = v }},
	{func(r *models.Record) string { return r.GMU }, func(r *models.Record, v string) { r.GMU = v }},
	{func(r *models.Record) string { return r.Type }, func(r *models.Record, v string) { r.Type = v }},
	{func(r *models.Record) string { return r.HuntDates }, func(r *models.Record, v string) { r.HuntDates = v }},
	{func(r *models.Record) string { return r.BagLimit }, func(r *models.Record, v string) { r.BagLimit = v }},
}

// Add folds one candidate record into the dataset.
func (m *Merger) Add(rec models.Record) {
	key := rec.MergeKey()
	existing, ok := m.records[key]
	if !ok {
		clone := rec
		m.records[key] = &clone
		return
	}

	for _, f := range numericFields {
		incoming := f.get(&rec)
		if incoming == nil {
			continue
		}
		current := f.get(existing)
		if current == nil || *incoming > *current {
			f.set(existing, incoming)
		}
	}
	for _, f := range stringFields {
		incoming := strings.TrimSpace(f.get(&rec))
		if incoming == "" {
			continue
		}
		if preferNewString(f.get(existing), incoming) {
			f.set(existing, incoming)
		}
	}
}

// AddAll folds a batch.
func (m *Merger) AddAll(recs []models.Record) {
	for _, rec := range recs {
		m.Add(rec)
	}
}

// Len reports the current number of distinct keys.
func (m *Merger) Len() int { return len(m.records) }

// preferNewString favors specific values over the "any"/"unknown"
// placeholders and longer text over terse defaults. Equal-length ties
// keep the current value.
func preferNewString(current, incoming string) bool {
	current = strings.TrimSpace(current)
	if current == "" {
		return true
	}
	currentLower := strings.ToLower(current)
	incomingLower := strings.ToLower(incoming)
	if currentLower == "any" && incomingLower != "any" {
		return true
	}
	if currentLower == "unknown" && incomingLower != "unknown" {
		return true
	}
	return len(incoming) > len(current)
}

// Records returns the merged dataset sorted ascending by
// (year, species, weapon, zone). Records are copied out; the table stays
// untouched for further folding.
func (m *Merger) Records() []models.Record {
	out := make([]models.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Species != b.Species {
			return a.Species < b.Species
		}
		if a.Weapon != b.Weapon {
			return a.Weapon < b.Weapon
		}
		return a.Zone < b.Zone
	})
	return out
}
