// Package models defines the data shapes shared across the pipeline.
package models

import (
	"regexp"
	"strings"
)

// Record is one canonical hunt/draw entry, the unit of output.
//
// Draw fields come from draw-odds reports, harvest fields from
// post-season harvest reports; the merge engine folds both kinds of
// source into one record per merge key. Numeric fields are pointers so
// "not reported" stays distinguishable from zero.
type Record struct {
	Year    int    `json:"year"`
	Zone    string `json:"zone"`
	Species string `json:"species"`
	Weapon  string `json:"weapon"`

	HuntCode string `json:"huntCode,omitempty"`

	DrawApplicants    *float64 `json:"drawApplicants,omitempty"`
	DrawTags          *float64 `json:"drawTags,omitempty"`
	HunterSuccessRate *float64 `json:"hunterSuccessRate,omitempty"`

	// Harvest passthrough fields, present only when the source had them.
	Season                string   `json:"season,omitempty"`
	GMU                   string   `json:"gmu,omitempty"`
	Type                  string   `json:"type,omitempty"`
	HuntDates             string   `json:"huntDates,omitempty"`
	BagLimit              string   `json:"bagLimit,omitempty"`
	LicensesSold          *float64 `json:"licensesSold,omitempty"`
	HuntersReporting      *float64 `json:"huntersReporting,omitempty"`
	PercentReporting      *float64 `json:"percentReporting,omitempty"`
	EstimatedBulls        *float64 `json:"estimatedBulls,omitempty"`
	EstimatedCows         *float64 `json:"estimatedCows,omitempty"`
	EstimatedHarvestTotal *float64 `json:"estimatedHarvestTotal,omitempty"`
	SatisfactionRating    *float64 `json:"satisfactionRating,omitempty"`
	DaysHunted            *float64 `json:"daysHunted,omitempty"`
}

// Num is shorthand for building optional numeric fields.
func Num(v float64) *float64 { return &v }

// Key identifies which real-world hunt entry a record describes.
// When a hunt code is present it wins; species and weapon only
// participate for records without one.
type Key struct {
	Year     int
	Zone     string
	HuntCode string
	Species  string
	Weapon   string
}

var keySpaceRE = regexp.MustCompile(`\s+`)

// normKeyText trims, lowercases and collapses internal whitespace.
func normKeyText(s string) string {
	return keySpaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// MergeKey derives the record's identity tuple.
func (r *Record) MergeKey() Key {
	zone := normKeyText(r.Zone)
	if code := normKeyText(r.HuntCode); code != "" {
		return Key{Year: r.Year, Zone: zone, HuntCode: code}
	}
	return Key{
		Year:    r.Year,
		Zone:    zone,
		Species: normKeyText(r.Species),
		Weapon:  normKeyText(r.Weapon),
	}
}
