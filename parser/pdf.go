package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// PDF reports arrive as page text; the job here is interpreting the
// resulting lines as a table. Each known layout is a grammar with its own
// signature and extraction rule; layouts are tried in order and new ones
// are added by adding a grammar, not by branching deeper into one.

// pdfLayouts in matching order. The fixed-width harvest layout is more
// specific, so it goes first.
var pdfLayouts = []pdfLayout{
	{name: "harvest-fixed-width", parse: parseHarvestLayout},
	{name: "delimited-table", parse: parseDelimitedTableLayout},
}

type pdfLayout struct {
	name  string
	parse func(name string, lines []string, fallbackYear int, overrides map[string]string) ([]models.Record, bool, error)
}

// ParsePDF extracts page text and runs it through the layout grammars.
func ParsePDF(name string, data []byte, fallbackYear int, overrides map[string]string) ([]models.Record, error) {
	lines, err := ExtractPDFLines(data)
	if err != nil {
		return nil, &StructuralError{File: name, Reason: fmt.Sprintf("text extraction failed: %v", err)}
	}
	return ParsePDFLines(name, lines, fallbackYear, overrides)
}

// ParsePDFLines interprets already-extracted text lines.
func ParsePDFLines(name string, lines []string, fallbackYear int, overrides map[string]string) ([]models.Record, error) {
	if len(lines) == 0 {
		return nil, &StructuralError{File: name, Reason: "no text in document"}
	}
	for _, layout := range pdfLayouts {
		records, matched, err := layout.parse(name, lines, fallbackYear, overrides)
		if err != nil {
			return nil, err
		}
		if matched {
			return records, nil
		}
	}
	return nil, &StructuralError{File: name, Reason: "no tabular layout detected"}
}

var lineSpaceRE = regexp.MustCompile(`\s+`)

// ExtractPDFLines pulls non-blank, whitespace-collapsed text lines from
// every page of a PDF document.
func ExtractPDFLines(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // a torn page should not sink the document
		}
		for _, line := range strings.Split(text, "\n") {
			line = lineSpaceRE.ReplaceAllString(strings.TrimSpace(line), " ")
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// --- generic delimited table layout ---

var (
	tableKeywords = []string{"zone", "unit", "species", "applicants", "permits", "tags", "success"}
	spaceRunRE    = regexp.MustCompile(`\s{2,}`)
)

// parseDelimitedTableLayout finds the first line that looks like a table
// header (comma-separated, or 2+-space column runs, containing a table
// keyword) and reads the following lines with the same separator.
func parseDelimitedTableLayout(name string, lines []string, fallbackYear int, overrides map[string]string) ([]models.Record, bool, error) {
	headerIdx := -1
	splitComma := false
	for idx, line := range lines {
		lower := NormalizeHeader(line)
		if !containsAny(lower, tableKeywords) {
			continue
		}
		if strings.Contains(line, ",") {
			headerIdx = idx
			splitComma = true
			break
		}
		if spaceRunRE.MatchString(line) {
			headerIdx = idx
			break
		}
	}
	if headerIdx < 0 {
		return nil, false, nil
	}

	split := func(line string) []string {
		if splitComma {
			fields, err := csv.NewReader(strings.NewReader(line)).Read()
			if err != nil {
				return nil
			}
			return fields
		}
		parts := spaceRunRE.Split(strings.TrimSpace(line), -1)
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return parts
	}

	headers := split(lines[headerIdx])
	cm := InferColumnMap(headers).WithOverrides(overrides)
	if missing := cm.Missing(requiredFields); len(missing) > 0 {
		return nil, false, &MappingError{File: name, Missing: missing}
	}

	minFields := len(headers) / 2
	if minFields < 2 {
		minFields = 2
	}

	var out []models.Record
	for _, line := range lines[headerIdx+1:] {
		parts := split(line)
		if len(parts) < minFields {
			continue
		}
		for len(parts) < len(headers) {
			parts = append(parts, "")
		}
		if len(parts) > len(headers) {
			folded := strings.Join(parts[len(headers)-1:], " ")
			parts = append(parts[:len(headers)-1], folded)
		}
		rec, err := CanonicalRow(zipRow(headers, parts), cm, fallbackYear)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, true, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// --- fixed-width harvest report layout ---

// harvestRowRE matches one physical line of the fixed-width elk harvest
// report: leading free-text label, hunt code, weapon, dates, bag limit,
// then eight numeric/percentage columns in strict order.
var harvestRowRE = regexp.MustCompile(`(?i)^(?P<label>.*?)\s*` +
	`(?P<huntCode>ELK-\d-\d{3})\s+` +
	`(?P<weapon>archery|muzzleloader|rifle)\s+` +
	`(?P<huntDates>.+?)\s+` +
	`(?P<bagLimit>[A-Z/]+)\s+` +
	`(?P<licensesSold>\d+)\s+` +
	`(?P<huntersReporting>\d+)\s+` +
	`(?P<percentReporting>\d+)%\s+` +
	`(?P<successRate>\d+)%\s+` +
	`(?P<estimatedBulls>\d+)\s+` +
	`(?P<estimatedCows>\d+)\s+` +
	`(?P<satisfactionRating>\d+(?:\.\d+)?)\s+` +
	`(?P<daysHunted>\d+(?:\.\d+)?)\s*$`)

var gmuMarkerRE = regexp.MustCompile(`(?i)\bGMU\s+([0-9]+[A-Z]?)\b`)

// parseHarvestLayout reads the fixed-width post-season harvest report.
// Zone comes from the nearest "GMU <token>" line when the layout uses
// that convention, else from the row's leading label ("REG" when empty).
func parseHarvestLayout(name string, lines []string, fallbackYear int, _ map[string]string) ([]models.Record, bool, error) {
	year := fallbackYear
	if year == 0 {
		if m := filenameYearRE.FindStringSubmatch(name); m != nil {
			year = atoiOrZero(m[1])
		}
	}

	type gmuMarker struct {
		line int
		gmu  string
	}
	var markers []gmuMarker
	for idx, line := range lines {
		if m := gmuMarkerRE.FindStringSubmatch(line); m != nil {
			markers = append(markers, gmuMarker{line: idx, gmu: strings.ToUpper(m[1])})
		}
	}
	closestGMU := func(idx int) string {
		best := ""
		bestDist := -1
		for _, m := range markers {
			dist := idx - m.line
			if dist < 0 {
				dist = -dist
			}
			if bestDist < 0 || dist < bestDist {
				best, bestDist = m.gmu, dist
			}
		}
		return best
	}

	var out []models.Record
	for idx, line := range lines {
		m := harvestRowRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if year == 0 {
			continue
		}
		groups := namedGroups(harvestRowRE, m)

		label := strings.ReplaceAll(strings.TrimSpace(groups["label"]), ".", "")
		if label == "" {
			label = "REG"
		}
		gmu := closestGMU(idx)
		zone := gmu
		if zone == "" {
			zone = label
		}

		bulls := mustFloat(groups["estimatedBulls"])
		cows := mustFloat(groups["estimatedCows"])

		out = append(out, models.Record{
			Year:                  year,
			Season:                fmt.Sprintf("%d-%d", year, year+1),
			Species:               "Elk",
			Zone:                  zone,
			GMU:                   gmu,
			Type:                  label,
			HuntCode:              groups["huntCode"],
			Weapon:                titleCaser.String(strings.ToLower(groups["weapon"])),
			HuntDates:             groups["huntDates"],
			BagLimit:              groups["bagLimit"],
			LicensesSold:          models.Num(mustFloat(groups["licensesSold"])),
			HuntersReporting:      models.Num(mustFloat(groups["huntersReporting"])),
			PercentReporting:      models.Num(mustFloat(groups["percentReporting"])),
			HunterSuccessRate:     models.Num(mustFloat(groups["successRate"])),
			EstimatedBulls:        models.Num(bulls),
			EstimatedCows:         models.Num(cows),
			EstimatedHarvestTotal: models.Num(bulls + cows),
			SatisfactionRating:    models.Num(mustFloat(groups["satisfactionRating"])),
			DaysHunted:            models.Num(mustFloat(groups["daysHunted"])),
		})
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return groups
}

func mustFloat(s string) float64 {
	n, _ := CoerceNumberText(s)
	return n
}

func atoiOrZero(s string) int {
	n, _ := CoerceNumberText(s)
	return int(n)
}
