package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// Draw-odds workbooks are read straight from the package: shared-string
// table plus each worksheet's row/cell XML. No spreadsheet engine.

var (
	unitTokenRE    = regexp.MustCompile(`(?i)\bUnit\s+([0-9A-Za-z]+)`)
	filenameYearRE = regexp.MustCompile(`(20\d{2})`)

	titleCaser = cases.Title(language.English)
)

type sharedStringsXML struct {
	Items []sharedStringItem `xml:"si"`
}

type sharedStringItem struct {
	Text *string `xml:"t"`
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (si sharedStringItem) value() string {
	if si.Text != nil {
		return *si.Text
	}
	var b strings.Builder
	for _, run := range si.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Type  string `xml:"t,attr"`
			Value string `xml:"v"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// readWorkbookRows extracts every worksheet's rows as positional string
// cells, resolving string-typed cells through the shared-string index.
func readWorkbookRows(name string, data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &StructuralError{File: name, Reason: fmt.Sprintf("not a spreadsheet package: %v", err)}
	}

	var shared []string
	var sheetNames []string
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetNames = append(sheetNames, f.Name)
		}
	}
	sort.Strings(sheetNames)

	if f, ok := files["xl/sharedStrings.xml"]; ok {
		var sst sharedStringsXML
		if err := unmarshalZipEntry(f, &sst); err != nil {
			return nil, &StructuralError{File: name, Reason: fmt.Sprintf("bad shared strings: %v", err)}
		}
		shared = make([]string, len(sst.Items))
		for i, si := range sst.Items {
			shared[i] = si.value()
		}
	}

	var rows [][]string
	for _, sheetName := range sheetNames {
		var sheet worksheetXML
		if err := unmarshalZipEntry(files[sheetName], &sheet); err != nil {
			return nil, &StructuralError{File: name, Reason: fmt.Sprintf("bad worksheet %s: %v", sheetName, err)}
		}
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for i, c := range row.Cells {
				value := c.Value
				if c.Type == "s" {
					if idx, err := strconv.Atoi(value); err == nil && idx >= 0 && idx < len(shared) {
						value = shared[idx]
					}
				}
				cells[i] = value
			}
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

func unmarshalZipEntry(f *zip.File, out any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(out)
}

// ParseDrawOddsXLSX normalizes a draw-odds workbook. The header row is
// located by its hunt / unit/description / permits tokens; the total
// applicants column is the first one right of permits headed "t".
// ALL-CAPS rows set the species context for the rows that follow.
func ParseDrawOddsXLSX(name string, data []byte, fallbackYear int) ([]models.Record, error) {
	rows, err := readWorkbookRows(name, data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &StructuralError{File: name, Reason: "workbook has no rows"}
	}

	headerIdx := -1
	for idx, row := range rows {
		norm := make(map[string]bool, len(row))
		for _, c := range row {
			norm[NormalizeHeader(c)] = true
		}
		if norm["hunt"] && norm["unit/description"] && norm["permits"] {
			headerIdx = idx
			break
		}
	}
	if headerIdx < 0 {
		return nil, &StructuralError{File: name, Reason: "draw-odds header row not found"}
	}

	header := make([]string, len(rows[headerIdx]))
	for i, c := range rows[headerIdx] {
		header[i] = NormalizeHeader(c)
	}
	huntCol := indexOf(header, "hunt")
	unitCol := indexOf(header, "unit/description")
	permitsCol := indexOf(header, "permits")

	totalAppsCol := -1
	for i := permitsCol + 1; i < len(header); i++ {
		if header[i] == "t" {
			totalAppsCol = i
			break
		}
	}
	if totalAppsCol < 0 {
		return nil, &StructuralError{File: name, Reason: "total-applicants column not found"}
	}

	year := fallbackYear
	if year == 0 {
		if m := filenameYearRE.FindStringSubmatch(name); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
	}

	var out []models.Record
	currentSpecies := "Unknown"
	for _, row := range rows[headerIdx+1:] {
		if blankRow(row) {
			continue
		}
		first := ""
		if len(row) > 0 {
			first = strings.TrimSpace(row[0])
		}
		if isSpeciesMarker(first) {
			currentSpecies = titleCaser.String(strings.ToLower(first))
			continue
		}

		huntCode := strings.TrimSpace(cellAt(row, huntCol))
		unitText := strings.TrimSpace(cellAt(row, unitCol))
		permits, permitsOK := CoerceNumberText(cellAt(row, permitsCol))
		applicants, applicantsOK := CoerceNumberText(cellAt(row, totalAppsCol))
		if huntCode == "" || !permitsOK || !applicantsOK {
			continue
		}
		if year == 0 {
			continue
		}

		zone := unitText
		if zone == "" {
			zone = huntCode
		}
		if m := unitTokenRE.FindStringSubmatch(unitText); m != nil {
			zone = m[1]
		}

		out = append(out, models.Record{
			Year:              year,
			Zone:              zone,
			HuntCode:          huntCode,
			Species:           currentSpecies,
			Weapon:            "Any",
			DrawApplicants:    models.Num(math.Round(applicants)),
			DrawTags:          models.Num(math.Round(permits)),
			HunterSuccessRate: models.Num(0), // draw-odds files carry no harvest outcome
		})
	}
	return out, nil
}

// isSpeciesMarker reports whether a first cell is an all-uppercase
// alphabetic species heading such as "ELK" or "PRONGHORN".
func isSpeciesMarker(s string) bool {
	if len(s) <= 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func indexOf(list []string, s string) int {
	for i, item := range list {
		if item == s {
			return i
		}
	}
	return -1
}
