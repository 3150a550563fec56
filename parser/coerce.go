package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-hunt-reports/models"
)

// CoerceNumber recovers a float from the textual encodings report cells
// use: "1,234", "87%", plain numbers. Empty or non-numeric text is
// unresolved, reported by ok=false.
func CoerceNumber(v models.Value) (float64, bool) {
	if n, ok := v.Number(); ok {
		return n, true
	}
	return CoerceNumberText(v.Text())
}

// CoerceNumberText is CoerceNumber for values already flattened to text.
func CoerceNumberText(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "%", "")
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// round2 rounds to two decimal places, the precision success rates keep.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
