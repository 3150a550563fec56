package parser

import (
	"testing"

	"github.com/aluiziolira/go-hunt-reports/models"
)

func TestCoerceNumberText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{name: "plain integer", in: "500", want: 500, ok: true},
		{name: "thousands separator", in: "1,234", want: 1234, ok: true},
		{name: "percent sign", in: "87%", want: 87, ok: true},
		{name: "decimal percent", in: "34.5%", want: 34.5, ok: true},
		{name: "padded", in: "  42  ", want: 42, ok: true},
		{name: "empty", in: "", ok: false},
		{name: "blank", in: "   ", ok: false},
		{name: "not a number", in: "N/A", ok: false},
		{name: "negative", in: "-3", want: -3, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumberText(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("CoerceNumberText(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerceNumberFromValue(t *testing.T) {
	if n, ok := CoerceNumber(models.NumberValue(34.5)); !ok || n != 34.5 {
		t.Fatalf("number value = %v (%v), want 34.5", n, ok)
	}
	if n, ok := CoerceNumber(models.StringValue("1,200")); !ok || n != 1200 {
		t.Fatalf("string value = %v (%v), want 1200", n, ok)
	}
	if _, ok := CoerceNumber(models.Null); ok {
		t.Fatalf("null should be unresolved")
	}
}
