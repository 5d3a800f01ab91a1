package repository

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value *float64
	}{
		{"nil stays nil", nil},
		{"plain price", floatP(150.25)},
		{"zero", floatP(0)},
		{"sub-cent precision", floatP(0.0001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimalPtr(tt.value)
			got := floatPtr(d)

			if tt.value == nil {
				if d != nil || got != nil {
					t.Errorf("nil input produced %v, %v", d, got)
				}
				return
			}
			if got == nil || *got != *tt.value {
				t.Errorf("round trip got = %v, want %v", got, *tt.value)
			}
		})
	}
}

func TestFloatPtrFromDecimal(t *testing.T) {
	d := decimal.RequireFromString("123.45")
	got := floatPtr(&d)
	if got == nil || *got != 123.45 {
		t.Errorf("floatPtr() = %v, want 123.45", got)
	}
}

func floatP(v float64) *float64 { return &v }
