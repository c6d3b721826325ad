package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"petweights/internal/domain"
)

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		from, to domain.Unit
		want     string
	}{
		{"kg to lb", "100", domain.Kilograms, domain.Pounds, "220.46226218"},
		{"lb to kg", "220.46226218", domain.Pounds, domain.Kilograms, "100"},
		{"same unit kg", "80", domain.Kilograms, domain.Kilograms, "80"},
		{"same unit lb", "8.3", domain.Pounds, domain.Pounds, "8.3"},
		{"unknown units", "50", "st", domain.Kilograms, "50"},
		{"zero value", "0", domain.Kilograms, domain.Pounds, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertWeight(decimal.RequireFromString(tc.value), tc.from, tc.to)
			want := decimal.RequireFromString(tc.want)
			if got.Sub(want).Abs().GreaterThan(decimal.RequireFromString("0.001")) {
				t.Errorf("ConvertWeight(%v, %q, %q) = %v; want %v",
					tc.value, tc.from, tc.to, got, want)
			}
		})
	}
}

func TestUnitValid(t *testing.T) {
	if !domain.Pounds.Valid() || !domain.Kilograms.Valid() {
		t.Fatal("expected lb and kg to be valid")
	}
	if domain.Unit("st").Valid() {
		t.Fatal("expected st to be invalid")
	}
}
