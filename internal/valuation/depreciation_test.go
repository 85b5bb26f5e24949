package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pct(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestDepreciationPct(t *testing.T) {
	tests := []struct {
		name     string
		quarters int
		want     string
	}{
		{"brand new", 0, "0"},
		{"negative age", -3, "0"},
		{"one quarter", 1, "4"},
		{"one year", 4, "16"},
		{"two years", 8, "28"},   // 16 + 4x3
		{"three years", 12, "38"}, // 28 + 4x2.5
		{"four years", 16, "46"},  // 38 + 4x2
		{"seven years", 28, "70"}, // 38 + 16x2 = 70, exactly at cap
		{"ancient asset hits cap", 100, "70"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DepreciationPct(tt.quarters)
			assert.True(t, got.Equal(pct(t, tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDepreciatedValue(t *testing.T) {
	cost := pct(t, "1000000")

	// Two-year-old machine: 28% off.
	got := DepreciatedValue(cost, 8)
	assert.True(t, got.Equal(pct(t, "720000")), "got %s", got)

	// Capped at 70% regardless of age.
	got = DepreciatedValue(cost, 200)
	assert.True(t, got.Equal(pct(t, "300000")), "got %s", got)

	// Rounding to 2 places.
	got = DepreciatedValue(pct(t, "99999.99"), 1)
	assert.True(t, got.Equal(pct(t, "95999.99")), "got %s", got)
}

func TestAgeQuarters(t *testing.T) {
	assert.Equal(t, 0, AgeQuarters(2026, 2026))
	assert.Equal(t, 4, AgeQuarters(2025, 2026))
	assert.Equal(t, 40, AgeQuarters(2016, 2026))
	assert.Equal(t, 0, AgeQuarters(0, 2026))
	assert.Equal(t, 0, AgeQuarters(2030, 2026))
}
