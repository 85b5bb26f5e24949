package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceTotal(t *testing.T) {
	tests := []struct {
		name string
		fee  string
		tax  string
		want string
	}{
		{"standard 18% GST", "10000", "18", "11800"},
		{"zero tax", "2500", "0", "2500"},
		{"rounding", "333.33", "18", "393.33"},
		{"zero fee", "0", "18", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := decimal.RequireFromString(tt.fee)
			tax := decimal.RequireFromString(tt.tax)
			got := InvoiceTotal(fee, tax)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestCommissionAmount(t *testing.T) {
	fee := decimal.RequireFromString("12500")
	rate := decimal.RequireFromString("2.5")
	got := CommissionAmount(fee, rate)
	assert.True(t, got.Equal(decimal.RequireFromString("312.50")), "got %s", got)
}

func TestInspectionTypePrefix(t *testing.T) {
	assert.Equal(t, "PSIC", TypeScrapPSIC.Prefix())
	assert.Equal(t, "MV", TypeMachineryValuation.Prefix())
	assert.Equal(t, "FIT", TypeFitness.Prefix())
	assert.Equal(t, "INS", InspectionType("bogus").Prefix())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidRole(RoleAccountant))
	assert.False(t, ValidRole("SUPERUSER"))
	assert.True(t, ValidInspectionStatus(InspectionInvoiced))
	assert.False(t, ValidInspectionStatus("ARCHIVED"))
	assert.True(t, ValidInspectionType(TypeFitness))
	assert.False(t, ValidInspectionType("DRONE_SURVEY"))
}
