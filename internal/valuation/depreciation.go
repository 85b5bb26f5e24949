// Package valuation derives depreciated values for used machinery, following
// the quarterly schedule used in customs valuation practice.
package valuation

import "github.com/shopspring/decimal"

// Quarterly depreciation rates by year of age. Year 1 depreciates fastest;
// everything beyond year 3 accrues at the tail rate until the cap.
var (
	rateYear1 = decimal.RequireFromString("4")   // % per quarter
	rateYear2 = decimal.RequireFromString("3")   // % per quarter
	rateYear3 = decimal.RequireFromString("2.5") // % per quarter
	rateTail  = decimal.RequireFromString("2")   // % per quarter thereafter

	// maxPct caps total depreciation regardless of age.
	maxPct = decimal.NewFromInt(70)
)

// DepreciationPct returns the total depreciation percentage for an asset of
// the given age in whole quarters. Negative ages count as zero.
func DepreciationPct(ageQuarters int) decimal.Decimal {
	if ageQuarters <= 0 {
		return decimal.Zero
	}

	pct := decimal.Zero
	for q := 1; q <= ageQuarters; q++ {
		switch {
		case q <= 4:
			pct = pct.Add(rateYear1)
		case q <= 8:
			pct = pct.Add(rateYear2)
		case q <= 12:
			pct = pct.Add(rateYear3)
		default:
			pct = pct.Add(rateTail)
		}
		if pct.GreaterThanOrEqual(maxPct) {
			return maxPct
		}
	}
	return pct
}

// DepreciatedValue returns originalCost reduced by the schedule for the given
// age, rounded to 2 places.
func DepreciatedValue(originalCost decimal.Decimal, ageQuarters int) decimal.Decimal {
	pct := DepreciationPct(ageQuarters)
	hundred := decimal.NewFromInt(100)
	return originalCost.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// AgeQuarters converts a purchase year into whole quarters of age as of the
// given current year. Within-year purchases count as zero age; the exact
// purchase month is rarely documented, so age is reckoned in whole years.
func AgeQuarters(purchaseYear, currentYear int) int {
	if purchaseYear <= 0 || currentYear <= purchaseYear {
		return 0
	}
	return (currentYear - purchaseYear) * 4
}
