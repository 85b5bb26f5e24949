package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certtrack/internal/types"
)

func seedCommissionFixture(t *testing.T, s *Store, rate string) *types.Inspection {
	t.Helper()
	ctx := context.Background()

	chaID, err := s.CreateCHA(ctx, &types.CHA{
		Name: "Seabird Logistics", Contact: "9898-000000",
		CommissionRate: dec(t, rate),
	})
	require.NoError(t, err)

	i := seedInspection(t, s, types.TypeScrapPSIC)
	got, err := s.InspectionByID(ctx, i.ID)
	require.NoError(t, err)
	got.CHAID = chaID
	require.NoError(t, s.UpdateInspection(ctx, got))

	inv, err := s.EnsureInvoice(ctx, i.ID)
	require.NoError(t, err)
	inv.Fee = dec(t, "20000")
	require.NoError(t, s.SaveInvoice(ctx, inv))

	return got
}

func TestGenerateCommissionFromCHARate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedCommissionFixture(t, s, "2.5")

	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(dec(t, "500")), "got %s", c.Amount)
	assert.Equal(t, types.CommissionDue, c.Status)
}

func TestGenerateCommissionUsesOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedCommissionFixture(t, s, "2.5")

	override := dec(t, "4")
	i.CommissionRateOverride = &override
	require.NoError(t, s.UpdateInspection(ctx, i))

	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(dec(t, "800")), "got %s", c.Amount)
}

func TestRegenerateKeepsStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedCommissionFixture(t, s, "2.5")

	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateCommissionStatus(ctx, c.ID, types.CommissionPartial))

	// Fee changes, commission is regenerated.
	inv, err := s.InvoiceByInspection(ctx, i.ID)
	require.NoError(t, err)
	inv.Fee = dec(t, "40000")
	require.NoError(t, s.SaveInvoice(ctx, inv))

	c2, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, c2.ID, "upsert must reuse the row")
	assert.True(t, c2.Amount.Equal(dec(t, "1000")), "got %s", c2.Amount)
	assert.Equal(t, types.CommissionPartial, c2.Status, "status survives regeneration")
}

func TestGenerateCommissionRequiresCHA(t *testing.T) {
	s := newTestStore(t)
	i := seedInspection(t, s, types.TypeScrapPSIC)

	_, err := s.GenerateCommission(context.Background(), i.ID)
	assert.ErrorIs(t, err, ErrNoCHA)
}

func TestGenerateCommissionWithoutInvoice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chaID, err := s.CreateCHA(ctx, &types.CHA{Name: "Seabird", CommissionRate: dec(t, "3")})
	require.NoError(t, err)
	i := seedInspection(t, s, types.TypeScrapPSIC)
	got, err := s.InspectionByID(ctx, i.ID)
	require.NoError(t, err)
	got.CHAID = chaID
	require.NoError(t, s.UpdateInspection(ctx, got))

	// No invoice yet: fee counts as zero.
	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, c.Amount.IsZero())
}

func TestUpdateCommissionAmountClampsNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedCommissionFixture(t, s, "2.5")

	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCommissionAmount(ctx, c.ID, dec(t, "-50")))
	got, err := s.CommissionByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.IsZero())
}

func TestCommissionSummaryGroups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	i1 := seedCommissionFixture(t, s, "2")
	_, err := s.GenerateCommission(ctx, i1.ID)
	require.NoError(t, err)

	i2 := seedCommissionFixture(t, s, "2")
	_, err = s.GenerateCommission(ctx, i2.ID)
	require.NoError(t, err)

	rows, err := s.CommissionSummary(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// Both fixtures create a CHA with the same name and DUE commissions of
	// 400 each, so the grouped total is 800.
	var total string
	for _, r := range rows {
		if r.CHAName == "Seabird Logistics" && r.Status == types.CommissionDue {
			total = r.Total.String()
		}
	}
	assert.Equal(t, "800", total)
}

func TestCHARateClamped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateCHA(ctx, &types.CHA{Name: "Overeager", CommissionRate: dec(t, "250")})
	require.NoError(t, err)
	c, err := s.CHAByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, c.CommissionRate.Equal(dec(t, "100")))

	c.CommissionRate = dec(t, "-5")
	require.NoError(t, s.UpdateCHA(ctx, c))
	c, err = s.CHAByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, c.CommissionRate.IsZero())
}
