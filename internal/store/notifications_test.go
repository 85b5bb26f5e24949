package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certtrack/internal/types"
)

func TestOverdueReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &types.Inspection{
		Type:   types.TypeScrapPSIC,
		Date:   time.Now().UTC().Add(-5 * 24 * time.Hour),
		Status: types.InspectionCompleted,
		Asset:  "old lot",
	}
	_, err := s.CreateInspection(ctx, old)
	require.NoError(t, err)

	fresh := &types.Inspection{
		Type:   types.TypeScrapPSIC,
		Date:   time.Now().UTC().Add(-24 * time.Hour),
		Status: types.InspectionCompleted,
		Asset:  "fresh lot",
	}
	_, err = s.CreateInspection(ctx, fresh)
	require.NoError(t, err)

	got, err := s.OverdueReports(ctx, 72*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestMissingInvoices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	billed := seedInspection(t, s, types.TypeScrapPSIC)
	require.NoError(t, s.UpdateInspectionStatus(ctx, billed.ID, types.InspectionCompleted))
	_, err := s.EnsureInvoice(ctx, billed.ID)
	require.NoError(t, err)

	unbilled := seedInspection(t, s, types.TypeFitness)
	require.NoError(t, s.UpdateInspectionStatus(ctx, unbilled.ID, types.InspectionReportGenerated))

	pending := seedInspection(t, s, types.TypeFitness)
	_ = pending // PENDING inspections are never flagged

	got, err := s.MissingInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, unbilled.ID, got[0].ID)
}

func TestDueCommissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	i := seedCommissionFixture(t, s, "2.5")
	c, err := s.GenerateCommission(ctx, i.ID)
	require.NoError(t, err)

	due, err := s.DueCommissions(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, s.UpdateCommissionStatus(ctx, c.ID, types.CommissionPaid))
	due, err = s.DueCommissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestAuditTrail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedInspection(t, s, types.TypeScrapPSIC)

	require.NoError(t, s.AppendAudit(ctx, &types.AuditEntry{
		Entity: "inspection", EntityID: i.ID, Action: "create",
	}))
	require.NoError(t, s.AppendAudit(ctx, &types.AuditEntry{
		Entity: "inspection", EntityID: i.ID, Action: "update",
		Diff: `status: "PENDING" -> "COMPLETED"`,
	}))

	entries, err := s.ListAudit(ctx, "inspection", i.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "update", entries[0].Action)
	assert.Contains(t, entries[0].Diff, "COMPLETED")
}
