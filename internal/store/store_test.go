package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certtrack/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(v)
}

func seedInspection(t *testing.T, s *Store, typ types.InspectionType) *types.Inspection {
	t.Helper()
	ctx := context.Background()

	clientID, err := s.CreateClient(ctx, &types.Client{Name: "Galaxy Metals", GSTNumber: "24AAACG1234A1Z5"})
	require.NoError(t, err)

	i := &types.Inspection{
		Type:     typ,
		Date:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		ClientID: clientID,
		Location: "Mundra CFS",
		Asset:    "Shredded scrap lot 7",
		Status:   types.InspectionPending,
	}
	_, err = s.CreateInspection(ctx, i)
	require.NoError(t, err)
	return i
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)
	for _, table := range []string{"users", "clients", "chas", "inspections",
		"reports", "invoices", "commissions", "report_templates",
		"attachments", "audit_log", "sequences"} {
		assert.True(t, tableExists(s.db, table), "missing table %s", table)
	}
}

func TestPublicIDSequencing(t *testing.T) {
	s := newTestStore(t)

	a := seedInspection(t, s, types.TypeScrapPSIC)
	b := seedInspection(t, s, types.TypeScrapPSIC)
	c := seedInspection(t, s, types.TypeFitness)

	assert.Equal(t, "PSIC/2026/0001", a.PublicID)
	assert.Equal(t, "PSIC/2026/0002", b.PublicID)
	// Independent counter per type.
	assert.Equal(t, "FIT/2026/0001", c.PublicID)

	// Counter rolls over per calendar year.
	d := &types.Inspection{
		Type:   types.TypeScrapPSIC,
		Date:   time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
		Status: types.InspectionPending,
	}
	_, err := s.CreateInspection(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "PSIC/2027/0001", d.PublicID)
}

func TestInspectionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedInspection(t, s, types.TypeMachineryValuation)

	got, err := s.InspectionByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy Metals", got.ClientName)
	assert.Equal(t, types.InspectionPending, got.Status)
	assert.Equal(t, int64(0), got.EngineerID)
	assert.Nil(t, got.CommissionRateOverride)

	got.Location = "Kandla"
	got.Status = types.InspectionCompleted
	override := dec(t, "1.5")
	got.CommissionRateOverride = &override
	require.NoError(t, s.UpdateInspection(ctx, got))

	got2, err := s.InspectionByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kandla", got2.Location)
	assert.Equal(t, types.InspectionCompleted, got2.Status)
	require.NotNil(t, got2.CommissionRateOverride)
	assert.True(t, got2.CommissionRateOverride.Equal(dec(t, "1.5")))

	_, err = s.InspectionByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInspectionsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedInspection(t, s, types.TypeScrapPSIC)
	b := seedInspection(t, s, types.TypeFitness)
	require.NoError(t, s.UpdateInspectionStatus(ctx, b.ID, types.InspectionCompleted))

	all, err := s.ListInspections(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := s.ListInspections(ctx, Filter{Status: types.InspectionCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, b.ID, completed[0].ID)

	byType, err := s.ListInspections(ctx, Filter{Type: types.TypeScrapPSIC})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, a.ID, byType[0].ID)

	byText, err := s.ListInspections(ctx, Filter{Query: "Galaxy"})
	require.NoError(t, err)
	assert.Len(t, byText, 2)

	none, err := s.ListInspections(ctx, Filter{Query: "no-such-client"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteInspectionCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedInspection(t, s, types.TypeScrapPSIC)

	_, err := s.EnsureReport(ctx, i.ID)
	require.NoError(t, err)
	_, err = s.EnsureInvoice(ctx, i.ID)
	require.NoError(t, err)
	require.NoError(t, s.AppendAudit(ctx, &types.AuditEntry{
		Entity: "inspection", EntityID: i.ID, Action: "create",
	}))

	require.NoError(t, s.DeleteInspection(ctx, i.ID))

	_, err = s.InspectionByID(ctx, i.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ReportByInspection(ctx, i.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.InvoiceByInspection(ctx, i.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.ListAudit(ctx, "inspection", i.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureReportIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedInspection(t, s, types.TypeScrapPSIC)

	r1, err := s.EnsureReport(ctx, i.ID)
	require.NoError(t, err)
	r2, err := s.EnsureReport(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, types.ReportDraft, r2.Status)

	r2.Body = "<p>Findings</p>"
	r2.Status = types.ReportFinal
	require.NoError(t, s.SaveReport(ctx, r2))

	got, err := s.ReportByInspection(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReportFinal, got.Status)
	assert.Equal(t, "<p>Findings</p>", got.Body)
}

func TestInvoiceTotalsAndDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := seedInspection(t, s, types.TypeScrapPSIC)

	inv, err := s.EnsureInvoice(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, inv.TaxPct.Equal(dec(t, "18")))
	assert.True(t, inv.Total.IsZero())

	inv.Fee = dec(t, "12500")
	inv.Status = types.InvoiceSent
	require.NoError(t, s.SaveInvoice(ctx, inv))

	got, err := s.InvoiceByInspection(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec(t, "14750")), "got total %s", got.Total)
	assert.Equal(t, types.InvoiceSent, got.Status)
}

func TestMigrationsAddMissingColumns(t *testing.T) {
	s := newTestStore(t)

	// Simulate a legacy database: drop a newer column by rebuilding the
	// table without it, then re-run migrations.
	_, err := s.db.Exec(`
		CREATE TABLE legacy (id INTEGER PRIMARY KEY);
		DROP TABLE inspections;
		CREATE TABLE inspections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATETIME NOT NULL,
			client_id INTEGER,
			location TEXT NOT NULL DEFAULT '',
			asset TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			engineer_id INTEGER,
			cha_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`)
	require.NoError(t, err)

	require.NoError(t, s.runMigrations())

	for _, col := range []string{"public_id", "type", "commission_rate_override", "purchase_year", "original_cost"} {
		ok, err := columnExists(s.db, "inspections", col)
		require.NoError(t, err)
		assert.True(t, ok, "column %s not added", col)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	id, err := s.CreateUser(ctx, &types.User{
		Name: "S. Rao", Email: "Rao@Example.com", PasswordHash: "x", Role: types.RoleEngineer,
	})
	require.NoError(t, err)

	// Lookup is case-insensitive because emails are stored lowercased.
	u, err := s.UserByEmail(ctx, "RAO@example.COM")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "rao@example.com", u.Email)

	require.NoError(t, s.UpdateUserRole(ctx, id, types.RoleAdmin))
	u, err = s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, u.Role)

	engineers, err := s.ListEngineers(ctx)
	require.NoError(t, err)
	assert.Empty(t, engineers)
}
