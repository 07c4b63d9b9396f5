package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipnotik/commission-engine/commission"
	"github.com/hipnotik/commission-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func fiberSale(emp string, day int, status commission.SaleStatus) commission.Sale {
	return commission.Sale{
		ClientID:  "cli-1",
		Company:   "Movistar",
		PackType:  commission.PackSoloFibra,
		PackPrice: price("39.90"),
		Fiber:     &commission.Fiber{SpeedMbps: 600},
		Status:    status,
		CreatedBy: commission.EmployeeID(emp),
		CreatedAt: time.Date(2026, time.March, day, 10, 0, 0, 0, time.UTC),
	}
}

func marchConfig(threshold int) commission.Config {
	m, _ := commission.NewMonth(2026, 3)
	return commission.Config{
		Month:      m,
		Threshold:  threshold,
		Categories: commission.DefaultCategories(),
	}
}

// =============================================================================
// SALES
// =============================================================================

func TestSaveSale_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := fiberSale("emp-1", 5, commission.StatusInstalado)
	in.Lines = []commission.MobileLine{{GBData: 50}, {GBData: 30}}
	in.Notes = "portabilidad"

	saved, err := store.SaveSale(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID, "store assigns the ID")

	got, err := store.GetSale(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, commission.PackSoloFibra, got.PackType)
	assert.True(t, got.PackPrice.Equal(decimal.RequireFromString("39.90")), "price survives as decimal")
	assert.Equal(t, 600, got.Fiber.SpeedMbps)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, "portabilidad", got.Notes)
	assert.Equal(t, saved.Score, got.Score)
	assert.True(t, got.CreatedAt.Equal(in.CreatedAt))
}

func TestSaveSale_ScoreComputedOnWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := fiberSale("emp-1", 5, commission.StatusInstalado)
	in.Score = 999 // caller-supplied scores are discarded

	saved, err := store.SaveSale(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, commission.Score(saved), saved.Score, "stored score matches stored attributes")
	// 600 Mbps (30) + 39.90 euro (10) + Instalado (+8)
	assert.Equal(t, 48, saved.Score)
}

func TestSaveSale_Malformed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSale(ctx, commission.Sale{Company: "Movistar", CreatedBy: "emp-1"})
	assert.ErrorIs(t, err, commission.ErrMalformedSale, "missing client")

	bad := fiberSale("emp-1", 5, commission.StatusInstalado)
	bad.PackType = "Pack Inventado"
	_, err = store.SaveSale(ctx, bad)
	assert.ErrorIs(t, err, commission.ErrMalformedSale, "unknown pack type")

	bad = fiberSale("emp-1", 5, "Perdido")
	_, err = store.SaveSale(ctx, bad)
	assert.ErrorIs(t, err, commission.ErrMalformedSale, "unknown status")
}

func TestSaveSale_DefaultsStatusToRegistrado(t *testing.T) {
	store := newTestStore(t)

	in := fiberSale("emp-1", 5, "")
	saved, err := store.SaveSale(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusRegistrado, saved.Status)
}

func TestUpdateSaleStatus_Rescores(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveSale(ctx, fiberSale("emp-1", 5, commission.StatusRegistrado))
	require.NoError(t, err)
	before := saved.Score // 30 + 10 + 3 = 43

	updated, err := store.UpdateSaleStatus(ctx, saved.ID, commission.StatusInstalado)
	require.NoError(t, err)
	assert.Equal(t, commission.StatusInstalado, updated.Status)
	assert.Equal(t, before+5, updated.Score, "Registrado +3 becomes Instalado +8")
	assert.True(t, updated.CreatedAt.Equal(saved.CreatedAt), "status change preserves creation time")
}

func TestUpdateSaleStatus_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpdateSaleStatus(context.Background(), "ghost", commission.StatusInstalado)
	assert.ErrorIs(t, err, commission.ErrSaleNotFound)
}

func TestSalesByMonth_GroupsAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSale(ctx, fiberSale("emp-1", 3, commission.StatusInstalado))
	require.NoError(t, err)
	_, err = store.SaveSale(ctx, fiberSale("emp-1", 7, commission.StatusInstalado))
	require.NoError(t, err)
	_, err = store.SaveSale(ctx, fiberSale("emp-2", 9, commission.StatusInstalado))
	require.NoError(t, err)

	// A sale from another month stays out of the report.
	april := fiberSale("emp-1", 2, commission.StatusInstalado)
	april.CreatedAt = time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	_, err = store.SaveSale(ctx, april)
	require.NoError(t, err)

	m, _ := commission.NewMonth(2026, 3)
	byEmployee, err := store.SalesByMonth(ctx, m)
	require.NoError(t, err)

	assert.Len(t, byEmployee[commission.EmployeeID("emp-1")], 2)
	assert.Len(t, byEmployee[commission.EmployeeID("emp-2")], 1)

	mine, err := store.SalesByEmployeeMonth(ctx, "emp-1", m)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

// =============================================================================
// CONFIGS - Optimistic concurrency
// =============================================================================

func TestPutConfig_RoundTripAndVersioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := marchConfig(5)
	require.NoError(t, store.PutConfig(ctx, cfg))

	got, err := store.GetConfig(ctx, cfg.Month)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Threshold)
	assert.Equal(t, 1, got.Version, "first write is version 1")
	assert.Len(t, got.Categories, 5)
	for _, cat := range got.Categories {
		assert.NotEmpty(t, cat.ID, "stored categories carry identities")
	}

	// Editing from the current version succeeds and bumps it.
	got.Threshold = 6
	require.NoError(t, store.PutConfig(ctx, *got))
	again, err := store.GetConfig(ctx, cfg.Month)
	require.NoError(t, err)
	assert.Equal(t, 6, again.Threshold)
	assert.Equal(t, 2, again.Version)
}

func TestPutConfig_ConcurrentEditRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutConfig(ctx, marchConfig(5)))

	// Two admins load version 1.
	a, err := store.GetConfig(ctx, marchConfig(5).Month)
	require.NoError(t, err)
	b, err := store.GetConfig(ctx, marchConfig(5).Month)
	require.NoError(t, err)

	// Admin A saves first.
	a.Threshold = 6
	require.NoError(t, store.PutConfig(ctx, *a))

	// Admin B's save, still based on version 1, is rejected.
	b.Threshold = 7
	err = store.PutConfig(ctx, *b)
	assert.ErrorIs(t, err, commission.ErrConcurrentModification)

	var conflict *commission.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, conflict.ExpectedVersion)
	assert.Equal(t, 2, conflict.ActualVersion)
}

func TestPutConfig_VersionZeroSkipsCheck(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutConfig(ctx, marchConfig(5)))

	forced := marchConfig(9) // Version 0: forced save
	require.NoError(t, store.PutConfig(ctx, forced))

	got, err := store.GetConfig(ctx, forced.Month)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Threshold)
	assert.Equal(t, 2, got.Version)
}

func TestPutConfig_RejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	cfg := marchConfig(5)
	cfg.Retroactive = true // missing RetroactiveFrom
	err := store.PutConfig(context.Background(), cfg)
	assert.ErrorIs(t, err, commission.ErrInvalidConfig)

	_, getErr := store.GetConfig(context.Background(), cfg.Month)
	assert.ErrorIs(t, getErr, commission.ErrConfigNotFound, "rejected config must not be stored")
}

func TestGetConfig_NotFound(t *testing.T) {
	store := newTestStore(t)
	m, _ := commission.NewMonth(2026, 11)
	_, err := store.GetConfig(context.Background(), m)
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)
}

// =============================================================================
// CONFIG DUPLICATION
// =============================================================================

func TestDuplicateConfig_CopiesWithFreshIdentities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutConfig(ctx, marchConfig(5)))
	source := marchConfig(5).Month
	target, _ := commission.NewMonth(2026, 4)

	cp, err := store.DuplicateConfig(ctx, source, target, false)
	require.NoError(t, err)
	assert.Equal(t, target, cp.Month)
	assert.Equal(t, 5, cp.Threshold)
	assert.Equal(t, 1, cp.Version, "fresh target starts at version 1")

	src, err := store.GetConfig(ctx, source)
	require.NoError(t, err)
	for i := range cp.Categories {
		assert.NotEqual(t, src.Categories[i].ID, cp.Categories[i].ID,
			"duplicated categories get fresh identities")
		assert.Equal(t, src.Categories[i].Name, cp.Categories[i].Name)
	}
}

func TestDuplicateConfig_RefusesConfiguredTarget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutConfig(ctx, marchConfig(5)))
	source := marchConfig(5).Month
	target, _ := commission.NewMonth(2026, 4)

	targetCfg := marchConfig(3)
	targetCfg.Month = target
	require.NoError(t, store.PutConfig(ctx, targetCfg))

	_, err := store.DuplicateConfig(ctx, source, target, false)
	assert.ErrorIs(t, err, commission.ErrDuplicateTargetExists)

	// The target survives untouched.
	got, err := store.GetConfig(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Threshold)

	// Overwrite replaces it.
	cp, err := store.DuplicateConfig(ctx, source, target, true)
	require.NoError(t, err)
	assert.Equal(t, 5, cp.Threshold)
	assert.Equal(t, 2, cp.Version, "overwrite bumps the target's version")
}

func TestDuplicateConfig_MissingSource(t *testing.T) {
	store := newTestStore(t)
	source, _ := commission.NewMonth(2026, 1)
	target, _ := commission.NewMonth(2026, 2)

	_, err := store.DuplicateConfig(context.Background(), source, target, false)
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestEmployeeAndClientRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := commission.Employee{ID: "emp-1", Name: "Laura Pérez", Email: "laura@example.com"}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Laura Pérez", got.Name)

	missing, err := store.GetEmployee(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown employee is nil, not an error")

	client := commission.Client{ID: "cli-1", Name: "Carmen Díaz", Phone: "600111222", CreatedBy: "emp-1"}
	require.NoError(t, store.SaveClient(ctx, client))

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, commission.EmployeeID("emp-1"), clients[0].CreatedBy)
}

func TestReset_WipesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, commission.Employee{ID: "emp-1", Name: "Laura"}))
	_, err := store.SaveSale(ctx, fiberSale("emp-1", 5, commission.StatusInstalado))
	require.NoError(t, err)
	require.NoError(t, store.PutConfig(ctx, marchConfig(5)))

	require.NoError(t, store.Reset(ctx))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = store.GetConfig(ctx, marchConfig(5).Month)
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)
}
