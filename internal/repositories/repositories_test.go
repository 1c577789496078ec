package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/repositories"
	"rentabill/internal/sheets"
	"rentabill/testhelpers"
)

var meterHeader = []string{
	"id", "premise_id", "premise", "name", "type", "unit", "tariff",
	"reading_responsible_id", "reading_responsible",
	"payment_responsible_id", "payment_responsible",
	"last_reading", "last_reading_date", "paid_reading", "paid_date",
	"unbilled_consumption", "unbilled_amount",
}

var invoiceHeader = []string{
	"premise_id", "premise", "payment_responsible_id", "payment_responsible",
	"amount", "issued_amount", "status", "need_push", "last_paid_date",
}

func seedMeters(store *testhelpers.FakeStore) {
	store.Seed(sheets.SheetMeters, [][]string{
		meterHeader,
		{"1", "1", "Flat 1", "Electricity", "electricity", "kWh", "5.5", "100", "Alice", "100", "Alice", "150", "2026-08-10", "100", "2026-07-05", "50", "275"},
		{"2", "1", "Flat 1", "Water", "water", "m3", "32.4", "100", "Alice", "100", "Alice", "20", "2026-08-10", "20", "2026-07-05", "0", "0"},
		{"3", "2", "Flat 2", "Electricity", "electricity", "kWh", "5.5", "200", "Bob", "200", "Bob", "80", "2026-08-01", "80", "2026-07-05", "0", "0"},
	})
}

func newCache() caching.Cache {
	return caching.NewMemoryCache(time.Minute)
}

func TestMeterRepoListCachesAndFilters(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	meters, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, meters, 3)
	assert.Equal(t, int64(1), meters[0].ID)
	assert.Equal(t, 150.0, meters[0].LastReading)
	assert.Equal(t, 2, meters[0].Row)

	// Second read is served from cache.
	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Reads())

	forReadings, err := repo.ListForReadings(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, forReadings, 2)

	byPremise, err := repo.ListByPremise(ctx, 2)
	require.NoError(t, err)
	require.Len(t, byPremise, 1)
	assert.Equal(t, int64(3), byPremise[0].ID)
}

func TestMeterRepoGetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	_, err := repo.GetByID(ctx, 42)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestMeterRepoUpdateLastReadingInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	before, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 150.0, before.LastReading)

	date := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastReading(ctx, 1, 175, date))

	// Meter 1 sits on worksheet row 2; L is last_reading, M its date.
	assert.Equal(t, "175", store.Cell(sheets.SheetMeters, 2, 12))
	assert.Equal(t, "2026-08-30", store.Cell(sheets.SheetMeters, 2, 13))

	after, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 175.0, after.LastReading, "read after write sees the write")
}

func TestMeterRepoMarkPaidReturnsPreWriteState(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	date := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	meter, err := repo.MarkPaid(ctx, 1, date)
	require.NoError(t, err)

	// The returned meter holds the formula values as they were before the
	// paid columns moved.
	assert.Equal(t, 100.0, meter.PaidReading)
	assert.Equal(t, 50.0, meter.UnbilledConsumption)

	assert.Equal(t, "150", store.Cell(sheets.SheetMeters, 2, 14))
	assert.Equal(t, "2026-08-30", store.Cell(sheets.SheetMeters, 2, 15))
}

func TestMeterRepoMarkPremisePaid(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	date := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPremisePaid(ctx, 1, date))

	// Both meters of premise 1 are stamped, premise 2 untouched.
	assert.Equal(t, "150", store.Cell(sheets.SheetMeters, 2, 14))
	assert.Equal(t, "20", store.Cell(sheets.SheetMeters, 3, 14))
	assert.Equal(t, "80", store.Cell(sheets.SheetMeters, 4, 14))
	assert.Equal(t, "2026-07-05", store.Cell(sheets.SheetMeters, 4, 15))
}

func TestMeterRepoMarkPremisePaidNoMetersIsNoop(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	require.NoError(t, repo.MarkPremisePaid(ctx, 99, time.Now()))
	assert.Zero(t, store.Writes())
}

func TestMeterRepoAdd(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	id, err := repo.Add(ctx, models.Meter{
		PremiseID:            2,
		PremiseName:          "Flat 2",
		Name:                 "Water",
		Type:                 "water",
		Unit:                 "m3",
		ReadingResponsibleID: 200,
		ReadingResponsible:   "Bob",
		PaymentResponsibleID: 200,
		PaymentResponsible:   "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	// The tariff cell is left blank for the store's formula.
	assert.Equal(t, "", store.Cell(sheets.SheetMeters, 5, 7))
	assert.Equal(t, "Water", store.Cell(sheets.SheetMeters, 5, 4))

	_, err = repo.Add(ctx, models.Meter{Name: "Orphan"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestReadingRepoAppendAndMonthMap(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetReadings, [][]string{
		{"date", "meter_id", "meter", "premise_id", "premise", "telegram_id", "tenant", "value"},
		{"2026-07-15 09:00", "1", "Electricity", "1", "Flat 1", "100", "Alice", "120"},
		{"2026-08-10 09:00", "1", "Electricity", "1", "Flat 1", "100", "Alice", "150"},
		{"2026-08-10 09:05", "2", "Water", "1", "Flat 1", "100", "Alice", "20"},
	})
	repo := repositories.NewReadingRepo(store, newCache())

	byMeter, err := repo.CurrentMonthByMeter(ctx, "2026-08")
	require.NoError(t, err)
	assert.Len(t, byMeter[1], 1)
	assert.Len(t, byMeter[2], 1)
	assert.Equal(t, 150.0, byMeter[1][0].Value)

	err = repo.Append(ctx, models.Reading{
		Date:       "2026-08-30 12:00",
		MeterID:    1,
		MeterName:  "Electricity",
		PremiseID:  1,
		TelegramID: 100,
		TenantName: "Alice",
		Value:      175,
	})
	require.NoError(t, err)

	// Appending a reading sweeps the month snapshot along with the log.
	byMeter, err = repo.CurrentMonthByMeter(ctx, "2026-08")
	require.NoError(t, err)
	assert.Len(t, byMeter[1], 2)

	last, err := repo.LastForMeter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 175.0, last.Value)
}

func TestReadingRepoLastForMeterNotFound(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetReadings, [][]string{
		{"date", "meter_id", "meter", "premise_id", "premise", "telegram_id", "tenant", "value"},
	})
	repo := repositories.NewReadingRepo(store, newCache())

	_, err := repo.LastForMeter(ctx, 7)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestInvoiceRepoActionableFilters(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "100", "Alice", "275", "275", "Unpaid", "0", ""},
		{"2", "Flat 2", "200", "Bob", "0", "0", "Unpaid", "0", ""},
		{"3", "Flat 3", "100", "Alice", "120", "0", "Draft", "0", ""},
	})
	repo := repositories.NewInvoiceRepo(store, newCache())

	unpaid, err := repo.ListUnpaidForTenant(ctx, 100)
	require.NoError(t, err)
	require.Len(t, unpaid, 1, "zero-amount and draft rows are not payable")
	assert.Equal(t, int64(1), unpaid[0].PremiseID)

	// Premise 2 claims Unpaid but owes nothing; it must not surface.
	bob, err := repo.ListUnpaidForTenant(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, bob)

	drafts, err := repo.ListDraft(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(3), drafts[0].PremiseID)
}

func TestInvoiceRepoMarkPaid(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "100", "Alice", "275", "275", "Unpaid", "0", ""},
	})
	repo := repositories.NewInvoiceRepo(store, newCache())

	date := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPaid(ctx, 1, date))

	// F zeroed, I stamped, one batched write.
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 2, 6))
	assert.Equal(t, "2026-08-30", store.Cell(sheets.SheetInvoices, 2, 9))
}

func TestInvoiceRepoNeedPushLifecycle(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "100", "Alice", "275", "275", "Unpaid", "1", ""},
		{"2", "Flat 2", "200", "Bob", "80", "80", "Unpaid", "0", ""},
	})
	repo := repositories.NewInvoiceRepo(store, newCache())

	flagged, err := repo.ListNeedingPush(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, int64(1), flagged[0].PremiseID)

	require.NoError(t, repo.ClearNeedPush(ctx, 1))
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 2, 8))

	flagged, err = repo.ListNeedingPush(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestTariffRepoUpdate(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetTariffs, [][]string{
		{"type", "tariff"},
		{"electricity", "5.5"},
		{"water", "32.4"},
	})
	repo := repositories.NewTariffRepo(store, newCache())

	require.NoError(t, repo.Update(ctx, "water", 35.0))
	assert.Equal(t, "35", store.Cell(sheets.SheetTariffs, 3, 2))

	updated, err := repo.GetByType(ctx, "water")
	require.NoError(t, err)
	assert.Equal(t, 35.0, updated.Rate)

	err = repo.Update(ctx, "water", -1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	err = repo.Update(ctx, "heating", 10)
	assert.True(t, models.IsNotFound(err))
}

func TestSettingsRepoDefaults(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetSettings, [][]string{
		{"key", "value"},
	})
	repo := repositories.NewSettingsRepo(store, newCache())

	details, err := repo.PaymentDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Payment details not configured", details)

	start, end, err := repo.ReadingsPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, start)
	assert.Equal(t, 20, end)

	_, err = repo.Get(ctx, "payment_details")
	assert.True(t, models.IsNotFound(err))
}

func TestSettingsRepoConfiguredValues(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetSettings, [][]string{
		{"key", "value"},
		{"payment_details", "Bank acct 123"},
		{"readings_start_day", "10"},
		{"readings_end_day", "25"},
	})
	repo := repositories.NewSettingsRepo(store, newCache())

	details, err := repo.PaymentDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bank acct 123", details)

	start, end, err := repo.ReadingsPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, start)
	assert.Equal(t, 25, end)
}

func TestPremiseRepoAddAssignsNextID(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetPremises, [][]string{
		{"id", "name", "address"},
		{"1", "Flat 1", "Main st 1"},
		{"5", "Flat 5", "Main st 5"},
	})
	repo := repositories.NewPremiseRepo(store, newCache())

	id, err := repo.Add(ctx, "Garage", "Main st 7")
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)

	added, err := repo.GetByID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "Garage", added.Name)

	_, err = repo.Add(ctx, "", "nowhere")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestTenantRepoOwnerAndTenants(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetTenants, [][]string{
		{"telegram_id", "name", "phone", "is_owner"},
		{"1", "Landlord", "+1000", "TRUE"},
		{"100", "Alice", "+1001", "FALSE"},
		{"200", "Bob", "+1002", "FALSE"},
	})
	repo := repositories.NewTenantRepo(store, newCache())

	owner, err := repo.GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owner.TelegramID)

	tenants, err := repo.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	for _, tenant := range tenants {
		assert.False(t, tenant.IsOwner)
	}

	_, err = repo.GetByTelegramID(ctx, 300)
	assert.True(t, models.IsNotFound(err))
}

func TestTenantRepoAddInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetTenants, [][]string{
		{"telegram_id", "name", "phone", "is_owner"},
		{"1", "Landlord", "+1000", "TRUE"},
		{"100", "Alice", "+1001", "FALSE"},
	})
	repo := repositories.NewTenantRepo(store, newCache())

	// Warm the tenants cache before the write.
	_, err := repo.GetOwner(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Add(ctx, 300, "Carol", "+1003"))

	tenants, err := repo.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Carol", tenants[1].Name)
}

func TestTenantRepoMissingOwnerIsInconsistent(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetTenants, [][]string{
		{"telegram_id", "name", "phone", "is_owner"},
		{"100", "Alice", "+1001", "FALSE"},
	})
	repo := repositories.NewTenantRepo(store, newCache())

	_, err := repo.GetOwner(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInconsistent)
}

func TestFreshReadsSkipWarmCache(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "100", "Alice", "275", "0", "Draft", "0", ""},
	})
	cache := newCache()
	meters := repositories.NewMeterRepo(store, cache)
	invoices := repositories.NewInvoiceRepo(store, cache)

	_, err := meters.List(ctx)
	require.NoError(t, err)
	_, err = invoices.List(ctx)
	require.NoError(t, err)

	// Formula cells move while the cache stays warm.
	require.NoError(t, store.UpdateRange(ctx, sheets.SheetMeters, "Q2", [][]any{{999.0}}))
	require.NoError(t, store.UpdateRange(ctx, sheets.SheetInvoices, "E2", [][]any{{999.0}}))

	cachedInvoice, err := invoices.GetByPremise(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 275.0, cachedInvoice.Amount)

	freshInvoice, err := invoices.GetByPremiseFresh(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 999.0, freshInvoice.Amount)

	fresh, err := meters.ListByPremiseFresh(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, 999.0, fresh[0].UnbilledAmount)
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewFakeStore()
	seedMeters(store)
	repo := repositories.NewMeterRepo(store, newCache())

	store.FailWith("GetAllRecords", models.ErrTransient)
	_, err := repo.List(ctx)
	require.Error(t, err)

	store.FailWith("GetAllRecords", nil)
	meters, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, meters, 3)
}
