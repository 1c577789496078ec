package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentabill/internal/models"
)

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-08", MonthKey(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01", MonthKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildReadingsStatus(t *testing.T) {
	meters := []models.Meter{
		{ID: 1, Name: "Electricity"},
		{ID: 2, Name: "Water"},
	}
	byMeter := map[int64][]models.Reading{
		1: {{MeterID: 1, Value: 150}, {MeterID: 1, Value: 160}},
	}

	statuses := BuildReadingsStatus(meters, byMeter)
	require.Len(t, statuses, 2)

	assert.True(t, statuses[0].HasReadings)
	assert.Equal(t, 2, statuses[0].ReadingsCount)
	assert.False(t, statuses[1].HasReadings)
	assert.Zero(t, statuses[1].ReadingsCount)
}

func TestBuildReadingDebts(t *testing.T) {
	// Both meters belong to tenant 100; only meter 1 got a reading this
	// month, so the tenant owes exactly the other meter.
	meters := []models.Meter{
		{ID: 1, Name: "Electricity", ReadingResponsibleID: 100, ReadingResponsible: "Alice"},
		{ID: 2, Name: "Water", ReadingResponsibleID: 100, ReadingResponsible: "Alice"},
		{ID: 3, Name: "Gas", ReadingResponsibleID: 200, ReadingResponsible: "Bob"},
	}
	byMeter := map[int64][]models.Reading{
		1: {{MeterID: 1, Value: 150}},
	}

	debts := BuildReadingDebts(meters, byMeter)
	require.Len(t, debts, 2)

	assert.Equal(t, int64(100), debts[0].TelegramID)
	assert.Equal(t, []string{"Water"}, debts[0].Meters)

	assert.Equal(t, int64(200), debts[1].TelegramID)
	assert.Equal(t, []string{"Gas"}, debts[1].Meters)
}

func TestBuildReadingDebtsSkipsUnassignedMeters(t *testing.T) {
	meters := []models.Meter{
		{ID: 1, Name: "Common area", ReadingResponsibleID: 0},
	}

	debts := BuildReadingDebts(meters, nil)
	assert.Empty(t, debts)
}

func TestBuildReadingDebtsAllSubmitted(t *testing.T) {
	meters := []models.Meter{
		{ID: 1, Name: "Electricity", ReadingResponsibleID: 100, ReadingResponsible: "Alice"},
	}
	byMeter := map[int64][]models.Reading{
		1: {{MeterID: 1}},
	}

	assert.Empty(t, BuildReadingDebts(meters, byMeter))
}

func TestBuildPaymentDebts(t *testing.T) {
	invoices := []models.Invoice{
		{PremiseID: 1, PremiseName: "Flat 1", PayerID: 100, PayerName: "Alice", Amount: 275, Status: models.StatusUnpaid},
		{PremiseID: 2, PremiseName: "Flat 2", PayerID: 100, PayerName: "Alice", Amount: 125, Status: models.StatusUnpaid},
		{PremiseID: 3, PremiseName: "Flat 3", PayerID: 200, PayerName: "Bob", Amount: 80, Status: models.StatusUnpaid},
	}

	debts := BuildPaymentDebts(invoices)
	require.Len(t, debts, 2)

	assert.Equal(t, int64(100), debts[0].TelegramID)
	assert.Equal(t, 400.0, debts[0].Total)
	assert.Equal(t, []string{"Flat 1", "Flat 2"}, debts[0].Premises)

	assert.Equal(t, int64(200), debts[1].TelegramID)
	assert.Equal(t, 80.0, debts[1].Total)
}

func TestBuildPaymentDebtsFiltersNonActionable(t *testing.T) {
	invoices := []models.Invoice{
		{PremiseID: 1, PayerID: 100, Amount: 0, Status: models.StatusUnpaid},
		{PremiseID: 2, PayerID: 100, Amount: 120, Status: models.StatusDraft},
		{PremiseID: 3, PayerID: 100, Amount: 90, Status: models.StatusPaid},
		{PremiseID: 4, PayerID: 0, Amount: 50, Status: models.StatusUnpaid},
	}

	assert.Empty(t, BuildPaymentDebts(invoices))
}
