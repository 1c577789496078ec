package background

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentabill/internal/analytics"
	"rentabill/internal/caching"
	"rentabill/internal/repositories"
	"rentabill/internal/services"
	"rentabill/internal/sheets"
	"rentabill/testhelpers"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sends []int64
	err   error
}

func (n *recordingNotifier) Send(chatID int64, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, chatID)
	return n.err
}

func (n *recordingNotifier) sentTo() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.sends...)
}

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

func newScheduler(t *testing.T, store *testhelpers.FakeStore, notifier services.Notifier) *JobScheduler {
	t.Helper()
	cache := caching.NewMemoryCache(time.Minute)
	meters := repositories.NewMeterRepo(store, cache)
	readings := repositories.NewReadingRepo(store, cache)
	invoices := repositories.NewInvoiceRepo(store, cache)
	payments := repositories.NewPaymentRepo(store, cache)
	settings := repositories.NewSettingsRepo(store, cache)

	billing := services.NewBillingService(meters, invoices, payments)
	analyticsSvc := analytics.NewService(meters, readings, invoices)

	js, err := NewJobScheduler(billing, analyticsSvc, meters, settings, notifier)
	require.NoError(t, err)
	t.Cleanup(func() { js.Stop() })
	return js
}

func seedSweepStore() *testhelpers.FakeStore {
	store := testhelpers.NewFakeStore()
	store.Seed(sheets.SheetMeters, [][]string{
		meterHeader,
		{"1", "1", "Flat 1", "Electricity", "electricity", "kWh", "5.5", "100", "Alice", "100", "Alice", "150", "2026-08-10", "100", "2026-07-05", "50", "275"},
	})
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "100", "Alice", "275", "275", "Unpaid", "1", ""},
		{"2", "Flat 2", "200", "Bob", "80", "80", "Unpaid", "0", ""},
	})
	store.Seed(sheets.SheetSettings, [][]string{
		{"key", "value"},
		{"payment_details", "Bank acct 123"},
	})
	store.Seed(sheets.SheetReadings, [][]string{
		{"date", "meter_id", "meter", "premise_id", "premise", "telegram_id", "tenant", "value"},
	})
	return store
}

func TestPushSweepNotifiesAndClearsFlag(t *testing.T) {
	store := seedSweepStore()
	notifier := &recordingNotifier{}
	js := newScheduler(t, store, notifier)

	js.RunPushSweep(context.Background())

	assert.Equal(t, []int64{100}, notifier.sentTo())
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 2, 8))
	// The unflagged invoice stays quiet.
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 3, 8))
}

func TestPushSweepClearsFlagWhenSendFails(t *testing.T) {
	store := seedSweepStore()
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	js := newScheduler(t, store, notifier)

	js.RunPushSweep(context.Background())

	// The flag drops regardless, so the next tick does not renotify.
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 2, 8))

	js.RunPushSweep(context.Background())
	assert.Equal(t, []int64{100}, notifier.sentTo())
}

func TestPushSweepClearsPayerlessInvoiceWithoutSending(t *testing.T) {
	store := seedSweepStore()
	store.Seed(sheets.SheetInvoices, [][]string{
		invoiceHeader,
		{"1", "Flat 1", "0", "", "275", "275", "Unpaid", "1", ""},
	})
	notifier := &recordingNotifier{}
	js := newScheduler(t, store, notifier)

	js.RunPushSweep(context.Background())

	assert.Empty(t, notifier.sentTo())
	assert.Equal(t, "0", store.Cell(sheets.SheetInvoices, 2, 8))
}

func TestReadingsReminderHonorsDayWindow(t *testing.T) {
	store := seedSweepStore()
	today := time.Now().Day()
	store.Seed(sheets.SheetSettings, [][]string{
		{"key", "value"},
		{"readings_start_day", "1"},
		{"readings_end_day", "31"},
	})
	notifier := &recordingNotifier{}
	js := newScheduler(t, store, notifier)

	// No readings submitted this month, the window covers today.
	js.RunReadingsReminder(context.Background())
	assert.Equal(t, []int64{100}, notifier.sentTo())

	// Move the window past today and nothing fires.
	outside := &recordingNotifier{}
	store.Seed(sheets.SheetSettings, [][]string{
		{"key", "value"},
		{"readings_start_day", strconv.Itoa(today + 1)},
		{"readings_end_day", strconv.Itoa(today + 2)},
	})
	js2 := newScheduler(t, store, outside)
	js2.RunReadingsReminder(context.Background())
	assert.Empty(t, outside.sentTo())
}

func TestPaymentReminderNotifiesDebtors(t *testing.T) {
	store := seedSweepStore()
	notifier := &recordingNotifier{}
	js := newScheduler(t, store, notifier)

	js.RunPaymentReminder(context.Background())

	// Both Unpaid invoices have positive amounts, one reminder per payer.
	assert.ElementsMatch(t, []int64{100, 200}, notifier.sentTo())
}
