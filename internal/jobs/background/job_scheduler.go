// Package background runs the periodic jobs: the invoice push sweep, the
// monthly readings reminder and the payment reminders. Each job is an
// independent trigger over the core's cached read paths; none of them hold
// state of their own.
package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"rentabill/internal/analytics"
	"rentabill/internal/repositories"
	"rentabill/internal/services"
)

// JobScheduler owns the gocron scheduler and the job wiring.
type JobScheduler struct {
	scheduler gocron.Scheduler
	billing   *services.BillingService
	analytics *analytics.Service
	meters    repositories.MeterRepository
	settings  repositories.SettingsRepository
	notifier  services.Notifier
}

func NewJobScheduler(billing *services.BillingService, analyticsSvc *analytics.Service,
	meters repositories.MeterRepository, settings repositories.SettingsRepository,
	notifier services.Notifier) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		billing:   billing,
		analytics: analyticsSvc,
		meters:    meters,
		settings:  settings,
		notifier:  notifier,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler.
func (js *JobScheduler) Start() {
	log.Printf("starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler.
func (js *JobScheduler) Stop() error {
	log.Printf("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	// Push sweep every 5 minutes. Singleton mode: the interval is short
	// enough that a slow sweep could overlap the next tick, and two sweeps
	// racing on the same need-push flags would double-send.
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.RunPushSweep, context.Background()),
		gocron.WithName("invoice-push-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	// Readings reminder daily at 10:00; RunReadingsReminder itself checks
	// the configured day-of-month window.
	_, err = js.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(10, 0, 0))),
		gocron.NewTask(js.RunReadingsReminder, context.Background()),
		gocron.WithName("readings-reminder"),
	)
	if err != nil {
		return err
	}

	// Payment reminders on the 1st and 5th of each month at 10:00.
	_, err = js.scheduler.NewJob(
		gocron.MonthlyJob(1, gocron.NewDaysOfTheMonth(1, 5), gocron.NewAtTimes(gocron.NewAtTime(10, 0, 0))),
		gocron.NewTask(js.RunPaymentReminder, context.Background()),
		gocron.WithName("payment-reminder"),
	)
	return err
}

// RunPushSweep notifies payers of invoices the store flagged need_push, then
// clears each flag exactly once. The flag is cleared even when the send
// fails: a transient Telegram error must not turn into a renotification
// storm on every five-minute tick.
func (js *JobScheduler) RunPushSweep(ctx context.Context) {
	invoices, err := js.billing.InvoicesNeedingPush(ctx)
	if err != nil {
		log.Printf("push sweep: listing flagged invoices failed: %v", err)
		return
	}
	if len(invoices) == 0 {
		return
	}

	paymentDetails, err := js.settings.PaymentDetails(ctx)
	if err != nil {
		log.Printf("push sweep: reading payment details failed: %v", err)
		return
	}

	for _, invoice := range invoices {
		if invoice.PayerID == 0 {
			log.Printf("push sweep: invoice for premise %d has no payer, clearing flag", invoice.PremiseID)
			js.clearPush(ctx, invoice.PremiseID)
			continue
		}

		meters, err := js.meters.ListByPremise(ctx, invoice.PremiseID)
		if err != nil {
			log.Printf("push sweep: listing meters for premise %d failed: %v", invoice.PremiseID, err)
			meters = nil
		}

		text := services.BuildInvoiceNotice(invoice, meters, paymentDetails)
		if err := js.notifier.Send(invoice.PayerID, text); err != nil {
			log.Printf("push sweep: notifying tenant %d for premise %d failed: %v", invoice.PayerID, invoice.PremiseID, err)
		}
		js.clearPush(ctx, invoice.PremiseID)
	}
}

func (js *JobScheduler) clearPush(ctx context.Context, premiseID int64) {
	if err := js.billing.ClearNeedPush(ctx, premiseID); err != nil {
		log.Printf("push sweep: clearing need_push for premise %d failed: %v", premiseID, err)
	}
}

// RunReadingsReminder nudges tenants who have not submitted readings this
// month. Only fires within the configured day-of-month window.
func (js *JobScheduler) RunReadingsReminder(ctx context.Context) {
	startDay, endDay, err := js.settings.ReadingsPeriod(ctx)
	if err != nil {
		log.Printf("readings reminder: reading period setting failed: %v", err)
		return
	}
	today := time.Now().Day()
	if today < startDay || today > endDay {
		return
	}

	debts, err := js.analytics.TenantsWithoutReadings(ctx)
	if err != nil {
		log.Printf("readings reminder: building debtor list failed: %v", err)
		return
	}

	for _, debt := range debts {
		if err := js.notifier.Send(debt.TelegramID, services.BuildReadingReminder(debt)); err != nil {
			log.Printf("readings reminder: notifying tenant %d failed: %v", debt.TelegramID, err)
		}
	}
}

// RunPaymentReminder nudges tenants with outstanding invoices.
func (js *JobScheduler) RunPaymentReminder(ctx context.Context) {
	debts, err := js.analytics.TenantsWithUnpaid(ctx)
	if err != nil {
		log.Printf("payment reminder: building debtor list failed: %v", err)
		return
	}
	if len(debts) == 0 {
		return
	}

	paymentDetails, err := js.settings.PaymentDetails(ctx)
	if err != nil {
		log.Printf("payment reminder: reading payment details failed: %v", err)
		return
	}

	for _, debt := range debts {
		if err := js.notifier.Send(debt.TelegramID, services.BuildPaymentReminder(debt, paymentDetails)); err != nil {
			log.Printf("payment reminder: notifying tenant %d failed: %v", debt.TelegramID, err)
		}
	}
}
