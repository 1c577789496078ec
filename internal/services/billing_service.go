package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"rentabill/internal/models"
	"rentabill/internal/repositories"
)

// BillingService drives the invoice lifecycle (Draft -> Unpaid -> Paid) and
// the payment transaction. The status column itself is derived store-side
// from issued amount versus computed amount; this service only ever moves
// the issued amount.
type BillingService struct {
	meters   repositories.MeterRepository
	invoices repositories.InvoiceRepository
	payments repositories.PaymentRepository
}

func NewBillingService(meters repositories.MeterRepository, invoices repositories.InvoiceRepository, payments repositories.PaymentRepository) *BillingService {
	return &BillingService{meters: meters, invoices: invoices, payments: payments}
}

// Issue snapshots the invoice's current computed amount into its issued
// amount; the store then derives Unpaid when the amount is positive.
// Returns the invoice as read at issue time so the caller can notify the
// payer with the exact amount that was billed.
//
// The amount is read fresh, never through the cache: the computed amount is
// a live formula over the meters, and issuing must bill what the store owes
// right now, not what it owed when the cache last filled.
//
// Issue never touches the need-push flag: this is the synchronous "owner
// issues now" path and the caller notifies immediately. The scheduled push
// sweep must stay the only consumer of that flag, or a tenant gets notified
// twice for one invoice.
func (s *BillingService) Issue(ctx context.Context, premiseID int64) (models.Invoice, error) {
	invoice, err := s.invoices.GetByPremiseFresh(ctx, premiseID)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := s.invoices.SetIssuedAmount(ctx, premiseID, invoice.Amount); err != nil {
		return models.Invoice{}, err
	}
	invoice.IssuedAmount = invoice.Amount
	return invoice, nil
}

// Recalculate recomputes the premise's total owed from the unbilled amounts
// of its meters, patching the existing invoice row or creating a Draft row
// when none exists and something is owed. The meters are read fresh for the
// same reason Issue reads fresh: the unbilled amounts are live formulas and
// the written total must match them at write time. The payment-responsible
// identity is taken from the premise's first meter; meter creation enforces
// one payer per premise, so any meter carries the same identity.
func (s *BillingService) Recalculate(ctx context.Context, premiseID int64) error {
	meters, err := s.meters.ListByPremiseFresh(ctx, premiseID)
	if err != nil {
		return err
	}

	var total float64
	var payerID int64
	var payerName, premiseName string
	for _, m := range meters {
		total += m.UnbilledAmount
		if payerID == 0 {
			payerID = m.PaymentResponsibleID
			payerName = m.PaymentResponsible
			premiseName = m.PremiseName
		}
	}

	_, err = s.invoices.GetByPremise(ctx, premiseID)
	if errors.Is(err, models.ErrNotFound) {
		if total <= 0 {
			return nil
		}
		return s.invoices.Create(ctx, models.Invoice{
			PremiseID:   premiseID,
			PremiseName: premiseName,
			PayerID:     payerID,
			PayerName:   payerName,
			Amount:      total,
		})
	}
	if err != nil {
		return err
	}
	return s.invoices.SetComputedAmount(ctx, premiseID, total)
}

// Pay runs the payment transaction for a premise: three ordered store writes
// with no cross-step atomicity and no rollback.
//
//  1. Stamp every meter's paid reading to its current last reading (one
//     batched write). Idempotent, so a retry or a crash before step 2 leaves
//     nothing to repair.
//  2. Append the payment-log row. The audit trail exists before the debt
//     signal is destroyed: if step 3 fails there is durable proof of payment
//     and an operator can close the invoice by hand.
//  3. Zero the invoice's issued amount and stamp the payment date.
//
// A failure is returned wrapped with the step that died; earlier steps are
// left as they landed, inspectable in the store.
func (s *BillingService) Pay(ctx context.Context, premiseID, payerID int64, payerName string, amount float64, receiptRef string) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("payment amount %v: %w", amount, models.ErrInvalidInput)
	}

	now := time.Now()

	if err := s.meters.MarkPremisePaid(ctx, premiseID, now); err != nil {
		return fmt.Errorf("payment step 1/3, stamp meters for premise %d: %w", premiseID, err)
	}

	var premiseName string
	if metersOfPremise, err := s.meters.ListByPremise(ctx, premiseID); err == nil && len(metersOfPremise) > 0 {
		premiseName = metersOfPremise[0].PremiseName
	}

	payment := models.Payment{
		Date:        now.Format("2006-01-02 15:04"),
		PremiseID:   premiseID,
		PremiseName: premiseName,
		TelegramID:  payerID,
		TenantName:  payerName,
		Amount:      amount,
		Receipt:     receiptRef,
	}
	if err := s.payments.Append(ctx, payment); err != nil {
		return fmt.Errorf("payment step 2/3, append payment log for premise %d: %w", premiseID, err)
	}

	if err := s.invoices.MarkPaid(ctx, premiseID, now); err != nil {
		return fmt.Errorf("payment step 3/3, close invoice for premise %d (payment is logged, close manually): %w", premiseID, err)
	}

	log.Printf("payment recorded: premise=%d payer=%d amount=%.2f", premiseID, payerID, amount)
	return nil
}

// InvoicesNeedingPush returns invoices flagged for notification by the store.
func (s *BillingService) InvoicesNeedingPush(ctx context.Context) ([]models.Invoice, error) {
	return s.invoices.ListNeedingPush(ctx)
}

// ClearNeedPush drops an invoice's notification flag. The sweep must call
// this exactly once per notified invoice whether or not the outbound send
// succeeded; re-flagging on send failure would renotify on every tick.
func (s *BillingService) ClearNeedPush(ctx context.Context, premiseID int64) error {
	return s.invoices.ClearNeedPush(ctx, premiseID)
}

// UnpaidForTenant returns the tenant's actionable invoices.
func (s *BillingService) UnpaidForTenant(ctx context.Context, telegramID int64) ([]models.Invoice, error) {
	return s.invoices.ListUnpaidForTenant(ctx, telegramID)
}

// PaymentHistory returns the premise's payment-log entries in append order.
func (s *BillingService) PaymentHistory(ctx context.Context, premiseID int64) ([]models.Payment, error) {
	return s.payments.ListForPremise(ctx, premiseID)
}
