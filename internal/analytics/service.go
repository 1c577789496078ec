// Package analytics derives the aggregate views the reminder jobs and the
// owner's overview render: who has submitted readings this month, who still
// owes readings, and who owes money. Views are recomputed on every call from
// the cached underlying collections and are never persisted themselves.
package analytics

import (
	"context"
	"sort"
	"time"

	"rentabill/internal/models"
	"rentabill/internal/repositories"
)

// MeterReadingStatus tells whether a meter received a reading in the current
// calendar month.
type MeterReadingStatus struct {
	Meter         models.Meter
	HasReadings   bool
	ReadingsCount int
}

// ReadingDebt is one tenant who still owes readings, with the meter names
// they are responsible for.
type ReadingDebt struct {
	TelegramID int64
	Name       string
	Meters     []string
}

// PaymentDebt is one tenant with a positive outstanding balance across their
// premises.
type PaymentDebt struct {
	TelegramID int64
	Name       string
	Total      float64
	Premises   []string
}

type Service struct {
	meters   repositories.MeterRepository
	readings repositories.ReadingRepository
	invoices repositories.InvoiceRepository
}

func NewService(meters repositories.MeterRepository, readings repositories.ReadingRepository, invoices repositories.InvoiceRepository) *Service {
	return &Service{meters: meters, readings: readings, invoices: invoices}
}

// MonthKey renders the year-month prefix reading dates are matched against.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ReadingsStatus reports, per meter, whether a reading was logged since the
// start of the current calendar month.
func (s *Service) ReadingsStatus(ctx context.Context) ([]MeterReadingStatus, error) {
	meters, err := s.meters.List(ctx)
	if err != nil {
		return nil, err
	}
	byMeter, err := s.readings.CurrentMonthByMeter(ctx, MonthKey(time.Now()))
	if err != nil {
		return nil, err
	}
	return BuildReadingsStatus(meters, byMeter), nil
}

// TenantsWithoutReadings lists tenants whose meters lack a current-month
// entry, one record per reading-responsible tenant.
func (s *Service) TenantsWithoutReadings(ctx context.Context) ([]ReadingDebt, error) {
	meters, err := s.meters.List(ctx)
	if err != nil {
		return nil, err
	}
	byMeter, err := s.readings.CurrentMonthByMeter(ctx, MonthKey(time.Now()))
	if err != nil {
		return nil, err
	}
	return BuildReadingDebts(meters, byMeter), nil
}

// TenantsWithUnpaid lists tenants with actionable unpaid invoices, summing
// amounts per payment-responsible tenant.
func (s *Service) TenantsWithUnpaid(ctx context.Context) ([]PaymentDebt, error) {
	unpaid, err := s.invoices.ListUnpaid(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPaymentDebts(unpaid), nil
}

// BuildReadingsStatus is the pure grouping behind ReadingsStatus.
func BuildReadingsStatus(meters []models.Meter, byMeter map[int64][]models.Reading) []MeterReadingStatus {
	out := make([]MeterReadingStatus, 0, len(meters))
	for _, m := range meters {
		count := len(byMeter[m.ID])
		out = append(out, MeterReadingStatus{
			Meter:         m,
			HasReadings:   count > 0,
			ReadingsCount: count,
		})
	}
	return out
}

// BuildReadingDebts groups meters without a current-month reading by their
// reading-responsible tenant. Output is ordered by tenant id so callers and
// tests see a stable sequence.
func BuildReadingDebts(meters []models.Meter, byMeter map[int64][]models.Reading) []ReadingDebt {
	debts := make(map[int64]*ReadingDebt)
	for _, m := range meters {
		if len(byMeter[m.ID]) > 0 {
			continue
		}
		if m.ReadingResponsibleID == 0 {
			continue
		}
		debt, ok := debts[m.ReadingResponsibleID]
		if !ok {
			debt = &ReadingDebt{TelegramID: m.ReadingResponsibleID, Name: m.ReadingResponsible}
			debts[m.ReadingResponsibleID] = debt
		}
		debt.Meters = append(debt.Meters, m.Name)
	}
	return sortedByID(debts)
}

// BuildPaymentDebts groups actionable invoices by payer, summing amounts and
// collecting premise names. Input is expected pre-filtered to Unpaid with
// positive amount; the filter is re-applied here all the same.
func BuildPaymentDebts(invoices []models.Invoice) []PaymentDebt {
	debts := make(map[int64]*PaymentDebt)
	for _, inv := range invoices {
		if !inv.Actionable() || inv.PayerID == 0 {
			continue
		}
		debt, ok := debts[inv.PayerID]
		if !ok {
			debt = &PaymentDebt{TelegramID: inv.PayerID, Name: inv.PayerName}
			debts[inv.PayerID] = debt
		}
		debt.Total += inv.Amount
		debt.Premises = append(debt.Premises, inv.PremiseName)
	}
	return sortedByID(debts)
}

type hasID interface {
	ReadingDebt | PaymentDebt
}

func sortedByID[T hasID](m map[int64]*T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(m))
	for _, id := range ids {
		out = append(out, *m[id])
	}
	return out
}
