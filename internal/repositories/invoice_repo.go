package repositories

import (
	"context"
	"fmt"
	"time"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
)

type InvoiceRepository interface {
	List(ctx context.Context) ([]models.Invoice, error)
	GetByPremise(ctx context.Context, premiseID int64) (models.Invoice, error)
	GetByPremiseFresh(ctx context.Context, premiseID int64) (models.Invoice, error)
	ListForTenant(ctx context.Context, telegramID int64) ([]models.Invoice, error)
	ListUnpaidForTenant(ctx context.Context, telegramID int64) ([]models.Invoice, error)
	ListUnpaid(ctx context.Context) ([]models.Invoice, error)
	ListDraft(ctx context.Context) ([]models.Invoice, error)
	ListNeedingPush(ctx context.Context) ([]models.Invoice, error)
	Create(ctx context.Context, invoice models.Invoice) error
	SetIssuedAmount(ctx context.Context, premiseID int64, amount float64) error
	SetComputedAmount(ctx context.Context, premiseID int64, amount float64) error
	MarkPaid(ctx context.Context, premiseID int64, date time.Time) error
	ClearNeedPush(ctx context.Context, premiseID int64) error
}

type invoiceRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewInvoiceRepo(client sheets.Client, cache caching.Cache) InvoiceRepository {
	return &invoiceRepo{client: client, cache: cache}
}

func (r *invoiceRepo) List(ctx context.Context) ([]models.Invoice, error) {
	return fetchCached(ctx, r.cache, cacheKeyInvoices, func(ctx context.Context) ([]models.Invoice, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetInvoices)
		if err != nil {
			return nil, err
		}
		invoices := make([]models.Invoice, 0, len(rows))
		for _, row := range rows {
			invoices = append(invoices, models.InvoiceFromRow(row.Cells, row.Num))
		}
		return invoices, nil
	})
}

func (r *invoiceRepo) GetByPremise(ctx context.Context, premiseID int64) (models.Invoice, error) {
	invoices, err := r.List(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	for _, inv := range invoices {
		if inv.PremiseID == premiseID {
			return inv, nil
		}
	}
	return models.Invoice{}, fmt.Errorf("invoice for premise %d: %w", premiseID, models.ErrNotFound)
}

// GetByPremiseFresh reads the invoice row straight from the store, skipping
// the cache. Paths that snapshot the formula-computed amount into a written
// cell use this so the snapshot reflects the amount as it is now, not as of
// the last cached fetch.
func (r *invoiceRepo) GetByPremiseFresh(ctx context.Context, premiseID int64) (models.Invoice, error) {
	row, err := r.findPremiseRow(ctx, premiseID)
	if err != nil {
		return models.Invoice{}, err
	}
	return models.InvoiceFromRow(row.Cells, row.Num), nil
}

func (r *invoiceRepo) ListForTenant(ctx context.Context, telegramID int64) ([]models.Invoice, error) {
	return r.listWhere(ctx, func(inv models.Invoice) bool { return inv.PayerID == telegramID })
}

// ListUnpaidForTenant returns the tenant's actionable invoices only. Unpaid
// status should imply a positive amount, but a zero or negative invoice must
// never reach a tenant as payable, so the amount is checked too.
func (r *invoiceRepo) ListUnpaidForTenant(ctx context.Context, telegramID int64) ([]models.Invoice, error) {
	return r.listWhere(ctx, func(inv models.Invoice) bool {
		return inv.PayerID == telegramID && inv.Actionable()
	})
}

func (r *invoiceRepo) ListUnpaid(ctx context.Context) ([]models.Invoice, error) {
	return r.listWhere(ctx, func(inv models.Invoice) bool { return inv.Actionable() })
}

func (r *invoiceRepo) ListDraft(ctx context.Context) ([]models.Invoice, error) {
	return r.listWhere(ctx, func(inv models.Invoice) bool {
		return inv.Status == models.StatusDraft && inv.Amount > 0
	})
}

func (r *invoiceRepo) ListNeedingPush(ctx context.Context) ([]models.Invoice, error) {
	return r.listWhere(ctx, func(inv models.Invoice) bool { return inv.NeedPush })
}

func (r *invoiceRepo) listWhere(ctx context.Context, keep func(models.Invoice) bool) ([]models.Invoice, error) {
	invoices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Create appends a fresh invoice row with a zero issued amount. The amount
// cell is seeded with the computed total until the store's formula takes
// over; the status column is written blank for the store to own.
func (r *invoiceRepo) Create(ctx context.Context, invoice models.Invoice) error {
	err := r.client.AppendRow(ctx, sheets.SheetInvoices, []any{
		invoice.PremiseID,
		invoice.PremiseName,
		invoice.PayerID,
		invoice.PayerName,
		invoice.Amount,
		0,  // issued_amount
		"", // status, formula
		0,  // need_push
		"", // last_paid_date
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyInvoices)
	return nil
}

func (r *invoiceRepo) SetIssuedAmount(ctx context.Context, premiseID int64, amount float64) error {
	return r.updateCell(ctx, premiseID, sheets.InvoiceColIssuedAmount, amount)
}

func (r *invoiceRepo) SetComputedAmount(ctx context.Context, premiseID int64, amount float64) error {
	return r.updateCell(ctx, premiseID, sheets.InvoiceColAmount, amount)
}

func (r *invoiceRepo) ClearNeedPush(ctx context.Context, premiseID int64) error {
	return r.updateCell(ctx, premiseID, sheets.InvoiceColNeedPush, 0)
}

// MarkPaid zeroes the issued amount and stamps the payment date in one
// batched call. The status column flips to Paid store-side.
func (r *invoiceRepo) MarkPaid(ctx context.Context, premiseID int64, date time.Time) error {
	row, err := r.findPremiseRow(ctx, premiseID)
	if err != nil {
		return err
	}

	err = r.client.BatchUpdate(ctx, sheets.SheetInvoices, []sheets.RangeUpdate{
		{Range: sheets.Cell(sheets.InvoiceColIssuedAmount, row.Num), Values: [][]any{{0}}},
		{Range: sheets.Cell(sheets.InvoiceColLastPaidDate, row.Num), Values: [][]any{{date.Format(dateLayout)}}},
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyInvoices)
	return nil
}

func (r *invoiceRepo) updateCell(ctx context.Context, premiseID int64, col string, value any) error {
	row, err := r.findPremiseRow(ctx, premiseID)
	if err != nil {
		return err
	}
	if err := r.client.UpdateRange(ctx, sheets.SheetInvoices, sheets.Cell(col, row.Num), [][]any{{value}}); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyInvoices)
	return nil
}

// findPremiseRow re-fetches the worksheet uncached so the write lands on the
// row's current position, not a cached one.
func (r *invoiceRepo) findPremiseRow(ctx context.Context, premiseID int64) (sheets.Row, error) {
	rows, err := r.client.GetAllRecords(ctx, sheets.SheetInvoices)
	if err != nil {
		return sheets.Row{}, err
	}
	row, ok := findRowByID(rows, "premise_id", premiseID)
	if !ok {
		return sheets.Row{}, fmt.Errorf("invoice for premise %d: %w", premiseID, models.ErrNotFound)
	}
	return row, nil
}
