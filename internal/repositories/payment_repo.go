package repositories

import (
	"context"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
)

type PaymentRepository interface {
	List(ctx context.Context) ([]models.Payment, error)
	ListForPremise(ctx context.Context, premiseID int64) ([]models.Payment, error)
	Append(ctx context.Context, payment models.Payment) error
}

type paymentRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewPaymentRepo(client sheets.Client, cache caching.Cache) PaymentRepository {
	return &paymentRepo{client: client, cache: cache}
}

func (r *paymentRepo) List(ctx context.Context) ([]models.Payment, error) {
	return fetchCached(ctx, r.cache, cacheKeyPayments, func(ctx context.Context) ([]models.Payment, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetPayments)
		if err != nil {
			return nil, err
		}
		payments := make([]models.Payment, 0, len(rows))
		for _, row := range rows {
			payments = append(payments, models.PaymentFromRow(row.Cells, row.Num))
		}
		return payments, nil
	})
}

func (r *paymentRepo) ListForPremise(ctx context.Context, premiseID int64) ([]models.Payment, error) {
	payments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0)
	for _, p := range payments {
		if p.PremiseID == premiseID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Append writes one audit-trail row. The payment log is append-only; rows
// are never patched or removed.
func (r *paymentRepo) Append(ctx context.Context, payment models.Payment) error {
	err := r.client.AppendRow(ctx, sheets.SheetPayments, []any{
		payment.Date,
		payment.PremiseID,
		payment.PremiseName,
		payment.TelegramID,
		payment.TenantName,
		payment.Amount,
		payment.Receipt,
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyPayments)
	return nil
}
