package repositories

import (
	"context"
	"fmt"
	"time"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
	"rentabill/pkg/sheetval"
)

type MeterRepository interface {
	List(ctx context.Context) ([]models.Meter, error)
	GetByID(ctx context.Context, id int64) (models.Meter, error)
	ListForReadings(ctx context.Context, telegramID int64) ([]models.Meter, error)
	ListForPayment(ctx context.Context, telegramID int64) ([]models.Meter, error)
	ListByPremise(ctx context.Context, premiseID int64) ([]models.Meter, error)
	ListByPremiseFresh(ctx context.Context, premiseID int64) ([]models.Meter, error)
	Add(ctx context.Context, meter models.Meter) (int64, error)
	UpdateLastReading(ctx context.Context, meterID int64, value float64, date time.Time) error
	MarkPaid(ctx context.Context, meterID int64, date time.Time) (models.Meter, error)
	MarkPremisePaid(ctx context.Context, premiseID int64, date time.Time) error
}

type meterRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewMeterRepo(client sheets.Client, cache caching.Cache) MeterRepository {
	return &meterRepo{client: client, cache: cache}
}

func (r *meterRepo) List(ctx context.Context) ([]models.Meter, error) {
	return fetchCached(ctx, r.cache, cacheKeyMeters, func(ctx context.Context) ([]models.Meter, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
		if err != nil {
			return nil, err
		}
		meters := make([]models.Meter, 0, len(rows))
		for _, row := range rows {
			meters = append(meters, models.MeterFromRow(row.Cells, row.Num))
		}
		return meters, nil
	})
}

func (r *meterRepo) GetByID(ctx context.Context, id int64) (models.Meter, error) {
	meters, err := r.List(ctx)
	if err != nil {
		return models.Meter{}, err
	}
	for _, m := range meters {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Meter{}, fmt.Errorf("meter %d: %w", id, models.ErrNotFound)
}

func (r *meterRepo) ListForReadings(ctx context.Context, telegramID int64) ([]models.Meter, error) {
	return r.listWhere(ctx, func(m models.Meter) bool { return m.ReadingResponsibleID == telegramID })
}

func (r *meterRepo) ListForPayment(ctx context.Context, telegramID int64) ([]models.Meter, error) {
	return r.listWhere(ctx, func(m models.Meter) bool { return m.PaymentResponsibleID == telegramID })
}

func (r *meterRepo) ListByPremise(ctx context.Context, premiseID int64) ([]models.Meter, error) {
	return r.listWhere(ctx, func(m models.Meter) bool { return m.PremiseID == premiseID })
}

// ListByPremiseFresh reads the premise's meters straight from the store,
// skipping the cache. The invoice recalculation sums formula-derived amounts
// into a written cell and must see those formulas as they are now.
func (r *meterRepo) ListByPremiseFresh(ctx context.Context, premiseID int64) ([]models.Meter, error) {
	rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
	if err != nil {
		return nil, err
	}
	out := make([]models.Meter, 0, len(rows))
	for _, row := range rows {
		if sheetval.Int(row.Cells, "premise_id") != premiseID {
			continue
		}
		out = append(out, models.MeterFromRow(row.Cells, row.Num))
	}
	return out, nil
}

func (r *meterRepo) listWhere(ctx context.Context, keep func(models.Meter) bool) ([]models.Meter, error) {
	meters, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Meter, 0, len(meters))
	for _, m := range meters {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Add appends a new meter row and returns its id. The tariff and unbilled
// columns are left blank for the store's formulas to fill.
func (r *meterRepo) Add(ctx context.Context, meter models.Meter) (int64, error) {
	if meter.Name == "" || meter.PremiseID == 0 {
		return 0, fmt.Errorf("meter name and premise are required: %w", models.ErrInvalidInput)
	}

	rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
	if err != nil {
		return 0, err
	}
	id := nextID(rows, "id")

	err = r.client.AppendRow(ctx, sheets.SheetMeters, []any{
		id,
		meter.PremiseID,
		meter.PremiseName,
		meter.Name,
		meter.Type,
		meter.Unit,
		"", // tariff, formula
		meter.ReadingResponsibleID,
		meter.ReadingResponsible,
		meter.PaymentResponsibleID,
		meter.PaymentResponsible,
		0,  // last_reading
		"", // last_reading_date
		0,  // paid_reading
		"", // paid_date
	})
	if err != nil {
		return 0, err
	}
	r.cache.Invalidate(ctx, cacheKeyMeters)
	return id, nil
}

// UpdateLastReading stamps the meter's last reading and its date in one
// range write. The unbilled columns recalculate store-side.
func (r *meterRepo) UpdateLastReading(ctx context.Context, meterID int64, value float64, date time.Time) error {
	rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
	if err != nil {
		return err
	}
	row, ok := findRowByID(rows, "id", meterID)
	if !ok {
		return fmt.Errorf("meter %d: %w", meterID, models.ErrNotFound)
	}

	rng := sheets.RowRange(sheets.MeterColLastReading, sheets.MeterColLastReadingDate, row.Num)
	if err := r.client.UpdateRange(ctx, sheets.SheetMeters, rng, [][]any{{value, date.Format(dateLayout)}}); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyMeters)
	return nil
}

// MarkPaid copies the meter's last reading into its paid reading and stamps
// the payment date. Idempotent: repeating the write converges on the same
// paid-through value. Returns the meter as read before the write, so the
// caller sees the consumption and amount the formulas held at that moment.
func (r *meterRepo) MarkPaid(ctx context.Context, meterID int64, date time.Time) (models.Meter, error) {
	rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
	if err != nil {
		return models.Meter{}, err
	}
	row, ok := findRowByID(rows, "id", meterID)
	if !ok {
		return models.Meter{}, fmt.Errorf("meter %d: %w", meterID, models.ErrNotFound)
	}
	meter := models.MeterFromRow(row.Cells, row.Num)

	rng := sheets.RowRange(sheets.MeterColPaidReading, sheets.MeterColPaidDate, row.Num)
	if err := r.client.UpdateRange(ctx, sheets.SheetMeters, rng, [][]any{{meter.LastReading, date.Format(dateLayout)}}); err != nil {
		return models.Meter{}, err
	}
	r.cache.Invalidate(ctx, cacheKeyMeters)
	return meter, nil
}

// MarkPremisePaid stamps paid reading and date for every meter of the
// premise in a single batched write, so the payment transaction spends one
// round trip here instead of one per meter.
func (r *meterRepo) MarkPremisePaid(ctx context.Context, premiseID int64, date time.Time) error {
	rows, err := r.client.GetAllRecords(ctx, sheets.SheetMeters)
	if err != nil {
		return err
	}

	day := date.Format(dateLayout)
	var updates []sheets.RangeUpdate
	for _, row := range rows {
		if sheetval.Int(row.Cells, "premise_id") != premiseID {
			continue
		}
		lastReading := sheetval.Float(row.Cells, "last_reading")
		updates = append(updates, sheets.RangeUpdate{
			Range:  sheets.RowRange(sheets.MeterColPaidReading, sheets.MeterColPaidDate, row.Num),
			Values: [][]any{{lastReading, day}},
		})
	}
	if len(updates) == 0 {
		return nil
	}

	if err := r.client.BatchUpdate(ctx, sheets.SheetMeters, updates); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyMeters)
	return nil
}
