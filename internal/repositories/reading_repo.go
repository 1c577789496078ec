package repositories

import (
	"context"
	"fmt"
	"strings"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
)

type ReadingRepository interface {
	List(ctx context.Context) ([]models.Reading, error)
	ListForMeter(ctx context.Context, meterID int64) ([]models.Reading, error)
	LastForMeter(ctx context.Context, meterID int64) (models.Reading, error)
	Append(ctx context.Context, reading models.Reading) error
	CurrentMonthByMeter(ctx context.Context, month string) (map[int64][]models.Reading, error)
}

type readingRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewReadingRepo(client sheets.Client, cache caching.Cache) ReadingRepository {
	return &readingRepo{client: client, cache: cache}
}

func (r *readingRepo) List(ctx context.Context) ([]models.Reading, error) {
	return fetchCached(ctx, r.cache, cacheKeyReadings, func(ctx context.Context) ([]models.Reading, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetReadings)
		if err != nil {
			return nil, err
		}
		readings := make([]models.Reading, 0, len(rows))
		for _, row := range rows {
			readings = append(readings, models.ReadingFromRow(row.Cells, row.Num))
		}
		return readings, nil
	})
}

func (r *readingRepo) ListForMeter(ctx context.Context, meterID int64) ([]models.Reading, error) {
	readings, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Reading, 0)
	for _, rd := range readings {
		if rd.MeterID == meterID {
			out = append(out, rd)
		}
	}
	return out, nil
}

// LastForMeter returns the newest log entry for the meter. The log is
// append-only, so the last matching row is the newest.
func (r *readingRepo) LastForMeter(ctx context.Context, meterID int64) (models.Reading, error) {
	matching, err := r.ListForMeter(ctx, meterID)
	if err != nil {
		return models.Reading{}, err
	}
	if len(matching) == 0 {
		return models.Reading{}, fmt.Errorf("no readings for meter %d: %w", meterID, models.ErrNotFound)
	}
	return matching[len(matching)-1], nil
}

// Append writes one log row. Invalidating "readings" also sweeps every
// readings_map_* aggregation snapshot by substring.
func (r *readingRepo) Append(ctx context.Context, reading models.Reading) error {
	err := r.client.AppendRow(ctx, sheets.SheetReadings, []any{
		reading.Date,
		reading.MeterID,
		reading.MeterName,
		reading.PremiseID,
		reading.PremiseName,
		reading.TelegramID,
		reading.TenantName,
		reading.Value,
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyReadings)
	return nil
}

// CurrentMonthByMeter groups the log by meter for entries whose date starts
// with the given "YYYY-MM" month. Cached under a month-scoped key, so the
// view invalidates itself at month rollover.
func (r *readingRepo) CurrentMonthByMeter(ctx context.Context, month string) (map[int64][]models.Reading, error) {
	key := cacheKeyReadingsMapPre + month
	return fetchCached(ctx, r.cache, key, func(ctx context.Context) (map[int64][]models.Reading, error) {
		readings, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		byMeter := make(map[int64][]models.Reading)
		for _, rd := range readings {
			if strings.HasPrefix(rd.Date, month) {
				byMeter[rd.MeterID] = append(byMeter[rd.MeterID], rd)
			}
		}
		return byMeter, nil
	})
}
