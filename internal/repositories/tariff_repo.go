package repositories

import (
	"context"
	"fmt"
	"math"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
	"rentabill/pkg/sheetval"
)

type TariffRepository interface {
	List(ctx context.Context) ([]models.Tariff, error)
	GetByType(ctx context.Context, tariffType string) (models.Tariff, error)
	Update(ctx context.Context, tariffType string, rate float64) error
}

type tariffRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewTariffRepo(client sheets.Client, cache caching.Cache) TariffRepository {
	return &tariffRepo{client: client, cache: cache}
}

func (r *tariffRepo) List(ctx context.Context) ([]models.Tariff, error) {
	return fetchCached(ctx, r.cache, cacheKeyTariffs, func(ctx context.Context) ([]models.Tariff, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetTariffs)
		if err != nil {
			return nil, err
		}
		tariffs := make([]models.Tariff, 0, len(rows))
		for _, row := range rows {
			tariffs = append(tariffs, models.TariffFromRow(row.Cells, row.Num))
		}
		return tariffs, nil
	})
}

func (r *tariffRepo) GetByType(ctx context.Context, tariffType string) (models.Tariff, error) {
	tariffs, err := r.List(ctx)
	if err != nil {
		return models.Tariff{}, err
	}
	for _, t := range tariffs {
		if t.Type == tariffType {
			return t, nil
		}
	}
	return models.Tariff{}, fmt.Errorf("tariff %q: %w", tariffType, models.ErrNotFound)
}

// Update rewrites the rate cell for the given tariff type. Meter rows pick
// the new rate up through their formulas.
func (r *tariffRepo) Update(ctx context.Context, tariffType string, rate float64) error {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("tariff rate %v: %w", rate, models.ErrInvalidInput)
	}

	rows, err := r.client.GetAllRecords(ctx, sheets.SheetTariffs)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if sheetval.String(row.Cells, "type") != tariffType {
			continue
		}
		if err := r.client.UpdateRange(ctx, sheets.SheetTariffs, sheets.Cell(sheets.TariffColRate, row.Num), [][]any{{rate}}); err != nil {
			return err
		}
		r.cache.Invalidate(ctx, cacheKeyTariffs)
		return nil
	}
	return fmt.Errorf("tariff %q: %w", tariffType, models.ErrNotFound)
}
