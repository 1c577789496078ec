package repositories

import (
	"context"
	"fmt"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
)

type PremiseRepository interface {
	List(ctx context.Context) ([]models.Premise, error)
	GetByID(ctx context.Context, id int64) (models.Premise, error)
	Add(ctx context.Context, name, address string) (int64, error)
}

type premiseRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewPremiseRepo(client sheets.Client, cache caching.Cache) PremiseRepository {
	return &premiseRepo{client: client, cache: cache}
}

func (r *premiseRepo) List(ctx context.Context) ([]models.Premise, error) {
	return fetchCached(ctx, r.cache, cacheKeyPremises, func(ctx context.Context) ([]models.Premise, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetPremises)
		if err != nil {
			return nil, err
		}
		premises := make([]models.Premise, 0, len(rows))
		for _, row := range rows {
			premises = append(premises, models.PremiseFromRow(row.Cells, row.Num))
		}
		return premises, nil
	})
}

func (r *premiseRepo) GetByID(ctx context.Context, id int64) (models.Premise, error) {
	premises, err := r.List(ctx)
	if err != nil {
		return models.Premise{}, err
	}
	for _, p := range premises {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Premise{}, fmt.Errorf("premise %d: %w", id, models.ErrNotFound)
}

// Add appends a new premise row with the next free id and returns that id.
func (r *premiseRepo) Add(ctx context.Context, name, address string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("premise name is required: %w", models.ErrInvalidInput)
	}

	rows, err := r.client.GetAllRecords(ctx, sheets.SheetPremises)
	if err != nil {
		return 0, err
	}
	id := nextID(rows, "id")

	if err := r.client.AppendRow(ctx, sheets.SheetPremises, []any{id, name, address}); err != nil {
		return 0, err
	}
	r.cache.Invalidate(ctx, cacheKeyPremises)
	return id, nil
}
