package repositories

import (
	"context"
	"fmt"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
)

type TenantRepository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	GetOwner(ctx context.Context) (models.Tenant, error)
	Add(ctx context.Context, telegramID int64, name, phone string) error
}

type tenantRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewTenantRepo(client sheets.Client, cache caching.Cache) TenantRepository {
	return &tenantRepo{client: client, cache: cache}
}

// listRaw returns every row including the owner.
func (r *tenantRepo) listRaw(ctx context.Context) ([]models.Tenant, error) {
	return fetchCached(ctx, r.cache, cacheKeyTenants, func(ctx context.Context) ([]models.Tenant, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetTenants)
		if err != nil {
			return nil, err
		}
		tenants := make([]models.Tenant, 0, len(rows))
		for _, row := range rows {
			tenants = append(tenants, models.TenantFromRow(row.Cells, row.Num))
		}
		return tenants, nil
	})
}

func (r *tenantRepo) GetByTelegramID(ctx context.Context, telegramID int64) (models.Tenant, error) {
	tenants, err := r.listRaw(ctx)
	if err != nil {
		return models.Tenant{}, err
	}
	for _, t := range tenants {
		if t.TelegramID == telegramID {
			return t, nil
		}
	}
	return models.Tenant{}, fmt.Errorf("tenant %d: %w", telegramID, models.ErrNotFound)
}

// ListTenants returns everyone except the owner.
func (r *tenantRepo) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	tenants, err := r.listRaw(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Tenant, 0, len(tenants))
	for _, t := range tenants {
		if !t.IsOwner {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetOwner returns the single row flagged is_owner. A collection without one
// violates the data model, so the absence is reported as an inconsistency
// rather than a plain not-found.
func (r *tenantRepo) GetOwner(ctx context.Context) (models.Tenant, error) {
	tenants, err := r.listRaw(ctx)
	if err != nil {
		return models.Tenant{}, err
	}
	for _, t := range tenants {
		if t.IsOwner {
			return t, nil
		}
	}
	return models.Tenant{}, fmt.Errorf("no owner row in tenants collection: %w", models.ErrInconsistent)
}

func (r *tenantRepo) Add(ctx context.Context, telegramID int64, name, phone string) error {
	if telegramID == 0 || name == "" {
		return fmt.Errorf("tenant id and name are required: %w", models.ErrInvalidInput)
	}
	if err := r.client.AppendRow(ctx, sheets.SheetTenants, []any{telegramID, name, phone, "FALSE"}); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cacheKeyTenants)
	return nil
}
