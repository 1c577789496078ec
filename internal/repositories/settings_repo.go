package repositories

import (
	"context"
	"fmt"
	"strconv"

	"rentabill/internal/caching"
	"rentabill/internal/models"
	"rentabill/internal/sheets"
	"rentabill/pkg/sheetval"
)

// Defaults applied when the settings collection has no row for a key.
const (
	defaultPaymentDetails    = "Payment details not configured"
	defaultReadingsStartDay  = 15
	defaultReadingsEndDay    = 20
	settingKeyPaymentDetails = "payment_details"
	settingKeyReadingsStart  = "readings_start_day"
	settingKeyReadingsEnd    = "readings_end_day"
)

type SettingsRepository interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	PaymentDetails(ctx context.Context) (string, error)
	ReadingsPeriod(ctx context.Context) (startDay, endDay int, err error)
}

type settingsRepo struct {
	client sheets.Client
	cache  caching.Cache
}

func NewSettingsRepo(client sheets.Client, cache caching.Cache) SettingsRepository {
	return &settingsRepo{client: client, cache: cache}
}

func (r *settingsRepo) All(ctx context.Context) (map[string]string, error) {
	return fetchCached(ctx, r.cache, cacheKeySettings, func(ctx context.Context) (map[string]string, error) {
		rows, err := r.client.GetAllRecords(ctx, sheets.SheetSettings)
		if err != nil {
			return nil, err
		}
		settings := make(map[string]string, len(rows))
		for _, row := range rows {
			key := sheetval.String(row.Cells, "key")
			if key == "" {
				continue
			}
			settings[key] = sheetval.String(row.Cells, "value")
		}
		return settings, nil
	})
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	settings, err := r.All(ctx)
	if err != nil {
		return "", err
	}
	value, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, models.ErrNotFound)
	}
	return value, nil
}

// PaymentDetails returns the owner's bank details text shown to paying
// tenants, with a visible placeholder when unset.
func (r *settingsRepo) PaymentDetails(ctx context.Context) (string, error) {
	settings, err := r.All(ctx)
	if err != nil {
		return "", err
	}
	if details := settings[settingKeyPaymentDetails]; details != "" {
		return details, nil
	}
	return defaultPaymentDetails, nil
}

// ReadingsPeriod returns the day-of-month window during which reading
// reminders fire.
func (r *settingsRepo) ReadingsPeriod(ctx context.Context) (int, int, error) {
	settings, err := r.All(ctx)
	if err != nil {
		return 0, 0, err
	}

	start := defaultReadingsStartDay
	if raw := settings[settingKeyReadingsStart]; raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			start = v
		}
	}
	end := defaultReadingsEndDay
	if raw := settings[settingKeyReadingsEnd]; raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			end = v
		}
	}
	return start, end, nil
}
