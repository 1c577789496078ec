// Package repositories exposes typed, cached accessors over the entity
// collections of the remote store, plus the mutators that write through and
// invalidate. Lookups are in-memory filters over one cached "get all" fetch:
// collections are tens to low hundreds of rows, so O(n) beats a second
// round trip.
//
// Mutators re-fetch the collection uncached to locate the target row before
// writing, then invalidate the collection's cache keys before returning, so
// the next read is fresh relative to that write.
package repositories

import (
	"context"
	"encoding/json"

	"rentabill/internal/caching"
	"rentabill/internal/sheets"
	"rentabill/pkg/sheetval"
)

// Cache keys per collection. Invalidation matches by substring, so
// "readings" also sweeps every "readings_map_<month>" aggregation snapshot.
const (
	cacheKeyPremises       = "premises"
	cacheKeyTenants        = "tenants_raw"
	cacheKeyMeters         = "meters"
	cacheKeyReadings       = "readings"
	cacheKeyReadingsMapPre = "readings_map_"
	cacheKeyInvoices       = "invoices"
	cacheKeyPayments       = "payments"
	cacheKeyTariffs        = "tariffs"
	cacheKeySettings       = "settings"
)

// Cell date formats used across the collections.
const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04"
)

// fetchCached reads a collection through the cache. Cache failures (miss,
// expired, undecodable snapshot) fall through to fetch; fetch errors are
// surfaced unmodified and never cached.
func fetchCached[T any](ctx context.Context, cache caching.Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if data, ok := cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if data, err := json.Marshal(v); err == nil {
		cache.Set(ctx, key, data)
	}
	return v, nil
}

// findRowByID locates the worksheet row whose idColumn cell equals id.
func findRowByID(rows []sheets.Row, idColumn string, id int64) (sheets.Row, bool) {
	for _, row := range rows {
		if sheetval.Int(row.Cells, idColumn) == id {
			return row, true
		}
	}
	return sheets.Row{}, false
}

// nextID returns max(id)+1 over the fetched rows, starting from 1.
func nextID(rows []sheets.Row, idColumn string) int64 {
	var maxID int64
	for _, row := range rows {
		if id := sheetval.Int(row.Cells, idColumn); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
