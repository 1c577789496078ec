package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rentabill/internal/caching"
	"rentabill/internal/services"
	"rentabill/internal/sheets"
)

// HealthHandlers exposes the deployment probe. It checks the remote store
// with a cheap worksheet read and object storage with a bucket existence
// call; the cache is in-process and only reports its backend kind.
type HealthHandlers struct {
	store    sheets.Client
	cache    caching.Cache
	receipts services.ReceiptService
}

func NewHealthHandlers(store sheets.Client, cache caching.Cache, receipts services.ReceiptService) *HealthHandlers {
	return &HealthHandlers{store: store, cache: cache, receipts: receipts}
}

// HealthStatus is the probe response body.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck reports store and object-storage reachability.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  map[string]string{"cache": h.cache.Kind()},
	}

	if _, err := h.store.GetAllRecords(ctx, sheets.SheetSettings); err != nil {
		status.Status = "unhealthy"
		status.Services["store"] = "unreachable: " + err.Error()
	} else {
		status.Services["store"] = "ok"
	}

	if h.receipts != nil {
		if err := h.receipts.Ping(ctx); err != nil {
			status.Status = "unhealthy"
			status.Services["receipts"] = "unreachable: " + err.Error()
		} else {
			status.Services["receipts"] = "ok"
		}
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// Register mounts the probe routes.
func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/healthz", h.HealthCheck)
}
