package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"rentabill/internal/analytics"
	"rentabill/internal/models"
	"rentabill/internal/services"
)

// APIHandlers exposes the core operations over HTTP for the owner's tooling
// and for the chat frontends that drive the bot. Inputs arrive validated
// field-by-field upstream; the services re-check the numerics.
type APIHandlers struct {
	billing    *services.BillingService
	readings   *services.ReadingsService
	management *services.ManagementService
	analytics  *analytics.Service
	receipts   services.ReceiptService
}

func NewAPIHandlers(billing *services.BillingService, readings *services.ReadingsService,
	management *services.ManagementService, analyticsSvc *analytics.Service,
	receipts services.ReceiptService) *APIHandlers {
	return &APIHandlers{
		billing:    billing,
		readings:   readings,
		management: management,
		analytics:  analyticsSvc,
		receipts:   receipts,
	}
}

// Register mounts the API routes.
func (h *APIHandlers) Register(e *echo.Echo) {
	e.POST("/api/premises", h.AddPremise)
	e.GET("/api/premises/:premiseID/payments", h.PaymentHistory)
	e.POST("/api/meters", h.AddMeter)
	e.POST("/api/tenants", h.RegisterTenant)
	e.GET("/api/tenants/:telegramID/invoices", h.UnpaidInvoices)
	e.POST("/api/readings", h.SubmitReading)
	e.POST("/api/invoices/:premiseID/issue", h.IssueInvoice)
	e.POST("/api/invoices/:premiseID/recalculate", h.RecalculateInvoice)
	e.POST("/api/payments", h.RecordPayment)
	e.PUT("/api/tariffs/:type", h.UpdateTariff)
	e.GET("/api/overview/readings-status", h.ReadingsStatus)
	e.GET("/api/overview/without-readings", h.TenantsWithoutReadings)
	e.GET("/api/overview/unpaid", h.TenantsWithUnpaid)
	e.POST("/api/receipts", h.UploadReceipt)
}

type addPremiseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *APIHandlers) AddPremise(c echo.Context) error {
	var req addPremiseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	id, err := h.management.AddPremise(c.Request().Context(), req.Name, req.Address)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func (h *APIHandlers) PaymentHistory(c echo.Context) error {
	premiseID, err := paramInt64(c, "premiseID")
	if err != nil {
		return badRequest(c, "invalid premise id")
	}
	payments, err := h.billing.PaymentHistory(c.Request().Context(), premiseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, payments)
}

type registerTenantRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

func (h *APIHandlers) RegisterTenant(c echo.Context) error {
	var req registerTenantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.management.RegisterTenant(c.Request().Context(), req.TelegramID, req.Name, req.Phone); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *APIHandlers) UnpaidInvoices(c echo.Context) error {
	telegramID, err := paramInt64(c, "telegramID")
	if err != nil {
		return badRequest(c, "invalid telegram id")
	}
	invoices, err := h.billing.UnpaidForTenant(c.Request().Context(), telegramID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, invoices)
}

type addMeterRequest struct {
	PremiseID          int64  `json:"premise_id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Unit               string `json:"unit"`
	ReadingResponsible int64  `json:"reading_responsible_id"`
	PaymentResponsible int64  `json:"payment_responsible_id"`
}

func (h *APIHandlers) AddMeter(c echo.Context) error {
	var req addMeterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	id, err := h.management.AddMeter(c.Request().Context(), req.PremiseID, req.Name, req.Type, req.Unit,
		req.ReadingResponsible, req.PaymentResponsible)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

type submitReadingRequest struct {
	MeterID    int64   `json:"meter_id"`
	TelegramID int64   `json:"telegram_id"`
	Value      float64 `json:"value"`
}

func (h *APIHandlers) SubmitReading(c echo.Context) error {
	var req submitReadingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	meter, err := h.readings.Submit(c.Request().Context(), req.MeterID, req.TelegramID, req.Value)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, meter)
}

func (h *APIHandlers) IssueInvoice(c echo.Context) error {
	premiseID, err := paramInt64(c, "premiseID")
	if err != nil {
		return badRequest(c, "invalid premise id")
	}
	invoice, err := h.billing.Issue(c.Request().Context(), premiseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *APIHandlers) RecalculateInvoice(c echo.Context) error {
	premiseID, err := paramInt64(c, "premiseID")
	if err != nil {
		return badRequest(c, "invalid premise id")
	}
	if err := h.billing.Recalculate(c.Request().Context(), premiseID); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type recordPaymentRequest struct {
	PremiseID int64   `json:"premise_id"`
	PayerID   int64   `json:"payer_id"`
	PayerName string  `json:"payer_name"`
	Amount    float64 `json:"amount"`
	Receipt   string  `json:"receipt"`
}

func (h *APIHandlers) RecordPayment(c echo.Context) error {
	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	err := h.billing.Pay(c.Request().Context(), req.PremiseID, req.PayerID, req.PayerName, req.Amount, req.Receipt)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type updateTariffRequest struct {
	Rate float64 `json:"rate"`
}

func (h *APIHandlers) UpdateTariff(c echo.Context) error {
	var req updateTariffRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.management.UpdateTariff(c.Request().Context(), c.Param("type"), req.Rate); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *APIHandlers) ReadingsStatus(c echo.Context) error {
	status, err := h.analytics.ReadingsStatus(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *APIHandlers) TenantsWithoutReadings(c echo.Context) error {
	debts, err := h.analytics.TenantsWithoutReadings(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, debts)
}

func (h *APIHandlers) TenantsWithUnpaid(c echo.Context) error {
	debts, err := h.analytics.TenantsWithUnpaid(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, debts)
}

// UploadReceipt stores a receipt image and returns the opaque reference the
// payment endpoint expects in its receipt field.
func (h *APIHandlers) UploadReceipt(c echo.Context) error {
	if h.receipts == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "receipt storage not configured"})
	}
	telegramID, err := strconv.ParseInt(c.QueryParam("telegram_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid telegram_id")
	}
	req := c.Request()
	ref, err := h.receipts.Upload(req.Context(), telegramID, req.Body, req.ContentLength)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"receipt": ref})
}

func paramInt64(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

// errorResponse maps the core's error taxonomy onto HTTP statuses, so a
// caller can tell "nothing to show" (404) from "could not reach the store"
// (503).
func errorResponse(c echo.Context, err error) error {
	switch {
	case models.IsNotFound(err):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case models.IsTransient(err):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
