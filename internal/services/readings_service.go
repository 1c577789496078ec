package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"rentabill/internal/models"
	"rentabill/internal/repositories"
)

// ReadingsService accepts meter readings from tenants: it appends to the
// readings log and advances the meter's last reading.
type ReadingsService struct {
	meters   repositories.MeterRepository
	readings repositories.ReadingRepository
	tenants  repositories.TenantRepository
}

func NewReadingsService(meters repositories.MeterRepository, readings repositories.ReadingRepository, tenants repositories.TenantRepository) *ReadingsService {
	return &ReadingsService{meters: meters, readings: readings, tenants: tenants}
}

// Submit records a reading for a meter. The UI validates the value upstream;
// the monotonicity check repeats here because a decreased last reading
// corrupts every consumption formula downstream.
//
// Two writes, ordered log-first: if the meter update then fails, the log
// entry survives and the meter row merely lags one value behind, which the
// next submission repairs.
func (s *ReadingsService) Submit(ctx context.Context, meterID, telegramID int64, value float64) (models.Meter, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return models.Meter{}, fmt.Errorf("reading value %v: %w", value, models.ErrInvalidInput)
	}

	meter, err := s.meters.GetByID(ctx, meterID)
	if err != nil {
		return models.Meter{}, err
	}
	if value < meter.LastReading {
		return models.Meter{}, fmt.Errorf("reading %v is below last reading %v for meter %d: %w",
			value, meter.LastReading, meterID, models.ErrInvalidInput)
	}

	tenant, err := s.tenants.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return models.Meter{}, err
	}

	now := time.Now()
	reading := models.Reading{
		Date:        now.Format("2006-01-02 15:04"),
		MeterID:     meter.ID,
		MeterName:   meter.Name,
		PremiseID:   meter.PremiseID,
		PremiseName: meter.PremiseName,
		TelegramID:  tenant.TelegramID,
		TenantName:  tenant.Name,
		Value:       value,
	}
	if err := s.readings.Append(ctx, reading); err != nil {
		return models.Meter{}, err
	}

	if err := s.meters.UpdateLastReading(ctx, meterID, value, now); err != nil {
		return models.Meter{}, err
	}

	meter.LastReading = value
	meter.LastReadingDate = now.Format("2006-01-02")
	return meter, nil
}

// MetersFor lists the meters the tenant submits readings for.
func (s *ReadingsService) MetersFor(ctx context.Context, telegramID int64) ([]models.Meter, error) {
	return s.meters.ListForReadings(ctx, telegramID)
}
