package services

import (
	"context"
	"fmt"

	"rentabill/internal/models"
	"rentabill/internal/repositories"
)

// ManagementService covers the owner's administrative actions: adding
// premises and meters, and changing tariffs.
type ManagementService struct {
	premises repositories.PremiseRepository
	meters   repositories.MeterRepository
	tenants  repositories.TenantRepository
	tariffs  repositories.TariffRepository
}

func NewManagementService(premises repositories.PremiseRepository, meters repositories.MeterRepository, tenants repositories.TenantRepository, tariffs repositories.TariffRepository) *ManagementService {
	return &ManagementService{premises: premises, meters: meters, tenants: tenants, tariffs: tariffs}
}

// AddPremise creates a premise row and returns its id.
func (s *ManagementService) AddPremise(ctx context.Context, name, address string) (int64, error) {
	return s.premises.Add(ctx, name, address)
}

// RegisterTenant records a new tenant. Registering an id that already exists
// is rejected so a re-run of the registration flow cannot duplicate rows.
func (s *ManagementService) RegisterTenant(ctx context.Context, telegramID int64, name, phone string) error {
	_, err := s.tenants.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return fmt.Errorf("tenant %d already registered: %w", telegramID, models.ErrInvalidInput)
	}
	if !models.IsNotFound(err) {
		return err
	}
	return s.tenants.Add(ctx, telegramID, name, phone)
}

// AddMeter creates a meter under a premise, resolving display names for the
// premise and both responsible tenants.
//
// One payer per premise is an invariant: the invoice row carries a single
// payment-responsible identity, so a second meter whose payer differs from
// the premise's existing meters is rejected rather than silently letting the
// invoice pick one of them.
func (s *ManagementService) AddMeter(ctx context.Context, premiseID int64, name, meterType, unit string, readingResponsible, paymentResponsible int64) (int64, error) {
	premise, err := s.premises.GetByID(ctx, premiseID)
	if err != nil {
		return 0, err
	}
	reader, err := s.tenants.GetByTelegramID(ctx, readingResponsible)
	if err != nil {
		return 0, err
	}
	payer, err := s.tenants.GetByTelegramID(ctx, paymentResponsible)
	if err != nil {
		return 0, err
	}

	existing, err := s.meters.ListByPremise(ctx, premiseID)
	if err != nil {
		return 0, err
	}
	for _, m := range existing {
		if m.PaymentResponsibleID != paymentResponsible {
			return 0, fmt.Errorf("premise %d already bills tenant %d, cannot add meter paid by %d: %w",
				premiseID, m.PaymentResponsibleID, paymentResponsible, models.ErrInvalidInput)
		}
	}

	return s.meters.Add(ctx, models.Meter{
		PremiseID:            premise.ID,
		PremiseName:          premise.Name,
		Name:                 name,
		Type:                 meterType,
		Unit:                 unit,
		ReadingResponsibleID: reader.TelegramID,
		ReadingResponsible:   reader.Name,
		PaymentResponsibleID: payer.TelegramID,
		PaymentResponsible:   payer.Name,
	})
}

// UpdateTariff changes the rate for a tariff type.
func (s *ManagementService) UpdateTariff(ctx context.Context, tariffType string, rate float64) error {
	return s.tariffs.Update(ctx, tariffType, rate)
}
