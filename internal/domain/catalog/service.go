package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/domain"
)

// Service is a bookable catalog entry. The catalog team owns it; this service
// keeps a local projection fed by catalog events and admin upserts.
type Service struct {
	id             uuid.UUID
	name           string
	category       string
	basePriceCents int64
	currency       string
	active         bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewService validates a catalog entry. id comes from the upstream catalog.
func NewService(id uuid.UUID, name, category string, basePriceCents int64, currency string, now time.Time) (*Service, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("service name is required")
	}
	if basePriceCents < 0 {
		return nil, domain.NewValidationError("base price cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, domain.NewValidationError("currency must be a 3-letter code")
	}

	return &Service{
		id:             id,
		name:           name,
		category:       category,
		basePriceCents: basePriceCents,
		currency:       currency,
		active:         true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructService rebuilds a Service from persistence data (no validation).
func ReconstructService(id uuid.UUID, name, category string, basePriceCents int64, currency string, active bool, createdAt, updatedAt time.Time) *Service {
	return &Service{
		id:             id,
		name:           name,
		category:       category,
		basePriceCents: basePriceCents,
		currency:       currency,
		active:         active,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (s *Service) ID() uuid.UUID         { return s.id }
func (s *Service) Name() string          { return s.name }
func (s *Service) Category() string      { return s.category }
func (s *Service) BasePriceCents() int64 { return s.basePriceCents }
func (s *Service) Currency() string      { return s.currency }
func (s *Service) IsActive() bool        { return s.active }
func (s *Service) CreatedAt() time.Time  { return s.createdAt }
func (s *Service) UpdatedAt() time.Time  { return s.updatedAt }

// Archive removes the service from the bookable catalog.
func (s *Service) Archive(now time.Time) {
	s.active = false
	s.updatedAt = now
}
