package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/catalog"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// CatalogService maintains the local service catalog and provider directory
// projections and resolves them for the lifecycle managers.
type CatalogService struct {
	services  catalog.ServiceRepository
	providers catalog.ProviderRepository
	clock     lifecycle.Clock
	logger    *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(services catalog.ServiceRepository, providers catalog.ProviderRepository, clock lifecycle.Clock, logger *zap.Logger) *CatalogService {
	return &CatalogService{services: services, providers: providers, clock: clock, logger: logger}
}

// ResolveService returns an active catalog service.
func (s *CatalogService) ResolveService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive() {
		return nil, domain.NewNotFoundError("service", id.String()).With("reason", "archived")
	}
	return svc, nil
}

// ResolveProvider returns an active provider.
func (s *CatalogService) ResolveProvider(ctx context.Context, id uuid.UUID) (*catalog.Provider, error) {
	p, err := s.providers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, domain.NewNotFoundError("provider", id.String()).With("reason", "deactivated")
	}
	return p, nil
}

// ListServices returns the bookable catalog.
func (s *CatalogService) ListServices(ctx context.Context) ([]ServiceDTO, error) {
	services, err := s.services.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return dtos, nil
}

// UpsertService inserts or replaces a catalog entry.
func (s *CatalogService) UpsertService(ctx context.Context, id uuid.UUID, req UpsertServiceRequest) (*ServiceDTO, error) {
	now := s.clock.Now()
	svc, err := catalog.NewService(id, req.Name, req.Category, req.BasePriceCents, req.Currency, now)
	if err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		svc.Archive(now)
	}

	if err := s.services.Upsert(ctx, svc); err != nil {
		s.logger.Error("failed to upsert service", zap.Error(err))
		return nil, fmt.Errorf("failed to upsert service: %w", err)
	}

	s.logger.Info("catalog service upserted",
		zap.String("service_id", id.String()),
		zap.Int64("base_price_cents", svc.BasePriceCents()),
		zap.Bool("active", svc.IsActive()),
	)
	result := toServiceDTO(svc)
	return &result, nil
}

// ArchiveService removes a service from the bookable catalog. Existing bookings keep
// the base price captured at creation.
func (s *CatalogService) ArchiveService(ctx context.Context, id uuid.UUID) error {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return err
	}
	svc.Archive(s.clock.Now())
	if err := s.services.Upsert(ctx, svc); err != nil {
		return fmt.Errorf("failed to archive service: %w", err)
	}
	s.logger.Info("catalog service archived", zap.String("service_id", id.String()))
	return nil
}

// UpsertProvider inserts or replaces a directory entry.
func (s *CatalogService) UpsertProvider(ctx context.Context, id uuid.UUID, req UpsertProviderRequest) (*ProviderDTO, error) {
	now := s.clock.Now()
	p, err := catalog.NewProvider(id, req.DisplayName, now)
	if err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		p.Deactivate(now)
	}

	if err := s.providers.Upsert(ctx, p); err != nil {
		s.logger.Error("failed to upsert provider", zap.Error(err))
		return nil, fmt.Errorf("failed to upsert provider: %w", err)
	}

	s.logger.Info("provider upserted",
		zap.String("provider_id", id.String()),
		zap.Bool("active", p.IsActive()),
	)
	result := toProviderDTO(p)
	return &result, nil
}

// DeactivateProvider stops a provider from receiving new assignments.
func (s *CatalogService) DeactivateProvider(ctx context.Context, id uuid.UUID) error {
	p, err := s.providers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Deactivate(s.clock.Now())
	if err := s.providers.Upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to deactivate provider: %w", err)
	}
	s.logger.Info("provider deactivated", zap.String("provider_id", id.String()))
	return nil
}
