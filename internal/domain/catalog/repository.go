package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository persists catalog services.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListActive(ctx context.Context) ([]*Service, error)
	// Upsert inserts or replaces the service by ID.
	Upsert(ctx context.Context, service *Service) error
}

// ProviderRepository persists directory providers.
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Upsert(ctx context.Context, provider *Provider) error
}
