package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/domain"
)

// Provider is the directory projection of a provider account.
type Provider struct {
	id          uuid.UUID
	displayName string
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewProvider validates a directory entry.
func NewProvider(id uuid.UUID, displayName string, now time.Time) (*Provider, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, domain.NewValidationError("provider display name is required")
	}
	return &Provider{id: id, displayName: displayName, active: true, createdAt: now, updatedAt: now}, nil
}

// ReconstructProvider rebuilds a Provider from persistence data.
func ReconstructProvider(id uuid.UUID, displayName string, active bool, createdAt, updatedAt time.Time) *Provider {
	return &Provider{id: id, displayName: displayName, active: active, createdAt: createdAt, updatedAt: updatedAt}
}

func (p *Provider) ID() uuid.UUID        { return p.id }
func (p *Provider) DisplayName() string  { return p.displayName }
func (p *Provider) IsActive() bool       { return p.active }
func (p *Provider) CreatedAt() time.Time { return p.createdAt }
func (p *Provider) UpdatedAt() time.Time { return p.updatedAt }

// Deactivate stops the provider from receiving new assignments.
func (p *Provider) Deactivate(now time.Time) {
	p.active = false
	p.updatedAt = now
}
