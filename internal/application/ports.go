package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/domain/catalog"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// ServiceCatalog resolves bookable services. Archived or unknown services are not_found.
type ServiceCatalog interface {
	ResolveService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// ProviderDirectory resolves active providers. Deactivated or unknown providers are not_found.
type ProviderDirectory interface {
	ResolveProvider(ctx context.Context, id uuid.UUID) (*catalog.Provider, error)
}

// AuditSink records compliance events.
type AuditSink interface {
	Record(ctx context.Context, event lifecycle.AuditEvent) error
}

// Notifier delivers notifications to users or the admin pool.
type Notifier interface {
	Emit(ctx context.Context, n lifecycle.Notification) error
}

// Dispatcher hands a committed transition's side effects to the sinks. It must
// not block the caller and must not report sink failures back.
type Dispatcher interface {
	Dispatch(ctx context.Context, out lifecycle.Outbox)
}
