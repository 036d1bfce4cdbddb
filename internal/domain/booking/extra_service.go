package booking

import (
	"time"

	"github.com/google/uuid"
)

// ExtraServiceStatus is the negotiation state of a provider-proposed add-on.
type ExtraServiceStatus string

const (
	ExtraPending   ExtraServiceStatus = "pending"
	ExtraConfirmed ExtraServiceStatus = "confirmed"
)

// ExtraServiceRequest is extra work proposed by the provider while the booking is in progress.
// It only affects price once the client confirms it.
type ExtraServiceRequest struct {
	ID          uuid.UUID          `json:"id"`
	ServiceID   uuid.UUID          `json:"service_id"`
	Name        string             `json:"name"`
	PriceCents  int64              `json:"price_cents"`
	Status      ExtraServiceStatus `json:"status"`
	ProposedAt  time.Time          `json:"proposed_at"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
}

// IsPending reports whether the client has not confirmed the extra yet.
func (e ExtraServiceRequest) IsPending() bool { return e.Status == ExtraPending }
