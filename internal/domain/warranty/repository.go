package warranty

import (
	"context"

	"github.com/google/uuid"
)

// ClaimFilter narrows claim listings. Zero values mean no filter.
type ClaimFilter struct {
	ClientID        *uuid.UUID
	AssignedAgentID *uuid.UUID
	Status          ClaimStatus
}

// ClaimRepository defines the persistence contract for warranty claims.
type ClaimRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Claim, error)
	List(ctx context.Context, filter ClaimFilter, page, limit int) ([]*Claim, int64, error)

	// Save inserts a new claim. A second claim for the same booking fails with a
	// duplicate_claim error from the storage-level unique constraint.
	Save(ctx context.Context, claim *Claim) error

	// Update is a conditional write on (id, version-1, expected status).
	Update(ctx context.Context, claim *Claim, expected ClaimStatus) error
}
