package review

import (
	"context"

	"github.com/google/uuid"
)

// ProviderRating summarises a provider's reviews.
type ProviderRating struct {
	Count   int64
	Average float64
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	// Save inserts a review. A second review for the same booking fails with a
	// duplicate_review error.
	Save(ctx context.Context, review *Review) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Review, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Review, int64, error)
	RatingForProvider(ctx context.Context, providerID uuid.UUID) (ProviderRating, error)
}
