package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
	"github.com/homefix/service-lifecycle/internal/domain/review"
)

// ReviewService handles provider reviews, one per completed booking.
type ReviewService struct {
	reviews    review.ReviewRepository
	bookings   bookingDomain.BookingRepository
	dispatcher Dispatcher
	clock      lifecycle.Clock
	logger     *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviews review.ReviewRepository,
	bookings bookingDomain.BookingRepository,
	dispatcher Dispatcher,
	clock lifecycle.Clock,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		bookings:   bookings,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

// SubmitReview records the client's rating of a completed booking.
func (s *ReviewService) SubmitReview(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, req SubmitReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	r, err := review.NewReview(actor, bk, req.Rating, req.Comment, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Save(ctx, r); err != nil {
		if domain.IsKind(err, domain.KindDuplicateReview) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	s.dispatcher.Dispatch(ctx, r.PullOutbox())

	s.logger.Info("review submitted",
		zap.String("review_id", r.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int("rating", r.Rating()),
	)

	result := toReviewDTO(r)
	return &result, nil
}

// ListProviderReviews returns a page of a provider's reviews with the overall rating.
func (s *ReviewService) ListProviderReviews(ctx context.Context, providerID uuid.UUID, page, limit int) (*ProviderReviewsDTO, error) {
	reviews, total, err := s.reviews.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	rating, err := s.reviews.RatingForProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute provider rating: %w", err)
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r)
	}
	return &ProviderReviewsDTO{
		ProviderID:    providerID,
		AverageRating: rating.Average,
		ReviewCount:   rating.Count,
		Reviews:       dtos,
		Total:         total,
		Page:          page,
		Limit:         limit,
	}, nil
}
