package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/review"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reviews_booking_id"`
	ClientID   uuid.UUID `gorm:"type:uuid;not null"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating     int       `gorm:"type:smallint;not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements review.ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Save(ctx context.Context, rv *review.Review) error {
	model := ReviewModel{
		ID:         rv.ID(),
		BookingID:  rv.BookingID(),
		ClientID:   rv.ClientID(),
		ProviderID: rv.ProviderID(),
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		CreatedAt:  rv.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewDuplicateReviewError(rv.BookingID().String())
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*review.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("review", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return toReviewDomain(&model), nil
}

func (r *GormReviewRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*review.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("provider_id = ?", providerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*review.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, total, nil
}

func (r *GormReviewRepository) RatingForProvider(ctx context.Context, providerID uuid.UUID) (review.ProviderRating, error) {
	var out struct {
		Count   int64
		Average float64
	}
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("count(*) as count, coalesce(avg(rating), 0) as average").
		Where("provider_id = ?", providerID).
		Scan(&out).Error; err != nil {
		return review.ProviderRating{}, fmt.Errorf("failed to compute provider rating: %w", err)
	}
	return review.ProviderRating{Count: out.Count, Average: out.Average}, nil
}

func toReviewDomain(m *ReviewModel) *review.Review {
	return review.Reconstruct(m.ID, m.BookingID, m.ClientID, m.ProviderID, m.Rating, m.Comment, m.CreatedAt)
}
