package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/warranty"
)

// WarrantyClaimModel is the GORM model for the warranty_claims table.
// booking_id carries a unique index: one claim per booking, ever.
type WarrantyClaimModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_warranty_claims_booking_id"`
	ClientID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status          string          `gorm:"not null;size:20"`
	IssueDetails    string          `gorm:"type:text;not null"`
	AttachmentURLs  json.RawMessage `gorm:"column:attachment_urls;type:jsonb;not null"`
	AssignedAgentID *uuid.UUID      `gorm:"type:uuid;index"`
	AdminNotes      string          `gorm:"type:text"`
	ResolutionNotes string          `gorm:"type:text"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	StatusUpdatedAt time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

func (WarrantyClaimModel) TableName() string { return "warranty_claims" }

// GormWarrantyClaimRepository implements warranty.ClaimRepository using GORM.
type GormWarrantyClaimRepository struct {
	db *gorm.DB
}

func NewGormWarrantyClaimRepository(db *gorm.DB) *GormWarrantyClaimRepository {
	return &GormWarrantyClaimRepository{db: db}
}

func (r *GormWarrantyClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*warranty.Claim, error) {
	var model WarrantyClaimModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("warranty claim", id.String())
		}
		return nil, fmt.Errorf("failed to find warranty claim: %w", err)
	}
	return toDomainClaim(&model)
}

func (r *GormWarrantyClaimRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*warranty.Claim, error) {
	var model WarrantyClaimModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("warranty claim", bookingID.String()).With("booking_id", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find warranty claim by booking: %w", err)
	}
	return toDomainClaim(&model)
}

func (r *GormWarrantyClaimRepository) List(ctx context.Context, filter warranty.ClaimFilter, page, limit int) ([]*warranty.Claim, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.ClientID != nil {
			db = db.Where("client_id = ?", *filter.ClientID)
		}
		if filter.AssignedAgentID != nil {
			db = db.Where("assigned_agent_id = ?", *filter.AssignedAgentID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&WarrantyClaimModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count warranty claims: %w", err)
	}

	var models []WarrantyClaimModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list warranty claims: %w", err)
	}

	claims := make([]*warranty.Claim, len(models))
	for i := range models {
		c, err := toDomainClaim(&models[i])
		if err != nil {
			return nil, 0, err
		}
		claims[i] = c
	}
	return claims, total, nil
}

// Save inserts a claim. The unique index on booking_id turns a concurrent or
// repeated create into duplicate_claim.
func (r *GormWarrantyClaimRepository) Save(ctx context.Context, c *warranty.Claim) error {
	model, err := toClaimModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert warranty claim to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewDuplicateClaimError(c.BookingID().String())
		}
		return fmt.Errorf("failed to save warranty claim: %w", err)
	}
	return nil
}

// Update is a conditional write on (id, previous version, expected status).
func (r *GormWarrantyClaimRepository) Update(ctx context.Context, c *warranty.Claim, expected warranty.ClaimStatus) error {
	result := r.db.WithContext(ctx).
		Model(&WarrantyClaimModel{}).
		Where("id = ? AND version = ? AND status = ?", c.ID(), c.Version()-1, string(expected)).
		Updates(map[string]interface{}{
			"status":            string(c.Status()),
			"assigned_agent_id": c.AssignedAgentID(),
			"admin_notes":       c.AdminNotes(),
			"resolution_notes":  c.ResolutionNotes(),
			"version":           c.Version(),
			"status_updated_at": c.StatusUpdatedAt(),
			"updated_at":        c.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update warranty claim: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("warranty claim was modified by another transaction").
			With("claim_id", c.ID().String()).
			With("expected_state", string(expected))
	}
	return nil
}

func toClaimModel(c *warranty.Claim) (*WarrantyClaimModel, error) {
	urls, err := json.Marshal(c.AttachmentURLs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachment urls: %w", err)
	}
	return &WarrantyClaimModel{
		ID:              c.ID(),
		BookingID:       c.BookingID(),
		ClientID:        c.ClientID(),
		Status:          string(c.Status()),
		IssueDetails:    c.IssueDetails(),
		AttachmentURLs:  urls,
		AssignedAgentID: c.AssignedAgentID(),
		AdminNotes:      c.AdminNotes(),
		ResolutionNotes: c.ResolutionNotes(),
		Version:         c.Version(),
		CreatedAt:       c.CreatedAt(),
		StatusUpdatedAt: c.StatusUpdatedAt(),
		UpdatedAt:       c.UpdatedAt(),
	}, nil
}

func toDomainClaim(m *WarrantyClaimModel) (*warranty.Claim, error) {
	var urls []string
	if len(m.AttachmentURLs) > 0 {
		if err := json.Unmarshal(m.AttachmentURLs, &urls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachment urls: %w", err)
		}
	}
	status, err := warranty.ParseClaimStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return warranty.ReconstructClaim(warranty.ReconstructParams{
		ID:              m.ID,
		BookingID:       m.BookingID,
		ClientID:        m.ClientID,
		Status:          status,
		IssueDetails:    m.IssueDetails,
		AttachmentURLs:  urls,
		AssignedAgentID: m.AssignedAgentID,
		AdminNotes:      m.AdminNotes,
		ResolutionNotes: m.ResolutionNotes,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		StatusUpdatedAt: m.StatusUpdatedAt,
		UpdatedAt:       m.UpdatedAt,
	}), nil
}
