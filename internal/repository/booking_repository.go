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
	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber     string          `gorm:"uniqueIndex;not null;size:20"`
	ClientID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProviderID        *uuid.UUID      `gorm:"type:uuid;index"`
	ServiceID         uuid.UUID       `gorm:"type:uuid;not null"`
	Status            string          `gorm:"not null;size:30;index"`
	BasePriceCents    int64           `gorm:"not null"`
	PriceCents        int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3;default:'USD'"`
	Slot              json.RawMessage `gorm:"type:jsonb;not null"`
	Address           json.RawMessage `gorm:"type:jsonb;not null"`
	PaymentMethod     string          `gorm:"not null;size:30"`
	ExtraServices     json.RawMessage `gorm:"type:jsonb;not null"`
	WarrantySlip      string          `gorm:"not null;default:''"`
	WarrantyExpiresAt *time.Time      `gorm:""`
	CompletedAt       *time.Time      `gorm:""`
	CancelReason      string          `gorm:"size:500"`
	RejectReason      string          `gorm:"size:500"`
	Notes             string          `gorm:"size:1000"`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null"`
	StatusUpdatedAt   time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByClientID retrieves bookings for a specific client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("client_id = ?", clientID) }, page, limit)
}

// FindByProviderID retrieves bookings assigned to a specific provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("provider_id = ?", providerID) }, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, func(db *gorm.DB) *gorm.DB { return db }, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update is a single conditional write keyed on (id, previous version, expected
// status). Zero affected rows means another transition got there first.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking, expected bookingDomain.BookingStatus) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion has already run.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ? AND status = ?", model.ID, expectedVersion, string(expected)).
		Updates(map[string]interface{}{
			"provider_id":         model.ProviderID,
			"status":              model.Status,
			"price_cents":         model.PriceCents,
			"extra_services":      model.ExtraServices,
			"warranty_slip":       model.WarrantySlip,
			"warranty_expires_at": model.WarrantyExpiresAt,
			"completed_at":        model.CompletedAt,
			"cancel_reason":       model.CancelReason,
			"reject_reason":       model.RejectReason,
			"version":             model.Version,
			"status_updated_at":   model.StatusUpdatedAt,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction").
			With("booking_id", bk.ID().String()).
			With("expected_state", string(expected))
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	slotJSON, err := json.Marshal(bk.Slot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slot: %w", err)
	}

	addressJSON, err := json.Marshal(bk.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal address: %w", err)
	}

	extrasJSON, err := json.Marshal(bk.ExtraServices())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra services: %w", err)
	}

	return &BookingModel{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		ClientID:          bk.ClientID(),
		ProviderID:        bk.ProviderID(),
		ServiceID:         bk.ServiceID(),
		Status:            string(bk.Status()),
		BasePriceCents:    bk.BasePriceCents(),
		PriceCents:        bk.PriceCents(),
		Currency:          bk.Currency(),
		Slot:              slotJSON,
		Address:           addressJSON,
		PaymentMethod:     string(bk.PaymentMethod()),
		ExtraServices:     extrasJSON,
		WarrantySlip:      bk.WarrantySlip(),
		WarrantyExpiresAt: bk.WarrantyExpiresAt(),
		CompletedAt:       bk.CompletedAt(),
		CancelReason:      bk.CancelReason(),
		RejectReason:      bk.RejectReason(),
		Notes:             bk.Notes(),
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		StatusUpdatedAt:   bk.StatusUpdatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var slot bookingDomain.Slot
	if err := json.Unmarshal(m.Slot, &slot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slot: %w", err)
	}

	var address bookingDomain.Address
	if err := json.Unmarshal(m.Address, &address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}

	var extras []bookingDomain.ExtraServiceRequest
	if len(m.ExtraServices) > 0 {
		if err := json.Unmarshal(m.ExtraServices, &extras); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra services: %w", err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.ReconstructParams{
		ID:                m.ID,
		BookingNumber:     m.BookingNumber,
		ClientID:          m.ClientID,
		ProviderID:        m.ProviderID,
		ServiceID:         m.ServiceID,
		Status:            status,
		BasePriceCents:    m.BasePriceCents,
		PriceCents:        m.PriceCents,
		Currency:          m.Currency,
		Slot:              slot,
		Address:           address,
		PaymentMethod:     bookingDomain.PaymentMethod(m.PaymentMethod),
		ExtraServices:     extras,
		WarrantySlip:      m.WarrantySlip,
		WarrantyExpiresAt: m.WarrantyExpiresAt,
		CompletedAt:       m.CompletedAt,
		CancelReason:      m.CancelReason,
		RejectReason:      m.RejectReason,
		Notes:             m.Notes,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		StatusUpdatedAt:   m.StatusUpdatedAt,
		UpdatedAt:         m.UpdatedAt,
	}), nil
}
