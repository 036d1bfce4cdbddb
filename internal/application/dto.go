package application

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/catalog"
	"github.com/homefix/service-lifecycle/internal/domain/review"
	"github.com/homefix/service-lifecycle/internal/domain/warranty"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ServiceID     uuid.UUID             `json:"service_id" binding:"required"`
	Slot          bookingDomain.Slot    `json:"slot" binding:"required"`
	Address       bookingDomain.Address `json:"address" binding:"required"`
	PaymentMethod string                `json:"payment_method" binding:"required"`
	Notes         string                `json:"notes"`
}

// ProposeExtraRequest carries a provider's add-on proposal. A zero price falls
// back to the catalog base price.
type ProposeExtraRequest struct {
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	PriceCents int64     `json:"price_cents"`
}

// CreateClaimRequest opens a warranty claim.
type CreateClaimRequest struct {
	BookingID      uuid.UUID `json:"booking_id" binding:"required"`
	IssueDetails   string    `json:"issue_details" binding:"required"`
	AttachmentURLs []string  `json:"attachment_urls"`
}

// SubmitReviewRequest rates a completed booking.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// UpsertServiceRequest replaces a catalog entry.
type UpsertServiceRequest struct {
	Name           string `json:"name" binding:"required"`
	Category       string `json:"category"`
	BasePriceCents int64  `json:"base_price_cents"`
	Currency       string `json:"currency"`
	Active         *bool  `json:"active"`
}

// UpsertProviderRequest replaces a directory entry.
type UpsertProviderRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Active      *bool  `json:"active"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                uuid.UUID                           `json:"id"`
	BookingNumber     string                              `json:"booking_number"`
	ClientID          uuid.UUID                           `json:"client_id"`
	ProviderID        *uuid.UUID                          `json:"provider_id,omitempty"`
	ServiceID         uuid.UUID                           `json:"service_id"`
	Status            string                              `json:"status"`
	BasePriceCents    int64                               `json:"base_price_cents"`
	PriceCents        int64                               `json:"price_cents"`
	Currency          string                              `json:"currency"`
	Slot              bookingDomain.Slot                  `json:"slot"`
	Address           bookingDomain.Address               `json:"address"`
	PaymentMethod     string                              `json:"payment_method"`
	ExtraServices     []bookingDomain.ExtraServiceRequest `json:"extra_services"`
	WarrantySlip      string                              `json:"warranty_slip,omitempty"`
	WarrantyExpiresAt *time.Time                          `json:"warranty_expires_at,omitempty"`
	CompletedAt       *time.Time                          `json:"completed_at,omitempty"`
	CancelReason      string                              `json:"cancel_reason,omitempty"`
	RejectReason      string                              `json:"reject_reason,omitempty"`
	Notes             string                              `json:"notes,omitempty"`
	Version           int64                               `json:"version"`
	CreatedAt         time.Time                           `json:"created_at"`
	StatusUpdatedAt   time.Time                           `json:"status_updated_at"`
	UpdatedAt         time.Time                           `json:"updated_at"`
}

// ConfirmExtrasResult reports a confirmation batch.
type ConfirmExtrasResult struct {
	Confirmed int        `json:"confirmed"`
	Booking   BookingDTO `json:"booking"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ClaimDTO is the response representation of a warranty claim.
type ClaimDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingID       uuid.UUID  `json:"booking_id"`
	ClientID        uuid.UUID  `json:"client_id"`
	Status          string     `json:"status"`
	IssueDetails    string     `json:"issue_details"`
	AttachmentURLs  []string   `json:"attachment_urls"`
	AssignedAgentID *uuid.UUID `json:"assigned_agent_id,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	StatusUpdatedAt time.Time  `json:"status_updated_at"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderReviewsDTO is a page of reviews plus the provider's overall rating.
type ProviderReviewsDTO struct {
	ProviderID    uuid.UUID   `json:"provider_id"`
	AverageRating float64     `json:"average_rating"`
	ReviewCount   int64       `json:"review_count"`
	Reviews       []ReviewDTO `json:"reviews"`
	Total         int64       `json:"total"`
	Page          int         `json:"page"`
	Limit         int         `json:"limit"`
}

// ServiceDTO is the response representation of a catalog service.
type ServiceDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	BasePriceCents int64     `json:"base_price_cents"`
	Currency       string    `json:"currency"`
	Active         bool      `json:"active"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProviderDTO is the response representation of a directory provider.
type ProviderDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		ClientID:          bk.ClientID(),
		ProviderID:        bk.ProviderID(),
		ServiceID:         bk.ServiceID(),
		Status:            string(bk.Status()),
		BasePriceCents:    bk.BasePriceCents(),
		PriceCents:        bk.PriceCents(),
		Currency:          bk.Currency(),
		Slot:              bk.Slot(),
		Address:           bk.Address(),
		PaymentMethod:     string(bk.PaymentMethod()),
		ExtraServices:     bk.ExtraServices(),
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
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toClaimDTO(c *warranty.Claim) ClaimDTO {
	return ClaimDTO{
		ID:              c.ID(),
		BookingID:       c.BookingID(),
		ClientID:        c.ClientID(),
		Status:          string(c.Status()),
		IssueDetails:    c.IssueDetails(),
		AttachmentURLs:  c.AttachmentURLs(),
		AssignedAgentID: c.AssignedAgentID(),
		AdminNotes:      c.AdminNotes(),
		ResolutionNotes: c.ResolutionNotes(),
		Version:         c.Version(),
		CreatedAt:       c.CreatedAt(),
		StatusUpdatedAt: c.StatusUpdatedAt(),
	}
}

func toReviewDTO(r *review.Review) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID(),
		BookingID:  r.BookingID(),
		ClientID:   r.ClientID(),
		ProviderID: r.ProviderID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}

func toServiceDTO(s *catalog.Service) ServiceDTO {
	return ServiceDTO{
		ID:             s.ID(),
		Name:           s.Name(),
		Category:       s.Category(),
		BasePriceCents: s.BasePriceCents(),
		Currency:       s.Currency(),
		Active:         s.IsActive(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

func toProviderDTO(p *catalog.Provider) ProviderDTO {
	return ProviderDTO{
		ID:          p.ID(),
		DisplayName: p.DisplayName(),
		Active:      p.IsActive(),
		UpdatedAt:   p.UpdatedAt(),
	}
}
