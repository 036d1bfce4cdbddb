package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/auth"
	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/common/middleware"
	"github.com/homefix/service-lifecycle/internal/common/response"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// BookingUseCases is the booking surface the handler drives.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, actor lifecycle.Actor, req application.CreateBookingRequest) (*application.BookingDTO, error)
	ListBookings(ctx context.Context, actor lifecycle.Actor, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
	GetBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID) (*application.BookingDTO, error)
	AcceptBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*application.BookingDTO, error)
	RejectBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, reason string) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, reason string) (*application.BookingDTO, error)
	StartBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*application.BookingDTO, error)
	CompleteBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, warrantySlip string) (*application.BookingDTO, error)
	AttachWarrantySlip(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, slip string) (*application.BookingDTO, error)
	ProposeExtraService(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, req application.ProposeExtraRequest) (*application.BookingDTO, error)
	ConfirmExtraServices(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*application.ConfirmExtrasResult, error)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type warrantySlipRequest struct {
	WarrantySlip string `json:"warranty_slip"`
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	clientOnly := middleware.RequireRole(auth.RoleClient)
	providerOnly := middleware.RequireRole(auth.RoleProvider)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", clientOnly, h.CreateBooking)
		bookings.GET("", middleware.RequireRole(auth.RoleClient, auth.RoleProvider), h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/accept", providerOnly, h.AcceptBooking)
		bookings.POST("/:id/reject", providerOnly, h.RejectBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(auth.RoleClient, auth.RoleProvider), h.CancelBooking)
		bookings.POST("/:id/start", providerOnly, h.StartBooking)
		bookings.POST("/:id/complete", providerOnly, h.CompleteBooking)
		bookings.POST("/:id/warranty-slip", providerOnly, h.AttachWarrantySlip)
		bookings.POST("/:id/extras", providerOnly, h.ProposeExtraService)
		bookings.POST("/:id/extras/confirm", clientOnly, h.ConfirmExtraServices)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Clients see their own bookings,
// providers see bookings assigned to them.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListBookings(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.AcceptBooking(c.Request.Context(), actor, bookingID, version)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.RejectBooking(c.Request.Context(), actor, bookingID, version, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), actor, bookingID, version, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StartBooking handles POST /api/v1/bookings/:id/start.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.StartBooking(c.Request.Context(), actor, bookingID, version)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req warrantySlipRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.CompleteBooking(c.Request.Context(), actor, bookingID, version, req.WarrantySlip)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AttachWarrantySlip handles POST /api/v1/bookings/:id/warranty-slip.
func (h *BookingHandler) AttachWarrantySlip(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req warrantySlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AttachWarrantySlip(c.Request.Context(), actor, bookingID, version, req.WarrantySlip)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ProposeExtraService handles POST /api/v1/bookings/:id/extras.
func (h *BookingHandler) ProposeExtraService(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req application.ProposeExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ProposeExtraService(c.Request.Context(), actor, bookingID, version, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ConfirmExtraServices handles POST /api/v1/bookings/:id/extras/confirm. An empty
// batch is reported as nothing_to_confirm with a 200.
func (h *BookingHandler) ConfirmExtraServices(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.ConfirmExtraServices(c.Request.Context(), actor, bookingID, version)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
