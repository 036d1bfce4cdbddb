package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/auth"
	"github.com/homefix/service-lifecycle/internal/common/middleware"
	"github.com/homefix/service-lifecycle/internal/common/response"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// AdminBookingUseCases is the admin booking surface.
type AdminBookingUseCases interface {
	AssignProvider(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, providerID uuid.UUID) (*application.BookingDTO, error)
	ListAllBookings(ctx context.Context, page, limit int) ([]application.BookingDTO, int64, error)
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

type assignProviderRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
}

type assignAgentRequest struct {
	AgentID uuid.UUID `json:"agent_id" binding:"required"`
}

// AdminHandler handles admin HTTP requests for bookings and warranty claims.
type AdminHandler struct {
	bookings AdminBookingUseCases
	claims   ClaimUseCases
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings AdminBookingUseCases, claims ClaimUseCases) *AdminHandler {
	return &AdminHandler{bookings: bookings, claims: claims}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.POST("/bookings/:id/assign", h.AssignProvider)
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/warranty-claims/:id/assign", h.AssignAgent)
		admin.POST("/warranty-claims/:id/reject", h.RejectClaim)
		admin.POST("/warranty-claims/:id/resolve", h.ResolveClaim)
	}
}

// AssignProvider handles POST /api/v1/admin/bookings/:id/assign.
func (h *AdminHandler) AssignProvider(c *gin.Context) {
	actor, bookingID, version, ok := commandTarget(c, "booking")
	if !ok {
		return
	}
	var req assignProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.AssignProvider(c.Request.Context(), actor, bookingID, version, req.ProviderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// AssignAgent handles POST /api/v1/admin/warranty-claims/:id/assign.
func (h *AdminHandler) AssignAgent(c *gin.Context) {
	actor, claimID, version, ok := commandTarget(c, "claim")
	if !ok {
		return
	}
	var req assignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.claims.AssignAgent(c.Request.Context(), actor, claimID, version, req.AgentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectClaim handles POST /api/v1/admin/warranty-claims/:id/reject.
func (h *AdminHandler) RejectClaim(c *gin.Context) {
	actor, claimID, version, ok := commandTarget(c, "claim")
	if !ok {
		return
	}
	var req notesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.claims.RejectClaim(c.Request.Context(), actor, claimID, version, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ResolveClaim handles POST /api/v1/admin/warranty-claims/:id/resolve.
func (h *AdminHandler) ResolveClaim(c *gin.Context) {
	actor, claimID, version, ok := commandTarget(c, "claim")
	if !ok {
		return
	}
	var req notesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.claims.ResolveClaim(c.Request.Context(), actor, claimID, version, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
