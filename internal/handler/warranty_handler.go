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

// ClaimUseCases is the warranty claim surface the handlers drive.
type ClaimUseCases interface {
	CreateClaim(ctx context.Context, actor lifecycle.Actor, req application.CreateClaimRequest) (*application.ClaimDTO, error)
	AssignAgent(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, agentID uuid.UUID) (*application.ClaimDTO, error)
	RejectClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, notes string) (*application.ClaimDTO, error)
	StartClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64) (*application.ClaimDTO, error)
	ResolveClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, notes string) (*application.ClaimDTO, error)
	GetClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID) (*application.ClaimDTO, error)
	ListClaims(ctx context.Context, actor lifecycle.Actor, status string, page, limit int) (*domain.PaginatedResult[application.ClaimDTO], error)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// WarrantyHandler handles warranty claim requests from clients and agents.
type WarrantyHandler struct {
	service ClaimUseCases
}

// NewWarrantyHandler creates a new WarrantyHandler.
func NewWarrantyHandler(service ClaimUseCases) *WarrantyHandler {
	return &WarrantyHandler{service: service}
}

// RegisterRoutes registers warranty claim routes.
func (h *WarrantyHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	claims := r.Group("/api/v1/warranty-claims")
	claims.Use(middleware.AuthMiddleware(jwtManager))
	{
		claims.POST("", middleware.RequireRole(auth.RoleClient), h.CreateClaim)
		claims.GET("", h.ListClaims)
		claims.GET("/:id", h.GetClaim)
		claims.POST("/:id/start", middleware.RequireRole(auth.RoleProvider), h.StartClaim)
		claims.POST("/:id/resolve", middleware.RequireRole(auth.RoleProvider, auth.RoleAdmin), h.ResolveClaim)
	}
}

// CreateClaim handles POST /api/v1/warranty-claims.
func (h *WarrantyHandler) CreateClaim(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateClaim(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListClaims handles GET /api/v1/warranty-claims?status=.
func (h *WarrantyHandler) ListClaims(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListClaims(c.Request.Context(), actor, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetClaim handles GET /api/v1/warranty-claims/:id.
func (h *WarrantyHandler) GetClaim(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	claimID, ok := pathID(c, "claim")
	if !ok {
		return
	}

	result, err := h.service.GetClaim(c.Request.Context(), actor, claimID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StartClaim handles POST /api/v1/warranty-claims/:id/start.
func (h *WarrantyHandler) StartClaim(c *gin.Context) {
	actor, claimID, version, ok := commandTarget(c, "claim")
	if !ok {
		return
	}

	result, err := h.service.StartClaim(c.Request.Context(), actor, claimID, version)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ResolveClaim handles POST /api/v1/warranty-claims/:id/resolve and its admin twin.
func (h *WarrantyHandler) ResolveClaim(c *gin.Context) {
	actor, claimID, version, ok := commandTarget(c, "claim")
	if !ok {
		return
	}
	var req notesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.ResolveClaim(c.Request.Context(), actor, claimID, version, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
