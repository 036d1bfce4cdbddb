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

// ReviewUseCases is the review surface the handler drives.
type ReviewUseCases interface {
	SubmitReview(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, req application.SubmitReviewRequest) (*application.ReviewDTO, error)
	ListProviderReviews(ctx context.Context, providerID uuid.UUID, page, limit int) (*application.ProviderReviewsDTO, error)
}

// ReviewHandler handles review submission and provider review listings.
type ReviewHandler struct {
	service ReviewUseCases
}

func NewReviewHandler(service ReviewUseCases) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	r.POST("/api/v1/bookings/:id/review", authMW, middleware.RequireRole(auth.RoleClient), h.SubmitReview)
	r.GET("/api/v1/providers/:id/reviews", authMW, h.ListProviderReviews)
}

// SubmitReview handles POST /api/v1/bookings/:id/review.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	var req application.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitReview(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListProviderReviews handles GET /api/v1/providers/:id/reviews.
func (h *ReviewHandler) ListProviderReviews(c *gin.Context) {
	providerID, ok := pathID(c, "provider")
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListProviderReviews(c.Request.Context(), providerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
