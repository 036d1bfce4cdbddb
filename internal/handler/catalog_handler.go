package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/auth"
	"github.com/homefix/service-lifecycle/internal/common/middleware"
	"github.com/homefix/service-lifecycle/internal/common/response"
)

// CatalogUseCases is the reference data surface.
type CatalogUseCases interface {
	ListServices(ctx context.Context) ([]application.ServiceDTO, error)
	UpsertService(ctx context.Context, id uuid.UUID, req application.UpsertServiceRequest) (*application.ServiceDTO, error)
	ArchiveService(ctx context.Context, id uuid.UUID) error
	UpsertProvider(ctx context.Context, id uuid.UUID, req application.UpsertProviderRequest) (*application.ProviderDTO, error)
	DeactivateProvider(ctx context.Context, id uuid.UUID) error
}

// CatalogHandler exposes the service catalog and the admin reference data endpoints.
type CatalogHandler struct {
	service CatalogUseCases
}

func NewCatalogHandler(service CatalogUseCases) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/services", authMW, h.ListServices)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.PUT("/services/:id", h.UpsertService)
		admin.DELETE("/services/:id", h.ArchiveService)
		admin.PUT("/providers/:id", h.UpsertProvider)
		admin.DELETE("/providers/:id", h.DeactivateProvider)
	}
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, services)
}

func (h *CatalogHandler) UpsertService(c *gin.Context) {
	id, ok := pathID(c, "service")
	if !ok {
		return
	}
	var req application.UpsertServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpsertService(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) ArchiveService(c *gin.Context) {
	id, ok := pathID(c, "service")
	if !ok {
		return
	}
	if err := h.service.ArchiveService(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "active": false})
}

func (h *CatalogHandler) UpsertProvider(c *gin.Context) {
	id, ok := pathID(c, "provider")
	if !ok {
		return
	}
	var req application.UpsertProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpsertProvider(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) DeactivateProvider(c *gin.Context) {
	id, ok := pathID(c, "provider")
	if !ok {
		return
	}
	if err := h.service.DeactivateProvider(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "active": false})
}
