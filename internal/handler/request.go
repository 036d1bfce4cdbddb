package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/middleware"
	"github.com/homefix/service-lifecycle/internal/common/response"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// actorFrom builds the command actor from the authenticated identity. It writes
// a 401 and returns false when the identity is missing.
func actorFrom(c *gin.Context) (lifecycle.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"kind": "unauthorized", "message": "unauthorized"}})
		return lifecycle.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"kind": "unauthorized", "message": "unauthorized"}})
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{ID: userID, Role: lifecycle.Role(role)}, true
}

// pathID parses a UUID path parameter, writing a 400 on failure.
func pathID(c *gin.Context, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// expectedVersion reads the If-Match header. Quotes and a weak prefix are
// tolerated; an absent header means no version check.
func expectedVersion(c *gin.Context) (*int64, bool) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" {
		return nil, true
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		response.BadRequest(c, "If-Match must carry a positive version number")
		return nil, false
	}
	return &v, true
}

// commandTarget resolves the actor, path ID and expected version shared by every
// mutating endpoint.
func commandTarget(c *gin.Context, label string) (lifecycle.Actor, uuid.UUID, *int64, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		return lifecycle.Actor{}, uuid.Nil, nil, false
	}
	id, ok := pathID(c, label)
	if !ok {
		return lifecycle.Actor{}, uuid.Nil, nil, false
	}
	version, ok := expectedVersion(c)
	if !ok {
		return lifecycle.Actor{}, uuid.Nil, nil, false
	}
	return actor, id, version, true
}

// bindOptionalJSON binds a JSON body when one is present.
func bindOptionalJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
