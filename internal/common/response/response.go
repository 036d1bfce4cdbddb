package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homefix/service-lifecycle/internal/common/domain"
)

// Envelope is the JSON body returned by every endpoint.
type Envelope struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *domain.Error `json:"error,omitempty"`
	Meta    *PageMeta     `json:"meta,omitempty"`
}

// PageMeta describes a paginated response.
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with items and page metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &PageMeta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes 400 with a validation error.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: domain.NewValidationError(msg)})
}

// Error maps a domain error kind to its HTTP status. Anything that is not a domain
// error is an infrastructure failure and becomes a 500 without leaking details.
func Error(c *gin.Context, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{Error: &domain.Error{Kind: "internal", Message: "internal server error"}})
		return
	}

	var de *domain.Error
	errors.As(err, &de)
	c.JSON(StatusFor(kind), Envelope{Error: de})
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindDuplicateClaim, domain.KindDuplicateReview:
		return http.StatusConflict
	case domain.KindInvalidTransition, domain.KindInvalidBookingState,
		domain.KindCancelWindowClosed, domain.KindEligibilityExpired:
		return http.StatusUnprocessableEntity
	case domain.KindNothingToConfirm:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
