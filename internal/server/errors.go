package server

import (
	"errors"
	"net/http"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/apierr"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

// APIError is a request-level failure with an explicit status code.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Message }

func invalidRequestError() error {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) error {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError translates workflow errors into HTTP responses. Fatal
// provisioning errors carry an action tag echoed in the body.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
		return
	}

	if action := apierr.ActionOf(err); action != "" {
		status := http.StatusInternalServerError
		switch action {
		case signupdomain.ActionKongConsumer, signupdomain.ActionOktaSave:
			// Upstream provisioning failed, not this service.
			status = http.StatusBadGateway
		}
		c.AbortWithStatusJSON(status, gin.H{
			"action":  action,
			"message": err.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "unauthorized"})
	case errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "not found"})
	case errors.Is(err, ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "rate_limited", "message": "too many requests"})
	case errors.Is(err, signupdomain.ErrInvalidSubmission):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "invalid_submission", "message": err.Error()})
	case errors.Is(err, signupdomain.ErrStoreRead):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"code": "store_unavailable", "message": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": err.Error()})
	}
}
