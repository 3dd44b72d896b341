package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	"github.com/gin-gonic/gin"
)

// requireAdminToken gates the reporting group behind the configured admin
// bearer token, compared in constant time.
func (s *Server) requireAdminToken(c *gin.Context) {
	if s.cfg.AdminToken == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.Next()
}

// SignupsReport computes the incremental signup counts for the requested
// window. Bounds are optional RFC 3339 query parameters.
func (s *Server) SignupsReport(c *gin.Context) {
	window, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.reportSvc.CountSignups(c.Request.Context(), window)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseWindow(start, end string) (reportdomain.Window, error) {
	var window reportdomain.Window
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return window, newValidationError("start", "invalid_timestamp", "start must be RFC 3339")
		}
		window.Start = &t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return window, newValidationError("end", "invalid_timestamp", "end must be RFC 3339")
		}
		window.End = &t
	}
	return window, nil
}
