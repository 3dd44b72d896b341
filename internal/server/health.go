package server

import (
	"net/http"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/health"
	"github.com/gin-gonic/gin"
)

func (s *Server) Healthcheck(c *gin.Context) {
	statuses, healthy := health.Check(c.Request.Context(), s.checks)
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"healthy":  healthy,
		"services": statuses,
	})
}
