package server

import (
	"net/http"
	"strings"

	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"github.com/gin-gonic/gin"
)

type developerApplicationRequest struct {
	Email                string `json:"email"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Organization         string `json:"organization"`
	Description          string `json:"description"`
	APIs                 string `json:"apis"`
	OAuthRedirectURI     string `json:"oAuthRedirectURI"`
	OAuthApplicationType string `json:"oAuthApplicationType"`
	TermsOfService       bool   `json:"termsOfService"`
}

func (s *Server) CreateDeveloperApplication(c *gin.Context) {
	if !s.limiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req developerApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}
	if strings.TrimSpace(req.APIs) == "" {
		AbortWithError(c, newValidationError("apis", "required", "at least one api is required"))
		return
	}
	if !req.TermsOfService {
		AbortWithError(c, newValidationError("termsOfService", "required", "terms of service must be accepted"))
		return
	}

	result, err := s.signupSvc.Apply(c.Request.Context(), signupdomain.Submission{
		Email:                  req.Email,
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Organization:           strings.TrimSpace(req.Organization),
		Description:            strings.TrimSpace(req.Description),
		APIs:                   req.APIs,
		OAuthRedirectURI:       strings.TrimSpace(req.OAuthRedirectURI),
		OAuthApplicationType:   strings.TrimSpace(req.OAuthApplicationType),
		TermsOfServiceAccepted: req.TermsOfService,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
