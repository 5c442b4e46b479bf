package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/fyxed/internal/auth/domain"
	"go.uber.org/zap"
)

type loginRequest struct {
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	token, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		OrgID:    strings.TrimSpace(req.OrganizationID),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		s.log.Info("login failed",
			zap.String("organization_id", strings.TrimSpace(req.OrganizationID)),
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, token.AccessToken, token.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": token})
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actor, err := s.actorSvc.Get(c.Request.Context(), principal.ActorID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"actor":           actor,
		"organization_id": principal.OrgID.String(),
		"role":            principal.Role,
	}})
}
