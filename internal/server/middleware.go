package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"go.uber.org/zap"
)

// AuthRequired resolves the bearer token or session cookie into the request principal.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Verify(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(orgcontext.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// LoginRateLimit throttles login attempts per organization and email.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Enabled() {
			c.Next()
			return
		}

		key := c.ClientIP()
		var body loginRequest
		if err := c.ShouldBindBodyWithJSON(&body); err == nil && strings.TrimSpace(body.Email) != "" {
			key = strings.TrimSpace(body.OrganizationID) + ":" + strings.TrimSpace(body.Email)
		}

		res, err := s.loginLimiter.Allow(c.Request.Context(), key)
		if err != nil {
			// fail open; redis trouble must not lock everyone out
			s.log.Warn("login rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
