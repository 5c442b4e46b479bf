package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
)

func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func principalFromContext(c *gin.Context) (orgcontext.Principal, bool) {
	return orgcontext.PrincipalFromContext(c.Request.Context())
}
