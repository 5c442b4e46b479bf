package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/fyxed/internal/analytics/domain"
)

func (s *Server) GetAnalyticsOverview(c *gin.Context) {
	var query struct {
		OwnerID string `form:"owner_id"`
		From    string `form:"from"`
		To      string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, to, err := parseTimeRange("from", query.From, "to", query.To)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	overview, err := s.analyticsSvc.Overview(c.Request.Context(), analyticsdomain.OverviewRequest{
		OwnerID: strings.TrimSpace(query.OwnerID),
		From:    from,
		To:      to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}
