package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	payoutdomain "github.com/smallbiznis/fyxed/internal/payout/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type generatePayoutsRequest struct {
	Month string `json:"month"`
}

func (s *Server) GeneratePayouts(c *gin.Context) {
	var req generatePayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.payoutSvc.Generate(c.Request.Context(), strings.TrimSpace(req.Month))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListPayouts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Month   string `form:"month"`
		ActorID string `form:"actor_id"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.List(c.Request.Context(), payoutdomain.ListPayoutRequest{
		Pagination: query.Pagination,
		Month:      strings.TrimSpace(query.Month),
		ActorID:    strings.TrimSpace(query.ActorID),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkPayoutPaid(c *gin.Context) {
	payout, err := s.payoutSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payout})
}
