package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type grantCreditsRequest struct {
	ActorID     string          `json:"actor_id"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

func (s *Server) GetCreditBalance(c *gin.Context) {
	balance, err := s.creditSvc.Balance(c.Request.Context(), strings.TrimSpace(c.Query("actor_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balance})
}

func (s *Server) ListCreditTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ActorID string `form:"actor_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.creditSvc.ListTransactions(c.Request.Context(), creditdomain.ListTransactionRequest{
		Pagination: query.Pagination,
		ActorID:    strings.TrimSpace(query.ActorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GrantCredits(c *gin.Context) {
	var req grantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	txn, err := s.creditSvc.Grant(c.Request.Context(), creditdomain.GrantRequest{
		ActorID:     strings.TrimSpace(req.ActorID),
		Amount:      req.Amount,
		Reference:   strings.TrimSpace(req.Reference),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": txn})
}
