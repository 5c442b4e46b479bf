package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

func (s *Server) RegisterCall(c *gin.Context) {
	var req callbillingdomain.RegisterCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ActorID = strings.TrimSpace(req.ActorID)
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.ToNumber = strings.TrimSpace(req.ToNumber)

	call, err := s.callBillingSvc.RegisterCall(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": call})
}

func (s *Server) ListCalls(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ActorID string `form:"actor_id"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.callBillingSvc.List(c.Request.Context(), callbillingdomain.ListCallRequest{
		Pagination: query.Pagination,
		ActorID:    strings.TrimSpace(query.ActorID),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCall(c *gin.Context) {
	call, err := s.callBillingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": call})
}

// ProcessCallBilling is idempotent: a second report for the same call returns
// the already billed call.
func (s *Server) ProcessCallBilling(c *gin.Context) {
	var req callbillingdomain.CallEndedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.CallID = strings.TrimSpace(c.Param("id"))
	req.EndedReason = strings.TrimSpace(req.EndedReason)

	call, err := s.callBillingSvc.ProcessCallBilling(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": call})
}
