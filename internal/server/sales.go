package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type createSaleRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	SellerID string          `json:"seller_id"`
	Customer string          `json:"customer"`
}

func (s *Server) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sale, err := s.saleSvc.Create(c.Request.Context(), saledomain.CreateSaleRequest{
		Amount:   req.Amount,
		SellerID: strings.TrimSpace(req.SellerID),
		Customer: strings.TrimSpace(req.Customer),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": sale})
}

func (s *Server) ListSales(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		Source      string `form:"source"`
		SellerID    string `form:"seller_id"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, createdTo, err := parseTimeRange("created_from", query.CreatedFrom, "created_to", query.CreatedTo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.saleSvc.List(c.Request.Context(), saledomain.ListSaleRequest{
		Pagination:  query.Pagination,
		Status:      strings.TrimSpace(query.Status),
		Source:      strings.TrimSpace(query.Source),
		SellerID:    strings.TrimSpace(query.SellerID),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSale(c *gin.Context) {
	sale, err := s.saleSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sale})
}

func (s *Server) ApproveSale(c *gin.Context) {
	sale, err := s.saleSvc.Approve(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sale})
}

func (s *Server) MarkSalePaid(c *gin.Context) {
	sale, err := s.saleSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sale})
}

func (s *Server) RecomputeSales(c *gin.Context) {
	result, err := s.saleSvc.Recompute(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
