package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/fyxed/internal/invoice/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type createInvoiceRequest struct {
	SellerID        string                    `json:"seller_id"`
	CustomerName    string                    `json:"customer_name"`
	CustomerEmail   string                    `json:"customer_email"`
	CustomerAddress string                    `json:"customer_address"`
	Lines           []invoicedomain.LineInput `json:"lines"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		SellerID:        strings.TrimSpace(req.SellerID),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		Lines:           req.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		SellerID string `form:"seller_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		SellerID:   strings.TrimSpace(query.SellerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	invoice, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", invoice.Number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	invoice, err := s.invoiceSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}
