package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	sharesettingsdomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
)

type createShareSettingsRequest struct {
	Seller   decimal.Decimal `json:"seller"`
	Leader   decimal.Decimal `json:"leader"`
	Sponsor  decimal.Decimal `json:"sponsor"`
	FyxedMin decimal.Decimal `json:"fyxed_min"`
}

func (s *Server) GetShareSettings(c *gin.Context) {
	shares, err := s.shareSettingsSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shares})
}

func (s *Server) CreateShareSettings(c *gin.Context) {
	var req createShareSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	settings, err := s.shareSettingsSvc.Create(c.Request.Context(), sharesettingsdomain.CreateShareSettingsRequest{
		Seller:   req.Seller,
		Leader:   req.Leader,
		Sponsor:  req.Sponsor,
		FyxedMin: req.FyxedMin,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": settings})
}

func (s *Server) ListShareSettingsHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	history, err := s.shareSettingsSvc.History(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
