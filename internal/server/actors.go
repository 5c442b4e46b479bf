package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
)

type createActorRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	SponsorID    string `json:"sponsor_id"`
	ReferralCode string `json:"referral_code"`
	Password     string `json:"password"`
}

type updateActorRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

type setSponsorRequest struct {
	SponsorID string `json:"sponsor_id"`
}

func (s *Server) CreateActor(c *gin.Context) {
	var req createActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := s.actorSvc.Create(c.Request.Context(), actordomain.CreateActorRequest{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         actordomain.Role(strings.TrimSpace(req.Role)),
		SponsorID:    strings.TrimSpace(req.SponsorID),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		Password:     req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": actor})
}

func (s *Server) ListActors(c *gin.Context) {
	var query struct {
		Role       string `form:"role"`
		ActiveOnly string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "invalid active_only"))
		return
	}

	actors, err := s.actorSvc.List(c.Request.Context(), actordomain.ListActorRequest{
		Role:       strings.TrimSpace(query.Role),
		ActiveOnly: activeOnly != nil && *activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actors})
}

func (s *Server) GetActor(c *gin.Context) {
	actor, err := s.actorSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actor})
}

func (s *Server) GetActorTeam(c *gin.Context) {
	team, err := s.actorSvc.Team(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": team})
}

func (s *Server) UpdateActor(c *gin.Context) {
	var req updateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := actordomain.UpdateActorRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Name:   req.Name,
		Active: req.Active,
	}
	if req.Role != nil {
		role := actordomain.Role(strings.TrimSpace(*req.Role))
		update.Role = &role
	}

	actor, err := s.actorSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actor})
}

func (s *Server) SetActorSponsor(c *gin.Context) {
	var req setSponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := s.actorSvc.SetSponsor(c.Request.Context(), actordomain.SetSponsorRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		SponsorID: strings.TrimSpace(req.SponsorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actor})
}
