package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type savingsRequest struct {
	TimeHoursPerMonth decimal.Decimal `json:"time_hours_per_month"`
	CostPerMonth      decimal.Decimal `json:"cost_per_month"`
}

func (r *savingsRequest) toDomain() *pipelinedomain.SavingsHypothesis {
	if r == nil {
		return nil
	}
	return &pipelinedomain.SavingsHypothesis{
		TimeHoursPerMonth: r.TimeHoursPerMonth,
		CostPerMonth:      r.CostPerMonth,
	}
}

type createCompanyRequest struct {
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	ContactName string          `json:"contact_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Website     string          `json:"website"`
	Industry    string          `json:"industry"`
	City        string          `json:"city"`
	Priority    int             `json:"priority"`
	GoalPrimary string          `json:"goal_primary"`
	Savings     *savingsRequest `json:"savings"`
}

type updateCompanyRequest struct {
	OwnerID     *string         `json:"owner_id"`
	Name        *string         `json:"name"`
	ContactName *string         `json:"contact_name"`
	Email       *string         `json:"email"`
	Phone       *string         `json:"phone"`
	Website     *string         `json:"website"`
	Industry    *string         `json:"industry"`
	City        *string         `json:"city"`
	Priority    *int            `json:"priority"`
	GoalPrimary *string         `json:"goal_primary"`
	Savings     *savingsRequest `json:"savings"`
}

type updateStepRequest struct {
	Status                *string          `json:"status"`
	Notes                 *string          `json:"notes"`
	Findings              []string         `json:"findings"`
	PainPoints            []string         `json:"pain_points"`
	ContactMethod         *string          `json:"contact_method"`
	Adjustments           []string         `json:"adjustments"`
	AgreedSuccessCriteria []string         `json:"agreed_success_criteria"`
	DealResult            *string          `json:"deal_result"`
	DealValueEUR          *decimal.Decimal `json:"deal_value_eur"`
}

type contactAttemptRequest struct {
	Method  string `json:"method"`
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

type updateDealRequest struct {
	Result   string           `json:"result"`
	ValueEUR *decimal.Decimal `json:"value_eur"`
	Notes    *string          `json:"notes"`
}

type addChecklistItemRequest struct {
	Label string `json:"label"`
	Phase string `json:"phase"`
}

type toggleChecklistItemRequest struct {
	Checked *bool `json:"checked"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create := pipelinedomain.CreateCompanyRequest{
		OwnerID:     strings.TrimSpace(req.OwnerID),
		Name:        strings.TrimSpace(req.Name),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Website:     strings.TrimSpace(req.Website),
		Industry:    strings.TrimSpace(req.Industry),
		City:        strings.TrimSpace(req.City),
		Priority:    req.Priority,
		GoalPrimary: strings.TrimSpace(req.GoalPrimary),
	}
	if savings := req.Savings.toDomain(); savings != nil {
		create.Savings = *savings
	}

	company, err := s.pipelineSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": company})
}

func (s *Server) ListCompanies(c *gin.Context) {
	var query struct {
		pagination.Pagination
		OwnerID     string `form:"owner_id"`
		Phase       string `form:"phase"`
		Search      string `form:"q"`
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

	resp, err := s.pipelineSvc.List(c.Request.Context(), pipelinedomain.ListCompanyRequest{
		Pagination:  query.Pagination,
		OwnerID:     strings.TrimSpace(query.OwnerID),
		Phase:       strings.TrimSpace(query.Phase),
		Search:      strings.TrimSpace(query.Search),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCompany(c *gin.Context) {
	company, err := s.pipelineSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) UpdateCompany(c *gin.Context) {
	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.pipelineSvc.UpdateDetails(c.Request.Context(), pipelinedomain.UpdateCompanyRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Industry:    req.Industry,
		City:        req.City,
		Priority:    req.Priority,
		GoalPrimary: req.GoalPrimary,
		Savings:     req.Savings.toDomain(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) DeleteCompany(c *gin.Context) {
	if err := s.pipelineSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateCompanyStep(c *gin.Context) {
	var req updateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.pipelineSvc.UpdateStep(c.Request.Context(), pipelinedomain.UpdateStepRequest{
		CompanyID:             strings.TrimSpace(c.Param("id")),
		Phase:                 strings.TrimSpace(c.Param("phase")),
		Status:                req.Status,
		Notes:                 req.Notes,
		Findings:              req.Findings,
		PainPoints:            req.PainPoints,
		ContactMethod:         req.ContactMethod,
		Adjustments:           req.Adjustments,
		AgreedSuccessCriteria: req.AgreedSuccessCriteria,
		DealResult:            req.DealResult,
		DealValueEUR:          req.DealValueEUR,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) AddContactAttempt(c *gin.Context) {
	var req contactAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.pipelineSvc.AddContactAttempt(c.Request.Context(), pipelinedomain.ContactAttemptRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		Method:    strings.TrimSpace(req.Method),
		Outcome:   strings.TrimSpace(req.Outcome),
		Notes:     strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": company})
}

func (s *Server) UpdateDeal(c *gin.Context) {
	var req updateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.pipelineSvc.UpdateDeal(c.Request.Context(), pipelinedomain.UpdateDealRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		Result:    strings.TrimSpace(req.Result),
		ValueEUR:  req.ValueEUR,
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) AddChecklistItem(c *gin.Context) {
	var req addChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.pipelineSvc.AddChecklistItem(c.Request.Context(), pipelinedomain.AddChecklistItemRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		Label:     strings.TrimSpace(req.Label),
		Phase:     strings.TrimSpace(req.Phase),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": company})
}

func (s *Server) ToggleChecklistItem(c *gin.Context) {
	var req toggleChecklistItemRequest
	// an empty body flips the item
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	company, err := s.pipelineSvc.ToggleChecklistItem(c.Request.Context(), pipelinedomain.ToggleChecklistItemRequest{
		CompanyID: strings.TrimSpace(c.Param("id")),
		ItemID:    strings.TrimSpace(c.Param("item_id")),
		Checked:   req.Checked,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) GetCompanyHistory(c *gin.Context) {
	history, err := s.pipelineSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (s *Server) GetCompanyActivities(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	activities, err := s.pipelineSvc.Activities(c.Request.Context(), strings.TrimSpace(c.Param("id")), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": activities})
}
