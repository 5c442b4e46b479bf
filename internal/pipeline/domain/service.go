package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

type CreateCompanyRequest struct {
	OwnerID     string
	Name        string
	ContactName string
	Email       string
	Phone       string
	Website     string
	Industry    string
	City        string
	Priority    int
	GoalPrimary string
	Savings     SavingsHypothesis
}

type UpdateCompanyRequest struct {
	ID          string
	OwnerID     *string
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Website     *string
	Industry    *string
	City        *string
	Priority    *int
	GoalPrimary *string
	Savings     *SavingsHypothesis
}

type ListCompanyRequest struct {
	pagination.Pagination
	OwnerID     string
	Phase       string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCompanyResponse struct {
	pagination.PageInfo
	Companies []Company `json:"companies"`
}

type UpdateStepRequest struct {
	CompanyID             string
	Phase                 string
	Status                *string
	Notes                 *string
	Findings              []string
	PainPoints            []string
	ContactMethod         *string
	Adjustments           []string
	AgreedSuccessCriteria []string
	DealResult            *string
	DealValueEUR          *decimal.Decimal
}

type ContactAttemptRequest struct {
	CompanyID string
	Method    string
	Outcome   string
	Notes     string
}

type UpdateDealRequest struct {
	CompanyID string
	Result    string
	ValueEUR  *decimal.Decimal
	Notes     *string
}

type AddChecklistItemRequest struct {
	CompanyID string
	Label     string
	Phase     string
}

type ToggleChecklistItemRequest struct {
	CompanyID string
	ItemID    string
	Checked   *bool
}

type Service interface {
	Create(ctx context.Context, req CreateCompanyRequest) (Company, error)
	Get(ctx context.Context, id string) (Company, error)
	List(ctx context.Context, req ListCompanyRequest) (ListCompanyResponse, error)
	UpdateDetails(ctx context.Context, req UpdateCompanyRequest) (Company, error)
	Delete(ctx context.Context, id string) error

	UpdateStep(ctx context.Context, req UpdateStepRequest) (Company, error)
	AddContactAttempt(ctx context.Context, req ContactAttemptRequest) (Company, error)
	UpdateDeal(ctx context.Context, req UpdateDealRequest) (Company, error)
	AddChecklistItem(ctx context.Context, req AddChecklistItemRequest) (Company, error)
	ToggleChecklistItem(ctx context.Context, req ToggleChecklistItemRequest) (Company, error)

	History(ctx context.Context, companyID string) ([]PhaseHistory, error)
	Activities(ctx context.Context, companyID string, limit int) ([]Activity, error)
}

var (
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidPriority         = errors.New("invalid_priority")
	ErrInvalidGoal             = errors.New("invalid_goal")
	ErrInvalidPhase            = errors.New("invalid_phase")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrInvalidContactMethod    = errors.New("invalid_contact_method")
	ErrInvalidContactOutcome   = errors.New("invalid_contact_outcome")
	ErrInvalidDealResult       = errors.New("invalid_deal_result")
	ErrInvalidDealValue        = errors.New("invalid_deal_value")
	ErrInvalidChecklistLabel   = errors.New("invalid_checklist_label")
	ErrChecklistItemNotFound   = errors.New("checklist_item_not_found")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not_found")
)
