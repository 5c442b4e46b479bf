package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

const MonthLayout = "2006-01"

type Payout struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID    `gorm:"not null;uniqueIndex:ux_payouts_org_actor_month,priority:1" json:"organization_id"`
	ActorID       snowflake.ID    `gorm:"not null;uniqueIndex:ux_payouts_org_actor_month,priority:2" json:"actor_id"`
	Month         string          `gorm:"type:varchar(7);not null;uniqueIndex:ux_payouts_org_actor_month,priority:3" json:"month"`
	OwnSales      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"own_sales"`
	Overrides     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"overrides"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency      string          `gorm:"type:text;not null" json:"currency"`
	SalesCount    int             `gorm:"not null" json:"sales_count"`
	OverrideCount int             `gorm:"not null" json:"override_count"`
	Status        Status          `gorm:"type:text;not null;index" json:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (Payout) TableName() string { return "payouts" }

type ListPayoutFilter struct {
	Month   string
	ActorID *snowflake.ID
	Status  Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *Payout) error
	Update(ctx context.Context, db *gorm.DB, payout *Payout) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Payout, error)
	ActorsWithPayout(ctx context.Context, db *gorm.DB, orgID snowflake.ID, month string) (map[snowflake.ID]struct{}, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListPayoutFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]Payout, error)
}

type GenerateResult struct {
	Month   string   `json:"month"`
	Created []Payout `json:"created"`
	Skipped int      `json:"skipped"`
}

type ListPayoutRequest struct {
	pagination.Pagination
	Month   string
	ActorID string
	Status  string
}

type ListPayoutResponse struct {
	pagination.PageInfo
	Payouts []Payout `json:"payouts"`
}

type Service interface {
	// Generate creates one payout per active actor with earnings in month
	// (YYYY-MM). Actors without earnings or with an existing payout are skipped.
	Generate(ctx context.Context, month string) (GenerateResult, error)
	List(ctx context.Context, req ListPayoutRequest) (ListPayoutResponse, error)
	MarkPaid(ctx context.Context, id string) (Payout, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidMonth        = errors.New("invalid_month")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrAlreadyPaid         = errors.New("already_paid")
	ErrNotFound            = errors.New("not_found")
)

// MonthRange returns the first and last instant of month in UTC.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
}
