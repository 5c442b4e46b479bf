package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusEnded:
		return true
	}
	return false
}

// Call is an outbound AI voice call placed through the calling API.
type Call struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_calls_org_external,priority:1" json:"organization_id"`
	ActorID         snowflake.ID    `gorm:"not null;index" json:"actor_id"`
	CompanyID       *snowflake.ID   `gorm:"index" json:"company_id,omitempty"`
	ExternalID      string          `gorm:"type:text;not null;uniqueIndex:ux_calls_org_external,priority:2" json:"external_id"`
	ToNumber        string          `gorm:"type:text" json:"to_number"`
	Status          Status          `gorm:"type:text;not null;index" json:"status"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	EndedReason     string          `gorm:"type:text" json:"ended_reason,omitempty"`
	DurationSeconds int64           `gorm:"not null;default:0" json:"duration_seconds"`
	BilledMinutes   int64           `gorm:"not null;default:0" json:"billed_minutes"`
	Cost            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`
	BilledAt        *time.Time      `gorm:"index" json:"billed_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Call) TableName() string { return "calls" }

func (c Call) Billed() bool { return c.BilledAt != nil }

// Charge is the billable outcome of a finished call.
type Charge struct {
	DurationSeconds int64
	Minutes         int64
	Cost            decimal.Decimal
}

// ComputeCharge bills every started minute at ratePerMinute.
func ComputeCharge(startedAt, endedAt time.Time, ratePerMinute decimal.Decimal) (Charge, error) {
	if startedAt.IsZero() || endedAt.IsZero() || endedAt.Before(startedAt) {
		return Charge{}, ErrInvalidCallWindow
	}
	if ratePerMinute.IsNegative() {
		return Charge{}, ErrInvalidRate
	}
	ms := endedAt.Sub(startedAt).Milliseconds()
	minutes := (ms + 59999) / 60000
	return Charge{
		DurationSeconds: (ms + 999) / 1000,
		Minutes:         minutes,
		Cost:            ratePerMinute.Mul(decimal.NewFromInt(minutes)).Round(2),
	}, nil
}
