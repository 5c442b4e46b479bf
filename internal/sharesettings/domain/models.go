package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Shares are the fractions of a sale paid to each party. FyxedMin is the
// minimum fraction the house keeps.
type Shares struct {
	Seller   decimal.Decimal `json:"seller"`
	Leader   decimal.Decimal `json:"leader"`
	Sponsor  decimal.Decimal `json:"sponsor"`
	FyxedMin decimal.Decimal `json:"fyxed_min"`
}

// ShareSettings is one immutable version of the organization's shares.
type ShareSettings struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID    `gorm:"not null;index:ix_share_settings_org_created,priority:1" json:"organization_id"`
	Seller    decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"seller"`
	Leader    decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"leader"`
	Sponsor   decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"sponsor"`
	FyxedMin  decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"fyxed_min"`
	CreatedBy *snowflake.ID   `json:"created_by,omitempty"`
	CreatedAt time.Time       `gorm:"not null;index:ix_share_settings_org_created,priority:2" json:"created_at"`
}

func (ShareSettings) TableName() string { return "share_settings" }

func (s ShareSettings) Shares() Shares {
	return Shares{Seller: s.Seller, Leader: s.Leader, Sponsor: s.Sponsor, FyxedMin: s.FyxedMin}
}

// DefaultShares apply when an organization never configured its own.
func DefaultShares() Shares {
	return Shares{
		Seller:   decimal.RequireFromString("0.5"),
		Leader:   decimal.RequireFromString("0.10"),
		Sponsor:  decimal.RequireFromString("0.10"),
		FyxedMin: decimal.RequireFromString("0.30"),
	}
}

// Validate checks every fraction lies in [0,1] and the payable shares do not
// exceed the whole sale.
func (s Shares) Validate() error {
	one := decimal.NewFromInt(1)
	for _, v := range []decimal.Decimal{s.Seller, s.Leader, s.Sponsor, s.FyxedMin} {
		if v.IsNegative() || v.GreaterThan(one) {
			return ErrShareOutOfRange
		}
	}
	if s.Seller.Add(s.Leader).Add(s.Sponsor).GreaterThan(one) {
		return ErrShareSumExceeded
	}
	return nil
}
