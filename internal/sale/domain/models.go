package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

type Source string

const (
	SourceManual  Source = "manual"
	SourceInvoice Source = "invoice"
	SourceStripe  Source = "stripe"
)

// Sale stores the split computed when the sale was recorded. Later changes to
// share settings only reach it through an explicit recompute.
type Sale struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency     string          `gorm:"type:text;not null" json:"currency"`
	SellerID     snowflake.ID    `gorm:"not null;index" json:"seller_id"`
	Customer     string          `gorm:"type:text" json:"customer"`
	Source       Source          `gorm:"type:text;not null" json:"source"`
	LeaderID     *snowflake.ID   `gorm:"index" json:"leader_id,omitempty"`
	SponsorID    *snowflake.ID   `gorm:"index" json:"sponsor_id,omitempty"`
	SellerShare  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"seller_share"`
	LeaderShare  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"leader_share"`
	SponsorShare decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"sponsor_share"`
	FyxedShare   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"fyxed_share"`
	FloorApplied bool            `gorm:"not null" json:"floor_applied"`
	Status       Status          `gorm:"type:text;not null;index" json:"status"`
	InvoiceID    *snowflake.ID   `gorm:"index" json:"invoice_id,omitempty"`
	ExternalRef  *string         `gorm:"type:text;index" json:"external_ref,omitempty"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

func (Sale) TableName() string { return "sales" }

// ApplySplit copies a computed split onto the sale.
func (s *Sale) ApplySplit(split commissiondomain.Split) {
	s.LeaderID = split.LeaderID
	s.SponsorID = split.SponsorID
	s.SellerShare = split.SellerShare
	s.LeaderShare = split.LeaderShare
	s.SponsorShare = split.SponsorShare
	s.FyxedShare = split.FyxedShare
	s.FloorApplied = split.FloorApplied
}

// SameSplit reports whether the stored split already matches split.
func (s Sale) SameSplit(split commissiondomain.Split) bool {
	return sameID(s.LeaderID, split.LeaderID) &&
		sameID(s.SponsorID, split.SponsorID) &&
		s.SellerShare.Equal(split.SellerShare) &&
		s.LeaderShare.Equal(split.LeaderShare) &&
		s.SponsorShare.Equal(split.SponsorShare) &&
		s.FyxedShare.Equal(split.FyxedShare)
}

func sameID(a, b *snowflake.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusApproved, StatusPaid:
		return true
	}
	return false
}

func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceInvoice, SourceStripe:
		return true
	}
	return false
}

// Settled reports whether the sale counts toward earnings.
func (s Status) Settled() bool {
	return s == StatusApproved || s == StatusPaid
}
