package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionType is the business reason for a balance movement.
type TransactionType string

const (
	TransactionCallCharge TransactionType = "call_charge"
	TransactionTopUp      TransactionType = "topup"
	TransactionGrant      TransactionType = "grant"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionCallCharge, TransactionTopUp, TransactionGrant:
		return true
	}
	return false
}

// Balance is the running credit balance of one actor. It may go negative.
type Balance struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_credit_balances_org_actor,priority:1" json:"organization_id"`
	ActorID   snowflake.ID    `gorm:"not null;uniqueIndex:ux_credit_balances_org_actor,priority:2" json:"actor_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

func (Balance) TableName() string { return "credit_balances" }

// Transaction is an append-only ledger row. BalanceAfter snapshots the
// balance right after the row was applied.
type Transaction struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_credit_transactions_reference,priority:1" json:"organization_id"`
	ActorID      snowflake.ID    `gorm:"not null;index" json:"actor_id"`
	Type         TransactionType `gorm:"type:text;not null;uniqueIndex:ux_credit_transactions_reference,priority:2" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance_after"`
	Reference    *string         `gorm:"type:text;uniqueIndex:ux_credit_transactions_reference,priority:3" json:"reference,omitempty"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"created_at"`
}

func (Transaction) TableName() string { return "credit_transactions" }
