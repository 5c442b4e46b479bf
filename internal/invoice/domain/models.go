package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_invoices_org_number,priority:1" json:"organization_id"`
	Number          string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_invoices_org_number,priority:2" json:"number"`
	SellerID        snowflake.ID    `gorm:"not null;index" json:"seller_id"`
	SaleID          *snowflake.ID   `gorm:"index" json:"sale_id,omitempty"`
	CustomerName    string          `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"type:text" json:"customer_email"`
	CustomerAddress string          `gorm:"type:text" json:"customer_address"`
	Currency        string          `gorm:"type:text;not null" json:"currency"`
	Lines           []LineItem      `gorm:"serializer:json;type:text" json:"lines"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	VATRate         decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"vat_rate"`
	VATAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"vat_amount"`
	Total           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	Status          Status          `gorm:"type:text;not null;index" json:"status"`
	IssuedAt        time.Time       `gorm:"not null" json:"issued_at"`
	DueAt           time.Time       `gorm:"not null" json:"due_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Totals sums the line amounts and applies a flat VAT rate.
func Totals(lines []LineItem, vatRate decimal.Decimal) (subtotal, vat, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Amount)
	}
	subtotal = subtotal.Round(2)
	vat = subtotal.Mul(vatRate).Round(2)
	return subtotal, vat, subtotal.Add(vat)
}
