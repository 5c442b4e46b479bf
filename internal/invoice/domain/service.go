package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status   Status
	SellerID *snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListInvoiceFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]Invoice, error)
}

type LineInput struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	SellerID        string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Lines           []LineInput
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status   string
	SellerID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	// Create issues an invoice and records its net amount as a sale.
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	MarkPaid(ctx context.Context, id string) (Invoice, error)
	// Cancel voids the invoice and reopens its sale.
	Cancel(ctx context.Context, id string) (Invoice, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidSeller           = errors.New("invalid_seller")
	ErrInvalidCustomer         = errors.New("invalid_customer")
	ErrInvalidLines            = errors.New("invalid_lines")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not_found")
)
