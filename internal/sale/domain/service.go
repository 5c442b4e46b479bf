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

type CreateSaleRequest struct {
	Amount   decimal.Decimal
	SellerID string
	Customer string
}

// RecordSaleRequest is the system ingestion path used by invoices and payment webhooks.
type RecordSaleRequest struct {
	Amount      decimal.Decimal
	SellerID    snowflake.ID
	Customer    string
	Source      Source
	ExternalRef string
	InvoiceID   *snowflake.ID
}

type ListSaleRequest struct {
	pagination.Pagination
	Status      string
	Source      string
	SellerID    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListSaleResponse struct {
	pagination.PageInfo
	Sales []Sale `json:"sales"`
}

type RecomputeResult struct {
	Processed int `json:"processed"`
	Changed   int `json:"changed"`
}

type Service interface {
	// Create records a manual sale. Agents may only record their own sales.
	Create(ctx context.Context, req CreateSaleRequest) (Sale, error)
	// Prepare validates req and computes its split without persisting it.
	// An existing sale with the same source and external ref is returned as is.
	Prepare(ctx context.Context, req RecordSaleRequest) (Sale, bool, error)
	// Persist inserts a prepared sale using db, which may be a transaction.
	Persist(ctx context.Context, db *gorm.DB, sale *Sale) error
	Get(ctx context.Context, id string) (Sale, error)
	List(ctx context.Context, req ListSaleRequest) (ListSaleResponse, error)
	Approve(ctx context.Context, id string) (Sale, error)
	MarkPaid(ctx context.Context, id string) (Sale, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (Sale, error)
	// ResetToOpen reverts a paid sale to open. It is reserved for invoice cancellation.
	ResetToOpen(ctx context.Context, tx *gorm.DB, id snowflake.ID) (Sale, error)
	// Recompute re-runs the commission engine over every stored sale with the current shares.
	Recompute(ctx context.Context) (RecomputeResult, error)
}

var (
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidAmount           = errors.New("invalid_amount")
	ErrInvalidSeller           = errors.New("invalid_seller")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidSource           = errors.New("invalid_source")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not_found")
)
