package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindBalance(ctx context.Context, db *gorm.DB, orgID, actorID snowflake.ID, forUpdate bool) (*Balance, error)
	InsertBalance(ctx context.Context, db *gorm.DB, balance *Balance) error
	UpdateBalance(ctx context.Context, db *gorm.DB, balance *Balance) error
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindTransactionByReference(ctx context.Context, db *gorm.DB, orgID snowflake.ID, txType TransactionType, reference string) (*Transaction, error)
	ListTransactions(ctx context.Context, db *gorm.DB, orgID, actorID snowflake.ID, scope func(*gorm.DB) (*gorm.DB, error)) ([]Transaction, error)
}

// Entry is one signed balance movement. Debits carry a negative amount.
type Entry struct {
	OrgID       snowflake.ID
	ActorID     snowflake.ID
	Type        TransactionType
	Amount      decimal.Decimal
	Reference   string
	Description string
}

type GrantRequest struct {
	ActorID     string          `json:"actor_id"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

type TopUpRequest struct {
	ActorID   snowflake.ID
	Amount    decimal.Decimal
	Reference string
}

type ListTransactionRequest struct {
	pagination.Pagination
	ActorID string
}

type ListTransactionResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

type BalanceView struct {
	ActorID snowflake.ID    `json:"actor_id"`
	Balance decimal.Decimal `json:"balance"`
}

type Service interface {
	// Apply records entry inside tx. An entry whose reference was already
	// applied returns the stored transaction and false.
	Apply(ctx context.Context, tx *gorm.DB, entry Entry) (Transaction, bool, error)
	// TopUp credits a paid top-up. It is idempotent on the payment reference.
	TopUp(ctx context.Context, req TopUpRequest) (Transaction, error)
	// Grant credits an actor by admin decision.
	Grant(ctx context.Context, req GrantRequest) (Transaction, error)
	Balance(ctx context.Context, actorID string) (BalanceView, error)
	ListTransactions(ctx context.Context, req ListTransactionRequest) (ListTransactionResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidType         = errors.New("invalid_transaction_type")
	ErrForbidden           = errors.New("forbidden")
)
