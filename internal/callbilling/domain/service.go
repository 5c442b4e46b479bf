package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListCallFilter struct {
	ActorID *snowflake.ID
	Status  Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, call *Call) error
	Update(ctx context.Context, db *gorm.DB, call *Call) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Call, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCallFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]Call, error)
	// ListUnbilled returns unbilled calls of every organization, oldest first.
	ListUnbilled(ctx context.Context, db *gorm.DB, limit int) ([]Call, error)
}

// RemoteCall is the calling API's view of a call.
type RemoteCall struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt"`
	EndedReason string     `json:"endedReason"`
}

func (r RemoteCall) Ended() bool {
	return r.Status == string(StatusEnded) && r.StartedAt != nil && r.EndedAt != nil
}

type CallsClient interface {
	GetCall(ctx context.Context, externalID string) (RemoteCall, error)
}

type RegisterCallRequest struct {
	ActorID    string `json:"actor_id"`
	CompanyID  string `json:"company_id"`
	ExternalID string `json:"external_id"`
	ToNumber   string `json:"to_number"`
}

type CallEndedRequest struct {
	CallID      string    `json:"-"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	EndedReason string    `json:"ended_reason"`
}

type ListCallRequest struct {
	pagination.Pagination
	ActorID string
	Status  string
}

type ListCallResponse struct {
	pagination.PageInfo
	Calls []Call `json:"calls"`
}

type ReconcileResult struct {
	Checked int `json:"checked"`
	Billed  int `json:"billed"`
	Failed  int `json:"failed"`
}

type Service interface {
	RegisterCall(ctx context.Context, req RegisterCallRequest) (Call, error)
	Get(ctx context.Context, id string) (Call, error)
	List(ctx context.Context, req ListCallRequest) (ListCallResponse, error)
	// ProcessCallBilling charges a finished call to its actor's credit
	// balance. A call is billed at most once.
	ProcessCallBilling(ctx context.Context, req CallEndedRequest) (Call, error)
	// Reconcile polls the calling API for unbilled calls and bills the ended ones.
	Reconcile(ctx context.Context, limit int) (ReconcileResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidExternalID   = errors.New("invalid_external_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidCallWindow   = errors.New("invalid_call_window")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrDuplicateCall       = errors.New("duplicate_call")
	ErrCallsAPIDisabled    = errors.New("calls_api_disabled")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not_found")
)
