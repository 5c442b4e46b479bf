package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/fyxed/pkg/db/pagination"
)

// ListAuditLogRequest filters the organization's log. An Action ending in
// ".*" matches every action with that prefix, so "sale.*" lists all sale
// changes.
type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	ActorID    string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records privileged changes. The organization and actor are taken from ctx.
type Service interface {
	AuditLog(ctx context.Context, action string, targetType string, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrInvalidActorID      = errors.New("invalid_id")
)
