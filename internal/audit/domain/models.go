package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActorTypeSystem = "system"
	ActorTypeActor  = "actor"
)

// AuditLog is an append-only record of a privileged change.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID      `gorm:"not null;index" json:"org_id"`
	ActorType  string            `gorm:"type:text;not null" json:"actor_type"`
	ActorID    *snowflake.ID     `json:"actor_id,omitempty"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	RequestID  *string           `gorm:"type:text" json:"request_id,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	OrgID        snowflake.ID
	Action       string
	ActionPrefix string
	ActorID      *snowflake.ID
	TargetType   string
	TargetID     string
	StartAt      *time.Time
	EndAt        *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]AuditLog, error)
}
