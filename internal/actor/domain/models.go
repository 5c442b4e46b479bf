package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
)

type Role string

const (
	RoleAdmin Role = orgcontext.RoleAdmin
	RoleAgent Role = orgcontext.RoleAgent
)

// Actor is anyone who can sell, lead, sponsor or administer. SponsorID links an
// actor to the actor who referred it, forming a forest.
type Actor struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_actors_org_email,priority:1" json:"organization_id"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	Email        string        `gorm:"type:text;not null;uniqueIndex:ux_actors_org_email,priority:2" json:"email"`
	Role         Role          `gorm:"type:text;not null" json:"role"`
	SponsorID    *snowflake.ID `gorm:"index" json:"sponsor_id,omitempty"`
	ReferralCode string        `gorm:"type:text;not null;uniqueIndex" json:"referral_code"`
	PasswordHash string        `gorm:"type:text" json:"-"`
	Active       bool          `gorm:"not null" json:"active"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

func (Actor) TableName() string { return "actors" }

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}
