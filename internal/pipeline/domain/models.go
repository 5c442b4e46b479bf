package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StepBase struct {
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes"`
}

type LeadlistStep struct {
	StepBase
}

type ResearchStep struct {
	StepBase
	Findings   []string `json:"findings"`
	PainPoints []string `json:"pain_points"`
}

type ContactAttempt struct {
	Method  ContactMethod  `json:"method"`
	Outcome ContactOutcome `json:"outcome"`
	At      time.Time      `json:"at"`
	Notes   string         `json:"notes"`
}

type ContactStep struct {
	StepBase
	Method   *ContactMethod   `json:"method,omitempty"`
	Attempts []ContactAttempt `json:"attempts"`
}

type PresentFinetuneStep struct {
	StepBase
	Adjustments           []string `json:"adjustments"`
	AgreedSuccessCriteria []string `json:"agreed_success_criteria"`
}

type DealStep struct {
	StepBase
	Result   *DealResult      `json:"result,omitempty"`
	ValueEUR *decimal.Decimal `json:"value_eur,omitempty"`
}

// StepState holds one typed sub-record per phase.
type StepState struct {
	Leadlist        LeadlistStep        `json:"leadlist"`
	Research        ResearchStep        `json:"research"`
	Contact         ContactStep         `json:"contact"`
	PresentFinetune PresentFinetuneStep `json:"present_finetune"`
	Deal            DealStep            `json:"deal"`
}

// Base returns the shared sub-state of phase, or nil for an unknown phase.
func (s *StepState) Base(phase Phase) *StepBase {
	switch phase {
	case PhaseLeadlist:
		return &s.Leadlist.StepBase
	case PhaseResearch:
		return &s.Research.StepBase
	case PhaseContact:
		return &s.Contact.StepBase
	case PhasePresentFinetune:
		return &s.PresentFinetune.StepBase
	case PhaseDeal:
		return &s.Deal.StepBase
	}
	return nil
}

type ChecklistItem struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Checked   bool       `json:"checked"`
	PhaseKey  *Phase     `json:"phase_key,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

type SavingsHypothesis struct {
	TimeHoursPerMonth decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"time_hours_per_month"`
	CostPerMonth      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost_per_month"`
}

type Company struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	OwnerID      snowflake.ID      `gorm:"not null;index" json:"owner_id"`
	Name         string            `gorm:"type:text;not null" json:"name"`
	ContactName  string            `gorm:"type:text" json:"contact_name"`
	Email        string            `gorm:"type:text" json:"email"`
	Phone        string            `gorm:"type:text" json:"phone"`
	Website      string            `gorm:"type:text" json:"website"`
	Industry     string            `gorm:"type:text" json:"industry"`
	City         string            `gorm:"type:text" json:"city"`
	Priority     int               `gorm:"not null;default:3" json:"priority"`
	GoalPrimary  Goal              `gorm:"type:text" json:"goal_primary"`
	Savings      SavingsHypothesis `gorm:"embedded;embeddedPrefix:savings_" json:"savings_hypothesis"`
	Checklist    []ChecklistItem   `gorm:"serializer:json;type:text" json:"checklist"`
	StepState    StepState         `gorm:"serializer:json;type:text" json:"step_state"`
	CurrentPhase Phase             `gorm:"type:text;not null;index" json:"current_phase"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Company) TableName() string { return "companies" }

// PhaseHistory is an append-only record of one step-state mutation.
type PhaseHistory struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	CompanyID  snowflake.ID `gorm:"not null;index" json:"company_id"`
	Phase      Phase        `gorm:"type:text;not null" json:"phase"`
	FromStatus StepStatus   `gorm:"type:text;not null" json:"from_status"`
	ToStatus   StepStatus   `gorm:"type:text;not null" json:"to_status"`
	At         time.Time    `gorm:"not null" json:"at"`
	ByActor    snowflake.ID `gorm:"not null" json:"by_actor"`
}

func (PhaseHistory) TableName() string { return "company_phase_history" }

// Changed reports whether the entry records a status change.
func (h PhaseHistory) Changed() bool {
	return h.FromStatus != h.ToStatus
}

type ActivityType string

const (
	ActivityCompanyCreated   ActivityType = "company_created"
	ActivityDetailsUpdated   ActivityType = "details_updated"
	ActivityStepUpdated      ActivityType = "step_updated"
	ActivityContactAttempt   ActivityType = "contact_attempt"
	ActivityDealUpdated      ActivityType = "deal_updated"
	ActivityChecklistAdded   ActivityType = "checklist_item_added"
	ActivityChecklistToggled ActivityType = "checklist_item_toggled"
	ActivityCompanyDeleted   ActivityType = "company_deleted"
)

type Activity struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	CompanyID snowflake.ID      `gorm:"not null;index" json:"company_id"`
	ActorID   snowflake.ID      `gorm:"not null;index" json:"actor_id"`
	Type      ActivityType      `gorm:"type:text;not null" json:"type"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }
