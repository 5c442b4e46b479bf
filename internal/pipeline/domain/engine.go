package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	minPriority     = 1
	maxPriority     = 5
	defaultPriority = 3
)

type ChecklistTemplate struct {
	Label string
	Phase *Phase
}

type NewCompanyInput struct {
	OwnerID     snowflake.ID
	Name        string
	ContactName string
	Email       string
	Phone       string
	Website     string
	Industry    string
	City        string
	Priority    int
	GoalPrimary Goal
	Savings     SavingsHypothesis
}

// StepUpdate carries the fields to merge into a phase. Nil fields are left
// untouched and fields that do not belong to the phase are ignored.
type StepUpdate struct {
	Status                *StepStatus
	Notes                 *string
	Findings              []string
	PainPoints            []string
	ContactMethod         *ContactMethod
	Adjustments           []string
	AgreedSuccessCriteria []string
	DealResult            *DealResult
	DealValueEUR          *decimal.Decimal
}

// NewCompany builds a company with leadlist in progress and every other phase
// not started. The returned history entry records the leadlist start.
func NewCompany(id snowflake.ID, orgID snowflake.ID, in NewCompanyInput, checklist []ChecklistTemplate, actor snowflake.ID, now time.Time) (Company, PhaseHistory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Company{}, PhaseHistory{}, ErrInvalidName
	}
	priority := in.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	if priority < minPriority || priority > maxPriority {
		return Company{}, PhaseHistory{}, ErrInvalidPriority
	}
	if _, err := ParseGoal(string(in.GoalPrimary)); err != nil {
		return Company{}, PhaseHistory{}, err
	}

	company := Company{
		ID:           id,
		OrgID:        orgID,
		OwnerID:      in.OwnerID,
		Name:         name,
		ContactName:  strings.TrimSpace(in.ContactName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Website:      strings.TrimSpace(in.Website),
		Industry:     strings.TrimSpace(in.Industry),
		City:         strings.TrimSpace(in.City),
		Priority:     priority,
		GoalPrimary:  in.GoalPrimary,
		Savings:      in.Savings,
		CurrentPhase: PhaseLeadlist,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, phase := range Phases {
		company.StepState.Base(phase).Status = StatusNotStarted
	}

	for _, tmpl := range checklist {
		if _, err := AddChecklistItem(&company, tmpl.Label, tmpl.Phase); err != nil {
			return Company{}, PhaseHistory{}, err
		}
	}

	leadlist := company.StepState.Base(PhaseLeadlist)
	leadlist.Status = StatusInProgress
	leadlist.StartedAt = timePtr(now)

	entry := newHistory(&company, PhaseLeadlist, StatusNotStarted, StatusInProgress, actor, now)
	return company, entry, nil
}

// UpdateStep merges update into phase and appends exactly one history entry.
// Completing a phase advances the pipeline from that phase, whichever phase is
// current.
func UpdateStep(c *Company, phase Phase, update StepUpdate, actor snowflake.ID, now time.Time) (PhaseHistory, error) {
	base := c.StepState.Base(phase)
	if base == nil {
		return PhaseHistory{}, ErrInvalidPhase
	}
	if phase == PhaseDeal && update.DealValueEUR != nil && update.DealValueEUR.IsNegative() {
		return PhaseHistory{}, ErrInvalidDealValue
	}

	from := base.Status
	to := from
	if update.Status != nil {
		if _, err := ParseStepStatus(string(*update.Status)); err != nil {
			return PhaseHistory{}, err
		}
		to = *update.Status
		if err := checkTransition(from, to); err != nil {
			return PhaseHistory{}, err
		}
	}

	mergePhaseFields(c, phase, update)
	if update.Notes != nil {
		base.Notes = *update.Notes
	}

	base.Status = to
	if to == StatusInProgress && base.StartedAt == nil {
		base.StartedAt = timePtr(now)
	}
	if update.Status != nil && to.Terminal() {
		if base.CompletedAt == nil {
			base.CompletedAt = timePtr(now)
		}
		advanceFrom(c, phase, now)
	}

	c.UpdatedAt = now
	return newHistory(c, phase, from, to, actor, now), nil
}

// AddContactAttempt records an attempt. The first attempt claims the contact
// method and a connected attempt starts a contact phase that has not begun.
// The history entry is nil when the contact status did not change.
func AddContactAttempt(c *Company, method ContactMethod, outcome ContactOutcome, notes string, actor snowflake.ID, now time.Time) (*PhaseHistory, error) {
	if _, err := ParseContactMethod(string(method)); err != nil {
		return nil, err
	}
	if _, err := ParseContactOutcome(string(outcome)); err != nil {
		return nil, err
	}

	contact := &c.StepState.Contact
	contact.Attempts = append(contact.Attempts, ContactAttempt{
		Method:  method,
		Outcome: outcome,
		At:      now,
		Notes:   strings.TrimSpace(notes),
	})
	if contact.Method == nil {
		claimed := method
		contact.Method = &claimed
	}
	c.UpdatedAt = now

	if outcome != OutcomeConnected || contact.Status != StatusNotStarted {
		return nil, nil
	}
	contact.Status = StatusInProgress
	if contact.StartedAt == nil {
		contact.StartedAt = timePtr(now)
	}
	entry := newHistory(c, PhaseContact, StatusNotStarted, StatusInProgress, actor, now)
	return &entry, nil
}

// UpdateDeal records the deal outcome, closes the deal phase and moves the
// company straight to it.
func UpdateDeal(c *Company, result DealResult, value *decimal.Decimal, notes *string, actor snowflake.ID, now time.Time) (PhaseHistory, error) {
	if _, err := ParseDealResult(string(result)); err != nil {
		return PhaseHistory{}, err
	}
	if value != nil && value.IsNegative() {
		return PhaseHistory{}, ErrInvalidDealValue
	}

	deal := &c.StepState.Deal
	from := deal.Status

	deal.Result = &result
	if value != nil {
		v := value.Round(2)
		deal.ValueEUR = &v
	}
	if notes != nil {
		deal.Notes = *notes
	}
	deal.Status = StatusDone
	deal.CompletedAt = timePtr(now)
	if deal.StartedAt == nil {
		deal.StartedAt = timePtr(now)
	}
	c.CurrentPhase = PhaseDeal
	c.UpdatedAt = now

	return newHistory(c, PhaseDeal, from, StatusDone, actor, now), nil
}

func AddChecklistItem(c *Company, label string, phase *Phase) (ChecklistItem, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return ChecklistItem{}, ErrInvalidChecklistLabel
	}
	item := ChecklistItem{ID: uuid.NewString(), Label: label}
	if phase != nil {
		if phase.Index() < 0 {
			return ChecklistItem{}, ErrInvalidPhase
		}
		tag := *phase
		item.PhaseKey = &tag
	}
	c.Checklist = append(c.Checklist, item)
	return item, nil
}

// ToggleChecklistItem flips an item, or sets it when checked is given.
func ToggleChecklistItem(c *Company, itemID string, checked *bool, now time.Time) (ChecklistItem, error) {
	for i := range c.Checklist {
		item := &c.Checklist[i]
		if item.ID != itemID {
			continue
		}
		next := !item.Checked
		if checked != nil {
			next = *checked
		}
		if next != item.Checked {
			item.Checked = next
			if next {
				item.CheckedAt = timePtr(now)
			} else {
				item.CheckedAt = nil
			}
			c.UpdatedAt = now
		}
		return *item, nil
	}
	return ChecklistItem{}, ErrChecklistItemNotFound
}

func checkTransition(from, to StepStatus) error {
	if from == to {
		return nil
	}
	// DONE and SKIPPED are final for a phase
	if to == StatusNotStarted || from.Terminal() {
		return ErrInvalidStatusTransition
	}
	return nil
}

func advanceFrom(c *Company, phase Phase, now time.Time) {
	next, ok := phase.Next()
	if !ok {
		return
	}
	c.CurrentPhase = next
	base := c.StepState.Base(next)
	base.Status = StatusInProgress
	if base.StartedAt == nil {
		base.StartedAt = timePtr(now)
	}
}

func mergePhaseFields(c *Company, phase Phase, update StepUpdate) {
	switch phase {
	case PhaseResearch:
		if update.Findings != nil {
			c.StepState.Research.Findings = update.Findings
		}
		if update.PainPoints != nil {
			c.StepState.Research.PainPoints = update.PainPoints
		}
	case PhaseContact:
		if update.ContactMethod != nil {
			method := *update.ContactMethod
			c.StepState.Contact.Method = &method
		}
	case PhasePresentFinetune:
		if update.Adjustments != nil {
			c.StepState.PresentFinetune.Adjustments = update.Adjustments
		}
		if update.AgreedSuccessCriteria != nil {
			c.StepState.PresentFinetune.AgreedSuccessCriteria = update.AgreedSuccessCriteria
		}
	case PhaseDeal:
		if update.DealResult != nil {
			result := *update.DealResult
			c.StepState.Deal.Result = &result
		}
		if update.DealValueEUR != nil {
			value := update.DealValueEUR.Round(2)
			c.StepState.Deal.ValueEUR = &value
		}
	}
}

func newHistory(c *Company, phase Phase, from, to StepStatus, actor snowflake.ID, now time.Time) PhaseHistory {
	return PhaseHistory{
		OrgID:      c.OrgID,
		CompanyID:  c.ID,
		Phase:      phase,
		FromStatus: from,
		ToStatus:   to,
		At:         now,
		ByActor:    actor,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
