package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/pipeline/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultActivityLimit = 100

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Config   *config.CommissionConfigHolder `optional:"true"`
	Metrics  *metrics.Metrics               `optional:"true"`
	AuditSvc auditdomain.Service            `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	config   *config.CommissionConfigHolder
	metrics  *metrics.Metrics
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pipeline.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		config:   p.Config,
		metrics:  p.Metrics,
		auditSvc: p.AuditSvc,
	}
}

// change is what a pipeline mutation produced besides the company itself.
type change struct {
	history  []domain.PhaseHistory
	activity domain.ActivityType
	payload  map[string]any
}

type mutateFunc func(c *domain.Company, actor snowflake.ID, now time.Time) (change, error)

func (s *Service) Create(ctx context.Context, req domain.CreateCompanyRequest) (domain.Company, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.Company{}, err
	}

	ownerID := principal.ActorID
	if raw := strings.TrimSpace(req.OwnerID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Company{}, err
		}
		if !principal.IsAdmin() && id != principal.ActorID {
			return domain.Company{}, domain.ErrForbidden
		}
		ownerID = id
	}
	goal, err := domain.ParseGoal(req.GoalPrimary)
	if err != nil {
		return domain.Company{}, err
	}
	templates, err := s.checklistTemplates()
	if err != nil {
		return domain.Company{}, err
	}

	now := s.clock.Now()
	company, entry, err := domain.NewCompany(s.genID.Generate(), principal.OrgID, domain.NewCompanyInput{
		OwnerID:     ownerID,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Industry:    req.Industry,
		City:        req.City,
		Priority:    req.Priority,
		GoalPrimary: goal,
		Savings:     req.Savings,
	}, templates, principal.ActorID, now)
	if err != nil {
		return domain.Company{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &company); err != nil {
			return err
		}
		return s.record(ctx, tx, &company, principal.ActorID, now, change{
			history:  []domain.PhaseHistory{entry},
			activity: domain.ActivityCompanyCreated,
			payload:  map[string]any{"name": company.Name},
		})
	})
	if err != nil {
		return domain.Company{}, err
	}

	s.metrics.IncPhaseTransition(string(entry.Phase), string(entry.ToStatus))
	s.log.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("owner_id", company.OwnerID.String()),
	)
	return company, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Company, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.Company{}, err
	}
	companyID, err := parseID(id)
	if err != nil {
		return domain.Company{}, err
	}
	return s.load(ctx, s.db, principal, companyID)
}

func (s *Service) List(ctx context.Context, req domain.ListCompanyRequest) (domain.ListCompanyResponse, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}

	filter := domain.ListCompanyFilter{
		Search:      req.Search,
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if raw := strings.TrimSpace(req.Phase); raw != "" {
		phase, err := domain.ParsePhase(raw)
		if err != nil {
			return domain.ListCompanyResponse{}, err
		}
		filter.Phase = phase
	}
	if raw := strings.TrimSpace(req.OwnerID); raw != "" {
		ownerID, err := parseID(raw)
		if err != nil {
			return domain.ListCompanyResponse{}, err
		}
		filter.OwnerID = &ownerID
	}
	if !principal.IsAdmin() {
		if filter.OwnerID != nil && *filter.OwnerID != principal.ActorID {
			return domain.ListCompanyResponse{}, domain.ErrForbidden
		}
		own := principal.ActorID
		filter.OwnerID = &own
	}

	items, err := s.repo.List(ctx, s.db, principal.OrgID, filter, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}
	companies, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Company) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}
	return domain.ListCompanyResponse{PageInfo: pageInfo, Companies: companies}, nil
}

func (s *Service) UpdateDetails(ctx context.Context, req domain.UpdateCompanyRequest) (domain.Company, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.Company{}, err
	}

	var ownerID *snowflake.ID
	if req.OwnerID != nil {
		id, err := parseID(*req.OwnerID)
		if err != nil {
			return domain.Company{}, err
		}
		if !principal.IsAdmin() && id != principal.ActorID {
			return domain.Company{}, domain.ErrForbidden
		}
		ownerID = &id
	}
	var goal *domain.Goal
	if req.GoalPrimary != nil {
		parsed, err := domain.ParseGoal(*req.GoalPrimary)
		if err != nil {
			return domain.Company{}, err
		}
		goal = &parsed
	}
	if req.Priority != nil && (*req.Priority < 1 || *req.Priority > 5) {
		return domain.Company{}, domain.ErrInvalidPriority
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return domain.Company{}, domain.ErrInvalidName
	}

	return s.mutate(ctx, req.ID, func(c *domain.Company, _ snowflake.ID, now time.Time) (change, error) {
		fields := []string{}
		set := func(field string, target *string, value *string) {
			if value == nil {
				return
			}
			*target = strings.TrimSpace(*value)
			fields = append(fields, field)
		}
		set("name", &c.Name, req.Name)
		set("contact_name", &c.ContactName, req.ContactName)
		set("email", &c.Email, req.Email)
		set("phone", &c.Phone, req.Phone)
		set("website", &c.Website, req.Website)
		set("industry", &c.Industry, req.Industry)
		set("city", &c.City, req.City)
		if req.Priority != nil {
			c.Priority = *req.Priority
			fields = append(fields, "priority")
		}
		if goal != nil {
			c.GoalPrimary = *goal
			fields = append(fields, "goal_primary")
		}
		if req.Savings != nil {
			c.Savings = *req.Savings
			fields = append(fields, "savings_hypothesis")
		}
		if ownerID != nil {
			c.OwnerID = *ownerID
			fields = append(fields, "owner_id")
		}
		c.UpdatedAt = now
		return change{activity: domain.ActivityDetailsUpdated, payload: map[string]any{"fields": fields}}, nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, err := s.principal(ctx)
	if err != nil {
		return err
	}
	companyID, err := parseID(id)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := s.load(ctx, tx, principal, companyID)
		if err != nil {
			return err
		}
		if err := s.repo.SoftDelete(ctx, tx, principal.OrgID, company.ID); err != nil {
			return err
		}
		return s.record(ctx, tx, &company, principal.ActorID, now, change{activity: domain.ActivityCompanyDeleted})
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "company.delete", companyID, nil)
	return nil
}

func (s *Service) UpdateStep(ctx context.Context, req domain.UpdateStepRequest) (domain.Company, error) {
	phase, err := domain.ParsePhase(req.Phase)
	if err != nil {
		return domain.Company{}, err
	}
	update := domain.StepUpdate{
		Notes:                 req.Notes,
		Findings:              req.Findings,
		PainPoints:            req.PainPoints,
		Adjustments:           req.Adjustments,
		AgreedSuccessCriteria: req.AgreedSuccessCriteria,
		DealValueEUR:          req.DealValueEUR,
	}
	if req.Status != nil {
		status, err := domain.ParseStepStatus(*req.Status)
		if err != nil {
			return domain.Company{}, err
		}
		update.Status = &status
	}
	if req.ContactMethod != nil && phase == domain.PhaseContact {
		method, err := domain.ParseContactMethod(*req.ContactMethod)
		if err != nil {
			return domain.Company{}, err
		}
		update.ContactMethod = &method
	}
	if req.DealResult != nil && phase == domain.PhaseDeal {
		result, err := domain.ParseDealResult(*req.DealResult)
		if err != nil {
			return domain.Company{}, err
		}
		update.DealResult = &result
	}

	return s.mutate(ctx, req.CompanyID, func(c *domain.Company, actor snowflake.ID, now time.Time) (change, error) {
		entry, err := domain.UpdateStep(c, phase, update, actor, now)
		if err != nil {
			return change{}, err
		}
		return change{
			history:  []domain.PhaseHistory{entry},
			activity: domain.ActivityStepUpdated,
			payload: map[string]any{
				"phase":         string(phase),
				"from_status":   string(entry.FromStatus),
				"to_status":     string(entry.ToStatus),
				"current_phase": string(c.CurrentPhase),
			},
		}, nil
	})
}

func (s *Service) AddContactAttempt(ctx context.Context, req domain.ContactAttemptRequest) (domain.Company, error) {
	method, err := domain.ParseContactMethod(req.Method)
	if err != nil {
		return domain.Company{}, err
	}
	outcome, err := domain.ParseContactOutcome(req.Outcome)
	if err != nil {
		return domain.Company{}, err
	}

	company, err := s.mutate(ctx, req.CompanyID, func(c *domain.Company, actor snowflake.ID, now time.Time) (change, error) {
		entry, err := domain.AddContactAttempt(c, method, outcome, req.Notes, actor, now)
		if err != nil {
			return change{}, err
		}
		out := change{
			activity: domain.ActivityContactAttempt,
			payload: map[string]any{
				"method":  string(method),
				"outcome": string(outcome),
			},
		}
		if entry != nil {
			out.history = append(out.history, *entry)
		}
		return out, nil
	})
	if err != nil {
		return domain.Company{}, err
	}
	s.metrics.IncContactAttempt(string(method), string(outcome))
	return company, nil
}

func (s *Service) UpdateDeal(ctx context.Context, req domain.UpdateDealRequest) (domain.Company, error) {
	result, err := domain.ParseDealResult(req.Result)
	if err != nil {
		return domain.Company{}, err
	}

	return s.mutate(ctx, req.CompanyID, func(c *domain.Company, actor snowflake.ID, now time.Time) (change, error) {
		entry, err := domain.UpdateDeal(c, result, req.ValueEUR, req.Notes, actor, now)
		if err != nil {
			return change{}, err
		}
		payload := map[string]any{"result": string(result)}
		if c.StepState.Deal.ValueEUR != nil {
			payload["value_eur"] = c.StepState.Deal.ValueEUR.StringFixed(2)
		}
		return change{
			history:  []domain.PhaseHistory{entry},
			activity: domain.ActivityDealUpdated,
			payload:  payload,
		}, nil
	})
}

func (s *Service) AddChecklistItem(ctx context.Context, req domain.AddChecklistItemRequest) (domain.Company, error) {
	var phase *domain.Phase
	if raw := strings.TrimSpace(req.Phase); raw != "" {
		parsed, err := domain.ParsePhase(raw)
		if err != nil {
			return domain.Company{}, err
		}
		phase = &parsed
	}

	return s.mutate(ctx, req.CompanyID, func(c *domain.Company, _ snowflake.ID, now time.Time) (change, error) {
		item, err := domain.AddChecklistItem(c, req.Label, phase)
		if err != nil {
			return change{}, err
		}
		c.UpdatedAt = now
		return change{
			activity: domain.ActivityChecklistAdded,
			payload:  map[string]any{"item_id": item.ID, "label": item.Label},
		}, nil
	})
}

func (s *Service) ToggleChecklistItem(ctx context.Context, req domain.ToggleChecklistItemRequest) (domain.Company, error) {
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		return domain.Company{}, domain.ErrChecklistItemNotFound
	}

	return s.mutate(ctx, req.CompanyID, func(c *domain.Company, _ snowflake.ID, now time.Time) (change, error) {
		item, err := domain.ToggleChecklistItem(c, itemID, req.Checked, now)
		if err != nil {
			return change{}, err
		}
		return change{
			activity: domain.ActivityChecklistToggled,
			payload:  map[string]any{"item_id": item.ID, "checked": item.Checked},
		}, nil
	})
}

func (s *Service) History(ctx context.Context, companyID string) ([]domain.PhaseHistory, error) {
	company, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, s.db, company.OrgID, company.ID)
}

func (s *Service) Activities(ctx context.Context, companyID string, limit int) ([]domain.Activity, error) {
	company, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.repo.ListActivities(ctx, s.db, company.OrgID, company.ID, limit)
}

// mutate loads, changes and saves a company together with its history and
// activity rows in a single transaction.
func (s *Service) mutate(ctx context.Context, id string, fn mutateFunc) (domain.Company, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.Company{}, err
	}
	companyID, err := parseID(id)
	if err != nil {
		return domain.Company{}, err
	}

	var (
		updated domain.Company
		result  change
	)
	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := s.load(ctx, tx, principal, companyID)
		if err != nil {
			return err
		}
		result, err = fn(&company, principal.ActorID, now)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, tx, &company); err != nil {
			return err
		}
		if err := s.record(ctx, tx, &company, principal.ActorID, now, result); err != nil {
			return err
		}
		updated = company
		return nil
	})
	if err != nil {
		return domain.Company{}, err
	}

	for _, entry := range result.history {
		if entry.Changed() {
			s.metrics.IncPhaseTransition(string(entry.Phase), string(entry.ToStatus))
		}
	}
	return updated, nil
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, c *domain.Company, actor snowflake.ID, now time.Time, ch change) error {
	for i := range ch.history {
		ch.history[i].ID = s.genID.Generate()
		ch.history[i].OrgID = c.OrgID
		ch.history[i].CompanyID = c.ID
	}
	if err := s.repo.InsertHistory(ctx, tx, ch.history); err != nil {
		return err
	}
	if ch.activity == "" {
		return nil
	}

	payload := datatypes.JSONMap{}
	for key, value := range ch.payload {
		payload[key] = value
	}
	return s.repo.InsertActivity(ctx, tx, &domain.Activity{
		ID:        s.genID.Generate(),
		OrgID:     c.OrgID,
		CompanyID: c.ID,
		ActorID:   actor,
		Type:      ch.activity,
		Payload:   payload,
		CreatedAt: now,
	})
}

func (s *Service) load(ctx context.Context, db *gorm.DB, principal orgcontext.Principal, id snowflake.ID) (domain.Company, error) {
	company, err := s.repo.FindByID(ctx, db, principal.OrgID, id)
	if err != nil {
		return domain.Company{}, err
	}
	if company == nil {
		return domain.Company{}, domain.ErrNotFound
	}
	if !principal.IsAdmin() && company.OwnerID != principal.ActorID {
		return domain.Company{}, domain.ErrForbidden
	}
	return *company, nil
}

func (s *Service) principal(ctx context.Context) (orgcontext.Principal, error) {
	principal, ok := orgcontext.PrincipalFromContext(ctx)
	if !ok {
		return orgcontext.Principal{}, domain.ErrForbidden
	}
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); !ok || orgID != principal.OrgID {
		return orgcontext.Principal{}, domain.ErrInvalidOrganization
	}
	return principal, nil
}

func (s *Service) checklistTemplates() ([]domain.ChecklistTemplate, error) {
	defaults := s.config.Get().DefaultChecklist
	templates := make([]domain.ChecklistTemplate, 0, len(defaults))
	for _, item := range defaults {
		tmpl := domain.ChecklistTemplate{Label: item.Label}
		if raw := strings.TrimSpace(item.Phase); raw != "" {
			phase, err := domain.ParsePhase(raw)
			if err != nil {
				return nil, err
			}
			tmpl.Phase = &phase
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "company", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
