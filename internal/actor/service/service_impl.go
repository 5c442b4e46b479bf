package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/fyxed/internal/actor/domain"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("actor.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateActorRequest) (domain.Actor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Actor{}, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Actor{}, domain.ErrInvalidEmail
	}
	role := req.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if !role.Valid() {
		return domain.Actor{}, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, orgID, email)
	if err != nil {
		return domain.Actor{}, err
	}
	if existing != nil {
		return domain.Actor{}, domain.ErrEmailTaken
	}

	sponsorID, err := s.resolveSponsor(ctx, orgID, req.SponsorID, req.ReferralCode)
	if err != nil {
		return domain.Actor{}, err
	}

	now := s.clock.Now()
	actor := domain.Actor{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Email:        email,
		Role:         role,
		SponsorID:    sponsorID,
		ReferralCode: newReferralCode(name),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Actor{}, err
		}
		actor.PasswordHash = string(hash)
	}

	if err := s.repo.Insert(ctx, s.db, &actor); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Actor{}, domain.ErrEmailTaken
		}
		return domain.Actor{}, err
	}

	s.audit(ctx, "actor.create", actor.ID, map[string]any{
		"role":       string(actor.Role),
		"sponsor_id": idString(actor.SponsorID),
	})
	return actor, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Actor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrInvalidOrganization
	}
	actorID, err := parseID(id)
	if err != nil {
		return domain.Actor{}, err
	}
	actor, err := s.repo.FindByID(ctx, s.db, orgID, actorID)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor == nil {
		return domain.Actor{}, domain.ErrNotFound
	}
	return *actor, nil
}

func (s *Service) List(ctx context.Context, req domain.ListActorRequest) ([]domain.Actor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	filter := domain.ListActorFilter{ActiveOnly: req.ActiveOnly}
	if role := strings.TrimSpace(req.Role); role != "" {
		filter.Role = domain.Role(strings.ToLower(role))
		if !filter.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
	}
	return s.repo.List(ctx, s.db, orgID, filter)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateActorRequest) (domain.Actor, error) {
	actor, err := s.Get(ctx, req.ID)
	if err != nil {
		return domain.Actor{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Actor{}, domain.ErrInvalidName
		}
		actor.Name = name
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return domain.Actor{}, domain.ErrInvalidRole
		}
		actor.Role = *req.Role
	}
	if req.Active != nil {
		actor.Active = *req.Active
	}
	actor.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &actor); err != nil {
		return domain.Actor{}, err
	}
	s.audit(ctx, "actor.update", actor.ID, map[string]any{
		"role":   string(actor.Role),
		"active": actor.Active,
	})
	return actor, nil
}

// SetSponsor links an actor to its referrer. Only the direct self-reference is
// rejected; longer cycles are not walked.
func (s *Service) SetSponsor(ctx context.Context, req domain.SetSponsorRequest) (domain.Actor, error) {
	actor, err := s.Get(ctx, req.ID)
	if err != nil {
		return domain.Actor{}, err
	}

	raw := strings.TrimSpace(req.SponsorID)
	if raw == "" {
		actor.SponsorID = nil
	} else {
		sponsorID, err := parseID(raw)
		if err != nil {
			return domain.Actor{}, err
		}
		if sponsorID == actor.ID {
			return domain.Actor{}, domain.ErrSelfSponsor
		}
		resolved, err := s.resolveSponsor(ctx, actor.OrgID, raw, "")
		if err != nil {
			return domain.Actor{}, err
		}
		actor.SponsorID = resolved
	}
	actor.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &actor); err != nil {
		return domain.Actor{}, err
	}
	s.audit(ctx, "actor.set_sponsor", actor.ID, map[string]any{
		"sponsor_id": idString(actor.SponsorID),
	})
	return actor, nil
}

func (s *Service) Team(ctx context.Context, leaderID string) ([]domain.Actor, error) {
	leader, err := s.Get(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, leader.OrgID, domain.ListActorFilter{SponsorID: &leader.ID})
}

func (s *Service) Authenticate(ctx context.Context, email string, password string) (domain.Actor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrInvalidOrganization
	}
	actor, err := s.repo.FindByEmail(ctx, s.db, orgID, email)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor == nil || !actor.Active || actor.PasswordHash == "" {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}
	return *actor, nil
}

func (s *Service) resolveSponsor(ctx context.Context, orgID snowflake.ID, sponsorID string, referralCode string) (*snowflake.ID, error) {
	var (
		sponsor *domain.Actor
		err     error
	)
	switch {
	case strings.TrimSpace(sponsorID) != "":
		id, parseErr := parseID(sponsorID)
		if parseErr != nil {
			return nil, parseErr
		}
		sponsor, err = s.repo.FindByID(ctx, s.db, orgID, id)
	case strings.TrimSpace(referralCode) != "":
		sponsor, err = s.repo.FindByReferralCode(ctx, s.db, orgID, referralCode)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sponsor == nil {
		return nil, domain.ErrSponsorNotFound
	}
	return &sponsor.ID, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "actor", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func newReferralCode(name string) string {
	base := slug.Make(name)
	if len(base) > 24 {
		base = strings.Trim(base[:24], "-")
	}
	suffix := strings.ToLower(ulid.Make().String())
	suffix = suffix[len(suffix)-6:]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func idString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
