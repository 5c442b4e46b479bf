package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recomputeBatchSize = 200

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Engine   commissiondomain.Engine
	Config   *config.CommissionConfigHolder `optional:"true"`
	AuditSvc auditdomain.Service            `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	engine   commissiondomain.Engine
	config   *config.CommissionConfigHolder
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("sale.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		engine:   p.Engine,
		config:   p.Config,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSaleRequest) (domain.Sale, error) {
	principal, hasPrincipal := orgcontext.PrincipalFromContext(ctx)

	var sellerID snowflake.ID
	if raw := strings.TrimSpace(req.SellerID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Sale{}, domain.ErrInvalidSeller
		}
		sellerID = id
	} else if hasPrincipal && !principal.IsAdmin() {
		// agents record their own sales; admins must name the seller
		sellerID = principal.ActorID
	}
	if sellerID == 0 {
		return domain.Sale{}, domain.ErrInvalidSeller
	}
	if hasPrincipal && !principal.IsAdmin() && sellerID != principal.ActorID {
		return domain.Sale{}, domain.ErrForbidden
	}

	sale, existing, err := s.Prepare(ctx, domain.RecordSaleRequest{
		Amount:   req.Amount,
		SellerID: sellerID,
		Customer: req.Customer,
		Source:   domain.SourceManual,
	})
	if err != nil {
		return domain.Sale{}, err
	}
	if existing {
		return sale, nil
	}
	if err := s.Persist(ctx, s.db, &sale); err != nil {
		return domain.Sale{}, err
	}
	s.audit(ctx, "sale.create", sale.ID, map[string]any{
		"amount":    sale.Amount.StringFixed(2),
		"seller_id": sale.SellerID.String(),
		"source":    string(sale.Source),
	})
	return sale, nil
}

func (s *Service) Prepare(ctx context.Context, req domain.RecordSaleRequest) (domain.Sale, bool, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Sale{}, false, domain.ErrInvalidOrganization
	}
	if req.Amount.IsNegative() {
		return domain.Sale{}, false, domain.ErrInvalidAmount
	}
	if req.SellerID == 0 {
		return domain.Sale{}, false, domain.ErrInvalidSeller
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	if !source.Valid() {
		return domain.Sale{}, false, domain.ErrInvalidSource
	}

	ref := strings.TrimSpace(req.ExternalRef)
	if ref != "" {
		existing, err := s.repo.FindByExternalRef(ctx, s.db, orgID, source, ref)
		if err != nil {
			return domain.Sale{}, false, err
		}
		if existing != nil {
			return *existing, true, nil
		}
	}

	split, err := s.engine.Compute(ctx, req.Amount, req.SellerID)
	if err != nil {
		if errors.Is(err, commissiondomain.ErrNegativeAmount) {
			return domain.Sale{}, false, domain.ErrInvalidAmount
		}
		return domain.Sale{}, false, err
	}

	now := s.clock.Now()
	sale := domain.Sale{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Amount:    req.Amount.Round(2),
		Currency:  s.config.Get().Currency,
		SellerID:  req.SellerID,
		Customer:  strings.TrimSpace(req.Customer),
		Source:    source,
		Status:    domain.StatusOpen,
		InvoiceID: req.InvoiceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ref != "" {
		sale.ExternalRef = &ref
	}
	sale.ApplySplit(split)
	return sale, false, nil
}

func (s *Service) Persist(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	if sale == nil || sale.ID == 0 {
		return domain.ErrInvalidID
	}
	if err := s.repo.Insert(ctx, db, sale); err != nil {
		return err
	}
	s.log.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("source", string(sale.Source)),
		zap.Bool("floor_applied", sale.FloorApplied),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Sale, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Sale{}, domain.ErrInvalidOrganization
	}
	saleID, err := parseID(id)
	if err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.repo.FindByID(ctx, s.db, orgID, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale == nil {
		return domain.Sale{}, domain.ErrNotFound
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() && !involves(*sale, principal.ActorID) {
		return domain.Sale{}, domain.ErrNotFound
	}
	return *sale, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSaleRequest) (domain.ListSaleResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListSaleResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListSaleFilter{CreatedFrom: req.CreatedFrom, CreatedTo: req.CreatedTo}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListSaleResponse{}, domain.ErrInvalidStatus
		}
	}
	if source := strings.TrimSpace(req.Source); source != "" {
		filter.Source = domain.Source(strings.ToLower(source))
		if !filter.Source.Valid() {
			return domain.ListSaleResponse{}, domain.ErrInvalidSource
		}
	}
	if raw := strings.TrimSpace(req.SellerID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListSaleResponse{}, domain.ErrInvalidSeller
		}
		filter.SellerID = &id
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() {
		actorID := principal.ActorID
		filter.InvolvingID = &actorID
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return domain.ListSaleResponse{}, err
	}

	sales, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Sale) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListSaleResponse{}, err
	}
	return domain.ListSaleResponse{PageInfo: pageInfo, Sales: sales}, nil
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.transition(ctx, id, domain.StatusApproved)
	if err != nil {
		return domain.Sale{}, err
	}
	s.audit(ctx, "sale.approve", sale.ID, nil)
	return sale, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.transition(ctx, id, domain.StatusPaid)
	if err != nil {
		return domain.Sale{}, err
	}
	s.audit(ctx, "sale.mark_paid", sale.ID, nil)
	return sale, nil
}

func (s *Service) MarkPaidTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (domain.Sale, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Sale{}, domain.ErrInvalidOrganization
	}
	sale, err := s.load(ctx, tx, orgID, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Status == domain.StatusPaid {
		return sale, nil
	}
	return s.advance(ctx, tx, sale, domain.StatusPaid)
}

func (s *Service) ResetToOpen(ctx context.Context, tx *gorm.DB, id snowflake.ID) (domain.Sale, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Sale{}, domain.ErrInvalidOrganization
	}
	sale, err := s.load(ctx, tx, orgID, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Status != domain.StatusPaid {
		return sale, nil
	}
	sale.Status = domain.StatusOpen
	sale.PaidAt = nil
	sale.ApprovedAt = nil
	sale.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, tx, &sale); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func (s *Service) Recompute(ctx context.Context) (domain.RecomputeResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.RecomputeResult{}, domain.ErrInvalidOrganization
	}

	var (
		result  domain.RecomputeResult
		changed []domain.Sale
		afterID snowflake.ID
	)
	for {
		batch, err := s.repo.ListBatch(ctx, s.db, orgID, afterID, recomputeBatchSize)
		if err != nil {
			return domain.RecomputeResult{}, err
		}
		for _, sale := range batch {
			split, err := s.engine.Compute(ctx, sale.Amount, sale.SellerID)
			if err != nil {
				return domain.RecomputeResult{}, err
			}
			result.Processed++
			if sale.SameSplit(split) && sale.FloorApplied == split.FloorApplied {
				continue
			}
			sale.ApplySplit(split)
			changed = append(changed, sale)
		}
		if len(batch) < recomputeBatchSize {
			break
		}
		afterID = batch[len(batch)-1].ID
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range changed {
			changed[i].UpdatedAt = now
			if err := s.repo.Update(ctx, tx, &changed[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.RecomputeResult{}, err
	}
	result.Changed = len(changed)

	s.log.Info("sales recomputed",
		zap.String("org_id", orgID.String()),
		zap.Int("processed", result.Processed),
		zap.Int("changed", result.Changed),
	)
	s.audit(ctx, "sale.recompute", orgID, map[string]any{
		"processed": result.Processed,
		"changed":   result.Changed,
	})
	return result, nil
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status) (domain.Sale, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Sale{}, domain.ErrInvalidOrganization
	}
	saleID, err := parseID(id)
	if err != nil {
		return domain.Sale{}, err
	}

	var updated domain.Sale
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.load(ctx, tx, orgID, saleID)
		if err != nil {
			return err
		}
		updated, err = s.advance(ctx, tx, sale, to)
		return err
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return updated, nil
}

// advance moves a sale forward through open, approved and paid.
func (s *Service) advance(ctx context.Context, tx *gorm.DB, sale domain.Sale, to domain.Status) (domain.Sale, error) {
	if rank(to) <= rank(sale.Status) {
		return domain.Sale{}, domain.ErrInvalidStatusTransition
	}
	now := s.clock.Now()
	if sale.ApprovedAt == nil {
		sale.ApprovedAt = &now
	}
	if to == domain.StatusPaid {
		sale.PaidAt = &now
	}
	sale.Status = to
	sale.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, &sale); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, db, orgID, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale == nil {
		return domain.Sale{}, domain.ErrNotFound
	}
	return *sale, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "sale", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func rank(status domain.Status) int {
	switch status {
	case domain.StatusOpen:
		return 0
	case domain.StatusApproved:
		return 1
	case domain.StatusPaid:
		return 2
	}
	return -1
}

func involves(sale domain.Sale, actorID snowflake.ID) bool {
	if sale.SellerID == actorID {
		return true
	}
	if sale.LeaderID != nil && *sale.LeaderID == actorID {
		return true
	}
	return sale.SponsorID != nil && *sale.SponsorID == actorID
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
