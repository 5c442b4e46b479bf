package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/invoice/domain"
	"github.com/smallbiznis/fyxed/internal/invoice/format"
	"github.com/smallbiznis/fyxed/internal/invoice/render"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Sales    saledomain.Service
	Renderer render.Renderer
	Config   *config.CommissionConfigHolder `optional:"true"`
	AuditSvc auditdomain.Service            `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	sales    saledomain.Service
	renderer render.Renderer
	config   *config.CommissionConfigHolder
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		sales:    p.Sales,
		renderer: p.Renderer,
		config:   p.Config,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	principal, hasPrincipal := orgcontext.PrincipalFromContext(ctx)

	var sellerID snowflake.ID
	if raw := strings.TrimSpace(req.SellerID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Invoice{}, domain.ErrInvalidSeller
		}
		sellerID = id
	} else if hasPrincipal {
		sellerID = principal.ActorID
	}
	if sellerID == 0 {
		return domain.Invoice{}, domain.ErrInvalidSeller
	}
	if hasPrincipal && !principal.IsAdmin() && sellerID != principal.ActorID {
		return domain.Invoice{}, domain.ErrForbidden
	}

	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return domain.Invoice{}, domain.ErrInvalidCustomer
	}
	lines, err := buildLines(req.Lines)
	if err != nil {
		return domain.Invoice{}, err
	}

	cfg := s.config.Get()
	now := s.clock.Now()
	number, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, now, ulid.Make().String())
	if err != nil {
		return domain.Invoice{}, err
	}
	subtotal, vat, total := domain.Totals(lines, cfg.VAT())

	invoice := domain.Invoice{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		Number:          number,
		SellerID:        sellerID,
		CustomerName:    customer,
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		Currency:        cfg.Currency,
		Lines:           lines,
		Subtotal:        subtotal,
		VATRate:         cfg.VAT(),
		VATAmount:       vat,
		Total:           total,
		Status:          domain.StatusIssued,
		IssuedAt:        now,
		DueAt:           now.AddDate(0, 0, cfg.InvoiceDueDays),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sale, existing, err := s.sales.Prepare(ctx, saledomain.RecordSaleRequest{
		Amount:      subtotal,
		SellerID:    sellerID,
		Customer:    customer,
		Source:      saledomain.SourceInvoice,
		ExternalRef: number,
		InvoiceID:   &invoice.ID,
	})
	if err != nil {
		if err == saledomain.ErrInvalidSeller {
			return domain.Invoice{}, domain.ErrInvalidSeller
		}
		return domain.Invoice{}, err
	}
	invoice.SaleID = &sale.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		if existing {
			return nil
		}
		return s.sales.Persist(ctx, tx, &sale)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice issued",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("sale_id", sale.ID.String()),
	)
	s.audit(ctx, "invoice.create", invoice.ID, map[string]any{
		"number": invoice.Number,
		"total":  invoice.Total.StringFixed(2),
	})
	return invoice, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice, err := s.load(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() && invoice.SellerID != principal.ActorID {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListInvoiceFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		switch filter.Status {
		case domain.StatusIssued, domain.StatusPaid, domain.StatusCancelled:
		default:
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
	}
	if raw := strings.TrimSpace(req.SellerID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidSeller
		}
		filter.SellerID = &id
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() {
		own := principal.ActorID
		filter.SellerID = &own
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}
	invoices, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Invoice) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}
	return domain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Invoice, error) {
	invoice, err := s.transition(ctx, id, func(tx *gorm.DB, invoice *domain.Invoice) error {
		if invoice.Status != domain.StatusIssued {
			return domain.ErrInvalidStatusTransition
		}
		now := s.clock.Now()
		invoice.Status = domain.StatusPaid
		invoice.PaidAt = &now
		invoice.UpdatedAt = now
		if invoice.SaleID == nil {
			return nil
		}
		_, err := s.sales.MarkPaidTx(ctx, tx, *invoice.SaleID)
		return err
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.audit(ctx, "invoice.mark_paid", invoice.ID, map[string]any{"number": invoice.Number})
	return invoice, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Invoice, error) {
	invoice, err := s.transition(ctx, id, func(tx *gorm.DB, invoice *domain.Invoice) error {
		if invoice.Status == domain.StatusCancelled {
			return domain.ErrInvalidStatusTransition
		}
		now := s.clock.Now()
		invoice.Status = domain.StatusCancelled
		invoice.CancelledAt = &now
		invoice.UpdatedAt = now
		if invoice.SaleID == nil {
			return nil
		}
		_, err := s.sales.ResetToOpen(ctx, tx, *invoice.SaleID)
		return err
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.audit(ctx, "invoice.cancel", invoice.ID, map[string]any{"number": invoice.Number})
	return invoice, nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(invoice)
}

func (s *Service) transition(ctx context.Context, id string, apply func(tx *gorm.DB, invoice *domain.Invoice) error) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	var updated domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.load(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if err := apply(tx, &invoice); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, &invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "invoice", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func buildLines(inputs []domain.LineInput) ([]domain.LineItem, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrInvalidLines
	}
	lines := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" || in.Quantity <= 0 || in.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidLines
		}
		unit := in.UnitPrice.Round(2)
		lines = append(lines, domain.LineItem{
			Description: description,
			Quantity:    in.Quantity,
			UnitPrice:   unit,
			Amount:      unit.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
		})
	}
	return lines, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
