package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/stripe/stripe-go/v84"
	stripewebhook "github.com/stripe/stripe-go/v84/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const eventPaymentIntentSucceeded = "payment_intent.succeeded"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Cfg     config.Config
	Repo    paymentdomain.Repository
	Sales   saledomain.Service
	Credits creditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	secret  string
	repo    paymentdomain.Repository
	sales   saledomain.Service
	credits creditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.webhook"),
		genID:   p.GenID,
		clock:   p.Clock,
		secret:  strings.TrimSpace(p.Cfg.StripeWebhookSecret),
		repo:    p.Repo,
		sales:   p.Sales,
		credits: p.Credits,
		metrics: p.Metrics,
	}
}

func (s *Service) IngestStripeWebhook(ctx context.Context, payload []byte, signature string) (paymentdomain.Outcome, error) {
	if s.secret == "" {
		return paymentdomain.Outcome{}, paymentdomain.ErrInvalidConfig
	}
	event, err := stripewebhook.ConstructEventWithOptions(payload, signature, s.secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.metrics.IncStripeEvent("unknown", "invalid_signature")
		s.log.Warn("stripe webhook rejected", zap.Error(err))
		return paymentdomain.Outcome{}, paymentdomain.ErrInvalidSignature
	}

	eventType := string(event.Type)
	outcome := paymentdomain.Outcome{EventID: event.ID, EventType: eventType}
	if eventType != eventPaymentIntentSucceeded || event.Data == nil {
		outcome.Result = paymentdomain.ResultIgnored
		s.metrics.IncStripeEvent(eventType, string(outcome.Result))
		return outcome, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil || intent.ID == "" {
		s.metrics.IncStripeEvent(eventType, "invalid_payload")
		return paymentdomain.Outcome{}, paymentdomain.ErrInvalidPayload
	}

	orgID, err := metadataID(intent.Metadata, paymentdomain.MetadataOrgID)
	if err != nil {
		s.metrics.IncStripeEvent(eventType, "invalid_metadata")
		return paymentdomain.Outcome{}, err
	}
	ctx = orgcontext.WithOrgID(ctx, int64(orgID))

	seen, err := s.repo.FindEvent(ctx, s.db, paymentdomain.ProviderStripe, event.ID)
	if err != nil {
		return paymentdomain.Outcome{}, err
	}
	if seen != nil {
		outcome.Result = paymentdomain.ResultDuplicate
		s.metrics.IncStripeEvent(eventType, string(outcome.Result))
		return outcome, nil
	}

	amount := decimal.New(intentAmount(intent), -2)
	if strings.EqualFold(intent.Metadata[paymentdomain.MetadataPurpose], paymentdomain.PurposeCreditTopUp) {
		outcome, err = s.applyTopUp(ctx, outcome, intent, amount)
	} else {
		outcome, err = s.recordSale(ctx, outcome, intent, amount)
	}
	if err != nil {
		s.metrics.IncStripeEvent(eventType, "error")
		return paymentdomain.Outcome{}, err
	}

	if err := s.remember(ctx, s.db, orgID, eventType, outcome.Result, event.ID, payload); err != nil {
		return paymentdomain.Outcome{}, err
	}
	s.metrics.IncStripeEvent(eventType, string(outcome.Result))
	s.log.Info("stripe event processed",
		zap.String("event_id", event.ID),
		zap.String("payment_intent", intent.ID),
		zap.String("result", string(outcome.Result)),
	)
	return outcome, nil
}

func (s *Service) recordSale(ctx context.Context, outcome paymentdomain.Outcome, intent stripe.PaymentIntent, amount decimal.Decimal) (paymentdomain.Outcome, error) {
	sellerID, err := metadataID(intent.Metadata, paymentdomain.MetadataSellerID)
	if err != nil {
		return paymentdomain.Outcome{}, err
	}
	customer := strings.TrimSpace(intent.Metadata[paymentdomain.MetadataCustomer])
	if customer == "" {
		customer = strings.TrimSpace(intent.ReceiptEmail)
	}

	sale, existing, err := s.sales.Prepare(ctx, saledomain.RecordSaleRequest{
		Amount:      amount,
		SellerID:    sellerID,
		Customer:    customer,
		Source:      saledomain.SourceStripe,
		ExternalRef: intent.ID,
	})
	if err != nil {
		if errors.Is(err, saledomain.ErrInvalidSeller) || errors.Is(err, commissiondomain.ErrSellerNotFound) {
			return paymentdomain.Outcome{}, paymentdomain.ErrInvalidMetadata
		}
		return paymentdomain.Outcome{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !existing {
			if err := s.sales.Persist(ctx, tx, &sale); err != nil {
				return err
			}
		}
		_, err := s.sales.MarkPaidTx(ctx, tx, sale.ID)
		return err
	})
	if err != nil {
		return paymentdomain.Outcome{}, err
	}
	outcome.Result = paymentdomain.ResultSaleRecorded
	outcome.SaleID = &sale.ID
	return outcome, nil
}

func (s *Service) applyTopUp(ctx context.Context, outcome paymentdomain.Outcome, intent stripe.PaymentIntent, amount decimal.Decimal) (paymentdomain.Outcome, error) {
	actorID, err := metadataID(intent.Metadata, paymentdomain.MetadataActorID)
	if err != nil {
		return paymentdomain.Outcome{}, err
	}
	txn, err := s.credits.TopUp(ctx, creditdomain.TopUpRequest{
		ActorID:   actorID,
		Amount:    amount,
		Reference: intent.ID,
	})
	if err != nil {
		if errors.Is(err, creditdomain.ErrInvalidAmount) {
			return paymentdomain.Outcome{}, paymentdomain.ErrInvalidPayload
		}
		return paymentdomain.Outcome{}, err
	}
	outcome.Result = paymentdomain.ResultCreditTopUp
	outcome.TransactionID = &txn.ID
	return outcome, nil
}

func (s *Service) remember(ctx context.Context, db *gorm.DB, orgID snowflake.ID, eventType string, result paymentdomain.Result, eventID string, payload []byte) error {
	now := s.clock.Now()
	_, err := s.repo.InsertEvent(ctx, db, &paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		Provider:        paymentdomain.ProviderStripe,
		ProviderEventID: eventID,
		EventType:       eventType,
		Result:          result,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
		ProcessedAt:     &now,
	})
	return err
}

func intentAmount(intent stripe.PaymentIntent) int64 {
	if intent.AmountReceived > 0 {
		return intent.AmountReceived
	}
	return intent.Amount
}

func metadataID(metadata map[string]string, key string) (snowflake.ID, error) {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return 0, paymentdomain.ErrInvalidMetadata
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, paymentdomain.ErrInvalidMetadata
	}
	return id, nil
}
