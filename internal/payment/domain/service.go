package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	// InsertEvent reports false when the event was already stored.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
}

type Service interface {
	// IngestStripeWebhook verifies and applies one Stripe delivery.
	IngestStripeWebhook(ctx context.Context, payload []byte, signature string) (Outcome, error)
}

var (
	ErrInvalidConfig    = errors.New("invalid_config")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidMetadata  = errors.New("invalid_metadata")
)
