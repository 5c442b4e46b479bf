package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const ProviderStripe = "stripe"

// EventRecord remembers every processed provider event so redeliveries are no-ops.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID   `json:"org_id" gorm:"not null;index"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:2"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Result          Result         `json:"result" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

type Result string

const (
	ResultSaleRecorded Result = "sale_recorded"
	ResultCreditTopUp  Result = "credit_topup"
	ResultIgnored      Result = "ignored"
	ResultDuplicate    Result = "duplicate"
)

// Payment intent metadata keys set by the checkout that created the intent.
const (
	MetadataOrgID    = "org_id"
	MetadataSellerID = "seller_id"
	MetadataActorID  = "actor_id"
	MetadataCustomer = "customer"
	MetadataPurpose  = "purpose"

	PurposeCreditTopUp = "credit_topup"
)

// Outcome describes what a webhook delivery did.
type Outcome struct {
	EventID       string        `json:"event_id"`
	EventType     string        `json:"event_type"`
	Result        Result        `json:"result"`
	SaleID        *snowflake.ID `json:"sale_id,omitempty"`
	TransactionID *snowflake.ID `json:"transaction_id,omitempty"`
}
