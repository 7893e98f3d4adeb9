package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoyaltyEventRecord is the transactional outbox row. Every committed
// contribution and redemption leaves one behind; the dispatcher publishes
// them to Pub/Sub after commit.
type LoyaltyEventRecord struct {
	ID            int                  `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	SupplierId    int                  `gorm:"index;not null" json:"supplier_id"`
	EventDateTime time.Time            `gorm:"index;not null" json:"event_date_time"`
	ReferenceId   int                  `json:"reference_id"`
	ReferenceType LoyaltyReferenceType `gorm:"type:enum('CT','RD','SL')" json:"reference_type"`
	Action        LoyaltyEventAction   `gorm:"type:enum('C','U','D')" json:"action"`
	Points        int                  `gorm:"not null;default:0" json:"points"`
	Payload       []byte               `gorm:"type:blob" json:"payload"`
	// Publish happens after commit via the dispatcher.
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToLoyaltyEvent(record LoyaltyEventRecord) config.LoyaltyEvent {
	return config.LoyaltyEvent{
		ID:            record.ID,
		SupplierId:    record.SupplierId,
		EventDateTime: record.EventDateTime,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Points:        record.Points,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// PublishToLoyalty implements the transactional outbox: it writes the event
// record inside the caller's DB transaction but does NOT publish to Pub/Sub.
// Publishing is performed asynchronously by the outbox dispatcher after commit.
func PublishToLoyalty(ctx context.Context, db *gorm.DB, supplierId int, eventDateTime time.Time, refId int, refType LoyaltyReferenceType, points int, obj interface{}, msgAction LoyaltyEventAction) error {

	var payload []byte
	var err error

	if obj != nil {
		payload, err = json.Marshal(obj)
		if err != nil {
			return err
		}
	}

	record := LoyaltyEventRecord{
		SupplierId:    supplierId,
		EventDateTime: eventDateTime,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        msgAction,
		Points:        points,
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	err = db.Create(&record).Error
	if err != nil {
		return err
	}
	return nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
