package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
)

// OutboxStatus is an ops-facing view of the latest outbox row for an event.
type OutboxStatus struct {
	RecordId         int                  `json:"record_id"`
	ReferenceType    LoyaltyReferenceType `json:"reference_type"`
	ReferenceId      int                  `json:"reference_id"`
	PublishStatus    string               `json:"publish_status"`
	PublishAttempts  int                  `json:"publish_attempts"`
	NextAttemptAt    *time.Time           `json:"next_attempt_at"`
	LastPublishError *string              `json:"last_publish_error"`
	CreatedAt        time.Time            `json:"created_at"`
	PublishedAt      *time.Time           `json:"published_at"`
}

func GetOutboxStatus(ctx context.Context, referenceType LoyaltyReferenceType, referenceId int) (*OutboxStatus, error) {
	db := config.GetDB()
	var rec LoyaltyEventRecord
	if err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id DESC").
		First(&rec).Error; err != nil {
		return nil, err
	}

	return &OutboxStatus{
		RecordId:         rec.ID,
		ReferenceType:    rec.ReferenceType,
		ReferenceId:      rec.ReferenceId,
		PublishStatus:    rec.PublishStatus,
		PublishAttempts:  rec.PublishAttempts,
		NextAttemptAt:    rec.NextAttemptAt,
		LastPublishError: rec.LastPublishError,
		CreatedAt:        rec.CreatedAt,
		PublishedAt:      rec.PublishedAt,
	}, nil
}

// ReplayOutbox puts stuck (FAILED/DEAD) rows for an event back in the
// dispatcher's queue.
func ReplayOutbox(ctx context.Context, referenceType LoyaltyReferenceType, referenceId int) (*OutboxStatus, error) {
	db := config.GetDB()

	res := db.WithContext(ctx).
		Model(&LoyaltyEventRecord{}).
		Where("reference_type = ? AND reference_id = ? AND publish_status IN ?",
			referenceType, referenceId, []string{OutboxPublishStatusFailed, OutboxPublishStatusDead}).
		Updates(map[string]interface{}{
			"locked_at":       nil,
			"locked_by":       nil,
			"publish_status":  OutboxPublishStatusPending,
			"next_attempt_at": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: no FAILED/DEAD outbox rows for %s/%d", utils.ErrorRecordNotFound, referenceType, referenceId)
	}

	return GetOutboxStatus(ctx, referenceType, referenceId)
}
