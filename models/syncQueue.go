package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"gorm.io/gorm"
)

// SyncQueueItem is one durable mutation intent awaiting transmission.
// Rows are appended inside the same transaction as the entity write they
// describe and only marked completed after confirmed remote acceptance.
type SyncQueueItem struct {
	ID            int        `gorm:"primary_key" json:"id"`
	EntityType    EntityType `gorm:"size:20;index;not null" json:"entity_type"`
	EntityLocalId string     `gorm:"size:64;index;not null" json:"entity_local_id"`
	// EntityServerId is recorded for delete intents, whose target row may
	// be gone from the local store by the time the item is dispatched.
	EntityServerId *string       `gorm:"size:64;index" json:"entity_server_id"`
	Operation      SyncOperation `gorm:"size:10;not null" json:"operation"`
	Payload        []byte        `gorm:"type:json" json:"payload"`
	RetryCount     int           `gorm:"default:0" json:"retry_count"`
	Status         string        `gorm:"size:10;index;not null;default:'pending'" json:"status"`
	LastError      *string       `gorm:"type:text" json:"last_error"`
	NextAttemptAt  *time.Time    `gorm:"index" json:"next_attempt_at"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnqueueSyncItem appends a mutation intent. It takes the caller's
// transaction so the entity write and its queue entry commit atomically;
// there is never a window where a pending entity has no queue item.
func EnqueueSyncItem(tx *gorm.DB, entityType EntityType, localId string, op SyncOperation, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	item := SyncQueueItem{
		EntityType:    entityType,
		EntityLocalId: localId,
		Operation:     op,
		Payload:       raw,
		Status:        SyncQueueStatusPending,
	}
	return tx.Create(&item).Error
}

// EnqueueSyncDelete is EnqueueSyncItem for delete intents; it pins the
// last-known server id on the queue row.
func EnqueueSyncDelete(tx *gorm.DB, entityType EntityType, localId string, serverId *string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	item := SyncQueueItem{
		EntityType:     entityType,
		EntityLocalId:  localId,
		EntityServerId: serverId,
		Operation:      SyncOperationDelete,
		Payload:        raw,
		Status:         SyncQueueStatusPending,
	}
	return tx.Create(&item).Error
}

// DueSyncItems returns pending items whose backoff window has elapsed,
// oldest first. FIFO by id preserves per-entity submission order.
func DueSyncItems(ctx context.Context, now time.Time, limit int) ([]SyncQueueItem, error) {
	db := config.GetDB()
	var items []SyncQueueItem
	q := db.WithContext(ctx).
		Where("status = ?", SyncQueueStatusPending).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func CompleteSyncItem(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          SyncQueueStatusCompleted,
			"last_error":      nil,
			"next_attempt_at": nil,
		}).Error
}

// FailSyncItemTransient records a retryable failure: the item stays
// pending with an incremented retry count and a backoff deadline.
func FailSyncItemTransient(ctx context.Context, id int, errMsg string, retryCount int, nextAttemptAt time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":     retryCount,
			"last_error":      &errMsg,
			"next_attempt_at": &nextAttemptAt,
		}).Error
}

// FailSyncItemPermanent parks the item in the terminal failed state. It is
// never retried automatically; RetryFailedSyncItems revives it after user
// acknowledgement.
func FailSyncItemPermanent(ctx context.Context, id int, errMsg string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          SyncQueueStatusFailed,
			"last_error":      &errMsg,
			"next_attempt_at": nil,
		}).Error
}

func PendingSyncCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("status = ?", SyncQueueStatusPending).
		Count(&count).Error
	return count, err
}

func FailedSyncCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("status = ?", SyncQueueStatusFailed).
		Count(&count).Error
	return count, err
}

func ListFailedSyncItems(ctx context.Context) ([]SyncQueueItem, error) {
	db := config.GetDB()
	var items []SyncQueueItem
	err := db.WithContext(ctx).
		Where("status = ?", SyncQueueStatusFailed).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// RetryFailedSyncItems revives terminal items after the user acknowledged
// the error. The retry counter restarts so they get a full backoff ladder.
func RetryFailedSyncItems(ctx context.Context) (int64, error) {
	db := config.GetDB()
	res := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("status = ?", SyncQueueStatusFailed).
		Updates(map[string]interface{}{
			"status":          SyncQueueStatusPending,
			"retry_count":     0,
			"next_attempt_at": nil,
		})
	return res.RowsAffected, res.Error
}

// HasPendingDelete reports whether a delete intent for the given server id
// is still in flight. The pull merge consults this so a record deleted
// locally but not yet pushed is not resurrected by a stale remote listing.
func HasPendingDelete(ctx context.Context, entityType EntityType, serverId string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("entity_type = ? AND operation = ? AND entity_server_id = ? AND status IN ?",
			entityType, SyncOperationDelete, serverId,
			[]string{SyncQueueStatusPending, SyncQueueStatusFailed}).
		Count(&count).Error
	return count > 0, err
}

// AttachServerId stores a freshly assigned server id on the entity row
// without touching its sync status. Used when a create is acknowledged but
// later queue items for the same entity are still pending.
func AttachServerId(ctx context.Context, entityType EntityType, localId string, serverId string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Table(entityType.TableName()).
		Where("local_id = ?", localId).
		Update("server_id", serverId).Error
}

// EntityServerId reads the current server id off the entity row. Returns
// empty when the row is gone or the create has not been acknowledged yet.
func EntityServerId(ctx context.Context, entityType EntityType, localId string) (string, error) {
	db := config.GetDB()
	var ids []sql.NullString
	err := db.WithContext(ctx).Table(entityType.TableName()).
		Where("local_id = ?", localId).
		Limit(1).
		Pluck("server_id", &ids).Error
	if err != nil {
		return "", err
	}
	if len(ids) == 0 || !ids[0].Valid {
		return "", nil
	}
	return ids[0].String, nil
}

// PendingSyncItemCountForEntity counts queue items still pending for one
// entity. An entity row is only flipped to synced when this reaches zero.
func PendingSyncItemCountForEntity(ctx context.Context, entityType EntityType, localId string) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("entity_type = ? AND entity_local_id = ? AND status = ?",
			entityType, localId, SyncQueueStatusPending).
		Count(&count).Error
	return count, err
}

// HasPendingCreate reports whether the entity's create intent is still
// queued, typically because it is backing off. Updates behind it wait.
func HasPendingCreate(ctx context.Context, entityType EntityType, localId string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Where("entity_type = ? AND entity_local_id = ? AND operation = ? AND status = ?",
			entityType, localId, SyncOperationCreate, SyncQueueStatusPending).
		Count(&count).Error
	return count > 0, err
}

// MarkEntitySynced flips the entity row to synced, attaching the server id
// when the remote create handed one back.
func MarkEntitySynced(ctx context.Context, entityType EntityType, localId string, serverId *string) error {
	db := config.GetDB()
	updates := map[string]interface{}{
		"sync_status": SyncStatusSynced,
	}
	if serverId != nil && *serverId != "" {
		updates["server_id"] = *serverId
	}
	return db.WithContext(ctx).Table(entityType.TableName()).
		Where("local_id = ?", localId).
		Updates(updates).Error
}
