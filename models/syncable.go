package models

import "time"

// Syncable carries the dual-identifier scheme shared by every synced
// entity. LocalId is assigned client-side at creation, never reassigned,
// and is the key all local relations use. ServerId arrives once the remote
// service acknowledges the create; it is only a sync correlation token and
// is never required for local correctness.
type Syncable struct {
	LocalId    string     `gorm:"size:64;uniqueIndex;not null" json:"local_id"`
	ServerId   *string    `gorm:"size:64;index" json:"id"`
	SyncStatus SyncStatus `gorm:"size:10;index;not null;default:'pending'" json:"sync_status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Syncable) IsSynced() bool {
	return s.SyncStatus == SyncStatusSynced
}
