package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/books_offline/config"
)

// SyncState is the single row holding device-level sync bookkeeping: the
// per-collection pull cursors and the last (successful) sync times.
type SyncState struct {
	ID                uint       `gorm:"primary_key" json:"id"`
	DeviceId          string     `gorm:"size:64" json:"device_id"`
	CursorStateJSON   []byte     `gorm:"type:json" json:"cursor_state"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRun records one push+pull cycle for history and debugging.
type SyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	RecordsPushed int        `json:"records_pushed"`
	RecordsPulled int        `json:"records_pulled"`
	ErrorCount    int        `json:"error_count"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRecordError is a per-record failure inside a run. Retryable records
// come back on the next cycle; the rest wait for user acknowledgement.
type SyncRecordError struct {
	ID          uint       `gorm:"primary_key" json:"id"`
	SyncRunId   uint       `gorm:"index;not null" json:"sync_run_id"`
	EntityType  EntityType `gorm:"size:20" json:"entity_type"`
	LocalId     string     `gorm:"size:64;index" json:"local_id"`
	ServerId    string     `gorm:"size:64" json:"server_id"`
	ErrorCode   string     `gorm:"size:64" json:"error_code"`
	Message     string     `gorm:"type:text" json:"message"`
	PayloadJSON []byte     `gorm:"type:json" json:"payload"`
	Retryable   bool       `gorm:"default:false" json:"retryable"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func GetSyncState(ctx context.Context) (*SyncState, error) {
	db := config.GetDB()
	var state SyncState
	err := db.WithContext(ctx).
		Where(SyncState{ID: 1}).
		Attrs(SyncState{DeviceId: "device-" + time.Now().Format("20060102-150405")}).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func SaveCursorState(ctx context.Context, cursorJSON []byte) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&SyncState{}).
		Where("id = ?", 1).
		Updates(map[string]interface{}{"cursor_state_json": cursorJSON}).Error
}

// TouchSyncState stamps the state row at the end of a cycle.
func TouchSyncState(ctx context.Context, finishedAt time.Time, success bool) error {
	db := config.GetDB()
	updates := map[string]interface{}{
		"last_sync_at": &finishedAt,
	}
	if success {
		updates["last_success_sync_at"] = &finishedAt
	}
	return db.WithContext(ctx).Model(&SyncState{}).
		Where("id = ?", 1).
		Updates(updates).Error
}

func CreateSyncRun(ctx context.Context, triggeredBy string) (*SyncRun, error) {
	db := config.GetDB()
	now := time.Now()
	run := SyncRun{
		Status:      SyncRunStatusRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   &now,
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func FinishSyncRun(ctx context.Context, run *SyncRun, status string, pushed, pulled, errorCount int, statsJSON []byte) error {
	db := config.GetDB()
	finishedAt := time.Now()
	var durationMs int64
	if run.StartedAt != nil {
		durationMs = finishedAt.Sub(*run.StartedAt).Milliseconds()
	}
	return db.WithContext(ctx).Model(run).
		Updates(map[string]interface{}{
			"status":         status,
			"finished_at":    &finishedAt,
			"duration_ms":    durationMs,
			"records_pushed": pushed,
			"records_pulled": pulled,
			"error_count":    errorCount,
			"stats_json":     statsJSON,
		}).Error
}

func ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	db := config.GetDB()
	if limit <= 0 {
		limit = 20
	}
	var runs []SyncRun
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func CreateSyncRecordError(ctx context.Context, runId uint, entityType EntityType, localId, serverId, code, message string, payload []byte, retryable bool) error {
	db := config.GetDB()
	rec := SyncRecordError{
		SyncRunId:   runId,
		EntityType:  entityType,
		LocalId:     localId,
		ServerId:    serverId,
		ErrorCode:   code,
		Message:     message,
		PayloadJSON: payload,
		Retryable:   retryable,
	}
	return db.WithContext(ctx).Create(&rec).Error
}

func ListSyncRecordErrors(ctx context.Context, runId uint) ([]SyncRecordError, error) {
	db := config.GetDB()
	var errs []SyncRecordError
	q := db.WithContext(ctx).Order("id DESC")
	if runId > 0 {
		q = q.Where("sync_run_id = ?", runId)
	} else {
		q = q.Limit(100)
	}
	err := q.Find(&errs).Error
	return errs, err
}
