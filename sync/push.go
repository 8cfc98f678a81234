package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/sirupsen/logrus"
)

// errBlocked marks an item that cannot be sent yet because an earlier
// operation on the same entity is backing off. The item stays pending
// untouched and comes back on a later cycle.
var errBlocked = errors.New("blocked behind a pending earlier operation")

// errUnsendable marks an item that can never be sent, such as an update
// whose create was permanently rejected. Treated like a remote rejection.
var errUnsendable = errors.New("item cannot be sent")

// PushEngine drains the sync queue oldest-first. Per-entity submission
// order is preserved; runs of consecutive updates on one entity collapse
// into a single request carrying the newest payload.
type PushEngine struct {
	api         remote.API
	logger      *logrus.Logger
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewPushEngine(api remote.API) *PushEngine {
	return &PushEngine{
		api:         api,
		logger:      config.GetLogger(),
		maxAttempts: intFromEnv("SYNC_PUSH_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(intFromEnv("SYNC_PUSH_BASE_BACKOFF_SECONDS", 5)) * time.Second,
		maxBackoff:  time.Duration(intFromEnv("SYNC_PUSH_MAX_BACKOFF_SECONDS", 600)) * time.Second,
	}
}

// Run drains everything currently due. It rescans after each pass because
// completing items can unblock others enqueued mid-drain; it stops once a
// pass completes nothing.
func (e *PushEngine) Run(ctx context.Context, run *models.SyncRun) (pushed int, errCount int) {
	for {
		items, err := models.DueSyncItems(ctx, time.Now(), 200)
		if err != nil {
			config.LogError(e.logger, "sync", "PushEngine.Run", "load due items", nil, err)
			return pushed, errCount + 1
		}
		if len(items) == 0 {
			return pushed, errCount
		}

		completedThisPass := 0
		for _, group := range groupByEntity(items) {
			completed, errs := e.processGroup(ctx, run, group)
			completedThisPass += completed
			pushed += completed
			errCount += errs
			if ctx.Err() != nil {
				return pushed, errCount
			}
		}
		if completedThisPass == 0 {
			return pushed, errCount
		}
	}
}

type entityKey struct {
	entityType models.EntityType
	localId    string
}

// groupByEntity splits due items into per-entity runs, ordered by each
// entity's oldest pending item so cross-entity fairness follows the queue.
func groupByEntity(items []models.SyncQueueItem) [][]models.SyncQueueItem {
	order := make([]entityKey, 0, len(items))
	groups := make(map[entityKey][]models.SyncQueueItem, len(items))
	for _, item := range items {
		key := entityKey{item.EntityType, item.EntityLocalId}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}
	out := make([][]models.SyncQueueItem, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

// localOnlyLifecycle reports whether the group describes a record that was
// created and deleted without ever reaching the server. Such a group needs
// no network traffic at all.
func localOnlyLifecycle(group []models.SyncQueueItem) bool {
	last := group[len(group)-1]
	if last.Operation != models.SyncOperationDelete || last.EntityServerId != nil {
		return false
	}
	for _, item := range group {
		if item.Operation == models.SyncOperationCreate {
			return true
		}
	}
	return false
}

func (e *PushEngine) processGroup(ctx context.Context, run *models.SyncRun, group []models.SyncQueueItem) (completed int, errCount int) {
	if localOnlyLifecycle(group) {
		for _, item := range group {
			if err := models.CompleteSyncItem(ctx, item.ID); err != nil {
				config.LogError(e.logger, "sync", "PushEngine.processGroup", "complete local-only item", item.ID, err)
				return completed, errCount + 1
			}
			completed++
		}
		return completed, errCount
	}

	i := 0
	for i < len(group) {
		span := group[i : i+1]
		if group[i].Operation == models.SyncOperationUpdate {
			for i+len(span) < len(group) && group[i+len(span)].Operation == models.SyncOperationUpdate {
				span = group[i : i+len(span)+1]
			}
		}
		head := span[len(span)-1]

		err := e.dispatch(ctx, head)
		if err == nil {
			for _, item := range span {
				if cerr := models.CompleteSyncItem(ctx, item.ID); cerr != nil {
					config.LogError(e.logger, "sync", "PushEngine.processGroup", "complete item", item.ID, cerr)
					return completed, errCount + 1
				}
				completed++
			}
			e.settleEntity(ctx, head.EntityType, head.EntityLocalId)
			i += len(span)
			continue
		}

		if errors.Is(err, errBlocked) {
			return completed, errCount
		}

		if remote.IsPermanent(err) || errors.Is(err, errUnsendable) || head.RetryCount+1 >= e.maxAttempts {
			e.failSpanPermanent(ctx, run, span, err)
			return completed, errCount + 1
		}

		e.failSpanTransient(ctx, span, err)
		return completed, errCount + 1
	}
	return completed, errCount
}

func (e *PushEngine) dispatch(ctx context.Context, item models.SyncQueueItem) error {
	var payload map[string]any
	if len(item.Payload) > 0 {
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("%w: corrupt payload: %v", errUnsendable, err)
		}
	}
	collection := item.EntityType.Collection()

	switch item.Operation {
	case models.SyncOperationCreate:
		serverId, err := e.api.Create(ctx, collection, payload)
		if err != nil {
			return err
		}
		if err := models.AttachServerId(ctx, item.EntityType, item.EntityLocalId, serverId); err != nil {
			return err
		}
		return models.PropagateServerId(ctx, item.EntityType, item.EntityLocalId, serverId)

	case models.SyncOperationUpdate:
		serverId, err := e.updateTarget(ctx, item, payload)
		if err != nil {
			return err
		}
		payload["id"] = serverId
		return e.api.Update(ctx, collection, serverId, payload)

	case models.SyncOperationDelete:
		serverId := ""
		if item.EntityServerId != nil {
			serverId = *item.EntityServerId
		}
		if serverId == "" {
			var err error
			serverId, err = models.EntityServerId(ctx, item.EntityType, item.EntityLocalId)
			if err != nil {
				return err
			}
		}
		if serverId == "" {
			// never reached the server, nothing remote to delete
			return nil
		}
		return e.api.Delete(ctx, collection, serverId)
	}
	return fmt.Errorf("%w: unknown operation %q", errUnsendable, item.Operation)
}

// updateTarget resolves the server id an update must address. The payload
// snapshot can predate the create acknowledgement, so the entity row is
// the authority.
func (e *PushEngine) updateTarget(ctx context.Context, item models.SyncQueueItem, payload map[string]any) (string, error) {
	serverId, err := models.EntityServerId(ctx, item.EntityType, item.EntityLocalId)
	if err != nil {
		return "", err
	}
	if serverId != "" {
		return serverId, nil
	}
	if id, ok := payload["id"].(string); ok && id != "" {
		return id, nil
	}
	pendingCreate, err := models.HasPendingCreate(ctx, item.EntityType, item.EntityLocalId)
	if err != nil {
		return "", err
	}
	if pendingCreate {
		return "", errBlocked
	}
	return "", fmt.Errorf("%w: update for %s %s has no server id and no pending create",
		errUnsendable, item.EntityType, item.EntityLocalId)
}

// settleEntity flips the entity row to synced once nothing else is queued
// for it. For physically deleted rows the update matches nothing.
func (e *PushEngine) settleEntity(ctx context.Context, entityType models.EntityType, localId string) {
	count, err := models.PendingSyncItemCountForEntity(ctx, entityType, localId)
	if err != nil {
		config.LogError(e.logger, "sync", "PushEngine.settleEntity", "count pending", localId, err)
		return
	}
	if count > 0 {
		return
	}
	if err := models.MarkEntitySynced(ctx, entityType, localId, nil); err != nil {
		config.LogError(e.logger, "sync", "PushEngine.settleEntity", "mark synced", localId, err)
	}
}

func (e *PushEngine) failSpanTransient(ctx context.Context, span []models.SyncQueueItem, cause error) {
	head := span[len(span)-1]
	delay := e.backoffDelay(head.RetryCount)
	nextAttempt := time.Now().Add(delay)
	for _, item := range span {
		if err := models.FailSyncItemTransient(ctx, item.ID, cause.Error(), item.RetryCount+1, nextAttempt); err != nil {
			config.LogError(e.logger, "sync", "PushEngine.failSpanTransient", "record failure", item.ID, err)
		}
	}
	e.logger.WithFields(logrus.Fields{
		"module":     "sync",
		"entityType": head.EntityType,
		"localId":    head.EntityLocalId,
		"operation":  head.Operation,
		"attempt":    head.RetryCount + 1,
		"retryIn":    delay.String(),
	}).Warn(cause.Error())
}

func (e *PushEngine) failSpanPermanent(ctx context.Context, run *models.SyncRun, span []models.SyncQueueItem, cause error) {
	head := span[len(span)-1]
	for _, item := range span {
		if err := models.FailSyncItemPermanent(ctx, item.ID, cause.Error()); err != nil {
			config.LogError(e.logger, "sync", "PushEngine.failSpanPermanent", "record failure", item.ID, err)
		}
	}
	serverId := ""
	if head.EntityServerId != nil {
		serverId = *head.EntityServerId
	}
	// retry budget exhaustion is recoverable once connectivity returns;
	// remote rejections are not
	retryable := !remote.IsPermanent(cause) && !errors.Is(cause, errUnsendable)
	if err := models.CreateSyncRecordError(ctx, run.ID, head.EntityType, head.EntityLocalId,
		serverId, string(head.Operation), cause.Error(), head.Payload, retryable); err != nil {
		config.LogError(e.logger, "sync", "PushEngine.failSpanPermanent", "record error row", head.ID, err)
	}
	config.LogError(e.logger, "sync", "PushEngine.failSpanPermanent",
		fmt.Sprintf("%s %s %s parked as failed", head.EntityType, head.Operation, head.EntityLocalId), nil, cause)
}

// backoffDelay doubles per attempt from the base, capped at the maximum.
func (e *PushEngine) backoffDelay(retryCount int) time.Duration {
	delay := e.baseBackoff << uint(retryCount)
	if delay <= 0 || delay > e.maxBackoff {
		return e.maxBackoff
	}
	return delay
}
