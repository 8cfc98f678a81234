package models

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmdatafocus/books_offline/config"
)

func TestDueSyncItemsRespectsBackoffWindow(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	if _, err := CreateCustomer(ctx, &NewCustomer{Name: "Due Now"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	backed, err := CreateCustomer(ctx, &NewCustomer{Name: "Backing Off"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var backedItem SyncQueueItem
	if err := config.GetDB().Where("entity_local_id = ?", backed.LocalId).Take(&backedItem).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	future := time.Now().Add(time.Hour)
	if err := FailSyncItemTransient(ctx, backedItem.ID, "remote unreachable", 1, future); err != nil {
		t.Fatalf("fail transient: %v", err)
	}

	due, err := DueSyncItems(ctx, time.Now(), 0)
	if err != nil {
		t.Fatalf("due items: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due item, got %d", len(due))
	}
	if due[0].EntityLocalId == backed.LocalId {
		t.Fatal("backing-off item must not be due")
	}

	// past the deadline it comes back
	due, err = DueSyncItems(ctx, future.Add(time.Minute), 0)
	if err != nil {
		t.Fatalf("due items: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due items after deadline, got %d", len(due))
	}
}

func TestDueSyncItemsOrderedOldestFirst(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	first, _ := CreateCustomer(ctx, &NewCustomer{Name: "First"})
	second, _ := CreateCustomer(ctx, &NewCustomer{Name: "Second"})

	due, err := DueSyncItems(ctx, time.Now(), 0)
	if err != nil {
		t.Fatalf("due items: %v", err)
	}
	if len(due) != 2 || due[0].EntityLocalId != first.LocalId || due[1].EntityLocalId != second.LocalId {
		t.Fatal("queue must drain in enqueue order")
	}
}

func TestRetryFailedSyncItemsRevives(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, &NewCustomer{Name: "Parked"})
	var item SyncQueueItem
	config.GetDB().Where("entity_local_id = ?", customer.LocalId).Take(&item)
	if err := FailSyncItemPermanent(ctx, item.ID, "validation rejected"); err != nil {
		t.Fatalf("fail permanent: %v", err)
	}

	failed, err := FailedSyncCount(ctx)
	if err != nil || failed != 1 {
		t.Fatalf("failed count %d err %v", failed, err)
	}

	revived, err := RetryFailedSyncItems(ctx)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if revived != 1 {
		t.Fatalf("revived %d, want 1", revived)
	}

	config.GetDB().Where("id = ?", item.ID).Take(&item)
	if item.Status != SyncQueueStatusPending || item.RetryCount != 0 || item.NextAttemptAt != nil {
		t.Fatalf("revived item not reset: %+v", item)
	}
}

func TestHasPendingDelete(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, &NewCustomer{Name: "Doomed"})
	if err := AttachServerId(ctx, EntityTypeCustomer, customer.LocalId, "srv_5"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := DeleteCustomer(ctx, customer.LocalId); err != nil {
		t.Fatalf("delete: %v", err)
	}

	pending, err := HasPendingDelete(ctx, EntityTypeCustomer, "srv_5")
	if err != nil {
		t.Fatalf("has pending delete: %v", err)
	}
	if !pending {
		t.Fatal("queued delete intent not visible")
	}
	pending, _ = HasPendingDelete(ctx, EntityTypeCustomer, "srv_other")
	if pending {
		t.Fatal("unrelated server id reported as deleting")
	}
}

func TestMarkEntitySyncedAttachesServerId(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, &NewCustomer{Name: "Acked"})
	serverId := "srv_42"
	if err := MarkEntitySynced(ctx, EntityTypeCustomer, customer.LocalId, &serverId); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	fresh, err := GetCustomer(ctx, customer.LocalId)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.ServerId == nil || *fresh.ServerId != serverId {
		t.Fatalf("server id not attached: %+v", fresh.ServerId)
	}
	if fresh.SyncStatus != SyncStatusSynced {
		t.Fatalf("status %s, want synced", fresh.SyncStatus)
	}
	if fresh.LocalId != customer.LocalId {
		t.Fatal("local id must never change")
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	if err := config.OpenDatabase(path); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()

	customer, err := CreateCustomer(ctx, &NewCustomer{Name: "Durable"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sqlDB, _ := config.GetDB().DB()
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// a process restart must find the intent and the row intact
	if err := config.OpenDatabase(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	pending, err := PendingSyncCount(ctx)
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending %d after reopen, want 1", pending)
	}
	if _, err := GetCustomer(ctx, customer.LocalId); err != nil {
		t.Fatalf("customer lost across reopen: %v", err)
	}
}
