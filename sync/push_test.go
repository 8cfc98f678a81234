package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/shopspring/decimal"
)

func TestPushCreateAssignsServerId(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	engine := NewPushEngine(api)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Ko Myo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pushed, errCount := engine.Run(ctx, newTestRun(t))
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	if pushed != 1 {
		t.Fatalf("pushed %d, want 1", pushed)
	}
	if len(api.creates) != 1 {
		t.Fatalf("creates %d, want 1", len(api.creates))
	}
	if api.creates[0].payload["local_id"] != customer.LocalId {
		t.Fatal("create payload must carry the local id")
	}

	fresh, _ := models.GetCustomer(ctx, customer.LocalId)
	if fresh.ServerId == nil || *fresh.ServerId != "srv_1" {
		t.Fatalf("server id not recorded: %+v", fresh.ServerId)
	}
	if fresh.SyncStatus != models.SyncStatusSynced {
		t.Fatalf("status %s, want synced", fresh.SyncStatus)
	}
	if fresh.LocalId != customer.LocalId {
		t.Fatal("local id must survive the acknowledgement")
	}

	pending, _ := models.PendingSyncCount(ctx)
	if pending != 0 {
		t.Fatalf("pending %d, want 0", pending)
	}
}

func TestPushCoalescesConsecutiveUpdates(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	engine := NewPushEngine(api)

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Coalesce Me"})
	noteA := "first edit"
	noteB := "second edit"
	if _, err := models.UpdateCustomer(ctx, customer.LocalId, &models.CustomerPatch{Notes: &noteA}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := models.UpdateCustomer(ctx, customer.LocalId, &models.CustomerPatch{Notes: &noteB}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pushed, errCount := engine.Run(ctx, newTestRun(t))
	if errCount != 0 {
		t.Fatalf("errors: %d", errCount)
	}
	if pushed != 3 {
		t.Fatalf("pushed %d, want all 3 intents settled", pushed)
	}
	if len(api.creates) != 1 || len(api.updates) != 1 {
		t.Fatalf("wire calls creates=%d updates=%d, want 1 and 1", len(api.creates), len(api.updates))
	}
	if api.updates[0].payload["notes"] != noteB {
		t.Fatalf("update sent stale payload %v", api.updates[0].payload["notes"])
	}
}

func TestPushTransientFailureBacksOff(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	api.createErr = &remote.TransportError{Err: errors.New("connection refused")}
	engine := NewPushEngine(api)

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Flaky Net"})

	pushed, errCount := engine.Run(ctx, newTestRun(t))
	if pushed != 0 || errCount != 1 {
		t.Fatalf("pushed=%d errors=%d, want 0 and 1", pushed, errCount)
	}

	var item models.SyncQueueItem
	config.GetDB().Where("entity_local_id = ?", customer.LocalId).Take(&item)
	if item.Status != models.SyncQueueStatusPending {
		t.Fatalf("status %s, want pending for retry", item.Status)
	}
	if item.RetryCount != 1 {
		t.Fatalf("retry count %d, want 1", item.RetryCount)
	}
	if item.NextAttemptAt == nil || !item.NextAttemptAt.After(time.Now()) {
		t.Fatal("backoff deadline must be in the future")
	}

	// the entity stays pending and a second immediate run sends nothing
	fresh, _ := models.GetCustomer(ctx, customer.LocalId)
	if fresh.SyncStatus != models.SyncStatusPending {
		t.Fatalf("entity flipped to %s during failure", fresh.SyncStatus)
	}
	api.createErr = nil
	if pushed, _ := engine.Run(ctx, newTestRun(t)); pushed != 0 {
		t.Fatalf("backing-off item sent early, pushed=%d", pushed)
	}
}

func TestPushPermanentFailureParks(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	api.createErr = &remote.APIError{StatusCode: 422, Body: "name required"}
	engine := NewPushEngine(api)

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Rejected"})
	run := newTestRun(t)

	pushed, errCount := engine.Run(ctx, run)
	if pushed != 0 || errCount != 1 {
		t.Fatalf("pushed=%d errors=%d", pushed, errCount)
	}

	var item models.SyncQueueItem
	config.GetDB().Where("entity_local_id = ?", customer.LocalId).Take(&item)
	if item.Status != models.SyncQueueStatusFailed {
		t.Fatalf("status %s, want failed", item.Status)
	}
	if item.LastError == nil {
		t.Fatal("failure reason not recorded")
	}

	recordErrors, err := models.ListSyncRecordErrors(ctx, run.ID)
	if err != nil || len(recordErrors) != 1 {
		t.Fatalf("record errors %d err %v, want 1", len(recordErrors), err)
	}
	if recordErrors[0].Retryable {
		t.Fatal("a remote rejection is not retryable")
	}

	// a rejected item never goes out again on its own
	api.createErr = nil
	if _, errCount := engine.Run(ctx, newTestRun(t)); errCount != 0 {
		t.Fatalf("second run errors: %d", errCount)
	}
	if len(api.creates) != 0 {
		t.Fatal("parked item was resent without user retry")
	}
}

func TestPushRetryBudgetExhaustion(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	api.createErr = &remote.TransportError{Err: errors.New("timeout")}
	engine := NewPushEngine(api)
	engine.maxAttempts = 2
	engine.baseBackoff = 0

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Budget"})
	run := newTestRun(t)

	engine.Run(ctx, run)

	var item models.SyncQueueItem
	config.GetDB().Where("entity_local_id = ?", customer.LocalId).Take(&item)
	if item.Status != models.SyncQueueStatusPending || item.RetryCount != 1 {
		t.Fatalf("after first failure: %+v", item)
	}

	// second attempt crosses the budget and parks the item
	config.GetDB().Model(&models.SyncQueueItem{}).Where("id = ?", item.ID).Update("next_attempt_at", nil)
	engine.Run(ctx, run)

	config.GetDB().Where("id = ?", item.ID).Take(&item)
	if item.Status != models.SyncQueueStatusFailed {
		t.Fatalf("status %s, want failed after budget", item.Status)
	}
	recordErrors, _ := models.ListSyncRecordErrors(ctx, run.ID)
	if len(recordErrors) != 1 || !recordErrors[0].Retryable {
		t.Fatalf("budget exhaustion must be recorded retryable: %+v", recordErrors)
	}
}

func TestPushLocalOnlyLifecycleSkipsNetwork(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	engine := NewPushEngine(api)

	invoice := seedTestInvoice(t, ctx, api, engine)

	// the customer create already went out; reset counters for clarity
	createCalls := len(api.creates)

	if err := models.DeleteInvoice(ctx, invoice.LocalId); err != nil {
		t.Fatalf("delete: %v", err)
	}

	pushed, errCount := engine.Run(ctx, newTestRun(t))
	if errCount != 0 {
		t.Fatalf("errors: %d", errCount)
	}
	if pushed != 2 {
		t.Fatalf("pushed %d, want create+delete settled locally", pushed)
	}
	if len(api.creates) != createCalls || len(api.deletes) != 0 {
		t.Fatal("a record created and deleted offline must produce no traffic")
	}
}

func TestPushDeleteUsesPinnedServerId(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	engine := NewPushEngine(api)

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "To Remove"})
	if pushed, _ := engine.Run(ctx, newTestRun(t)); pushed != 1 {
		t.Fatal("create push failed")
	}
	if _, err := models.DeleteCustomer(ctx, customer.LocalId); err != nil {
		t.Fatalf("delete: %v", err)
	}

	pushed, errCount := engine.Run(ctx, newTestRun(t))
	if pushed != 1 || errCount != 0 {
		t.Fatalf("pushed=%d errors=%d", pushed, errCount)
	}
	if len(api.deletes) != 1 || api.deletes[0].id != "srv_1" {
		t.Fatalf("delete calls %+v, want srv_1", api.deletes)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	engine := &PushEngine{
		baseBackoff: 5 * time.Second,
		maxBackoff:  600 * time.Second,
	}
	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{7, 600 * time.Second},
		{40, 600 * time.Second},
	}
	for _, c := range cases {
		if got := engine.backoffDelay(c.retryCount); got != c.want {
			t.Errorf("backoffDelay(%d) = %s, want %s", c.retryCount, got, c.want)
		}
	}
}

func seedTestInvoice(t *testing.T, ctx context.Context, api *fakeAPI, engine *PushEngine) *models.Invoice {
	t.Helper()
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Invoice Owner"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if pushed, errCount := engine.Run(ctx, newTestRun(t)); pushed != 1 || errCount != 0 {
		t.Fatalf("customer push pushed=%d errors=%d", pushed, errCount)
	}
	invoice, err := models.CreateInvoice(ctx, &models.NewInvoice{
		CustomerLocalId: customer.LocalId,
		InvoiceDate:     time.Now(),
		Details: []models.NewInvoiceItem{
			{Name: "Noodles", Qty: decimal.NewFromInt(2), UnitRate: decimal.NewFromInt(1500)},
		},
	})
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}
