package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"

	"github.com/mmdatafocus/books_offline/models"
)

func newTestOrchestrator(api *fakeAPI, online bool) *Orchestrator {
	orch := NewOrchestrator(api, probeStub(online))
	orch.push.baseBackoff = 0
	return orch
}

func TestRunCycleOfflineIsNoop(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	orch := newTestOrchestrator(api, false)

	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Offline Work"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := orch.RunCycle(ctx, models.SyncTriggeredManual); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if orch.State() != StateIdle {
		t.Fatalf("state %s, want idle while offline", orch.State())
	}
	if api.callCount() != 0 {
		t.Fatal("offline cycle must not touch the network")
	}
	runs, _ := models.ListSyncRuns(ctx, 10)
	if len(runs) != 0 {
		t.Fatal("offline cycle must not record a run")
	}
	pending, _ := models.PendingSyncCount(ctx)
	if pending != 1 {
		t.Fatalf("queued work lost offline: pending=%d", pending)
	}
}

func TestRunCyclePushesThenRecordsRun(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	orch := newTestOrchestrator(api, true)

	customer, _ := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Cycled"})

	if err := orch.RunCycle(ctx, models.SyncTriggeredManual); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if orch.State() != StateIdle {
		t.Fatalf("state %s, want idle after clean cycle", orch.State())
	}

	fresh, _ := models.GetCustomer(ctx, customer.LocalId)
	if fresh.SyncStatus != models.SyncStatusSynced {
		t.Fatalf("status %s after cycle", fresh.SyncStatus)
	}

	runs, err := models.ListSyncRuns(ctx, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs %d err %v", len(runs), err)
	}
	run := runs[0]
	if run.Status != models.SyncRunStatusSuccess {
		t.Fatalf("run status %s", run.Status)
	}
	if run.RecordsPushed != 1 {
		t.Fatalf("recorded pushed %d", run.RecordsPushed)
	}
	if run.FinishedAt == nil {
		t.Fatal("run not finished")
	}

	state, _ := models.GetSyncState(ctx)
	if state.LastSuccessSyncAt == nil {
		t.Fatal("success timestamp not stamped")
	}
}

func TestRunCycleSingleFlight(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	orch := newTestOrchestrator(api, true)

	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Single Flight"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 8
	var wg stdsync.WaitGroup
	var mu stdsync.Mutex
	inFlightRejections := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := orch.RunCycle(ctx, models.SyncTriggeredManual); errors.Is(err, ErrSyncInFlight) {
				mu.Lock()
				inFlightRejections++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// however the goroutines interleave, the single queue item goes out
	// exactly once
	if len(api.creates) != 1 {
		t.Fatalf("create sent %d times under concurrent cycles", len(api.creates))
	}
	if inFlightRejections == 0 && len(api.creates) != 1 {
		t.Fatal("overlapping cycles were not serialized")
	}
}

func TestTriggerSyncCollapses(t *testing.T) {
	setupTestDB(t)
	api := newFakeAPI()
	orch := newTestOrchestrator(api, true)
	// loop not started: triggers stay queued in the channel

	if !orch.TriggerSync(models.SyncTriggeredMutation) {
		t.Fatal("first trigger rejected")
	}
	if orch.TriggerSync(models.SyncTriggeredMutation) {
		t.Fatal("second trigger should collapse into the queued one")
	}
}

func TestStatusReportCounts(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	api := newFakeAPI()
	orch := newTestOrchestrator(api, true)

	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Status"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	report, err := orch.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.State != StateIdle {
		t.Fatalf("state %s", report.State)
	}
	if !report.Online {
		t.Fatal("probe says online")
	}
	if report.PendingCount != 1 || report.FailedCount != 0 {
		t.Fatalf("counts pending=%d failed=%d", report.PendingCount, report.FailedCount)
	}
	if report.DeviceId == "" {
		t.Fatal("device id missing")
	}
}
