package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	stdsync "sync"
	"testing"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/shopspring/decimal"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := config.OpenDatabase(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

type apiCall struct {
	collection string
	id         string
	payload    map[string]any
}

// fakeAPI records every request and serves canned list pages. Error fields
// make the next matching call fail.
type fakeAPI struct {
	mu      stdsync.Mutex
	nextId  int
	creates []apiCall
	updates []apiCall
	deletes []apiCall

	createErr error
	updateErr error
	deleteErr error

	pages map[string][]remote.ListPage
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: map[string][]remote.ListPage{}}
}

func (f *fakeAPI) Create(ctx context.Context, collection string, payload map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextId++
	id := fmt.Sprintf("srv_%d", f.nextId)
	f.creates = append(f.creates, apiCall{collection: collection, id: id, payload: payload})
	return id, nil
}

func (f *fakeAPI) Update(ctx context.Context, collection string, id string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, apiCall{collection: collection, id: id, payload: payload})
	return nil
}

func (f *fakeAPI) Delete(ctx context.Context, collection string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, apiCall{collection: collection, id: id})
	return nil
}

func (f *fakeAPI) List(ctx context.Context, collection string, updatedSince string, cursor string) (remote.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queued := f.pages[collection]
	if len(queued) == 0 {
		return remote.ListPage{}, nil
	}
	page := queued[0]
	f.pages[collection] = queued[1:]
	return page, nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates) + len(f.deletes)
}

func (f *fakeAPI) queuePage(collection string, hasMore bool, cursor string, records ...map[string]any) {
	raws := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		raw, _ := json.Marshal(rec)
		raws = append(raws, raw)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[collection] = append(f.pages[collection], remote.ListPage{
		Data:       raws,
		NextCursor: cursor,
		HasMore:    &hasMore,
	})
}

type probeStub bool

func (p probeStub) IsOnline(context.Context) bool { return bool(p) }

func newTestRun(t *testing.T) *models.SyncRun {
	t.Helper()
	run, err := models.CreateSyncRun(context.Background(), models.SyncTriggeredManual)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}
