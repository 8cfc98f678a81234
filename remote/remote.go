// Package remote talks to the backend data service. The sync engines see
// it as a generic per-collection request/response API; transport, auth
// header and rate limiting details stay in here.
package remote

import (
	"context"
	"encoding/json"
)

// ListPage is one page of a collection listing.
type ListPage struct {
	Data       []json.RawMessage `json:"data"`
	Items      []json.RawMessage `json:"items"`
	NextCursor string            `json:"next_cursor"`
	HasMore    *bool             `json:"has_more"`
}

// Records returns whichever field the server populated.
func (p ListPage) Records() []json.RawMessage {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Items
}

// API is the collection contract the push and pull engines depend on.
// Tests substitute a fake; production uses *Client.
type API interface {
	// Create inserts a document and returns the server-assigned id. The
	// document's local_id doubles as an idempotency key so a resent
	// create collapses server-side.
	Create(ctx context.Context, collection string, payload map[string]any) (string, error)
	Update(ctx context.Context, collection string, id string, payload map[string]any) error
	// Delete is a soft delete server-side; the record keeps existing in
	// listings flagged inactive.
	Delete(ctx context.Context, collection string, id string) error
	List(ctx context.Context, collection string, updatedSince string, cursor string) (ListPage, error)
}
