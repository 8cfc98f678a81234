// Package sync drives the bidirectional exchange between the local store
// and the remote service: a push engine draining the durable mutation
// queue, a pull engine applying remote deltas, and an orchestrator that
// sequences the two into push-then-pull cycles.
package sync

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/mmdatafocus/books_offline/models"
)

// pullOrder lists collections parents-first so a pulled invoice can
// resolve its customer and a pulled payment its invoice.
var pullOrder = []models.EntityType{
	models.EntityTypeCustomer,
	models.EntityTypeSupplier,
	models.EntityTypeInvoice,
	models.EntityTypeQuotation,
	models.EntityTypePayment,
}

// CursorState maps remote collection name to the opaque pagination cursor
// the server handed back last. Persisted after every applied page so an
// interrupted pull resumes instead of refetching.
type CursorState map[string]string

func decodeCursorState(raw []byte) CursorState {
	state := CursorState{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &state)
	}
	return state
}

func (c CursorState) encode() []byte {
	raw, _ := json.Marshal(c)
	return raw
}

func intFromEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
