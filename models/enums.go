package models

// SyncStatus tracks whether a local record has diverged from the
// last-known server state.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
)

type EntityType string

const (
	EntityTypeCustomer  EntityType = "customer"
	EntityTypeSupplier  EntityType = "supplier"
	EntityTypeInvoice   EntityType = "invoice"
	EntityTypePayment   EntityType = "payment"
	EntityTypeQuotation EntityType = "quotation"
)

// Collection returns the remote collection name for the entity type.
func (t EntityType) Collection() string {
	switch t {
	case EntityTypeCustomer:
		return "customers"
	case EntityTypeSupplier:
		return "suppliers"
	case EntityTypeInvoice:
		return "invoices"
	case EntityTypePayment:
		return "payments"
	case EntityTypeQuotation:
		return "quotations"
	}
	return string(t)
}

// TableName returns the local table holding entities of this type.
// Collection and table names happen to coincide.
func (t EntityType) TableName() string {
	return t.Collection()
}

type SyncOperation string

const (
	SyncOperationCreate SyncOperation = "create"
	SyncOperationUpdate SyncOperation = "update"
	SyncOperationDelete SyncOperation = "delete"
)

const (
	SyncQueueStatusPending   = "pending"
	SyncQueueStatusFailed    = "failed"
	SyncQueueStatusCompleted = "completed"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual    = "manual"
	SyncTriggeredTimer     = "timer"
	SyncTriggeredMutation  = "mutation"
	SyncTriggeredReconnect = "reconnect"
	SyncTriggeredRetry     = "retry"
	SyncTriggeredLoad      = "load"
)

const (
	InvoiceStatusDraft     = "Draft"
	InvoiceStatusConfirmed = "Confirmed"
	InvoiceStatusPaid      = "Paid"
	InvoiceStatusVoid      = "Void"
)

const (
	QuotationStatusDraft     = "Draft"
	QuotationStatusSent      = "Sent"
	QuotationStatusAccepted  = "Accepted"
	QuotationStatusDeclined  = "Declined"
	QuotationStatusConverted = "Converted"
)
