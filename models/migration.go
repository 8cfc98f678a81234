package models

import (
	"context"

	"github.com/mmdatafocus/books_offline/config"
)

// AutoMigrate creates or updates every local table. Runs at startup before
// anything touches the store.
func AutoMigrate() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Customer{},
		&Supplier{},
		&Invoice{},
		&InvoiceItem{},
		&Payment{},
		&Quotation{},
		&QuotationItem{},
		&SyncQueueItem{},
		&SyncState{},
		&SyncRun{},
		&SyncRecordError{},
	)
}

// PropagateServerId pushes a freshly acknowledged server id into dependent
// rows' correlation columns. Dependents keep working off local ids either
// way; this only improves what gets sent on their next push.
func PropagateServerId(ctx context.Context, entityType EntityType, localId string, serverId string) error {
	db := config.GetDB()
	switch entityType {
	case EntityTypeCustomer:
		if err := db.WithContext(ctx).Model(&Invoice{}).
			Where("customer_local_id = ? AND customer_server_id IS NULL", localId).
			Update("customer_server_id", serverId).Error; err != nil {
			return err
		}
		return db.WithContext(ctx).Model(&Quotation{}).
			Where("customer_local_id = ? AND customer_server_id IS NULL", localId).
			Update("customer_server_id", serverId).Error
	case EntityTypeInvoice:
		return db.WithContext(ctx).Model(&Payment{}).
			Where("invoice_local_id = ? AND invoice_server_id IS NULL", localId).
			Update("invoice_server_id", serverId).Error
	}
	return nil
}
