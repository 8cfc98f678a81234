package models

import (
	"context"

	"github.com/mmdatafocus/books_offline/config"
)

// DashboardCounters are the lightweight numbers the home screen shows.
// Nothing here aggregates beyond simple counts.
type DashboardCounters struct {
	Customers     int64            `json:"customers"`
	Suppliers     int64            `json:"suppliers"`
	Invoices      int64            `json:"invoices"`
	Quotations    int64            `json:"quotations"`
	Payments      int64            `json:"payments"`
	PendingSync   int64            `json:"pending_sync"`
	FailedSync    int64            `json:"failed_sync"`
	PendingByType map[string]int64 `json:"pending_by_type"`
}

func GetDashboardCounters(ctx context.Context) (*DashboardCounters, error) {
	db := config.GetDB()
	counters := DashboardCounters{PendingByType: map[string]int64{}}

	if err := db.WithContext(ctx).Model(&Customer{}).Where("is_active = ?", true).Count(&counters.Customers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Supplier{}).Where("is_active = ?", true).Count(&counters.Suppliers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).Count(&counters.Invoices).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Quotation{}).Count(&counters.Quotations).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Payment{}).Count(&counters.Payments).Error; err != nil {
		return nil, err
	}

	var err error
	if counters.PendingSync, err = PendingSyncCount(ctx); err != nil {
		return nil, err
	}
	if counters.FailedSync, err = FailedSyncCount(ctx); err != nil {
		return nil, err
	}

	type typeCount struct {
		EntityType string
		Count      int64
	}
	var rows []typeCount
	if err := db.WithContext(ctx).Model(&SyncQueueItem{}).
		Select("entity_type, COUNT(*) as count").
		Where("status = ?", SyncQueueStatusPending).
		Group("entity_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counters.PendingByType[row.EntityType] = row.Count
	}
	return &counters, nil
}
