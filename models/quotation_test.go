package models

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/shopspring/decimal"
)

func seedQuotation(t *testing.T, ctx context.Context) *Quotation {
	t.Helper()
	customer, err := CreateCustomer(ctx, &NewCustomer{Name: "Quote Customer"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	quotation, err := CreateQuotation(ctx, &NewQuotation{
		CustomerLocalId: customer.LocalId,
		QuotationDate:   time.Now(),
		Details: []NewInvoiceItem{
			{Name: "Cement bag", Qty: decimal.NewFromInt(20), UnitRate: decimal.NewFromInt(9500)},
		},
	})
	if err != nil {
		t.Fatalf("seed quotation: %v", err)
	}
	return quotation
}

func TestConvertQuotationToInvoice(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	quotation := seedQuotation(t, ctx)

	invoice, err := ConvertQuotationToInvoice(ctx, quotation.LocalId)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !invoice.Total.Equal(quotation.Total) {
		t.Fatalf("invoice total %s, want %s", invoice.Total, quotation.Total)
	}
	if invoice.CustomerLocalId != quotation.CustomerLocalId {
		t.Fatal("invoice must carry the quotation's customer")
	}
	if len(invoice.Details) != len(quotation.Details) {
		t.Fatalf("invoice has %d lines, want %d", len(invoice.Details), len(quotation.Details))
	}

	fresh, err := GetQuotation(ctx, quotation.LocalId)
	if err != nil {
		t.Fatalf("reload quotation: %v", err)
	}
	if fresh.CurrentStatus != QuotationStatusConverted {
		t.Fatalf("quotation status %s, want %s", fresh.CurrentStatus, QuotationStatusConverted)
	}

	// both sides of the conversion are queued: quotation create,
	// invoice create, quotation update
	var intents []SyncQueueItem
	config.GetDB().Order("id ASC").Find(&intents)
	var invoiceCreates, quotationUpdates int
	for _, it := range intents {
		if it.EntityType == EntityTypeInvoice && it.Operation == SyncOperationCreate {
			invoiceCreates++
		}
		if it.EntityType == EntityTypeQuotation && it.Operation == SyncOperationUpdate {
			quotationUpdates++
		}
	}
	if invoiceCreates != 1 || quotationUpdates != 1 {
		t.Fatalf("conversion queued %d invoice creates and %d quotation updates", invoiceCreates, quotationUpdates)
	}

	if _, err := ConvertQuotationToInvoice(ctx, quotation.LocalId); err == nil {
		t.Fatal("double conversion must fail")
	}
}

func TestUpdateConvertedQuotationRejected(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	quotation := seedQuotation(t, ctx)

	if _, err := ConvertQuotationToInvoice(ctx, quotation.LocalId); err != nil {
		t.Fatalf("convert: %v", err)
	}
	status := QuotationStatusSent
	if _, err := UpdateQuotation(ctx, quotation.LocalId, &QuotationPatch{CurrentStatus: &status}); err == nil {
		t.Fatal("converted quotation must be immutable")
	}
}

func TestDashboardCounters(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	quotation := seedQuotation(t, ctx)
	if _, err := ConvertQuotationToInvoice(ctx, quotation.LocalId); err != nil {
		t.Fatalf("convert: %v", err)
	}

	counters, err := GetDashboardCounters(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if counters.Customers != 1 || counters.Quotations != 1 || counters.Invoices != 1 {
		t.Fatalf("counters %+v", counters)
	}
	// customer create + quotation create + invoice create + quotation update
	if counters.PendingSync != 4 {
		t.Fatalf("pending sync %d, want 4", counters.PendingSync)
	}
	if counters.PendingByType["customer"] != 1 || counters.PendingByType["quotation"] != 2 {
		t.Fatalf("pending by type %+v", counters.PendingByType)
	}
}
