package models

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/shopspring/decimal"
)

func TestCreateInvoiceComputesTotals(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, &NewCustomer{Name: "Totals Customer"})
	invoice, err := CreateInvoice(ctx, &NewInvoice{
		CustomerLocalId: customer.LocalId,
		InvoiceDate:     time.Now(),
		Details: []NewInvoiceItem{
			{Name: "Oil 1L", Qty: decimal.NewFromInt(10), UnitRate: decimal.NewFromInt(5000), Discount: decimal.NewFromInt(2000)},
			{Name: "Salt 1kg", Qty: decimal.NewFromInt(5), UnitRate: decimal.NewFromInt(800), Tax: decimal.NewFromInt(200)},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if !invoice.Subtotal.Equal(decimal.NewFromInt(54000)) {
		t.Fatalf("subtotal %s, want 54000", invoice.Subtotal)
	}
	if !invoice.Total.Equal(decimal.NewFromInt(52200)) {
		t.Fatalf("total %s, want 52200", invoice.Total)
	}
	if len(invoice.Details) != 2 {
		t.Fatalf("got %d items, want 2", len(invoice.Details))
	}
	for _, item := range invoice.Details {
		if item.InvoiceLocalId != invoice.LocalId {
			t.Fatal("line items must key off the invoice local id")
		}
	}
	if invoice.CustomerLocalId != customer.LocalId {
		t.Fatal("invoice must key off the customer local id")
	}
	if invoice.CustomerServerId != nil {
		t.Fatal("customer server id is unknown before the customer syncs")
	}
}

func TestUpdateInvoiceReplacingDetailsRecomputes(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, &NewCustomer{Name: "Replace Customer"})
	invoice, err := CreateInvoice(ctx, &NewInvoice{
		CustomerLocalId: customer.LocalId,
		InvoiceDate:     time.Now(),
		Details: []NewInvoiceItem{
			{Name: "Old line", Qty: decimal.NewFromInt(1), UnitRate: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newDetails := []NewInvoiceItem{
		{Name: "New line", Qty: decimal.NewFromInt(3), UnitRate: decimal.NewFromInt(700)},
	}
	updated, err := UpdateInvoice(ctx, invoice.LocalId, &InvoicePatch{Details: &newDetails})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Details) != 1 || updated.Details[0].Name != "New line" {
		t.Fatalf("details not replaced: %+v", updated.Details)
	}
	if !updated.Total.Equal(decimal.NewFromInt(2100)) {
		t.Fatalf("total %s, want 2100", updated.Total)
	}

	var orphans int64
	config.GetDB().Model(&InvoiceItem{}).Where("name = ?", "Old line").Count(&orphans)
	if orphans != 0 {
		t.Fatal("replaced line items must be removed")
	}
}

func TestDeleteInvoiceBlockedByPayments(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	invoice := seedInvoice(t, ctx)
	if _, err := CreatePayment(ctx, &NewPayment{
		InvoiceLocalId: invoice.LocalId,
		Amount:         decimal.NewFromInt(1000),
		PaymentDate:    time.Now(),
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := DeleteInvoice(ctx, invoice.LocalId); err == nil {
		t.Fatal("invoice with payments must not be deletable")
	}
}

func TestDeleteInvoiceRemovesRowAndQueuesIntent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	invoice := seedInvoice(t, ctx)
	if err := DeleteInvoice(ctx, invoice.LocalId); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetInvoice(ctx, invoice.LocalId); err == nil {
		t.Fatal("invoice row should be gone")
	}
	var items int64
	config.GetDB().Model(&InvoiceItem{}).Where("invoice_local_id = ?", invoice.LocalId).Count(&items)
	if items != 0 {
		t.Fatal("invoice items should be gone")
	}
	var intents int64
	config.GetDB().Model(&SyncQueueItem{}).
		Where("entity_type = ? AND operation = ?", EntityTypeInvoice, SyncOperationDelete).
		Count(&intents)
	if intents != 1 {
		t.Fatalf("delete intents %d, want 1", intents)
	}
}
