package models

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/utils"
	"github.com/shopspring/decimal"
)

func seedInvoice(t *testing.T, ctx context.Context) *Invoice {
	t.Helper()
	customer, err := CreateCustomer(ctx, &NewCustomer{Name: "Invoice Customer " + utils.NewLocalId()})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	invoice, err := CreateInvoice(ctx, &NewInvoice{
		CustomerLocalId: customer.LocalId,
		InvoiceDate:     time.Now(),
		Details: []NewInvoiceItem{
			{Name: "Rice 25kg", Qty: decimal.NewFromInt(4), UnitRate: decimal.NewFromInt(30000)},
		},
	})
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}

func TestCreatePaymentRequiresInvoiceAndPositiveAmount(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	invoice := seedInvoice(t, ctx)

	if _, err := CreatePayment(ctx, &NewPayment{
		InvoiceLocalId: "local_missing",
		Amount:         decimal.NewFromInt(1000),
		PaymentDate:    time.Now(),
	}); err == nil {
		t.Fatal("payment against unknown invoice must fail")
	}

	if _, err := CreatePayment(ctx, &NewPayment{
		InvoiceLocalId: invoice.LocalId,
		Amount:         decimal.Zero,
		PaymentDate:    time.Now(),
	}); err == nil {
		t.Fatal("zero amount must fail")
	}

	payment, err := CreatePayment(ctx, &NewPayment{
		InvoiceLocalId: invoice.LocalId,
		Amount:         decimal.NewFromInt(50000),
		PaymentDate:    time.Now(),
		PaymentMode:    "cash",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if payment.InvoiceLocalId != invoice.LocalId {
		t.Fatalf("payment keyed to %q, want %q", payment.InvoiceLocalId, invoice.LocalId)
	}
}

func TestListInvoicePaymentsDedupesAcrossIdentifiers(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	invoice := seedInvoice(t, ctx)

	serverId := "srv_inv_9"
	if err := MarkEntitySynced(ctx, EntityTypeInvoice, invoice.LocalId, &serverId); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	invoice, _ = GetInvoice(ctx, invoice.LocalId)

	// entered on this device, keyed by local id
	if _, err := CreatePayment(ctx, &NewPayment{
		InvoiceLocalId: invoice.LocalId,
		Amount:         decimal.NewFromInt(10000),
		PaymentDate:    time.Now(),
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	// pulled from another device, reachable only through the server id
	pulled := Payment{
		Syncable: Syncable{
			LocalId:    utils.NewLocalId(),
			ServerId:   strPtr("srv_pay_1"),
			SyncStatus: SyncStatusSynced,
		},
		InvoiceServerId: &serverId,
		Amount:          decimal.NewFromInt(20000),
		PaymentDate:     time.Now(),
	}
	if err := config.GetDB().Create(&pulled).Error; err != nil {
		t.Fatalf("insert pulled payment: %v", err)
	}

	// the same logical payment visible through both keys
	both := Payment{
		Syncable: Syncable{
			LocalId:    utils.NewLocalId(),
			ServerId:   strPtr("srv_pay_2"),
			SyncStatus: SyncStatusSynced,
		},
		InvoiceLocalId:  invoice.LocalId,
		InvoiceServerId: &serverId,
		Amount:          decimal.NewFromInt(5000),
		PaymentDate:     time.Now(),
	}
	if err := config.GetDB().Create(&both).Error; err != nil {
		t.Fatalf("insert payment: %v", err)
	}

	payments, err := ListInvoicePayments(ctx, invoice)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 3 {
		t.Fatalf("got %d payments, want 3 unique", len(payments))
	}
	seen := map[string]bool{}
	for _, p := range payments {
		if seen[p.LocalId] {
			t.Fatalf("payment %s listed twice", p.LocalId)
		}
		seen[p.LocalId] = true
	}
}

func strPtr(s string) *string { return &s }
