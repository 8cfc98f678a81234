package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID int `gorm:"primary_key" json:"-"`
	Syncable
	InvoiceNumber string `gorm:"size:50;index" json:"invoice_number"`
	// Relations are keyed by the parent's local id; the server id column
	// is populated opportunistically once the customer has synced and is
	// never required for correctness.
	CustomerLocalId  string          `gorm:"size:64;index;not null" json:"customer_local_id"`
	CustomerServerId *string         `gorm:"size:64" json:"customer_id"`
	InvoiceDate      time.Time       `gorm:"index;not null" json:"invoice_date"`
	DueDate          *time.Time      `json:"due_date"`
	CurrentStatus    string          `gorm:"size:20;not null;default:'Draft'" json:"current_status"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Details          []InvoiceItem   `gorm:"foreignKey:InvoiceLocalId;references:LocalId" json:"details"`
}

type InvoiceItem struct {
	ID             int             `gorm:"primary_key" json:"-"`
	LocalId        string          `gorm:"size:64;uniqueIndex;not null" json:"local_id"`
	InvoiceLocalId string          `gorm:"size:64;index;not null" json:"invoice_local_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitRate       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_rate"`
	Discount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Tax            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	InvoiceNumber   string           `json:"invoice_number"`
	CustomerLocalId string           `json:"customer_local_id" binding:"required"`
	InvoiceDate     time.Time        `json:"invoice_date" binding:"required"`
	DueDate         *time.Time       `json:"due_date"`
	CurrentStatus   string           `json:"current_status"`
	Notes           string           `json:"notes"`
	Details         []NewInvoiceItem `json:"details" binding:"required,min=1,dive"`
}

type NewInvoiceItem struct {
	Name     string          `json:"name" binding:"required"`
	Qty      decimal.Decimal `json:"qty" binding:"required"`
	UnitRate decimal.Decimal `json:"unit_rate" binding:"required"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
}

type InvoicePatch struct {
	InvoiceNumber *string           `json:"invoice_number"`
	InvoiceDate   *time.Time        `json:"invoice_date"`
	DueDate       *time.Time        `json:"due_date"`
	CurrentStatus *string           `json:"current_status"`
	Notes         *string           `json:"notes"`
	Details       *[]NewInvoiceItem `json:"details"`
}

func buildInvoiceItems(invoiceLocalId string, inputs []NewInvoiceItem) ([]InvoiceItem, decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	items := make([]InvoiceItem, 0, len(inputs))
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for _, in := range inputs {
		amount := in.Qty.Mul(in.UnitRate).Sub(in.Discount).Add(in.Tax)
		items = append(items, InvoiceItem{
			LocalId:        utils.NewLocalId(),
			InvoiceLocalId: invoiceLocalId,
			Name:           in.Name,
			Qty:            in.Qty,
			UnitRate:       in.UnitRate,
			Discount:       in.Discount,
			Tax:            in.Tax,
			Amount:         amount,
		})
		subtotal = subtotal.Add(in.Qty.Mul(in.UnitRate))
		discount = discount.Add(in.Discount)
		tax = tax.Add(in.Tax)
	}
	return items, subtotal, discount, tax
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	customer, err := GetCustomer(ctx, input.CustomerLocalId)
	if err != nil {
		return nil, errors.New("customer not found")
	}
	if len(input.Details) == 0 {
		return nil, errors.New("invoice needs at least one line item")
	}

	status := input.CurrentStatus
	if status == "" {
		status = InvoiceStatusDraft
	}

	localId := utils.NewLocalId()
	items, subtotal, discount, tax := buildInvoiceItems(localId, input.Details)

	invoice := Invoice{
		Syncable: Syncable{
			LocalId:    localId,
			SyncStatus: SyncStatusPending,
		},
		InvoiceNumber:    input.InvoiceNumber,
		CustomerLocalId:  customer.LocalId,
		CustomerServerId: customer.ServerId,
		InvoiceDate:      input.InvoiceDate,
		DueDate:          input.DueDate,
		CurrentStatus:    status,
		Subtotal:         subtotal,
		DiscountAmount:   discount,
		TaxAmount:        tax,
		Total:            subtotal.Sub(discount).Add(tax),
		Notes:            input.Notes,
		Details:          items,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypeInvoice, invoice.LocalId, SyncOperationCreate, invoice.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func UpdateInvoice(ctx context.Context, localId string, patch *InvoicePatch) (*Invoice, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, localId)
	if err != nil {
		return nil, err
	}
	if invoice.CurrentStatus == InvoiceStatusVoid {
		return nil, errors.New("void invoice cannot be edited")
	}

	updates := map[string]interface{}{}
	if patch.InvoiceNumber != nil {
		updates["invoice_number"] = *patch.InvoiceNumber
	}
	if patch.InvoiceDate != nil {
		updates["invoice_date"] = *patch.InvoiceDate
	}
	if patch.DueDate != nil {
		updates["due_date"] = patch.DueDate
	}
	if patch.CurrentStatus != nil {
		updates["current_status"] = *patch.CurrentStatus
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if len(updates) == 0 && patch.Details == nil {
		return invoice, nil
	}
	updates["sync_status"] = SyncStatusPending
	updates["updated_at"] = time.Now()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if patch.Details != nil {
			if len(*patch.Details) == 0 {
				return errors.New("invoice needs at least one line item")
			}
			if err := tx.Where("invoice_local_id = ?", localId).Delete(&InvoiceItem{}).Error; err != nil {
				return err
			}
			items, subtotal, discount, tax := buildInvoiceItems(localId, *patch.Details)
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
			updates["subtotal"] = subtotal
			updates["discount_amount"] = discount
			updates["tax_amount"] = tax
			updates["total"] = subtotal.Sub(discount).Add(tax)
		}
		if err := tx.Model(&Invoice{}).Where("local_id = ?", localId).Updates(updates).Error; err != nil {
			return err
		}
		var fresh Invoice
		if err := tx.Preload("Details").Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		invoice = &fresh
		return EnqueueSyncItem(tx, EntityTypeInvoice, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteInvoice removes the invoice and its items locally and queues the
// remote delete. Invoices with recorded payments cannot be deleted.
func DeleteInvoice(ctx context.Context, localId string) error {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, localId)
	if err != nil {
		return err
	}

	var paymentCount int64
	if err := db.WithContext(ctx).Model(&Payment{}).
		Where("invoice_local_id = ?", localId).
		Count(&paymentCount).Error; err != nil {
		return err
	}
	if paymentCount > 0 {
		return errors.New("invoice has payments and cannot be deleted")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_local_id = ?", localId).Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("local_id = ?", localId).Delete(&Invoice{}).Error; err != nil {
			return err
		}
		return EnqueueSyncDelete(tx, EntityTypeInvoice, localId, invoice.ServerId, invoice.RemotePayload())
	})
}

func GetInvoice(ctx context.Context, localId string) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Details").
		Where("local_id = ?", localId).Take(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func ListInvoices(ctx context.Context, customerLocalId string, from, to *time.Time) ([]Invoice, error) {
	db := config.GetDB()
	var invoices []Invoice
	q := db.WithContext(ctx).Preload("Details").Order("invoice_date DESC, id DESC")
	if customerLocalId != "" {
		q = q.Where("customer_local_id = ?", customerLocalId)
	}
	if from != nil {
		q = q.Where("invoice_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("invoice_date <= ?", *to)
	}
	err := q.Find(&invoices).Error
	return invoices, err
}

func (inv *Invoice) RemotePayload() map[string]any {
	details := make([]map[string]any, 0, len(inv.Details))
	for _, item := range inv.Details {
		details = append(details, map[string]any{
			"local_id":  item.LocalId,
			"name":      item.Name,
			"qty":       item.Qty,
			"unit_rate": item.UnitRate,
			"discount":  item.Discount,
			"tax":       item.Tax,
			"amount":    item.Amount,
		})
	}
	payload := map[string]any{
		"local_id":          inv.LocalId,
		"invoice_number":    inv.InvoiceNumber,
		"customer_local_id": inv.CustomerLocalId,
		"invoice_date":      utils.EpochMillis(inv.InvoiceDate),
		"current_status":    inv.CurrentStatus,
		"subtotal":          inv.Subtotal,
		"discount_amount":   inv.DiscountAmount,
		"tax_amount":        inv.TaxAmount,
		"total":             inv.Total,
		"notes":             inv.Notes,
		"details":           details,
		"updated_at":        utils.EpochMillis(inv.UpdatedAt),
	}
	if inv.ServerId != nil {
		payload["id"] = *inv.ServerId
	}
	if inv.CustomerServerId != nil {
		payload["customer_id"] = *inv.CustomerServerId
	}
	if inv.DueDate != nil {
		payload["due_date"] = utils.EpochMillis(*inv.DueDate)
	}
	return payload
}
