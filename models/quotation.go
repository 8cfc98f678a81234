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

type Quotation struct {
	ID int `gorm:"primary_key" json:"-"`
	Syncable
	QuotationNumber  string          `gorm:"size:50;index" json:"quotation_number"`
	CustomerLocalId  string          `gorm:"size:64;index;not null" json:"customer_local_id"`
	CustomerServerId *string         `gorm:"size:64" json:"customer_id"`
	QuotationDate    time.Time       `gorm:"index;not null" json:"quotation_date"`
	ExpiryDate       *time.Time      `json:"expiry_date"`
	CurrentStatus    string          `gorm:"size:20;not null;default:'Draft'" json:"current_status"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Details          []QuotationItem `gorm:"foreignKey:QuotationLocalId;references:LocalId" json:"details"`
}

type QuotationItem struct {
	ID               int             `gorm:"primary_key" json:"-"`
	LocalId          string          `gorm:"size:64;uniqueIndex;not null" json:"local_id"`
	QuotationLocalId string          `gorm:"size:64;index;not null" json:"quotation_local_id"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitRate         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_rate"`
	Discount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Tax              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewQuotation struct {
	QuotationNumber string           `json:"quotation_number"`
	CustomerLocalId string           `json:"customer_local_id" binding:"required"`
	QuotationDate   time.Time        `json:"quotation_date" binding:"required"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	Notes           string           `json:"notes"`
	Details         []NewInvoiceItem `json:"details" binding:"required,min=1,dive"`
}

type QuotationPatch struct {
	QuotationNumber *string           `json:"quotation_number"`
	QuotationDate   *time.Time        `json:"quotation_date"`
	ExpiryDate      *time.Time        `json:"expiry_date"`
	CurrentStatus   *string           `json:"current_status"`
	Notes           *string           `json:"notes"`
	Details         *[]NewInvoiceItem `json:"details"`
}

func buildQuotationItems(quotationLocalId string, inputs []NewInvoiceItem) ([]QuotationItem, decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	items := make([]QuotationItem, 0, len(inputs))
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for _, in := range inputs {
		amount := in.Qty.Mul(in.UnitRate).Sub(in.Discount).Add(in.Tax)
		items = append(items, QuotationItem{
			LocalId:          utils.NewLocalId(),
			QuotationLocalId: quotationLocalId,
			Name:             in.Name,
			Qty:              in.Qty,
			UnitRate:         in.UnitRate,
			Discount:         in.Discount,
			Tax:              in.Tax,
			Amount:           amount,
		})
		subtotal = subtotal.Add(in.Qty.Mul(in.UnitRate))
		discount = discount.Add(in.Discount)
		tax = tax.Add(in.Tax)
	}
	return items, subtotal, discount, tax
}

func CreateQuotation(ctx context.Context, input *NewQuotation) (*Quotation, error) {
	db := config.GetDB()

	customer, err := GetCustomer(ctx, input.CustomerLocalId)
	if err != nil {
		return nil, errors.New("customer not found")
	}
	if len(input.Details) == 0 {
		return nil, errors.New("quotation needs at least one line item")
	}

	localId := utils.NewLocalId()
	items, subtotal, discount, tax := buildQuotationItems(localId, input.Details)

	quotation := Quotation{
		Syncable: Syncable{
			LocalId:    localId,
			SyncStatus: SyncStatusPending,
		},
		QuotationNumber:  input.QuotationNumber,
		CustomerLocalId:  customer.LocalId,
		CustomerServerId: customer.ServerId,
		QuotationDate:    input.QuotationDate,
		ExpiryDate:       input.ExpiryDate,
		CurrentStatus:    QuotationStatusDraft,
		Subtotal:         subtotal,
		DiscountAmount:   discount,
		TaxAmount:        tax,
		Total:            subtotal.Sub(discount).Add(tax),
		Notes:            input.Notes,
		Details:          items,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quotation).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypeQuotation, quotation.LocalId, SyncOperationCreate, quotation.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func UpdateQuotation(ctx context.Context, localId string, patch *QuotationPatch) (*Quotation, error) {
	db := config.GetDB()

	quotation, err := GetQuotation(ctx, localId)
	if err != nil {
		return nil, err
	}
	if quotation.CurrentStatus == QuotationStatusConverted {
		return nil, errors.New("converted quotation cannot be edited")
	}

	updates := map[string]interface{}{}
	if patch.QuotationNumber != nil {
		updates["quotation_number"] = *patch.QuotationNumber
	}
	if patch.QuotationDate != nil {
		updates["quotation_date"] = *patch.QuotationDate
	}
	if patch.ExpiryDate != nil {
		updates["expiry_date"] = patch.ExpiryDate
	}
	if patch.CurrentStatus != nil {
		updates["current_status"] = *patch.CurrentStatus
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if len(updates) == 0 && patch.Details == nil {
		return quotation, nil
	}
	updates["sync_status"] = SyncStatusPending
	updates["updated_at"] = time.Now()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if patch.Details != nil {
			if len(*patch.Details) == 0 {
				return errors.New("quotation needs at least one line item")
			}
			if err := tx.Where("quotation_local_id = ?", localId).Delete(&QuotationItem{}).Error; err != nil {
				return err
			}
			items, subtotal, discount, tax := buildQuotationItems(localId, *patch.Details)
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
			updates["subtotal"] = subtotal
			updates["discount_amount"] = discount
			updates["tax_amount"] = tax
			updates["total"] = subtotal.Sub(discount).Add(tax)
		}
		if err := tx.Model(&Quotation{}).Where("local_id = ?", localId).Updates(updates).Error; err != nil {
			return err
		}
		var fresh Quotation
		if err := tx.Preload("Details").Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		quotation = &fresh
		return EnqueueSyncItem(tx, EntityTypeQuotation, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return quotation, nil
}

func DeleteQuotation(ctx context.Context, localId string) error {
	db := config.GetDB()

	quotation, err := GetQuotation(ctx, localId)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_local_id = ?", localId).Delete(&QuotationItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("local_id = ?", localId).Delete(&Quotation{}).Error; err != nil {
			return err
		}
		return EnqueueSyncDelete(tx, EntityTypeQuotation, localId, quotation.ServerId, quotation.RemotePayload())
	})
}

// ConvertQuotationToInvoice creates an invoice from the quotation's lines
// and marks the quotation converted, all in one transaction. Both the new
// invoice and the quotation's status change are queued for sync.
func ConvertQuotationToInvoice(ctx context.Context, localId string) (*Invoice, error) {
	db := config.GetDB()

	quotation, err := GetQuotation(ctx, localId)
	if err != nil {
		return nil, err
	}
	if quotation.CurrentStatus == QuotationStatusConverted {
		return nil, errors.New("quotation already converted")
	}

	invoiceLocalId := utils.NewLocalId()
	lineInputs := make([]NewInvoiceItem, 0, len(quotation.Details))
	for _, item := range quotation.Details {
		lineInputs = append(lineInputs, NewInvoiceItem{
			Name:     item.Name,
			Qty:      item.Qty,
			UnitRate: item.UnitRate,
			Discount: item.Discount,
			Tax:      item.Tax,
		})
	}
	items, subtotal, discount, tax := buildInvoiceItems(invoiceLocalId, lineInputs)

	invoice := Invoice{
		Syncable: Syncable{
			LocalId:    invoiceLocalId,
			SyncStatus: SyncStatusPending,
		},
		CustomerLocalId:  quotation.CustomerLocalId,
		CustomerServerId: quotation.CustomerServerId,
		InvoiceDate:      time.Now(),
		CurrentStatus:    InvoiceStatusDraft,
		Subtotal:         subtotal,
		DiscountAmount:   discount,
		TaxAmount:        tax,
		Total:            subtotal.Sub(discount).Add(tax),
		Notes:            quotation.Notes,
		Details:          items,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := EnqueueSyncItem(tx, EntityTypeInvoice, invoice.LocalId, SyncOperationCreate, invoice.RemotePayload()); err != nil {
			return err
		}
		if err := tx.Model(&Quotation{}).Where("local_id = ?", localId).
			Updates(map[string]interface{}{
				"current_status": QuotationStatusConverted,
				"sync_status":    SyncStatusPending,
			}).Error; err != nil {
			return err
		}
		var fresh Quotation
		if err := tx.Preload("Details").Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypeQuotation, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetQuotation(ctx context.Context, localId string) (*Quotation, error) {
	db := config.GetDB()
	var quotation Quotation
	err := db.WithContext(ctx).Preload("Details").
		Where("local_id = ?", localId).Take(&quotation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

func ListQuotations(ctx context.Context, customerLocalId string) ([]Quotation, error) {
	db := config.GetDB()
	var quotations []Quotation
	q := db.WithContext(ctx).Preload("Details").Order("quotation_date DESC, id DESC")
	if customerLocalId != "" {
		q = q.Where("customer_local_id = ?", customerLocalId)
	}
	err := q.Find(&quotations).Error
	return quotations, err
}

func (q *Quotation) RemotePayload() map[string]any {
	details := make([]map[string]any, 0, len(q.Details))
	for _, item := range q.Details {
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
		"local_id":          q.LocalId,
		"quotation_number":  q.QuotationNumber,
		"customer_local_id": q.CustomerLocalId,
		"quotation_date":    utils.EpochMillis(q.QuotationDate),
		"current_status":    q.CurrentStatus,
		"subtotal":          q.Subtotal,
		"discount_amount":   q.DiscountAmount,
		"tax_amount":        q.TaxAmount,
		"total":             q.Total,
		"notes":             q.Notes,
		"details":           details,
		"updated_at":        utils.EpochMillis(q.UpdatedAt),
	}
	if q.ServerId != nil {
		payload["id"] = *q.ServerId
	}
	if q.CustomerServerId != nil {
		payload["customer_id"] = *q.CustomerServerId
	}
	if q.ExpiryDate != nil {
		payload["expiry_date"] = utils.EpochMillis(*q.ExpiryDate)
	}
	return payload
}
