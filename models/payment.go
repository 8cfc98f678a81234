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

type Payment struct {
	ID int `gorm:"primary_key" json:"-"`
	Syncable
	InvoiceLocalId  string          `gorm:"size:64;index;not null" json:"invoice_local_id"`
	InvoiceServerId *string         `gorm:"size:64;index" json:"invoice_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate     time.Time       `gorm:"index;not null" json:"payment_date"`
	PaymentMode     string          `gorm:"size:50" json:"payment_mode"`
	Notes           string          `gorm:"type:text" json:"notes"`
}

type NewPayment struct {
	InvoiceLocalId string          `json:"invoice_local_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate    time.Time       `json:"payment_date" binding:"required"`
	PaymentMode    string          `json:"payment_mode"`
	Notes          string          `json:"notes"`
}

type PaymentPatch struct {
	Amount      *decimal.Decimal `json:"amount"`
	PaymentDate *time.Time       `json:"payment_date"`
	PaymentMode *string          `json:"payment_mode"`
	Notes       *string          `json:"notes"`
}

func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, input.InvoiceLocalId)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("payment amount must be positive")
	}

	payment := Payment{
		Syncable: Syncable{
			LocalId:    utils.NewLocalId(),
			SyncStatus: SyncStatusPending,
		},
		InvoiceLocalId:  invoice.LocalId,
		InvoiceServerId: invoice.ServerId,
		Amount:          input.Amount,
		PaymentDate:     input.PaymentDate,
		PaymentMode:     input.PaymentMode,
		Notes:           input.Notes,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypePayment, payment.LocalId, SyncOperationCreate, payment.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func UpdatePayment(ctx context.Context, localId string, patch *PaymentPatch) (*Payment, error) {
	db := config.GetDB()

	payment, err := GetPayment(ctx, localId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Amount != nil {
		if patch.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("payment amount must be positive")
		}
		updates["amount"] = *patch.Amount
	}
	if patch.PaymentDate != nil {
		updates["payment_date"] = *patch.PaymentDate
	}
	if patch.PaymentMode != nil {
		updates["payment_mode"] = *patch.PaymentMode
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if len(updates) == 0 {
		return payment, nil
	}
	updates["sync_status"] = SyncStatusPending
	updates["updated_at"] = time.Now()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Payment{}).Where("local_id = ?", localId).Updates(updates).Error; err != nil {
			return err
		}
		var fresh Payment
		if err := tx.Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		payment = &fresh
		return EnqueueSyncItem(tx, EntityTypePayment, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func DeletePayment(ctx context.Context, localId string) error {
	db := config.GetDB()

	payment, err := GetPayment(ctx, localId)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_id = ?", localId).Delete(&Payment{}).Error; err != nil {
			return err
		}
		return EnqueueSyncDelete(tx, EntityTypePayment, localId, payment.ServerId, payment.RemotePayload())
	})
}

func GetPayment(ctx context.Context, localId string) (*Payment, error) {
	db := config.GetDB()
	var payment Payment
	if err := db.WithContext(ctx).Where("local_id = ?", localId).Take(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// ListInvoicePayments returns the payments for one invoice. The same
// logical payment can be reachable both through the invoice's local id and
// through its server id (a pulled payment may carry only the latter), so
// the result is keyed by payment local id and duplicates are dropped.
func ListInvoicePayments(ctx context.Context, invoice *Invoice) ([]Payment, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Order("payment_date ASC, id ASC")
	if invoice.ServerId != nil && *invoice.ServerId != "" {
		q = q.Where("invoice_local_id = ? OR invoice_server_id = ?", invoice.LocalId, *invoice.ServerId)
	} else {
		q = q.Where("invoice_local_id = ?", invoice.LocalId)
	}

	var payments []Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(payments))
	deduped := payments[:0]
	for _, p := range payments {
		if seen[p.LocalId] {
			continue
		}
		seen[p.LocalId] = true
		deduped = append(deduped, p)
	}
	return deduped, nil
}

func (p *Payment) RemotePayload() map[string]any {
	payload := map[string]any{
		"local_id":         p.LocalId,
		"invoice_local_id": p.InvoiceLocalId,
		"amount":           p.Amount,
		"payment_date":     utils.EpochMillis(p.PaymentDate),
		"payment_mode":     p.PaymentMode,
		"notes":            p.Notes,
		"updated_at":       utils.EpochMillis(p.UpdatedAt),
	}
	if p.ServerId != nil {
		payload["id"] = *p.ServerId
	}
	if p.InvoiceServerId != nil {
		payload["invoice_id"] = *p.InvoiceServerId
	}
	return payload
}
