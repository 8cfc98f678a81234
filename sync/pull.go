package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/mmdatafocus/books_offline/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PullEngine fetches remote deltas collection by collection and folds them
// into the local store. Local rows with unpushed edits always win; remote
// state for them is dropped and picked up again after their push.
type PullEngine struct {
	api    remote.API
	logger *logrus.Logger
}

func NewPullEngine(api remote.API) *PullEngine {
	return &PullEngine{
		api:    api,
		logger: config.GetLogger(),
	}
}

func (e *PullEngine) Run(ctx context.Context, run *models.SyncRun) (pulled int, errCount int) {
	state, err := models.GetSyncState(ctx)
	if err != nil {
		config.LogError(e.logger, "sync", "PullEngine.Run", "load sync state", nil, err)
		return 0, 1
	}
	cursors := decodeCursorState(state.CursorStateJSON)

	for _, entityType := range pullOrder {
		applied, errs := e.pullCollection(ctx, run, entityType, cursors)
		pulled += applied
		errCount += errs
		if ctx.Err() != nil {
			return pulled, errCount
		}
	}
	return pulled, errCount
}

func (e *PullEngine) pullCollection(ctx context.Context, run *models.SyncRun, entityType models.EntityType, cursors CursorState) (applied int, errCount int) {
	collection := entityType.Collection()
	cursor := cursors[collection]

	for {
		page, err := e.api.List(ctx, collection, "", cursor)
		if err != nil {
			config.LogError(e.logger, "sync", "PullEngine.pullCollection", collection, cursor, err)
			return applied, errCount + 1
		}

		for _, raw := range page.Records() {
			changed, err := e.merge(ctx, entityType, raw)
			if err != nil {
				errCount++
				e.recordMergeError(ctx, run, entityType, raw, err)
				continue
			}
			if changed {
				applied++
			}
		}

		// the cursor is only advanced after the page's records are in the
		// store, so a crash mid-pull refetches rather than skips
		if page.NextCursor != "" && page.NextCursor != cursor {
			cursor = page.NextCursor
			cursors[collection] = cursor
			if err := models.SaveCursorState(ctx, cursors.encode()); err != nil {
				config.LogError(e.logger, "sync", "PullEngine.pullCollection", "save cursor", collection, err)
				return applied, errCount + 1
			}
		} else if page.HasMore != nil && *page.HasMore {
			// a server claiming more pages without moving the cursor would
			// loop forever
			return applied, errCount
		}

		if page.HasMore == nil || !*page.HasMore {
			return applied, errCount
		}
	}
}

func (e *PullEngine) merge(ctx context.Context, entityType models.EntityType, raw json.RawMessage) (bool, error) {
	switch entityType {
	case models.EntityTypeCustomer:
		return e.mergeCustomer(ctx, raw)
	case models.EntityTypeSupplier:
		return e.mergeSupplier(ctx, raw)
	case models.EntityTypeInvoice:
		return e.mergeInvoice(ctx, raw)
	case models.EntityTypeQuotation:
		return e.mergeQuotation(ctx, raw)
	case models.EntityTypePayment:
		return e.mergePayment(ctx, raw)
	}
	return false, errors.New("unknown collection " + entityType.Collection())
}

func (e *PullEngine) recordMergeError(ctx context.Context, run *models.SyncRun, entityType models.EntityType, raw json.RawMessage, cause error) {
	var ids struct {
		ID      string `json:"id"`
		LocalId string `json:"local_id"`
	}
	_ = json.Unmarshal(raw, &ids)
	if err := models.CreateSyncRecordError(ctx, run.ID, entityType, ids.LocalId, ids.ID,
		"pull_merge", cause.Error(), raw, true); err != nil {
		config.LogError(e.logger, "sync", "PullEngine.recordMergeError", string(entityType), nil, err)
	}
}

func (e *PullEngine) skipConflict(entityType models.EntityType, localId string) {
	e.logger.WithFields(logrus.Fields{
		"module":     "sync",
		"entityType": entityType,
		"localId":    localId,
	}).Debug("pull skipped, local edits pending")
}

// findByIds locates a local row first by server id, then by the local id
// the server echoed back from our own create.
func findByIds[T any](ctx context.Context, serverId, localId string, dest *T) (bool, error) {
	db := config.GetDB()
	err := db.WithContext(ctx).Where("server_id = ?", serverId).Take(dest).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if localId == "" {
		return false, nil
	}
	err = db.WithContext(ctx).Where("local_id = ?", localId).Take(dest).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

type remoteParty struct {
	ID          string          `json:"id"`
	LocalId     string          `json:"local_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Mobile      string          `json:"mobile"`
	Notes       string          `json:"notes"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	IsActive    *bool           `json:"is_active"`
}

func (e *PullEngine) mergeCustomer(ctx context.Context, raw json.RawMessage) (bool, error) {
	var rec remoteParty
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, errors.New("remote customer without id")
	}
	if skip, err := e.deletePending(ctx, models.EntityTypeCustomer, rec.ID); skip || err != nil {
		return false, err
	}

	db := config.GetDB()
	var existing models.Customer
	found, err := findByIds(ctx, rec.ID, rec.LocalId, &existing)
	if err != nil {
		return false, err
	}

	isActive := utils.NewTrue()
	if rec.IsActive != nil {
		isActive = rec.IsActive
	}

	if found {
		if existing.SyncStatus == models.SyncStatusPending {
			e.skipConflict(models.EntityTypeCustomer, existing.LocalId)
			return e.adoptServerId(ctx, models.EntityTypeCustomer, &existing.Syncable, rec.ID)
		}
		return true, db.WithContext(ctx).Model(&models.Customer{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"server_id":    rec.ID,
				"name":         rec.Name,
				"email":        rec.Email,
				"phone":        rec.Phone,
				"mobile":       rec.Mobile,
				"notes":        rec.Notes,
				"credit_limit": rec.CreditLimit,
				"is_active":    *isActive,
				"sync_status":  models.SyncStatusSynced,
			}).Error
	}

	localId := rec.LocalId
	if localId == "" {
		localId = utils.NewLocalId()
	}
	customer := models.Customer{
		Syncable: models.Syncable{
			LocalId:    localId,
			ServerId:   &rec.ID,
			SyncStatus: models.SyncStatusSynced,
		},
		Name:        rec.Name,
		Email:       rec.Email,
		Phone:       rec.Phone,
		Mobile:      rec.Mobile,
		Notes:       rec.Notes,
		CreditLimit: rec.CreditLimit,
		IsActive:    isActive,
	}
	return true, db.WithContext(ctx).Create(&customer).Error
}

func (e *PullEngine) mergeSupplier(ctx context.Context, raw json.RawMessage) (bool, error) {
	var rec remoteParty
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, errors.New("remote supplier without id")
	}
	if skip, err := e.deletePending(ctx, models.EntityTypeSupplier, rec.ID); skip || err != nil {
		return false, err
	}

	db := config.GetDB()
	var existing models.Supplier
	found, err := findByIds(ctx, rec.ID, rec.LocalId, &existing)
	if err != nil {
		return false, err
	}

	isActive := utils.NewTrue()
	if rec.IsActive != nil {
		isActive = rec.IsActive
	}

	if found {
		if existing.SyncStatus == models.SyncStatusPending {
			e.skipConflict(models.EntityTypeSupplier, existing.LocalId)
			return e.adoptServerId(ctx, models.EntityTypeSupplier, &existing.Syncable, rec.ID)
		}
		return true, db.WithContext(ctx).Model(&models.Supplier{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"server_id":   rec.ID,
				"name":        rec.Name,
				"email":       rec.Email,
				"phone":       rec.Phone,
				"mobile":      rec.Mobile,
				"notes":       rec.Notes,
				"is_active":   *isActive,
				"sync_status": models.SyncStatusSynced,
			}).Error
	}

	localId := rec.LocalId
	if localId == "" {
		localId = utils.NewLocalId()
	}
	supplier := models.Supplier{
		Syncable: models.Syncable{
			LocalId:    localId,
			ServerId:   &rec.ID,
			SyncStatus: models.SyncStatusSynced,
		},
		Name:     rec.Name,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Mobile:   rec.Mobile,
		Notes:    rec.Notes,
		IsActive: isActive,
	}
	return true, db.WithContext(ctx).Create(&supplier).Error
}

type remoteLineItem struct {
	LocalId  string          `json:"local_id"`
	Name     string          `json:"name"`
	Qty      decimal.Decimal `json:"qty"`
	UnitRate decimal.Decimal `json:"unit_rate"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Amount   decimal.Decimal `json:"amount"`
}

type remoteDocument struct {
	ID              string           `json:"id"`
	LocalId         string           `json:"local_id"`
	InvoiceNumber   string           `json:"invoice_number"`
	QuotationNumber string           `json:"quotation_number"`
	CustomerLocalId string           `json:"customer_local_id"`
	CustomerId      string           `json:"customer_id"`
	InvoiceDate     int64            `json:"invoice_date"`
	QuotationDate   int64            `json:"quotation_date"`
	DueDate         *int64           `json:"due_date"`
	ExpiryDate      *int64           `json:"expiry_date"`
	CurrentStatus   string           `json:"current_status"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	TaxAmount       decimal.Decimal  `json:"tax_amount"`
	Total           decimal.Decimal  `json:"total"`
	Notes           string           `json:"notes"`
	Details         []remoteLineItem `json:"details"`
	IsActive        *bool            `json:"is_active"`
}

// resolveCustomer maps the remote record's customer reference onto the
// local customer row, preferring the local id echo.
func (e *PullEngine) resolveCustomer(ctx context.Context, customerLocalId, customerServerId string) (*models.Customer, error) {
	db := config.GetDB()
	var customer models.Customer
	if customerLocalId != "" {
		err := db.WithContext(ctx).Where("local_id = ?", customerLocalId).Take(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if customerServerId != "" {
		err := db.WithContext(ctx).Where("server_id = ?", customerServerId).Take(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, errors.New("customer for remote document not found locally")
}

func (e *PullEngine) mergeInvoice(ctx context.Context, raw json.RawMessage) (bool, error) {
	var rec remoteDocument
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, errors.New("remote invoice without id")
	}
	if skip, err := e.deletePending(ctx, models.EntityTypeInvoice, rec.ID); skip || err != nil {
		return false, err
	}

	db := config.GetDB()
	var existing models.Invoice
	found, err := findByIds(ctx, rec.ID, rec.LocalId, &existing)
	if err != nil {
		return false, err
	}

	if rec.IsActive != nil && !*rec.IsActive {
		if !found {
			return false, nil
		}
		if existing.SyncStatus == models.SyncStatusPending {
			e.skipConflict(models.EntityTypeInvoice, existing.LocalId)
			return false, nil
		}
		return true, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("invoice_local_id = ?", existing.LocalId).Delete(&models.InvoiceItem{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", existing.ID).Delete(&models.Invoice{}).Error
		})
	}

	if found && existing.SyncStatus == models.SyncStatusPending {
		e.skipConflict(models.EntityTypeInvoice, existing.LocalId)
		return e.adoptServerId(ctx, models.EntityTypeInvoice, &existing.Syncable, rec.ID)
	}

	customer, err := e.resolveCustomer(ctx, rec.CustomerLocalId, rec.CustomerId)
	if err != nil {
		return false, err
	}

	localId := existing.LocalId
	if !found {
		localId = rec.LocalId
		if localId == "" {
			localId = utils.NewLocalId()
		}
	}
	items := remoteItemsToInvoiceItems(localId, rec.Details)

	var dueDate *time.Time
	if rec.DueDate != nil {
		t := utils.FromEpochMillis(*rec.DueDate)
		dueDate = &t
	}

	return true, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if found {
			if err := tx.Where("invoice_local_id = ?", localId).Delete(&models.InvoiceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Invoice{}).Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"server_id":          rec.ID,
					"invoice_number":     rec.InvoiceNumber,
					"customer_local_id":  customer.LocalId,
					"customer_server_id": customer.ServerId,
					"invoice_date":       utils.FromEpochMillis(rec.InvoiceDate),
					"due_date":           dueDate,
					"current_status":     rec.CurrentStatus,
					"subtotal":           rec.Subtotal,
					"discount_amount":    rec.DiscountAmount,
					"tax_amount":         rec.TaxAmount,
					"total":              rec.Total,
					"notes":              rec.Notes,
					"sync_status":        models.SyncStatusSynced,
				}).Error; err != nil {
				return err
			}
			if len(items) == 0 {
				return nil
			}
			return tx.Create(&items).Error
		}

		invoice := models.Invoice{
			Syncable: models.Syncable{
				LocalId:    localId,
				ServerId:   &rec.ID,
				SyncStatus: models.SyncStatusSynced,
			},
			InvoiceNumber:    rec.InvoiceNumber,
			CustomerLocalId:  customer.LocalId,
			CustomerServerId: customer.ServerId,
			InvoiceDate:      utils.FromEpochMillis(rec.InvoiceDate),
			DueDate:          dueDate,
			CurrentStatus:    rec.CurrentStatus,
			Subtotal:         rec.Subtotal,
			DiscountAmount:   rec.DiscountAmount,
			TaxAmount:        rec.TaxAmount,
			Total:            rec.Total,
			Notes:            rec.Notes,
			Details:          items,
		}
		return tx.Create(&invoice).Error
	})
}

func (e *PullEngine) mergeQuotation(ctx context.Context, raw json.RawMessage) (bool, error) {
	var rec remoteDocument
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, errors.New("remote quotation without id")
	}
	if skip, err := e.deletePending(ctx, models.EntityTypeQuotation, rec.ID); skip || err != nil {
		return false, err
	}

	db := config.GetDB()
	var existing models.Quotation
	found, err := findByIds(ctx, rec.ID, rec.LocalId, &existing)
	if err != nil {
		return false, err
	}

	if rec.IsActive != nil && !*rec.IsActive {
		if !found {
			return false, nil
		}
		if existing.SyncStatus == models.SyncStatusPending {
			e.skipConflict(models.EntityTypeQuotation, existing.LocalId)
			return false, nil
		}
		return true, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("quotation_local_id = ?", existing.LocalId).Delete(&models.QuotationItem{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", existing.ID).Delete(&models.Quotation{}).Error
		})
	}

	if found && existing.SyncStatus == models.SyncStatusPending {
		e.skipConflict(models.EntityTypeQuotation, existing.LocalId)
		return e.adoptServerId(ctx, models.EntityTypeQuotation, &existing.Syncable, rec.ID)
	}

	customer, err := e.resolveCustomer(ctx, rec.CustomerLocalId, rec.CustomerId)
	if err != nil {
		return false, err
	}

	localId := existing.LocalId
	if !found {
		localId = rec.LocalId
		if localId == "" {
			localId = utils.NewLocalId()
		}
	}
	items := remoteItemsToQuotationItems(localId, rec.Details)

	var expiryDate *time.Time
	if rec.ExpiryDate != nil {
		t := utils.FromEpochMillis(*rec.ExpiryDate)
		expiryDate = &t
	}

	return true, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if found {
			if err := tx.Where("quotation_local_id = ?", localId).Delete(&models.QuotationItem{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Quotation{}).Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"server_id":          rec.ID,
					"quotation_number":   rec.QuotationNumber,
					"customer_local_id":  customer.LocalId,
					"customer_server_id": customer.ServerId,
					"quotation_date":     utils.FromEpochMillis(rec.QuotationDate),
					"expiry_date":        expiryDate,
					"current_status":     rec.CurrentStatus,
					"subtotal":           rec.Subtotal,
					"discount_amount":    rec.DiscountAmount,
					"tax_amount":         rec.TaxAmount,
					"total":              rec.Total,
					"notes":              rec.Notes,
					"sync_status":        models.SyncStatusSynced,
				}).Error; err != nil {
				return err
			}
			if len(items) == 0 {
				return nil
			}
			return tx.Create(&items).Error
		}

		quotation := models.Quotation{
			Syncable: models.Syncable{
				LocalId:    localId,
				ServerId:   &rec.ID,
				SyncStatus: models.SyncStatusSynced,
			},
			QuotationNumber:  rec.QuotationNumber,
			CustomerLocalId:  customer.LocalId,
			CustomerServerId: customer.ServerId,
			QuotationDate:    utils.FromEpochMillis(rec.QuotationDate),
			ExpiryDate:       expiryDate,
			CurrentStatus:    rec.CurrentStatus,
			Subtotal:         rec.Subtotal,
			DiscountAmount:   rec.DiscountAmount,
			TaxAmount:        rec.TaxAmount,
			Total:            rec.Total,
			Notes:            rec.Notes,
			Details:          items,
		}
		return tx.Create(&quotation).Error
	})
}

type remotePayment struct {
	ID             string          `json:"id"`
	LocalId        string          `json:"local_id"`
	InvoiceLocalId string          `json:"invoice_local_id"`
	InvoiceId      string          `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    int64           `json:"payment_date"`
	PaymentMode    string          `json:"payment_mode"`
	Notes          string          `json:"notes"`
	IsActive       *bool           `json:"is_active"`
}

func (e *PullEngine) mergePayment(ctx context.Context, raw json.RawMessage) (bool, error) {
	var rec remotePayment
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, errors.New("remote payment without id")
	}
	if skip, err := e.deletePending(ctx, models.EntityTypePayment, rec.ID); skip || err != nil {
		return false, err
	}

	db := config.GetDB()
	var existing models.Payment
	found, err := findByIds(ctx, rec.ID, rec.LocalId, &existing)
	if err != nil {
		return false, err
	}

	if rec.IsActive != nil && !*rec.IsActive {
		if !found {
			return false, nil
		}
		if existing.SyncStatus == models.SyncStatusPending {
			e.skipConflict(models.EntityTypePayment, existing.LocalId)
			return false, nil
		}
		return true, db.WithContext(ctx).Where("id = ?", existing.ID).Delete(&models.Payment{}).Error
	}

	if found && existing.SyncStatus == models.SyncStatusPending {
		e.skipConflict(models.EntityTypePayment, existing.LocalId)
		return e.adoptServerId(ctx, models.EntityTypePayment, &existing.Syncable, rec.ID)
	}

	// a payment pulled from another device may reference its invoice by
	// server id alone; keep the raw reference when the invoice has not
	// been pulled yet so the row stays reachable through either key
	invoiceLocalId := rec.InvoiceLocalId
	var invoiceServerId *string
	if rec.InvoiceId != "" {
		invoiceServerId = &rec.InvoiceId
	}
	var invoice models.Invoice
	if invFound, err := findByIds(ctx, rec.InvoiceId, rec.InvoiceLocalId, &invoice); err != nil {
		return false, err
	} else if invFound {
		invoiceLocalId = invoice.LocalId
		invoiceServerId = invoice.ServerId
	}

	if found {
		return true, db.WithContext(ctx).Model(&models.Payment{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"server_id":         rec.ID,
				"invoice_local_id":  invoiceLocalId,
				"invoice_server_id": invoiceServerId,
				"amount":            rec.Amount,
				"payment_date":      utils.FromEpochMillis(rec.PaymentDate),
				"payment_mode":      rec.PaymentMode,
				"notes":             rec.Notes,
				"sync_status":       models.SyncStatusSynced,
			}).Error
	}

	localId := rec.LocalId
	if localId == "" {
		localId = utils.NewLocalId()
	}
	payment := models.Payment{
		Syncable: models.Syncable{
			LocalId:    localId,
			ServerId:   &rec.ID,
			SyncStatus: models.SyncStatusSynced,
		},
		InvoiceLocalId:  invoiceLocalId,
		InvoiceServerId: invoiceServerId,
		Amount:          rec.Amount,
		PaymentDate:     utils.FromEpochMillis(rec.PaymentDate),
		PaymentMode:     rec.PaymentMode,
		Notes:           rec.Notes,
	}
	return true, db.WithContext(ctx).Create(&payment).Error
}

// deletePending reports whether a local delete intent for this server id
// is still queued. The remote listing is stale in that case and applying
// it would resurrect the record.
func (e *PullEngine) deletePending(ctx context.Context, entityType models.EntityType, serverId string) (bool, error) {
	pending, err := models.HasPendingDelete(ctx, entityType, serverId)
	if err != nil {
		return false, err
	}
	if pending {
		e.logger.WithFields(logrus.Fields{
			"module":     "sync",
			"entityType": entityType,
			"serverId":   serverId,
		}).Debug("pull skipped, local delete queued")
	}
	return pending, nil
}

// adoptServerId attaches the server id to a pending local row whose fields
// are otherwise left alone. The next push can then address the record.
func (e *PullEngine) adoptServerId(ctx context.Context, entityType models.EntityType, s *models.Syncable, serverId string) (bool, error) {
	if s.ServerId != nil && *s.ServerId != "" {
		return false, nil
	}
	return false, models.AttachServerId(ctx, entityType, s.LocalId, serverId)
}

func remoteItemsToInvoiceItems(invoiceLocalId string, recs []remoteLineItem) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(recs))
	for _, r := range recs {
		localId := r.LocalId
		if localId == "" {
			localId = utils.NewLocalId()
		}
		items = append(items, models.InvoiceItem{
			LocalId:        localId,
			InvoiceLocalId: invoiceLocalId,
			Name:           r.Name,
			Qty:            r.Qty,
			UnitRate:       r.UnitRate,
			Discount:       r.Discount,
			Tax:            r.Tax,
			Amount:         r.Amount,
		})
	}
	return items
}

func remoteItemsToQuotationItems(quotationLocalId string, recs []remoteLineItem) []models.QuotationItem {
	items := make([]models.QuotationItem, 0, len(recs))
	for _, r := range recs {
		localId := r.LocalId
		if localId == "" {
			localId = utils.NewLocalId()
		}
		items = append(items, models.QuotationItem{
			LocalId:          localId,
			QuotationLocalId: quotationLocalId,
			Name:             r.Name,
			Qty:              r.Qty,
			UnitRate:         r.UnitRate,
			Discount:         r.Discount,
			Tax:              r.Tax,
			Amount:           r.Amount,
		})
	}
	return items
}
