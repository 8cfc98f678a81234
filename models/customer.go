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

type Customer struct {
	ID int `gorm:"primary_key" json:"-"`
	Syncable
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email       string          `gorm:"size:100" json:"email"`
	Phone       string          `gorm:"size:20" json:"phone"`
	Mobile      string          `gorm:"size:20" json:"mobile"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
}

type NewCustomer struct {
	Name        string          `json:"name" binding:"required"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Mobile      string          `json:"mobile"`
	Notes       string          `json:"notes"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// CustomerPatch carries a partial update; nil fields are left untouched so
// two near-simultaneous local writers do not stomp unrelated fields.
type CustomerPatch struct {
	Name        *string          `json:"name"`
	Email       *string          `json:"email"`
	Phone       *string          `json:"phone"`
	Mobile      *string          `json:"mobile"`
	Notes       *string          `json:"notes"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}

func (input *NewCustomer) validate(ctx context.Context, localId string) error {
	// validate unique name
	if err := validateUniqueField[Customer]("name", input.Name, localId); err != nil {
		return err
	}
	// validate email
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	customer := Customer{
		Syncable: Syncable{
			LocalId:    utils.NewLocalId(),
			SyncStatus: SyncStatusPending,
		},
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Mobile:      input.Mobile,
		Notes:       input.Notes,
		CreditLimit: input.CreditLimit,
		IsActive:    utils.NewTrue(),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypeCustomer, customer.LocalId, SyncOperationCreate, customer.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, localId string, patch *CustomerPatch) (*Customer, error) {
	db := config.GetDB()

	customer, err := GetCustomer(ctx, localId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if err := validateUniqueField[Customer]("name", *patch.Name, localId); err != nil {
			return nil, err
		}
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		if *patch.Email != "" && !utils.IsValidEmail(*patch.Email) {
			return nil, errors.New("invalid email")
		}
		updates["email"] = *patch.Email
	}
	if patch.Phone != nil {
		if *patch.Phone != "" {
			if err := utils.ValidatePhoneNumber(*patch.Phone, utils.CountryCode); err != nil {
				return nil, errors.New("invalid phone number")
			}
		}
		updates["phone"] = *patch.Phone
	}
	if patch.Mobile != nil {
		updates["mobile"] = *patch.Mobile
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if patch.CreditLimit != nil {
		updates["credit_limit"] = *patch.CreditLimit
	}
	if len(updates) == 0 {
		return customer, nil
	}
	updates["sync_status"] = SyncStatusPending
	updates["updated_at"] = time.Now()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Customer{}).Where("local_id = ?", localId).Updates(updates).Error; err != nil {
			return err
		}
		var fresh Customer
		if err := tx.Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		customer = &fresh
		return EnqueueSyncItem(tx, EntityTypeCustomer, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer soft-deletes: the row stays, flagged inactive, so the
// deletion itself can sync and be reversed.
func DeleteCustomer(ctx context.Context, localId string) (*Customer, error) {
	db := config.GetDB()

	customer, err := GetCustomer(ctx, localId)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Customer{}).Where("local_id = ?", localId).
			Updates(map[string]interface{}{
				"is_active":   false,
				"sync_status": SyncStatusPending,
			}).Error; err != nil {
			return err
		}
		customer.IsActive = utils.NewFalse()
		customer.SyncStatus = SyncStatusPending
		return EnqueueSyncDelete(tx, EntityTypeCustomer, localId, customer.ServerId, customer.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, localId string) (*Customer, error) {
	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).Where("local_id = ?", localId).Take(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func ListCustomers(ctx context.Context, includeInactive bool) ([]Customer, error) {
	db := config.GetDB()
	var customers []Customer
	q := db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&customers).Error
	return customers, err
}

// RemotePayload builds the wire document sent to the remote collection.
// local_id doubles as the idempotency key so a resent create collapses
// server-side instead of duplicating.
func (c *Customer) RemotePayload() map[string]any {
	payload := map[string]any{
		"local_id":     c.LocalId,
		"name":         c.Name,
		"email":        c.Email,
		"phone":        c.Phone,
		"mobile":       c.Mobile,
		"notes":        c.Notes,
		"credit_limit": c.CreditLimit,
		"is_active":    c.IsActive == nil || *c.IsActive,
		"updated_at":   utils.EpochMillis(c.UpdatedAt),
	}
	if c.ServerId != nil {
		payload["id"] = *c.ServerId
	}
	return payload
}
