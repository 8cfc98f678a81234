package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/utils"
	"gorm.io/gorm"
)

type Supplier struct {
	ID int `gorm:"primary_key" json:"-"`
	Syncable
	Name     string `gorm:"size:100;not null" json:"name" binding:"required"`
	Email    string `gorm:"size:100" json:"email"`
	Phone    string `gorm:"size:20" json:"phone"`
	Mobile   string `gorm:"size:20" json:"mobile"`
	Notes    string `gorm:"type:text" json:"notes"`
	IsActive *bool  `gorm:"not null;default:true" json:"is_active"`
}

type NewSupplier struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Mobile string `json:"mobile"`
	Notes  string `json:"notes"`
}

type SupplierPatch struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Mobile *string `json:"mobile"`
	Notes  *string `json:"notes"`
}

func (input *NewSupplier) validate(ctx context.Context, localId string) error {
	if err := validateUniqueField[Supplier]("name", input.Name, localId); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	db := config.GetDB()

	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Syncable: Syncable{
			LocalId:    utils.NewLocalId(),
			SyncStatus: SyncStatusPending,
		},
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Mobile:   input.Mobile,
		Notes:    input.Notes,
		IsActive: utils.NewTrue(),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&supplier).Error; err != nil {
			return err
		}
		return EnqueueSyncItem(tx, EntityTypeSupplier, supplier.LocalId, SyncOperationCreate, supplier.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, localId string, patch *SupplierPatch) (*Supplier, error) {
	db := config.GetDB()

	supplier, err := GetSupplier(ctx, localId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if err := validateUniqueField[Supplier]("name", *patch.Name, localId); err != nil {
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
	if len(updates) == 0 {
		return supplier, nil
	}
	updates["sync_status"] = SyncStatusPending
	updates["updated_at"] = time.Now()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Supplier{}).Where("local_id = ?", localId).Updates(updates).Error; err != nil {
			return err
		}
		var fresh Supplier
		if err := tx.Where("local_id = ?", localId).Take(&fresh).Error; err != nil {
			return err
		}
		supplier = &fresh
		return EnqueueSyncItem(tx, EntityTypeSupplier, localId, SyncOperationUpdate, fresh.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, localId string) (*Supplier, error) {
	db := config.GetDB()

	supplier, err := GetSupplier(ctx, localId)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Supplier{}).Where("local_id = ?", localId).
			Updates(map[string]interface{}{
				"is_active":   false,
				"sync_status": SyncStatusPending,
			}).Error; err != nil {
			return err
		}
		supplier.IsActive = utils.NewFalse()
		supplier.SyncStatus = SyncStatusPending
		return EnqueueSyncDelete(tx, EntityTypeSupplier, localId, supplier.ServerId, supplier.RemotePayload())
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, localId string) (*Supplier, error) {
	db := config.GetDB()
	var supplier Supplier
	if err := db.WithContext(ctx).Where("local_id = ?", localId).Take(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func ListSuppliers(ctx context.Context, includeInactive bool) ([]Supplier, error) {
	db := config.GetDB()
	var suppliers []Supplier
	q := db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&suppliers).Error
	return suppliers, err
}

func (s *Supplier) RemotePayload() map[string]any {
	payload := map[string]any{
		"local_id":   s.LocalId,
		"name":       s.Name,
		"email":      s.Email,
		"phone":      s.Phone,
		"mobile":     s.Mobile,
		"notes":      s.Notes,
		"is_active":  s.IsActive == nil || *s.IsActive,
		"updated_at": utils.EpochMillis(s.UpdatedAt),
	}
	if s.ServerId != nil {
		payload["id"] = *s.ServerId
	}
	return payload
}
