package models

import (
	"fmt"

	"github.com/mmdatafocus/books_offline/config"
)

// validateUniqueField enforces uniqueness of a column within an entity
// collection, excluding the record being edited.
func validateUniqueField[T any](field string, value string, excludeLocalId string) error {
	if value == "" {
		return nil
	}
	db := config.GetDB()
	var count int64
	q := db.Model(new(T)).Where(field+" = ?", value)
	if excludeLocalId != "" {
		q = q.Where("local_id <> ?", excludeLocalId)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s already exists", field)
	}
	return nil
}
