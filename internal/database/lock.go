package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate makes the query's SELECT take row locks until the transaction
// ends. SQLite drops the clause; its single connection already serializes
// writers.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockIDs locks the rows of model with the given ids in ascending id order.
func LockIDs(tx *gorm.DB, model any, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []uint
	return ForUpdate(tx.Model(model)).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &locked).Error
}
