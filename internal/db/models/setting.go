// Package models contains database model definitions.
package models

import "time"

// Setting represents a configuration blob stored in the database.
// Version is incremented on every write and guards concurrent updates.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"unique"`
	Value     []byte `gorm:"type:blob"`
	Version   uint64 `gorm:"not null;default:1"`
	UpdatedAt time.Time
}
