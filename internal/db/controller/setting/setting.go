// Package setting provides versioned access to configuration blobs stored in the database.
package setting

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrSettingAlreadyExists is returned when attempting to create a setting that already exists.
	ErrSettingAlreadyExists = errors.New("setting already exists")
	// ErrVersionMismatch is returned when a setting was changed since it was read.
	ErrVersionMismatch = errors.New("setting version mismatch")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// Create creates a new setting with version 1.
func Create(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	// Check if setting already exists
	var existing models.Setting

	result := db.Where(nameQueryPattern, name).First(&existing)
	if result.Error == nil {
		return nil, ErrSettingAlreadyExists
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	setting := &models.Setting{
		Name:    name,
		Value:   value,
		Version: 1,
	}

	if result = db.Create(setting); result.Error != nil {
		return nil, result.Error
	}

	return setting, nil
}

// CompareAndSet writes value if the stored version still equals expected.
// An expected version of 0 means the setting must not exist yet.
// It returns the stored setting with its new version.
func CompareAndSet(db *gorm.DB, name string, value []byte, expected uint64) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	if expected == 0 {
		setting, err := Create(db, name, value)
		if errors.Is(err, ErrSettingAlreadyExists) {
			return nil, fmt.Errorf("%w: %s was created concurrently", ErrVersionMismatch, name)
		}

		return setting, err
	}

	result := db.Model(&models.Setting{}).
		Where("name = ? AND version = ?", name, expected).
		Updates(map[string]any{
			"value":   value,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := Get(db, name); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %s is no longer at version %d", ErrVersionMismatch, name, expected)
	}

	return Get(db, name)
}
