package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/controller/setting"
)

// SettingKeyDocument is the settings row holding the configuration document.
const SettingKeyDocument = "fmg_config"

// DBStore keeps the document in the settings table. The row version is the etag.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database store.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Load implements Store.
func (s *DBStore) Load(ctx context.Context) ([]byte, string, error) {
	row, err := setting.Get(s.db.WithContext(ctx), SettingKeyDocument)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil, "", nil
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration document: %w", err)
	}

	return row.Value, strconv.FormatUint(row.Version, 10), nil
}

// Save implements Store.
func (s *DBStore) Save(ctx context.Context, raw []byte, expectedETag string) (string, error) {
	var expected uint64

	if expectedETag != "" {
		v, err := strconv.ParseUint(expectedETag, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: malformed etag %q", ErrConflict, expectedETag)
		}

		expected = v
	}

	row, err := setting.CompareAndSet(s.db.WithContext(ctx), SettingKeyDocument, raw, expected)

	switch {
	case errors.Is(err, setting.ErrVersionMismatch), errors.Is(err, setting.ErrSettingNotFound):
		return "", fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return strconv.FormatUint(row.Version, 10), nil
}
