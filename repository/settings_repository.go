package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/purple-archive/archiveclient/models"
)

// SettingsRepository handles durable key/value state. Key names are owned by
// the packages whose state they persist (listing, session).
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored value for key. ok is false when the key has never
// been written (or was deleted).
func (r *SettingsRepository) Get(key string) (value string, ok bool, err error) {
	var setting models.Setting
	err = r.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set writes the value for key, replacing any previous value. Writing an
// empty string is meaningful: it records an explicit clear.
func (r *SettingsRepository) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().Unix()}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes the key entirely, distinct from setting it to "".
func (r *SettingsRepository) Delete(key string) error {
	err := r.db.Delete(&models.Setting{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
