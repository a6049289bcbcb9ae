package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Find(key string) (*domain.AppSetting, error) {
	var setting domain.AppSetting
	if err := r.db.Where(&domain.AppSetting{Key: key}).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// Get decodes the JSON value stored under key into dest. found is false when the key is absent.
func (r *SettingRepository) Get(key string, dest interface{}) (found bool, err error) {
	setting, err := r.Find(key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if len(setting.Value) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(setting.Value, dest)
}

// Put upserts the JSON encoding of value under key.
func (r *SettingRepository) Put(key string, value interface{}, updatedBy *uuid.UUID) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	setting := domain.AppSetting{
		Key:       key,
		Value:     datatypes.JSON(raw),
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&setting).Error
}
