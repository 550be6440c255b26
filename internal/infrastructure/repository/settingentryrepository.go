package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const settingGroupKeyWhere = "setting_group = ? AND setting_key = ?"

// SettingEntryRepository implements setting.EntryRepository on GORM.
type SettingEntryRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSettingEntryRepository(db *gorm.DB, logger logger.Interface) *SettingEntryRepository {
	return &SettingEntryRepository{db: db, logger: logger}
}

func (r *SettingEntryRepository) Find(ctx context.Context, group, key string) (*setting.Entry, error) {
	var model models.SettingEntryModel
	err := r.db.WithContext(ctx).Where(settingGroupKeyWhere, group, key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find setting %s.%s: %w", group, key, err)
	}
	return mappers.SettingEntryToDomain(&model), nil
}

func (r *SettingEntryRepository) ListGroup(ctx context.Context, group string) ([]*setting.Entry, error) {
	var list []*models.SettingEntryModel
	err := r.db.WithContext(ctx).
		Where("setting_group = ?", group).
		Order("setting_key ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settings in %s: %w", group, err)
	}
	return mappers.SettingEntriesToDomain(list), nil
}

// Save inserts or overwrites the row for the entry's group and key. Two
// writers racing on a new key both land on the same row.
func (r *SettingEntryRepository) Save(ctx context.Context, entry *setting.Entry) error {
	model := mappers.SettingEntryToModel(entry)
	model.ID = 0

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_group"}, {Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "revision", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save setting", "setting", entry.Path(), "error", err)
		return fmt.Errorf("failed to save setting %s: %w", entry.Path(), err)
	}

	entry.AssignID(model.ID)
	return nil
}

func (r *SettingEntryRepository) Remove(ctx context.Context, group, key string) error {
	result := r.db.WithContext(ctx).Where(settingGroupKeyWhere, group, key).Delete(&models.SettingEntryModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove setting %s.%s: %w", group, key, result.Error)
	}
	if result.RowsAffected == 0 {
		return setting.ErrEntryNotFound
	}
	r.logger.Infow("setting override removed", "group", group, "key", key)
	return nil
}
