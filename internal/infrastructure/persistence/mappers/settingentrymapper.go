package mappers

import (
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
)

// SettingEntryToDomain is nil-safe so a missed lookup maps straight through.
func SettingEntryToDomain(model *models.SettingEntryModel) *setting.Entry {
	if model == nil {
		return nil
	}
	return setting.RestoreEntry(
		model.ID,
		model.Group,
		model.SettingKey,
		model.Value,
		model.Revision,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func SettingEntryToModel(entry *setting.Entry) *models.SettingEntryModel {
	return &models.SettingEntryModel{
		ID:         entry.ID(),
		Group:      entry.Group(),
		SettingKey: entry.Key(),
		Value:      entry.Value(),
		Revision:   entry.Revision(),
		CreatedAt:  entry.CreatedAt(),
		UpdatedAt:  entry.UpdatedAt(),
	}
}

func SettingEntriesToDomain(list []*models.SettingEntryModel) []*setting.Entry {
	entries := make([]*setting.Entry, 0, len(list))
	for _, m := range list {
		entries = append(entries, SettingEntryToDomain(m))
	}
	return entries
}
