package models

import "time"

// SettingEntryModel stores operator overrides for the static configuration.
type SettingEntryModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Group      string    `gorm:"column:setting_group;type:varchar(64);not null;uniqueIndex:uk_setting_group_key"`
	SettingKey string    `gorm:"column:setting_key;type:varchar(64);not null;uniqueIndex:uk_setting_group_key"`
	Value      string    `gorm:"column:value;type:text"`
	Revision   int       `gorm:"column:revision;not null;default:1"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SettingEntryModel) TableName() string {
	return "broker_settings"
}
