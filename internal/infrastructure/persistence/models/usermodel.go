package models

import (
	"time"
)

// UserModel represents the local accounts the broker provisions and merges into.
type UserModel struct {
	ID           uint64 `gorm:"primarykey"`
	Username     string `gorm:"uniqueIndex:uk_users_username;not null;size:60"`
	Email        string `gorm:"index:idx_users_email;size:254"`
	DisplayName  string `gorm:"size:255"`
	AvatarURL    string `gorm:"size:1024"`
	PasswordHash string `gorm:"size:255"`
	Status       string `gorm:"not null;default:active;size:20"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
