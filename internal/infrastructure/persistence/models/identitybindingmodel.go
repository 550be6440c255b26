package models

import (
	"time"

	"gorm.io/datatypes"
)

// IdentityBindingModel is the persistence model for LINE identity bindings.
// Both unique indexes hold because unlinking deletes the row.
type IdentityBindingModel struct {
	ID            uint64         `gorm:"primarykey"`
	LocalUserID   uint64         `gorm:"column:local_user_id;not null;uniqueIndex:uk_binding_local_user"`
	Provider      string         `gorm:"not null;size:20;default:line"`
	ExternalUID   string         `gorm:"column:external_uid;not null;size:64;uniqueIndex:uk_binding_external_uid"`
	DisplayName   string         `gorm:"size:255"`
	AvatarURL     string         `gorm:"column:avatar_url;size:1024"`
	Email         string         `gorm:"size:254;index:idx_binding_email"`
	EmailVerified bool           `gorm:"not null;default:false"`
	IsFriend      bool           `gorm:"not null;default:false"`
	Status        string         `gorm:"not null;size:20;default:active"`
	Tokens        datatypes.JSON `gorm:"type:json"`
	LinkedAt      time.Time      `gorm:"not null"`
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (IdentityBindingModel) TableName() string {
	return "line_identity_bindings"
}
