package models

import "time"

// NextendSocialUserModel mirrors the social_users table written by the
// Nextend Social Login plugin. The table name is configurable, so queries
// select it with db.Table.
type NextendSocialUserModel struct {
	SocialUsersID uint64     `gorm:"column:social_users_id;primarykey"`
	UserID        uint64     `gorm:"column:ID;not null;index"`
	Type          string     `gorm:"column:type;size:20;not null"`
	Identifier    string     `gorm:"column:identifier;size:100;not null;index"`
	RegisterDate  *time.Time `gorm:"column:register_date"`
	LoginDate     *time.Time `gorm:"column:login_date"`
}
