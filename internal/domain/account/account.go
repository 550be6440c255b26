package account

import "time"

// Account is the subset of a local user the broker needs to read.
type Account struct {
	ID          uint64
	Username    string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// NewAccount describes an account to provision for a first-time LINE login.
type NewAccount struct {
	Username    string
	Email       string
	DisplayName string
	AvatarURL   string
}
