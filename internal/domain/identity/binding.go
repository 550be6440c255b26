package identity

import (
	"fmt"
	"time"
)

type BindingStatus string

const (
	BindingStatusActive  BindingStatus = "active"
	BindingStatusDeleted BindingStatus = "deleted"
)

// Binding links one LINE user to one local account.
type Binding struct {
	ID            uint64
	LocalUserID   uint64
	ExternalUID   string
	DisplayName   string
	AvatarURL     string
	Email         string
	EmailVerified bool
	IsFriend      bool
	Status        BindingStatus
	Tokens        ProviderTokens
	LinkedAt      time.Time
	UpdatedAt     time.Time
}

func NewBinding(localUserID uint64, profile ExternalProfile, tokens ProviderTokens) (*Binding, error) {
	if localUserID == 0 {
		return nil, fmt.Errorf("local user ID is required")
	}
	if profile.UID == "" {
		return nil, fmt.Errorf("external UID is required")
	}

	now := time.Now().UTC()
	b := &Binding{
		LocalUserID: localUserID,
		ExternalUID: profile.UID,
		Status:      BindingStatusActive,
		LinkedAt:    now,
	}
	b.ApplyProfile(profile, tokens)
	return b, nil
}

// ApplyProfile overwrites the profile snapshot. Empty provider fields do not
// erase what is already known.
func (b *Binding) ApplyProfile(profile ExternalProfile, tokens ProviderTokens) {
	if profile.DisplayName != "" {
		b.DisplayName = profile.DisplayName
	}
	if profile.AvatarURL != "" {
		b.AvatarURL = profile.AvatarURL
	}
	if profile.Email != "" {
		b.Email = profile.NormalizedEmail()
		b.EmailVerified = profile.EmailVerified
	}
	if tokens.AccessToken != "" {
		b.Tokens = tokens
	}
	b.UpdatedAt = time.Now().UTC()
}

// SetFriendship records the official-account friendship flag when known.
func (b *Binding) SetFriendship(isFriend *bool) {
	if isFriend != nil {
		b.IsFriend = *isFriend
	}
}

func (b *Binding) IsActive() bool {
	return b.Status == BindingStatusActive
}

// BelongsTo reports whether the binding is active for localUserID.
func (b *Binding) BelongsTo(localUserID uint64) bool {
	return b.IsActive() && b.LocalUserID == localUserID
}
