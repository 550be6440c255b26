package identity

import "time"

// PendingRegistrationTTL bounds how long the email form stays usable.
const PendingRegistrationTTL = 600 * time.Second

// PendingRegistration parks a verified profile that arrived without an email
// until the visitor supplies one. It is consumable exactly once.
type PendingRegistration struct {
	TempKey     string          `json:"temp_key"`
	Nonce       string          `json:"nonce"`
	Profile     ExternalProfile `json:"profile"`
	Tokens      ProviderTokens  `json:"tokens"`
	IsFriend    *bool           `json:"is_friend,omitempty"`
	RedirectURL string          `json:"redirect_url"`
	Method      LoginMethod     `json:"method"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *PendingRegistration) ExpiresAt() time.Time {
	return p.CreatedAt.Add(PendingRegistrationTTL)
}
