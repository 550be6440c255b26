package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Provider is the only identity provider the broker speaks to.
const Provider = "line"

// LoginMethod records which entry point produced a profile.
type LoginMethod string

const (
	MethodOAuth LoginMethod = "oauth"
	MethodLiff  LoginMethod = "liff"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExternalProfile is the verified identity returned by the provider.
type ExternalProfile struct {
	UID           string `json:"uid" validate:"required,max=64"`
	DisplayName   string `json:"display_name" validate:"max=255"`
	AvatarURL     string `json:"avatar_url" validate:"omitempty,url,max=1024"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	EmailVerified bool   `json:"email_verified"`
}

// Validate checks the fields the resolver depends on.
func (p *ExternalProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid external profile: %w", err)
	}
	return nil
}

// NormalizedEmail returns the email lowercased and trimmed, "" when absent.
func (p *ExternalProfile) NormalizedEmail() string {
	return NormalizeEmail(p.Email)
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether email is syntactically acceptable.
func ValidateEmail(email string) error {
	return validate.Var(email, "required,email,max=254")
}

// ProviderTokens is the token snapshot stored alongside a binding.
type ProviderTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}
