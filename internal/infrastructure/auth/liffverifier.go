package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type LiffErrorKind string

const (
	LiffErrorVerification LiffErrorKind = "verification"
	LiffErrorExpired      LiffErrorKind = "expired"
	LiffErrorProfile      LiffErrorKind = "profile"
)

// LiffError is returned when a LIFF access token cannot be trusted.
type LiffError struct {
	*apperrors.AppError
	Kind  LiffErrorKind
	Cause error
}

func newLiffError(kind LiffErrorKind, cause error) *LiffError {
	var app *apperrors.AppError
	switch kind {
	case LiffErrorProfile:
		app = apperrors.NewProviderCommunicationError("failed to fetch LINE profile")
	case LiffErrorExpired:
		app = apperrors.NewUnauthorizedError("LIFF access token has expired")
	default:
		app = apperrors.NewUnauthorizedError("LIFF access token could not be verified")
	}
	return &LiffError{AppError: app, Kind: kind, Cause: cause}
}

func (e *LiffError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("liff %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("liff %s failed", e.Kind)
}

func (e *LiffError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.AppError, e.Cause}
	}
	return []error{e.AppError}
}

// LiffIdentity is a profile obtained from a verified LIFF access token.
type LiffIdentity struct {
	Profile identity.ExternalProfile
	Tokens  identity.ProviderTokens
}

type verifyResponse struct {
	Scope     string `json:"scope"`
	ClientID  string `json:"client_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// LiffVerifier establishes trust in an access token obtained client-side by
// the LIFF SDK before any identity is resolved from it.
type LiffVerifier struct {
	channelID     string
	channelSecret string
	apiBaseURL    string
	httpClient    *http.Client
	logger        logger.Interface
	now           func() time.Time
}

func NewLiffVerifier(channelID, channelSecret, apiBaseURL string, httpClient *http.Client, logger logger.Interface) *LiffVerifier {
	if httpClient == nil {
		httpClient = newProviderHTTPClient()
	}
	return &LiffVerifier{
		channelID:     channelID,
		channelSecret: channelSecret,
		apiBaseURL:    strings.TrimRight(apiBaseURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
		now:           time.Now,
	}
}

// VerifyAndFetchProfile checks the access token with the provider, then reads
// the profile. An optional ID token from liff.getIDToken() contributes the
// email when it verifies and names the same user.
func (v *LiffVerifier) VerifyAndFetchProfile(ctx context.Context, accessToken, idToken string) (*LiffIdentity, error) {
	if accessToken == "" {
		return nil, newLiffError(LiffErrorVerification, fmt.Errorf("access token is empty"))
	}

	var verified verifyResponse
	verifyURL := v.apiBaseURL + "/oauth2/v2.1/verify?access_token=" + url.QueryEscape(accessToken)
	if err := getProviderJSON(ctx, v.httpClient, "verify", verifyURL, "", &verified); err != nil {
		return nil, newLiffError(LiffErrorVerification, err)
	}
	if verified.ExpiresIn <= 0 {
		return nil, newLiffError(LiffErrorExpired, nil)
	}
	if verified.ClientID != v.channelID {
		v.logger.Warnw("LIFF token issued for a different channel",
			"token_client_id", verified.ClientID,
			"login_channel_id", v.channelID,
		)
	}

	var resp lineProfileResponse
	if err := getProviderJSON(ctx, v.httpClient, "profile", v.apiBaseURL+"/v2/profile", accessToken, &resp); err != nil {
		return nil, newLiffError(LiffErrorProfile, err)
	}
	if resp.UserID == "" {
		return nil, newLiffError(LiffErrorProfile, fmt.Errorf("response has no userId"))
	}

	result := &LiffIdentity{
		Profile: identity.ExternalProfile{
			UID:         resp.UserID,
			DisplayName: resp.DisplayName,
			AvatarURL:   resp.PictureURL,
		},
		Tokens: identity.ProviderTokens{
			AccessToken: accessToken,
			IDToken:     idToken,
			Scope:       verified.Scope,
			ExpiresAt:   v.now().Add(time.Duration(verified.ExpiresIn) * time.Second).UTC(),
		},
	}

	if idToken != "" {
		claims := verifyIDToken(idToken, v.channelID, v.channelSecret, "", v.now)
		if SubjectFromClaims(claims) == resp.UserID {
			if email, ok := EmailFromClaims(claims); ok {
				result.Profile.Email = email
				result.Profile.EmailVerified = true
			}
		} else {
			v.logger.Warnw("LIFF ID token rejected", "uid", resp.UserID)
		}
	}

	return result, nil
}
