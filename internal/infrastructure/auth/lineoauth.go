package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
)

const (
	LineIssuer = "https://access.line.me"

	authRequestKeyPrefix = "authreq:"
)

var lineScopes = []string{"profile", "openid", "email"}

// BotPrompt values accepted by the authorization endpoint.
const (
	BotPromptNormal     = "normal"
	BotPromptAggressive = "aggressive"
)

// LineOAuthConfig configures a LineOAuthClient.
type LineOAuthConfig struct {
	ChannelID     string
	ChannelSecret string
	RedirectURL   string
	BotPrompt     string
	Endpoints     sharedConfig.LineEndpoints
	HTTPClient    *http.Client
}

// AuthorizeOptions tunes the authorization URL.
type AuthorizeOptions struct {
	// ForceConsent re-displays the consent screen (re-authorization).
	ForceConsent bool
	// QRFirst opens the QR-code login method first.
	QRFirst bool
}

// ExchangeResult is the outcome of a successful code exchange.
type ExchangeResult struct {
	Tokens identity.ProviderTokens
	// Nonce is the value sent with the authorization request, for ID token checks.
	Nonce string
}

type authRequest struct {
	CodeVerifier string `json:"code_verifier"`
	Nonce        string `json:"nonce"`
}

// StateIssuer creates the state parameter for an owner key.
type StateIssuer interface {
	Generate(ctx context.Context, ownerKey string) (string, error)
}

// LineOAuthClient talks to LINE Login v2.1.
type LineOAuthClient struct {
	config        *oauth2.Config
	channelID     string
	channelSecret string
	apiBaseURL    string
	botPrompt     string
	httpClient    *http.Client
	states        StateIssuer
	store         cache.TokenStore
	tokens        token.TokenGenerator
}

func NewLineOAuthClient(cfg LineOAuthConfig, states StateIssuer, store cache.TokenStore, tokens token.TokenGenerator) *LineOAuthClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newProviderHTTPClient()
	}
	return &LineOAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ChannelID,
			ClientSecret: cfg.ChannelSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       lineScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.Endpoints.AuthURL,
				TokenURL:  cfg.Endpoints.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		channelID:     cfg.ChannelID,
		channelSecret: cfg.ChannelSecret,
		apiBaseURL:    strings.TrimRight(cfg.Endpoints.APIBaseURL, "/"),
		botPrompt:     cfg.BotPrompt,
		httpClient:    httpClient,
		states:        states,
		store:         store,
		tokens:        tokens,
	}
}

func (c *LineOAuthClient) ChannelID() string { return c.channelID }

// BuildAuthorizationURL issues a fresh state for ownerKey and returns the
// provider URL. The PKCE verifier and nonce are kept server-side for the
// matching callback.
func (c *LineOAuthClient) BuildAuthorizationURL(ctx context.Context, ownerKey string, opts AuthorizeOptions) (string, error) {
	state, err := c.states.Generate(ctx, ownerKey)
	if err != nil {
		return "", err
	}

	pkce, err := newPKCEPair(c.tokens)
	if err != nil {
		return "", err
	}
	nonce, err := c.tokens.Random(token.NonceBytes)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(authRequest{CodeVerifier: pkce.verifier, Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}
	if err := c.store.Put(ctx, authRequestKeyPrefix+ownerKey, string(data), cache.StateTokenTTL); err != nil {
		return "", fmt.Errorf("failed to store auth request: %w", err)
	}

	params := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("code_challenge", pkce.challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkceMethod),
		oauth2.SetAuthURLParam("disable_auto_login", "true"),
	}
	if opts.ForceConsent {
		params = append(params, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	if opts.QRFirst {
		params = append(params, oauth2.SetAuthURLParam("initial_amr_display", "lineqr"))
	}
	if c.botPrompt == BotPromptNormal || c.botPrompt == BotPromptAggressive {
		params = append(params, oauth2.SetAuthURLParam("bot_prompt", c.botPrompt))
	}

	return c.config.AuthCodeURL(state, params...), nil
}

// ExchangeCode trades an authorization code for tokens. The caller must have
// validated the state for ownerKey first.
func (c *LineOAuthClient) ExchangeCode(ctx context.Context, ownerKey, code string) (*ExchangeResult, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("authorization code is missing")
	}

	raw, err := c.store.GetAndDelete(ctx, authRequestKeyPrefix+ownerKey)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, apperrors.NewCsrfError("authorization request expired")
		}
		return nil, fmt.Errorf("failed to load auth request: %w", err)
	}
	var req authRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth request: %w", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.config.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			desc := retrieveErr.ErrorDescription
			if desc == "" {
				desc = retrieveErr.ErrorCode
			}
			return nil, apperrors.NewProviderError("exchange", status, desc, nil)
		}
		return nil, apperrors.NewProviderError("exchange", 0, "", err)
	}

	result := &ExchangeResult{
		Tokens: identity.ProviderTokens{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry.UTC(),
		},
		Nonce: req.Nonce,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		result.Tokens.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		result.Tokens.Scope = scope
	}
	return result, nil
}

// VerifyIDToken checks the ID token signature, issuer, audience and nonce.
// Any failure yields an empty claim set.
func (c *LineOAuthClient) VerifyIDToken(idToken, expectedNonce string) map[string]any {
	return verifyIDToken(idToken, c.channelID, c.channelSecret, expectedNonce, time.Now)
}

type lineProfileResponse struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

// FetchProfile reads the LINE profile for accessToken.
func (c *LineOAuthClient) FetchProfile(ctx context.Context, accessToken string) (*identity.ExternalProfile, error) {
	var resp lineProfileResponse
	if err := c.getJSON(ctx, "profile", "/v2/profile", accessToken, &resp); err != nil {
		return nil, err
	}
	if resp.UserID == "" {
		return nil, apperrors.NewProviderError("profile", http.StatusOK, "response has no userId", nil)
	}
	return &identity.ExternalProfile{
		UID:         resp.UserID,
		DisplayName: resp.DisplayName,
		AvatarURL:   resp.PictureURL,
	}, nil
}

// FetchFriendship reports whether the user has added the linked official account.
func (c *LineOAuthClient) FetchFriendship(ctx context.Context, accessToken string) (bool, error) {
	var resp struct {
		FriendFlag bool `json:"friendFlag"`
	}
	if err := c.getJSON(ctx, "friendship", "/friendship/v1/status", accessToken, &resp); err != nil {
		return false, err
	}
	return resp.FriendFlag, nil
}

func (c *LineOAuthClient) getJSON(ctx context.Context, stage, path, accessToken string, out any) error {
	return getProviderJSON(ctx, c.httpClient, stage, c.apiBaseURL+path, accessToken, out)
}

func getProviderJSON(ctx context.Context, client *http.Client, stage, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.NewProviderError(stage, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NewProviderError(stage, resp.StatusCode, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewProviderError(stage, resp.StatusCode, providerErrorDescription(body), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewProviderError(stage, resp.StatusCode, "malformed response", err)
	}
	return nil
}

func providerErrorDescription(body []byte) string {
	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}
