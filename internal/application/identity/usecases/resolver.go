package usecases

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type Outcome string

const (
	OutcomeLinked        Outcome = "linked"
	OutcomeLoggedIn      Outcome = "logged_in"
	OutcomeAwaitingEmail Outcome = "awaiting_email"
)

// maxProvisionAttempts bounds retries when a derived username is taken
// between the availability check and the insert.
const maxProvisionAttempts = 3

// PendingStore parks profiles that arrived without an email.
type PendingStore interface {
	Create(ctx context.Context, pending *identity.PendingRegistration) error
	Peek(ctx context.Context, tempKey string) (*identity.PendingRegistration, error)
	Consume(ctx context.Context, tempKey string) (*identity.PendingRegistration, error)
}

// TransferIssuer hands a finished login to the next browser request.
type TransferIssuer interface {
	Issue(ctx context.Context, localUserID uint64, redirectURL string) (string, error)
}

// TextSanitizer strips markup from provider-supplied text.
type TextSanitizer interface {
	PlainText(s string) string
}

type ResolveCommand struct {
	Caller      identity.CallerContext
	Profile     identity.ExternalProfile
	Tokens      identity.ProviderTokens
	IsFriend    *bool
	RedirectURL string
	Method      identity.LoginMethod
}

// Resolution tells the controller what to do next.
type Resolution struct {
	Outcome     Outcome
	LocalUserID uint64
	Binding     *identity.Binding
	// TempKey and Nonce identify the email form when Outcome is AwaitingEmail.
	TempKey string
	Nonce   string
	// TransferToken is set when Outcome is LoggedIn.
	TransferToken string
	RedirectURL   string
	IsNewAccount  bool
	Merged        bool
}

type ResumeCommand struct {
	TempKey string
	Nonce   string
	Email   string
}

type ResolverConfig struct {
	// MergeRequiresVerifiedEmail refuses to attach a LINE identity to an
	// existing account on the strength of an unverified address.
	MergeRequiresVerifiedEmail bool
	UsernamePrefix             string
}

// IdentityResolver maps a verified LINE profile onto a local account.
type IdentityResolver struct {
	bindings    identity.Repository
	legacy      []identity.LegacySource
	directory   account.Directory
	provisioner account.Provisioner
	pending     PendingStore
	transfers   TransferIssuer
	publisher   events.Publisher
	sanitizer   TextSanitizer
	random      account.RandomSource
	cfg         ResolverConfig
	logger      logger.Interface
}

func NewIdentityResolver(
	bindings identity.Repository,
	legacy []identity.LegacySource,
	directory account.Directory,
	provisioner account.Provisioner,
	pending PendingStore,
	transfers TransferIssuer,
	publisher events.Publisher,
	sanitizer TextSanitizer,
	random account.RandomSource,
	cfg ResolverConfig,
	logger logger.Interface,
) *IdentityResolver {
	return &IdentityResolver{
		bindings:    bindings,
		legacy:      legacy,
		directory:   directory,
		provisioner: provisioner,
		pending:     pending,
		transfers:   transfers,
		publisher:   publisher,
		sanitizer:   sanitizer,
		random:      random,
		cfg:         cfg,
		logger:      logger,
	}
}

func (r *IdentityResolver) Resolve(ctx context.Context, cmd ResolveCommand) (*Resolution, error) {
	if err := cmd.Profile.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid LINE profile", err.Error())
	}

	if cmd.Caller.IsAuthenticated() {
		return r.bind(ctx, *cmd.Caller.AuthenticatedLocalUserID, cmd)
	}

	existing, err := r.bindings.FindByExternalUID(ctx, cmd.Profile.UID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.loggedIn(ctx, cmd, existing, true, false, false)
	}

	if res, err := r.resolveLegacy(ctx, cmd); res != nil || err != nil {
		return res, err
	}

	email := cmd.Profile.NormalizedEmail()
	if email == "" {
		return r.awaitEmail(ctx, cmd)
	}

	acc, err := r.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		return r.merge(ctx, cmd, acc)
	}

	return r.provision(ctx, cmd)
}

// ResumeWithEmail completes a registration parked for lack of an email. The
// registration is consumed even when resolution then fails.
func (r *IdentityResolver) ResumeWithEmail(ctx context.Context, cmd ResumeCommand) (*Resolution, error) {
	email := identity.NormalizeEmail(cmd.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, apperrors.NewValidationError("please enter a valid email address")
	}

	pending, err := r.pending.Consume(ctx, cmd.TempKey)
	if err != nil {
		if errors.Is(err, cache.ErrPendingNotFound) {
			return nil, apperrors.NewTokenExpiredError("registration")
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(pending.Nonce), []byte(cmd.Nonce)) != 1 {
		r.logger.Warnw("email form nonce mismatch", "uid", pending.Profile.UID)
		return nil, apperrors.NewCsrfError("registration form is no longer valid")
	}

	profile := pending.Profile
	profile.Email = email
	profile.EmailVerified = false

	return r.Resolve(ctx, ResolveCommand{
		Caller:      identity.AnonymousCaller(),
		Profile:     profile,
		Tokens:      pending.Tokens,
		IsFriend:    pending.IsFriend,
		RedirectURL: pending.RedirectURL,
		Method:      pending.Method,
	})
}

// PendingRegistration returns a live registration without consuming it.
func (r *IdentityResolver) PendingRegistration(ctx context.Context, tempKey string) (*identity.PendingRegistration, error) {
	pending, err := r.pending.Peek(ctx, tempKey)
	if err != nil {
		if errors.Is(err, cache.ErrPendingNotFound) {
			return nil, apperrors.NewTokenExpiredError("registration")
		}
		return nil, err
	}
	return pending, nil
}

func (r *IdentityResolver) bind(ctx context.Context, localUserID uint64, cmd ResolveCommand) (*Resolution, error) {
	binding, err := r.bindings.Link(ctx, localUserID, cmd.Profile, cmd.Tokens, cmd.IsFriend)
	if err != nil {
		if apperrors.IsConflictError(err) {
			r.logger.Infow("link refused", "local_user_id", localUserID, "uid", cmd.Profile.UID, "reason", err.Error())
		}
		return nil, err
	}

	r.logger.Infow("LINE account linked", "local_user_id", localUserID, "uid", binding.ExternalUID)
	return &Resolution{
		Outcome:     OutcomeLinked,
		LocalUserID: localUserID,
		Binding:     binding,
		RedirectURL: cmd.RedirectURL,
	}, nil
}

func (r *IdentityResolver) resolveLegacy(ctx context.Context, cmd ResolveCommand) (*Resolution, error) {
	for _, src := range r.legacy {
		localUserID, found, err := src.FindByExternalUID(ctx, cmd.Profile.UID)
		if err != nil {
			r.logger.Warnw("legacy identity lookup failed", "source", src.Name(), "error", err)
			continue
		}
		if !found {
			continue
		}

		acc, err := r.directory.GetByID(ctx, localUserID)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			r.logger.Warnw("legacy identity points at a missing account", "source", src.Name(), "local_user_id", localUserID)
			continue
		}

		binding, err := r.bindings.Link(ctx, localUserID, cmd.Profile, cmd.Tokens, cmd.IsFriend)
		if err != nil {
			if apperrors.IsConflictError(err) {
				r.logger.Warnw("legacy identity not migrated", "source", src.Name(), "local_user_id", localUserID, "reason", err.Error())
				continue
			}
			return nil, err
		}

		r.logger.Infow("legacy identity migrated", "source", src.Name(), "local_user_id", localUserID)
		return r.loggedIn(ctx, cmd, binding, false, false, false)
	}
	return nil, nil
}

func (r *IdentityResolver) awaitEmail(ctx context.Context, cmd ResolveCommand) (*Resolution, error) {
	pending := &identity.PendingRegistration{
		Profile:     cmd.Profile,
		Tokens:      cmd.Tokens,
		IsFriend:    cmd.IsFriend,
		RedirectURL: cmd.RedirectURL,
		Method:      cmd.Method,
	}
	if err := r.pending.Create(ctx, pending); err != nil {
		return nil, err
	}

	r.logger.Infow("registration awaiting email", "uid", cmd.Profile.UID)
	return &Resolution{
		Outcome:     OutcomeAwaitingEmail,
		TempKey:     pending.TempKey,
		Nonce:       pending.Nonce,
		RedirectURL: cmd.RedirectURL,
	}, nil
}

func (r *IdentityResolver) merge(ctx context.Context, cmd ResolveCommand, acc *account.Account) (*Resolution, error) {
	if r.cfg.MergeRequiresVerifiedEmail && !cmd.Profile.EmailVerified {
		r.logger.Warnw("refusing merge on unverified email", "uid", cmd.Profile.UID, "local_user_id", acc.ID)
		return nil, apperrors.NewConflictError(identity.ConflictEmailUnverified)
	}

	binding, err := r.bindings.Link(ctx, acc.ID, cmd.Profile, cmd.Tokens, cmd.IsFriend)
	if err != nil {
		return nil, err
	}

	r.logger.Infow("LINE identity merged into existing account", "local_user_id", acc.ID, "uid", cmd.Profile.UID)
	return r.loggedIn(ctx, cmd, binding, false, false, true)
}

func (r *IdentityResolver) provision(ctx context.Context, cmd ResolveCommand) (*Resolution, error) {
	displayName := cmd.Profile.DisplayName
	if r.sanitizer != nil {
		displayName = r.sanitizer.PlainText(displayName)
	}

	var localUserID uint64
	for attempt := 1; ; attempt++ {
		username, err := account.DeriveUsername(ctx, r.directory, r.random, r.cfg.UsernamePrefix, displayName, cmd.Profile.UID)
		if err != nil {
			return nil, err
		}

		localUserID, err = r.provisioner.CreateAccount(ctx, account.NewAccount{
			Username:    username,
			Email:       cmd.Profile.NormalizedEmail(),
			DisplayName: displayName,
			AvatarURL:   cmd.Profile.AvatarURL,
		})
		if err == nil {
			break
		}
		if !apperrors.IsConflictError(err) || attempt >= maxProvisionAttempts {
			return nil, fmt.Errorf("failed to provision account: %w", err)
		}
	}

	binding, err := r.bindings.Link(ctx, localUserID, cmd.Profile, cmd.Tokens, cmd.IsFriend)
	if err == nil {
		r.logger.Infow("account provisioned for LINE identity", "local_user_id", localUserID, "uid", cmd.Profile.UID)
		return r.loggedIn(ctx, cmd, binding, false, true, false)
	}
	if !apperrors.IsConflictError(err) {
		return nil, err
	}

	// A concurrent first login for the same identity won the link.
	if rmErr := r.provisioner.RemoveAccount(ctx, localUserID); rmErr != nil {
		r.logger.Errorw("failed to remove orphaned account", "local_user_id", localUserID, "error", rmErr)
	}
	winner, findErr := r.bindings.FindByExternalUID(ctx, cmd.Profile.UID)
	if findErr != nil {
		return nil, findErr
	}
	if winner == nil {
		return nil, err
	}

	r.logger.Infow("concurrent first login resolved to existing binding", "local_user_id", winner.LocalUserID, "uid", cmd.Profile.UID)
	return r.loggedIn(ctx, cmd, winner, true, false, false)
}

func (r *IdentityResolver) loggedIn(ctx context.Context, cmd ResolveCommand, binding *identity.Binding, refresh, isNew, merged bool) (*Resolution, error) {
	if refresh {
		if err := r.bindings.RefreshProfile(ctx, binding, cmd.Profile, cmd.Tokens, cmd.IsFriend); err != nil {
			r.logger.Warnw("failed to refresh LINE profile", "local_user_id", binding.LocalUserID, "error", err)
		}
	}

	event := identity.NewSessionEstablishedEvent(binding.LocalUserID, binding, cmd.Method, isNew, merged)
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warnw("failed to publish session event", "event_id", event.EventID(), "error", err)
		}
	}

	token, err := r.transfers.Issue(ctx, binding.LocalUserID, cmd.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session transfer: %w", err)
	}

	return &Resolution{
		Outcome:       OutcomeLoggedIn,
		LocalUserID:   binding.LocalUserID,
		Binding:       binding,
		TransferToken: token,
		RedirectURL:   cmd.RedirectURL,
		IsNewAccount:  isNew,
		Merged:        merged,
	}, nil
}
