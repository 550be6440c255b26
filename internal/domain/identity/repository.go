package identity

import "context"

// Conflict messages surfaced verbatim to the user.
const (
	ConflictLinkedElsewhere = "external identity already linked elsewhere"
	ConflictAlreadyLinked   = "account already linked, unlink first"
	ConflictEmailUnverified = "an account with this email already exists, sign in and link LINE from your account"
)

// Repository persists bindings. Find methods return nil, nil when nothing
// active matches.
type Repository interface {
	FindByExternalUID(ctx context.Context, externalUID string) (*Binding, error)
	FindByLocalUserID(ctx context.Context, localUserID uint64) (*Binding, error)
	// Link creates or confirms the binding of localUserID to profile.UID.
	// Linking an identity already bound to the same user is a no-op refresh.
	Link(ctx context.Context, localUserID uint64, profile ExternalProfile, tokens ProviderTokens, isFriend *bool) (*Binding, error)
	RefreshProfile(ctx context.Context, binding *Binding, profile ExternalProfile, tokens ProviderTokens, isFriend *bool) error
	Unlink(ctx context.Context, localUserID uint64) error
}

// LegacySource resolves identities recorded by an earlier login integration
// so they can be migrated into a binding on first use.
type LegacySource interface {
	Name() string
	FindByExternalUID(ctx context.Context, externalUID string) (localUserID uint64, found bool, err error)
}
