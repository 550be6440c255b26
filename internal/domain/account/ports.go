package account

import "context"

// Directory looks up existing local accounts. Lookups return nil, nil when
// nothing matches.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uint64) (*Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// Provisioner creates and rolls back local accounts.
type Provisioner interface {
	CreateAccount(ctx context.Context, acc NewAccount) (uint64, error)
	RemoveAccount(ctx context.Context, id uint64) error
}
