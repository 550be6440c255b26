package http

import (
	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/infrastructure/repository"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const provisionedPasswordCost = 10

type repositories struct {
	bindingRepo identity.Repository
	userRepo    *repository.UserRepository
	settingRepo setting.EntryRepository
}

func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	passwords := auth.NewProvisionedPasswords(provisionedPasswordCost)
	return &repositories{
		bindingRepo: repository.NewIdentityBindingRepository(db, log),
		userRepo:    repository.NewUserRepository(db, passwords, log),
		settingRepo: repository.NewSettingEntryRepository(db, log),
	}
}

// newLegacySources returns the configured legacy identity adapters.
func (c *Container) newLegacySources() ([]identity.LegacySource, error) {
	legacyCfg := c.cfg.Identity.NextendLegacy
	if !legacyCfg.Enabled {
		return nil, nil
	}

	src, err := repository.NewNextendLegacySource(c.db, legacyCfg.Table, legacyCfg.ProviderTag)
	if err != nil {
		return nil, err
	}
	c.log.Infow("legacy identity source enabled", "source", src.Name(), "table", legacyCfg.Table)
	return []identity.LegacySource{src}, nil
}
