package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// NextendLegacySource reads identities recorded by the Nextend Social Login
// plugin, whose social_users rows map (type, identifier) to a user ID.
type NextendLegacySource struct {
	db          *gorm.DB
	table       string
	providerTag string
}

func NewNextendLegacySource(db *gorm.DB, table, providerTag string) (*NextendLegacySource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid legacy table name %q", table)
	}
	if providerTag == "" {
		return nil, fmt.Errorf("legacy provider tag is required")
	}
	return &NextendLegacySource{db: db, table: table, providerTag: providerTag}, nil
}

func (s *NextendLegacySource) Name() string {
	return "nextend"
}

func (s *NextendLegacySource) FindByExternalUID(ctx context.Context, externalUID string) (uint64, bool, error) {
	var model models.NextendSocialUserModel
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where("type = ? AND identifier = ?", s.providerTag, externalUID).
		Order("social_users_id ASC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to query legacy identities: %w", err)
	}
	if model.UserID == 0 {
		return 0, false, nil
	}
	return model.UserID, true, nil
}
