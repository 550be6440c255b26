package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.IdentityBindingModel{},
		&models.SettingEntryModel{},
	}
}

// AutoMigrate syncs the schema from the GORM models. Used for local
// development and tests; deployments run the versioned scripts.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}
