package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// PasswordHasher produces the unusable password stored on provisioned accounts.
type PasswordHasher interface {
	HashRandom() (string, error)
}

// UserRepository is the account.Directory and account.Provisioner backed by
// the users table.
type UserRepository struct {
	db     *gorm.DB
	hasher PasswordHasher
	mapper mappers.UserMapper
	logger logger.Interface
}

func NewUserRepository(db *gorm.DB, hasher PasswordHasher, logger logger.Interface) *UserRepository {
	return &UserRepository{
		db:     db,
		hasher: hasher,
		mapper: mappers.NewUserMapper(),
		logger: logger,
	}
}

// FindByEmail matches case-insensitively. With several matches the oldest
// account wins.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}

	var model models.UserModel
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", normalized).
		Order("id ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return r.mapper.ToAccount(&model), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*account.Account, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return r.mapper.ToAccount(&model), nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// CreateAccount inserts a user with a random password. A taken username is a
// conflict so the caller can derive another one.
func (r *UserRepository) CreateAccount(ctx context.Context, acc account.NewAccount) (uint64, error) {
	hash, err := r.hasher.HashRandom()
	if err != nil {
		return 0, err
	}

	acc.Email = identity.NormalizeEmail(acc.Email)
	model := r.mapper.FromNewAccount(acc, hash)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return 0, apperrors.NewConflictError("username already taken", acc.Username)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Infow("user account provisioned", "user_id", model.ID, "username", model.Username)
	return model.ID, nil
}

// RemoveAccount deletes an account created moments earlier whose link lost a race.
func (r *UserRepository) RemoveAccount(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.UserModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user not found")
	}
	return nil
}
