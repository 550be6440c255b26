package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// IdentityBindingRepository implements identity.Repository using GORM with
// Model/Mapper separation.
type IdentityBindingRepository struct {
	db     *gorm.DB
	mapper mappers.IdentityBindingMapper
	logger logger.Interface
}

func NewIdentityBindingRepository(db *gorm.DB, logger logger.Interface) *IdentityBindingRepository {
	return &IdentityBindingRepository{
		db:     db,
		mapper: mappers.NewIdentityBindingMapper(),
		logger: logger,
	}
}

func (r *IdentityBindingRepository) FindByExternalUID(ctx context.Context, externalUID string) (*identity.Binding, error) {
	return r.findOne(r.db.WithContext(ctx), "external_uid = ?", externalUID)
}

func (r *IdentityBindingRepository) FindByLocalUserID(ctx context.Context, localUserID uint64) (*identity.Binding, error) {
	return r.findOne(r.db.WithContext(ctx), "local_user_id = ?", localUserID)
}

func (r *IdentityBindingRepository) findOne(db *gorm.DB, query string, arg any) (*identity.Binding, error) {
	var model models.IdentityBindingModel
	err := db.Where(query, arg).
		Where("status = ?", string(identity.BindingStatusActive)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get identity binding: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

// Link binds profile.UID to localUserID. Both lookups and the write share one
// transaction; a unique index violation from a concurrent writer is resolved
// by re-reading the winner.
func (r *IdentityBindingRepository) Link(
	ctx context.Context,
	localUserID uint64,
	profile identity.ExternalProfile,
	tokens identity.ProviderTokens,
	isFriend *bool,
) (*identity.Binding, error) {
	var linked *identity.Binding

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.findOne(tx, "external_uid = ?", profile.UID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.BelongsTo(localUserID) {
				return apperrors.NewConflictError(identity.ConflictLinkedElsewhere)
			}
			existing.ApplyProfile(profile, tokens)
			existing.SetFriendship(isFriend)
			if err := r.save(tx, existing); err != nil {
				return err
			}
			linked = existing
			return nil
		}

		current, err := r.findOne(tx, "local_user_id = ?", localUserID)
		if err != nil {
			return err
		}
		if current != nil {
			return apperrors.NewConflictError(identity.ConflictAlreadyLinked)
		}

		binding, err := identity.NewBinding(localUserID, profile, tokens)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		binding.SetFriendship(isFriend)

		model, err := r.mapper.ToModel(binding)
		if err != nil {
			return err
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create identity binding: %w", err)
		}
		binding.ID = model.ID
		linked = binding
		return nil
	})
	if err == nil {
		return linked, nil
	}
	if !apperrors.IsDuplicateError(err) {
		return nil, err
	}

	r.logger.Infow("concurrent link detected, re-reading binding",
		"local_user_id", localUserID,
		"external_uid", profile.UID,
	)
	return r.resolveConcurrentLink(ctx, localUserID, profile.UID, err)
}

func (r *IdentityBindingRepository) resolveConcurrentLink(ctx context.Context, localUserID uint64, externalUID string, cause error) (*identity.Binding, error) {
	winner, err := r.FindByExternalUID(ctx, externalUID)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		if winner.BelongsTo(localUserID) {
			return winner, nil
		}
		return nil, apperrors.NewConflictError(identity.ConflictLinkedElsewhere)
	}

	current, err := r.FindByLocalUserID(ctx, localUserID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, apperrors.NewConflictError(identity.ConflictAlreadyLinked)
	}
	return nil, fmt.Errorf("failed to link identity: %w", cause)
}

func (r *IdentityBindingRepository) RefreshProfile(
	ctx context.Context,
	binding *identity.Binding,
	profile identity.ExternalProfile,
	tokens identity.ProviderTokens,
	isFriend *bool,
) error {
	binding.ApplyProfile(profile, tokens)
	binding.SetFriendship(isFriend)
	return r.save(r.db.WithContext(ctx), binding)
}

func (r *IdentityBindingRepository) save(db *gorm.DB, binding *identity.Binding) error {
	model, err := r.mapper.ToModel(binding)
	if err != nil {
		return err
	}
	result := db.Model(&models.IdentityBindingModel{}).
		Where("id = ?", binding.ID).
		Updates(map[string]any{
			"display_name":   model.DisplayName,
			"avatar_url":     model.AvatarURL,
			"email":          model.Email,
			"email_verified": model.EmailVerified,
			"is_friend":      model.IsFriend,
			"tokens":         model.Tokens,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update identity binding: %w", result.Error)
	}
	return nil
}

// Unlink removes the user's binding so the identity can be linked again.
func (r *IdentityBindingRepository) Unlink(ctx context.Context, localUserID uint64) error {
	result := r.db.WithContext(ctx).
		Where("local_user_id = ?", localUserID).
		Delete(&models.IdentityBindingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete identity binding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("no LINE account is linked")
	}
	return nil
}
