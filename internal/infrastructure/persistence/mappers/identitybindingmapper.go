package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
)

// IdentityBindingMapper converts between identity.Binding and its model.
type IdentityBindingMapper interface {
	ToDomain(model *models.IdentityBindingModel) (*identity.Binding, error)
	ToModel(binding *identity.Binding) (*models.IdentityBindingModel, error)
}

type IdentityBindingMapperImpl struct{}

func NewIdentityBindingMapper() IdentityBindingMapper {
	return &IdentityBindingMapperImpl{}
}

func (m *IdentityBindingMapperImpl) ToDomain(model *models.IdentityBindingModel) (*identity.Binding, error) {
	if model == nil {
		return nil, nil
	}

	var tokens identity.ProviderTokens
	if len(model.Tokens) > 0 {
		if err := json.Unmarshal(model.Tokens, &tokens); err != nil {
			return nil, fmt.Errorf("failed to unmarshal binding tokens: %w", err)
		}
	}

	return &identity.Binding{
		ID:            model.ID,
		LocalUserID:   model.LocalUserID,
		ExternalUID:   model.ExternalUID,
		DisplayName:   model.DisplayName,
		AvatarURL:     model.AvatarURL,
		Email:         model.Email,
		EmailVerified: model.EmailVerified,
		IsFriend:      model.IsFriend,
		Status:        identity.BindingStatus(model.Status),
		Tokens:        tokens,
		LinkedAt:      model.LinkedAt,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}

func (m *IdentityBindingMapperImpl) ToModel(binding *identity.Binding) (*models.IdentityBindingModel, error) {
	if binding == nil {
		return nil, nil
	}

	tokens, err := json.Marshal(binding.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal binding tokens: %w", err)
	}

	return &models.IdentityBindingModel{
		ID:            binding.ID,
		LocalUserID:   binding.LocalUserID,
		Provider:      identity.Provider,
		ExternalUID:   binding.ExternalUID,
		DisplayName:   binding.DisplayName,
		AvatarURL:     binding.AvatarURL,
		Email:         binding.Email,
		EmailVerified: binding.EmailVerified,
		IsFriend:      binding.IsFriend,
		Status:        string(binding.Status),
		Tokens:        datatypes.JSON(tokens),
		LinkedAt:      binding.LinkedAt,
		UpdatedAt:     binding.UpdatedAt,
	}, nil
}
