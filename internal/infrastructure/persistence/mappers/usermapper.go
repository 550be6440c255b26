package mappers

import (
	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/infrastructure/persistence/models"
)

// UserMapper converts users rows into the account view the broker reads.
type UserMapper interface {
	ToAccount(model *models.UserModel) *account.Account
	FromNewAccount(acc account.NewAccount, passwordHash string) *models.UserModel
}

type UserMapperImpl struct{}

func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

func (m *UserMapperImpl) ToAccount(model *models.UserModel) *account.Account {
	if model == nil {
		return nil
	}
	return &account.Account{
		ID:          model.ID,
		Username:    model.Username,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		CreatedAt:   model.CreatedAt,
	}
}

func (m *UserMapperImpl) FromNewAccount(acc account.NewAccount, passwordHash string) *models.UserModel {
	return &models.UserModel{
		Username:     acc.Username,
		Email:        acc.Email,
		DisplayName:  acc.DisplayName,
		AvatarURL:    acc.AvatarURL,
		PasswordHash: passwordHash,
		Status:       "active",
	}
}
