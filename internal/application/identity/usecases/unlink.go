package usecases

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type UnlinkUseCase struct {
	bindings identity.Repository
	logger   logger.Interface
}

func NewUnlinkUseCase(bindings identity.Repository, logger logger.Interface) *UnlinkUseCase {
	return &UnlinkUseCase{bindings: bindings, logger: logger}
}

func (uc *UnlinkUseCase) Execute(ctx context.Context, localUserID uint64) error {
	if err := uc.bindings.Unlink(ctx, localUserID); err != nil {
		return err
	}
	uc.logger.Infow("LINE account unlinked", "local_user_id", localUserID)
	return nil
}
