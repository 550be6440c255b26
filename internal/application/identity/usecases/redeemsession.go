package usecases

import (
	"context"
	"errors"

	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils/logutil"
)

// TransferRedeemer consumes session transfer tokens.
type TransferRedeemer interface {
	Redeem(ctx context.Context, plainToken string) (*cache.TransferPayload, error)
}

// SessionIssuer signs the local session cookie value.
type SessionIssuer interface {
	Generate(userID uint64) (string, error)
}

type RedeemSessionResult struct {
	LocalUserID  uint64
	SessionToken string
	RedirectURL  string
}

type RedeemSessionUseCase struct {
	transfers TransferRedeemer
	sessions  SessionIssuer
	directory account.Directory
	logger    logger.Interface
}

func NewRedeemSessionUseCase(transfers TransferRedeemer, sessions SessionIssuer, directory account.Directory, logger logger.Interface) *RedeemSessionUseCase {
	return &RedeemSessionUseCase{
		transfers: transfers,
		sessions:  sessions,
		directory: directory,
		logger:    logger,
	}
}

func (uc *RedeemSessionUseCase) Execute(ctx context.Context, plainToken string) (*RedeemSessionResult, error) {
	payload, err := uc.transfers.Redeem(ctx, plainToken)
	if err != nil {
		if errors.Is(err, cache.ErrTransferNotFound) {
			uc.logger.Infow("session transfer token not redeemable", "token", logutil.Token(plainToken))
			return nil, apperrors.NewTokenInvalidError("session transfer token")
		}
		return nil, err
	}

	acc, err := uc.directory.GetByID(ctx, payload.LocalUserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, apperrors.NewNotFoundError("account no longer exists")
	}

	session, err := uc.sessions.Generate(acc.ID)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("session established", "local_user_id", acc.ID)
	return &RedeemSessionResult{
		LocalUserID:  acc.ID,
		SessionToken: session,
		RedirectURL:  payload.RedirectURL,
	}, nil
}
