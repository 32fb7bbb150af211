package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// DeleteAccountInput represents the input for account deletion.
type DeleteAccountInput struct {
	UserID   uuid.UUID
	Password string
}

// DeleteAccountOutput represents the output of account deletion.
type DeleteAccountOutput struct {
	Success bool
}

// DeleteAccountUseCase removes a user together with their store and cloud copy.
type DeleteAccountUseCase struct {
	userRepo        adapter.UserRepository
	syncRepo        adapter.SyncRecordRepository
	passwordService adapter.PasswordService
	tokenService    adapter.TokenService
	stores          UserStores
	sessions        Sessions
}

// NewDeleteAccountUseCase creates a new DeleteAccountUseCase instance.
func NewDeleteAccountUseCase(
	userRepo adapter.UserRepository,
	syncRepo adapter.SyncRecordRepository,
	passwordService adapter.PasswordService,
	tokenService adapter.TokenService,
	stores UserStores,
	sessions Sessions,
) *DeleteAccountUseCase {
	return &DeleteAccountUseCase{
		userRepo:        userRepo,
		syncRepo:        syncRepo,
		passwordService: passwordService,
		tokenService:    tokenService,
		stores:          stores,
		sessions:        sessions,
	}
}

// Execute performs the account deletion.
func (uc *DeleteAccountUseCase) Execute(ctx context.Context, input DeleteAccountInput) (*DeleteAccountOutput, error) {
	user, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeUserNotFound,
			"user not found",
			err,
		)
	}

	if err := uc.passwordService.VerifyPassword(user.PasswordHash, input.Password); err != nil {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidCredentials,
			"invalid password",
			domainerror.ErrInvalidCredentials,
		)
	}

	if err := uc.tokenService.InvalidateAllUserTokens(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("failed to invalidate user tokens: %w", err)
	}

	uc.sessions.Release(input.UserID)
	if err := uc.stores.Destroy(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("failed to clear user store: %w", err)
	}

	if err := uc.syncRepo.DeleteByUser(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("failed to delete sync records: %w", err)
	}

	if err := uc.userRepo.Delete(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", input.UserID)
	return &DeleteAccountOutput{
		Success: true,
	}, nil
}
