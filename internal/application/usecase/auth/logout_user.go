package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifeos/backend/internal/application/adapter"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// LogoutUserInput represents the input for user logout. With AllDevices set
// every refresh token of the token's owner is revoked, signing out each synced
// device, and the server-side sync session of the owner is released.
type LogoutUserInput struct {
	RefreshToken string
	AllDevices   bool
}

// LogoutUserOutput represents the output of user logout.
type LogoutUserOutput struct {
	Message string
}

// LogoutUserUseCase handles user logout logic.
type LogoutUserUseCase struct {
	tokenService adapter.TokenService
	sessions     Sessions
}

// NewLogoutUserUseCase creates a new LogoutUserUseCase instance.
func NewLogoutUserUseCase(tokenService adapter.TokenService, sessions Sessions) *LogoutUserUseCase {
	return &LogoutUserUseCase{
		tokenService: tokenService,
		sessions:     sessions,
	}
}

// Execute performs the user logout by invalidating the refresh token.
func (uc *LogoutUserUseCase) Execute(ctx context.Context, input LogoutUserInput) (*LogoutUserOutput, error) {
	if input.AllDevices {
		claims, err := uc.tokenService.ValidateRefreshToken(ctx, input.RefreshToken)
		if err != nil {
			return nil, domainerror.NewAuthError(domainerror.ErrCodeInvalidToken, "Invalid refresh token", domainerror.ErrInvalidToken)
		}
		if err := uc.tokenService.InvalidateAllUserTokens(ctx, claims.UserID); err != nil {
			return nil, fmt.Errorf("failed to invalidate user tokens: %w", err)
		}
		uc.sessions.Release(claims.UserID)
		slog.Info("user logged out on all devices", "user_id", claims.UserID)
		return &LogoutUserOutput{Message: "Logged out on all devices"}, nil
	}

	// the token might already be invalid
	_ = uc.tokenService.InvalidateRefreshToken(ctx, input.RefreshToken)

	return &LogoutUserOutput{
		Message: "Successfully logged out",
	}, nil
}
