package adapters

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lifeos/backend/internal/integration/persistence"
	"github.com/lifeos/backend/internal/integration/persistence/model"
)

func newTokenRepository(t *testing.T) persistence.TokenRepository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&model.RefreshTokenModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return persistence.NewTokenRepository(db)
}

func TestTokenService_PairRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", TokenLifetimes{Access: time.Minute, Refresh: time.Hour}, newTokenRepository(t))
	ctx := context.Background()
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(ctx, userID, "ada@example.com", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, pair.AccessToken)
	if err != nil || claims.UserID != userID || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected access claims %+v (%v)", claims, err)
	}
	if _, err := svc.ValidateAccessToken(ctx, pair.RefreshToken); err == nil {
		t.Error("expected refresh token to be refused as access token")
	}
	if _, err := svc.ValidateRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	valid, err := svc.IsRefreshTokenValid(ctx, pair.RefreshToken)
	if err != nil || !valid {
		t.Errorf("expected stored refresh token valid, got %v (%v)", valid, err)
	}
	if err := svc.InvalidateAllUserTokens(ctx, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid, _ := svc.IsRefreshTokenValid(ctx, pair.RefreshToken); valid {
		t.Error("expected refresh token revoked")
	}
}

func TestTokenService_PairsAreUnique(t *testing.T) {
	svc := NewTokenService("secret", TokenLifetimes{}, newTokenRepository(t))
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.GenerateTokenPair(ctx, userID, "ada@example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GenerateTokenPair(ctx, userID, "ada@example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Error("expected distinct refresh tokens")
	}
}

func TestTokenService_RejectsForeignSecret(t *testing.T) {
	repo := newTokenRepository(t)
	issuer := NewTokenService("secret-a", TokenLifetimes{}, repo)
	verifier := NewTokenService("secret-b", TokenLifetimes{}, repo)

	pair, err := issuer.GenerateTokenPair(context.Background(), uuid.New(), "ada@example.com", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.ValidateAccessToken(context.Background(), pair.AccessToken); err == nil {
		t.Error("expected signature check to fail")
	}
}

func TestPasswordService(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	hash, err := svc.HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "correct horse 1"); err != nil {
		t.Errorf("expected password to verify: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrong"); err == nil {
		t.Error("expected wrong password to fail")
	}

	tests := []struct {
		password string
		ok       bool
	}{
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
		{"letters123", true},
		{strings.Repeat("a1", 40), false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := svc.ValidatePasswordStrength(tt.password)
			if (err == nil) != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}
