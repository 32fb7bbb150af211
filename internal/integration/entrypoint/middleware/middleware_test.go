package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
)

type stubTokens struct {
	adapter.TokenService
	userID uuid.UUID
}

func (s stubTokens) ValidateAccessToken(_ context.Context, token string) (*adapter.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &adapter.TokenClaims{UserID: s.userID, Email: "ada@example.com"}, nil
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	m := NewAuthMiddleware(stubTokens{userID: userID})

	engine := gin.New()
	engine.GET("/me", m.Authenticate(), func(c *gin.Context) {
		id, _ := GetUserIDFromContext(c)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"good token", "/me", "Bearer good", http.StatusOK},
		{"query token", "/me?access_token=good", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK && rec.Body.String() != userID.String() {
				t.Errorf("expected user id in context, got %q", rec.Body.String())
			}
		})
	}
}

func TestRateLimiter_Window(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(2, time.Minute, ByClientIP, true)
	rl.clock = clock

	engine := gin.New()
	engine.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func() int {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		return rec.Code
	}

	if hit() != http.StatusNoContent || hit() != http.StatusNoContent {
		t.Fatal("expected the first two attempts through")
	}
	if code := hit(); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if code := hit(); code != http.StatusNoContent {
		t.Errorf("expected a new window, got %d", code)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	rl.Cleanup()
	if len(rl.entries) != 0 {
		t.Errorf("expected expired entries removed, got %d", len(rl.entries))
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, ByClientIP, false)
	engine := gin.New()
	engine.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected disabled limiter to pass, got %d", rec.Code)
		}
	}
}
