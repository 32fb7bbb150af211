package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/entrypoint/dto"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_PullSendsTokenAndBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sync/pull" || r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req dto.SyncPullRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, dto.SyncPullResponse{
			Entities: []entity.VersionedEntity{{EntityType: entity.EntityTypeTask, ID: "t1", Version: 1, Data: json.RawMessage(`{"id":"t1"}`)}},
			Token:    req.Token + "-next",
			HasMore:  true,
		})
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL + "/", Tokens: Tokens{AccessToken: "access"}})
	res, err := client.Pull(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "abc-next" || !res.HasMore || len(res.Entities) != 1 {
		t.Errorf("unexpected pull result %+v", res)
	}
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	var refreshes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: "fresh", RefreshToken: "refresh-2"})
		case "/api/v1/sync/push":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "expired"})
				return
			}
			var req dto.SyncPushRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			resp := dto.SyncPushResponse{}
			for _, e := range req.Entities {
				resp.Accepted = append(resp.Accepted, e.Ref())
			}
			writeJSON(w, http.StatusOK, resp)
		}
	}))
	defer server.Close()

	var persisted Tokens
	client := NewClient(Options{
		BaseURL:   server.URL,
		Tokens:    Tokens{AccessToken: "stale", RefreshToken: "refresh-1"},
		OnRefresh: func(t Tokens) { persisted = t },
	})
	res, err := client.Push(context.Background(), []entity.VersionedEntity{{EntityType: entity.EntityTypeTask, ID: "t1", Version: 2, Data: json.RawMessage(`{}`)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Accepted) != 1 {
		t.Errorf("expected accepted push, got %+v", res)
	}
	if refreshes.Load() != 1 || persisted.AccessToken != "fresh" || client.Tokens().RefreshToken != "refresh-2" {
		t.Errorf("expected one refresh with persisted tokens, got %d %+v", refreshes.Load(), persisted)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		tokens  Tokens
		want    error
	}{
		{
			name: "unauthorized without refresh token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "expired"})
			},
			tokens: Tokens{AccessToken: "stale"},
			want:   domainerror.ErrSyncUnauthorized,
		},
		{
			name: "refresh rejected",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid"})
			},
			tokens: Tokens{AccessToken: "stale", RefreshToken: "revoked"},
			want:   domainerror.ErrSyncUnauthorized,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "boom"})
			},
			want: domainerror.ErrSyncRemote,
		},
		{
			name: "unavailable",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: domainerror.ErrSyncOffline,
		},
		{
			name: "invalid token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad token", Code: string(domainerror.ErrCodeInvalidSyncToken)})
			},
			want: domainerror.ErrInvalidSyncToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Options{BaseURL: server.URL, Tokens: tt.tokens})
			_, err := client.Pull(context.Background(), "")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClient_UnreachableIsOffline(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: url})
	if err := client.Ping(context.Background()); !errors.Is(err, domainerror.ErrSyncOffline) {
		t.Errorf("expected ErrSyncOffline, got %v", err)
	}
}
