// Package remote implements adapter.SyncRemote over the LifeOS HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/entrypoint/dto"
)

const (
	defaultTimeout = 30 * time.Second
	maxPushBatch   = 1000
	maxErrorBody   = 4096
)

// Tokens is the credential pair used against the API.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Tokens  Tokens
	// OnRefresh is called with the new pair after a successful refresh, so
	// that callers can persist it.
	OnRefresh  func(Tokens)
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the sync endpoints of a LifeOS API. An expired access
// token is refreshed once per request before the call is reported as
// unauthorized.
type Client struct {
	baseURL   string
	client    *http.Client
	onRefresh func(Tokens)
	logger    *slog.Logger

	mu     sync.RWMutex
	tokens Tokens
}

// NewClient creates a new sync API client.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		client:    opts.HTTPClient,
		onRefresh: opts.OnRefresh,
		logger:    opts.Logger,
		tokens:    opts.Tokens,
	}
}

var _ adapter.SyncRemote = (*Client)(nil)

// Tokens returns the credentials currently in use.
func (c *Client) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// SetTokens replaces the credentials, for example after a new login.
func (c *Client) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

// Pull implements adapter.SyncRemote.
func (c *Client) Pull(ctx context.Context, token string) (*adapter.PullResult, error) {
	var resp dto.SyncPullResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/sync/pull", dto.SyncPullRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &adapter.PullResult{Entities: resp.Entities, Token: resp.Token, HasMore: resp.HasMore}, nil
}

// Push implements adapter.SyncRemote. Large pushes are split into batches
// the server accepts.
func (c *Client) Push(ctx context.Context, entities []entity.VersionedEntity) (*adapter.PushResult, error) {
	var result adapter.PushResult
	for start := 0; start < len(entities); start += maxPushBatch {
		end := min(start+maxPushBatch, len(entities))

		var resp dto.SyncPushResponse
		if err := c.call(ctx, http.MethodPost, "/api/v1/sync/push", dto.SyncPushRequest{Entities: entities[start:end]}, &resp); err != nil {
			return nil, err
		}
		result.Accepted = append(result.Accepted, resp.Accepted...)
		for _, r := range resp.Rejected {
			result.Rejected = append(result.Rejected, adapter.Rejection{Ref: r.Ref, Current: r.Current})
		}
	}
	return &result, nil
}

// Ping implements adapter.SyncRemote.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/v1/sync/ping", nil, nil)
}

// call sends one authenticated request, refreshing the access token once on 401.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	status, payload, err := c.do(ctx, method, path, body, c.Tokens().AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, payload, err = c.do(ctx, method, path, body, c.Tokens().AccessToken)
		if err != nil {
			return err
		}
	}

	if err := statusError(status, payload); err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeSyncRemote, "failed to decode "+path+" response", err)
	}
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.Tokens().RefreshToken
	if refreshToken == "" {
		return unauthorized("access token rejected and no refresh token is configured")
	}

	status, payload, err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusBadRequest {
		return unauthorized("refresh token rejected")
	}
	if err := statusError(status, payload); err != nil {
		return err
	}

	var resp dto.TokenResponse
	if err := json.Unmarshal(payload, &resp); err != nil || resp.AccessToken == "" {
		return domainerror.NewSyncError(domainerror.ErrCodeSyncRemote, "invalid refresh response", err)
	}
	tokens := Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	c.SetTokens(tokens)
	c.logger.Info("access token refreshed")
	if c.onRefresh != nil {
		c.onRefresh(tokens)
	}
	return nil
}

// do performs the HTTP round trip. Transport failures are reported as offline.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, accessToken string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, domainerror.NewSyncError(domainerror.ErrCodeSyncOffline, method+" "+path+" failed", errors.Join(domainerror.ErrSyncOffline, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, domainerror.NewSyncError(domainerror.ErrCodeSyncOffline, "failed to read "+path+" response", errors.Join(domainerror.ErrSyncOffline, err))
	}
	return resp.StatusCode, payload, nil
}

// statusError maps a non-2xx answer to a sync error.
func statusError(status int, payload []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var apiErr dto.ErrorResponse
	_ = json.Unmarshal(payload, &apiErr)
	message := apiErr.Error
	if message == "" {
		message = strings.TrimSpace(string(payload[:min(len(payload), maxErrorBody)]))
	}
	message = fmt.Sprintf("remote answered %d: %s", status, message)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return unauthorized(message)
	case apiErr.Code == string(domainerror.ErrCodeInvalidSyncToken):
		return domainerror.NewSyncError(domainerror.ErrCodeInvalidSyncToken, message, domainerror.ErrInvalidSyncToken)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return domainerror.NewSyncError(domainerror.ErrCodeSyncOffline, message, domainerror.ErrSyncOffline)
	default:
		return domainerror.NewSyncError(domainerror.ErrCodeSyncRemote, message, domainerror.ErrSyncRemote)
	}
}

func unauthorized(message string) error {
	return domainerror.NewSyncError(domainerror.ErrCodeSyncUnauthorized, message, domainerror.ErrSyncUnauthorized)
}
