// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/lifeos/backend/config"
	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/application/usecase/syncengine"
	"github.com/lifeos/backend/internal/infra/dependency"
	"github.com/lifeos/backend/internal/integration/remote"
	"github.com/lifeos/backend/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// TestContext holds the test state for each scenario.
type TestContext struct {
	// HTTP
	server       *httptest.Server
	injector     *dependency.Injector
	response     *http.Response
	responseBody []byte

	// Request building
	requestHeaders map[string]string

	// Auth
	accessToken  string
	refreshToken string

	// Values saved from responses, substituted into paths and bodies as {{name}}
	vars map[string]string

	// Device side
	clock      *mock.Time
	remoteMock *mock.RemoteMock
	device     *lifestore.Store
	engine     *syncengine.Engine
	syncReport *syncengine.Report
	syncErr    error

	cfg *config.Config
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
		mock.NewDb(dependency.Models()...)
		mock.NewRedis()
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		database := mock.NewDb(dependency.Models()...)
		if err := database.ClearDB(); err != nil {
			return ctx, err
		}
		rdb := mock.NewRedis()
		if err := mock.ClearRedis(ctx, rdb); err != nil {
			return ctx, err
		}

		cfg := config.Load()
		cfg.Server.Environment = "test"
		cfg.JWT.Secret = testJWTSecret
		cfg.JWT.AccessTokenExpiry = 15 * time.Minute
		cfg.JWT.BcryptCost = 4
		cfg.RateLimit.Enabled = false
		cfg.Sync.DeviceID = "cloud"

		dbHealth := func(context.Context) bool { return database.HealthCheck() }
		redisHealth := func(ctx context.Context) bool { return rdb.Ping(ctx).Err() == nil }

		tc := &TestContext{
			requestHeaders: make(map[string]string),
			vars:           make(map[string]string),
			clock:          mock.NewTime(),
			cfg:            cfg,
		}
		tc.injector = dependency.NewInjector(cfg, database.DbConn, rdb, dbHealth, redisHealth)
		tc.server = httptest.NewServer(tc.injector.Router.Setup(cfg.Server.Environment))

		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc := GetTestContext(ctx)
		if tc == nil {
			return ctx, nil
		}
		if tc.server != nil {
			tc.server.Close()
		}
		if tc.remoteMock != nil {
			tc.remoteMock.Close()
		}
		if tc.device != nil {
			tc.device.Close()
		}
		if tc.injector != nil {
			tc.injector.Close()
		}
		return ctx, nil
	})

	registerAPISteps(ctx)
	registerResponseSteps(ctx)
	registerDeviceSteps(ctx)
}

// newDevice opens a device store in its own namespace, synced through a
// remote client pointed at the remote mock.
func (tc *TestContext) newDevice(name string) error {
	kv, err := newDeviceKV(name)
	if err != nil {
		return fmt.Errorf("failed to open device store: %w", err)
	}
	tc.device = lifestore.New(kv, lifestore.Options{
		DeviceID: name,
		Clock:    tc.clock,
	})

	tc.remoteMock = mock.NewRemoteMock()
	tc.remoteMock.Start()
	client := remote.NewClient(remote.Options{
		BaseURL: tc.remoteMock.GetUrl(),
		Tokens:  remote.Tokens{AccessToken: "device-token", RefreshToken: "device-refresh"},
	})
	tc.engine = syncengine.New(tc.device, client, syncengine.Options{Clock: tc.clock})
	return nil
}
