// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lifeos/backend/config"
	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/application/usecase/auth"
	"github.com/lifeos/backend/internal/application/usecase/cloudsync"
	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/application/usecase/syncengine"
	"github.com/lifeos/backend/internal/infra/server/router"
	"github.com/lifeos/backend/internal/integration/adapters"
	"github.com/lifeos/backend/internal/integration/entrypoint/controller"
	"github.com/lifeos/backend/internal/integration/entrypoint/middleware"
	"github.com/lifeos/backend/internal/integration/persistence"
	"github.com/lifeos/backend/internal/integration/persistence/kvstore"
	"github.com/lifeos/backend/internal/integration/persistence/model"
)

// Models lists the gorm models of the cloud store, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.UserModel{},
		&model.RefreshTokenModel{},
		&model.SyncRecordModel{},
		&model.SyncCounterModel{},
	}
}

// Injector holds all application dependencies.
type Injector struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Stores   *lifestore.Manager
	Router   *router.Router
	limiters []*middleware.RateLimiter
}

// NewInjector creates a new dependency injector with all dependencies wired.
// The health checkers are reported by GET /health.
func NewInjector(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, dbHealth, redisHealth controller.HealthChecker) *Injector {
	// Create repositories
	userRepo := persistence.NewUserRepository(db)
	tokenRepo := persistence.NewTokenRepository(db)
	syncRepo := persistence.NewSyncRecordRepository(db)

	// Create adapters/services
	passwordService := adapters.NewPasswordService(cfg.JWT.BcryptCost)
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, adapters.TokenLifetimes{
		Access:  cfg.JWT.AccessTokenExpiry,
		Refresh: cfg.JWT.RefreshTokenExpiry,
	}, tokenRepo)

	// Create entity stores, one redis namespace per user
	manager := lifestore.NewManager(func(namespace string) (adapter.KeyValueStore, error) {
		return kvstore.NewRedisStore(rdb, namespace, cfg.LocalStore.MaxBytes)
	}, lifestore.Options{
		DeviceID: cfg.Sync.DeviceID,
		Location: cfg.LocalStore.Location(),
	})
	userStores := lifestore.NewUserStores(manager, cfg.LocalStore.Prefix)

	// Create cloud sync use cases
	pullChangesUseCase := cloudsync.NewPullChangesUseCase(syncRepo)
	pushChangesUseCase := cloudsync.NewPushChangesUseCase(syncRepo)

	// Create store and sync controllers; the sync controller owns the
	// per-user sessions that auth releases
	storeController := controller.NewStoreController(userStores)
	dataController := controller.NewDataController(storeController)
	syncController := controller.NewSyncController(
		storeController,
		pullChangesUseCase,
		pushChangesUseCase,
		syncengine.NewPool(),
	)

	// Create auth use cases
	registerUseCase := auth.NewRegisterUserUseCase(userRepo, passwordService, tokenService, userStores)
	loginUseCase := auth.NewLoginUserUseCase(userRepo, passwordService, tokenService)
	refreshTokenUseCase := auth.NewRefreshTokenUseCase(tokenService)
	logoutUseCase := auth.NewLogoutUserUseCase(tokenService, syncController)
	deleteAccountUseCase := auth.NewDeleteAccountUseCase(userRepo, syncRepo, passwordService, tokenService, userStores, syncController)

	// Create remaining controllers
	healthController := controller.NewHealthController(dbHealth, redisHealth)
	authController := controller.NewAuthController(
		registerUseCase,
		loginUseCase,
		refreshTokenUseCase,
		logoutUseCase,
	)
	userController := controller.NewUserController(deleteAccountUseCase)

	// Create middleware
	loginRateLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow, middleware.ByClientIP, cfg.RateLimit.Enabled)
	syncRateLimiter := middleware.NewRateLimiter(cfg.RateLimit.SyncMax, cfg.RateLimit.SyncWindow, middleware.ByUser, cfg.RateLimit.Enabled)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(
		healthController,
		authController,
		userController,
		storeController,
		dataController,
		syncController,
		loginRateLimiter,
		syncRateLimiter,
		authMiddleware,
	)

	return &Injector{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Stores:   manager,
		Router:   r,
		limiters: []*middleware.RateLimiter{loginRateLimiter, syncRateLimiter},
	}
}

// RunBackground starts the periodic cleanup of the rate limiters until ctx
// is done.
func (i *Injector) RunBackground(ctx context.Context) {
	for _, l := range i.limiters {
		go l.Run(ctx)
	}
}

// Close releases the entity store handles.
func (i *Injector) Close() {
	i.Stores.Close()
}
