// Package router sets up the HTTP routing for the application.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/integration/entrypoint/controller"
	"github.com/lifeos/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine           *gin.Engine
	healthController *controller.HealthController
	authController   *controller.AuthController
	userController   *controller.UserController
	storeController  *controller.StoreController
	dataController   *controller.DataController
	syncController   *controller.SyncController
	loginRateLimiter *middleware.RateLimiter
	syncRateLimiter  *middleware.RateLimiter
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	authController *controller.AuthController,
	userController *controller.UserController,
	storeController *controller.StoreController,
	dataController *controller.DataController,
	syncController *controller.SyncController,
	loginRateLimiter *middleware.RateLimiter,
	syncRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController: healthController,
		authController:   authController,
		userController:   userController,
		storeController:  storeController,
		dataController:   dataController,
		syncController:   syncController,
		loginRateLimiter: loginRateLimiter,
		syncRateLimiter:  syncRateLimiter,
		authMiddleware:   authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.Default()

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", r.loginRateLimiter.Middleware(), r.authController.Register)
		auth.POST("/login", r.loginRateLimiter.Middleware(), r.authController.Login)
		auth.POST("/refresh", r.authController.RefreshToken)
		auth.POST("/logout", r.authController.Logout)
	}

	protected := v1.Group("")
	protected.Use(r.authMiddleware.Authenticate())

	protected.DELETE("/users/me", r.userController.DeleteAccount)

	r.setupStoreRoutes(protected)
	r.setupDataRoutes(protected)
	r.setupSyncRoutes(protected)
}

// setupStoreRoutes configures the entity store routes.
func (r *Router) setupStoreRoutes(g *gin.RouterGroup) {
	h := r.storeController.Handle
	const (
		ok        = http.StatusOK
		created   = http.StatusCreated
		noContent = http.StatusNoContent
	)

	tasks := g.Group("/tasks")
	{
		tasks.GET("", h(controller.Read((*lifestore.Store).GetTasks), ok))
		tasks.POST("", h(controller.WithBody((*lifestore.Store).AddTask), created))
		tasks.GET("/:id", h(controller.ByID((*lifestore.Store).GetTask), ok))
		tasks.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateTask), ok))
		tasks.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteTask), noContent))
		tasks.POST("/:id/complete", h(controller.ByID((*lifestore.Store).CompleteTask), ok))
		tasks.POST("/:id/restore", h(controller.ByID((*lifestore.Store).RestoreTask), ok))
	}

	habits := g.Group("/habits")
	{
		habits.GET("", h(controller.Read((*lifestore.Store).GetHabits), ok))
		habits.POST("", h(controller.WithBody((*lifestore.Store).AddHabit), created))
		habits.GET("/:id", h(controller.ByID((*lifestore.Store).GetHabit), ok))
		habits.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateHabit), ok))
		habits.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteHabit), noContent))
		habits.POST("/:id/toggle", h(controller.ByIDWithBody((*lifestore.Store).ToggleHabit), ok))
	}

	goals := g.Group("/goals")
	{
		goals.GET("", h(controller.Read((*lifestore.Store).GetGoals), ok))
		goals.POST("", h(controller.WithBody((*lifestore.Store).AddGoal), created))
		goals.GET("/:id", h(controller.ByID((*lifestore.Store).GetGoal), ok))
		goals.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateGoal), ok))
		goals.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteGoal), noContent))
		goals.POST("/:id/progress", h(controller.ByIDWithBody((*lifestore.Store).UpdateGoalProgress), ok))
		goals.POST("/:id/milestones/:milestoneId/toggle", h(controller.ToggleMilestone, ok))
	}

	areas := g.Group("/areas")
	{
		areas.GET("", h(controller.Read((*lifestore.Store).GetLifeAreas), ok))
		areas.POST("", h(controller.WithBody((*lifestore.Store).AddLifeArea), created))
		areas.GET("/:id", h(controller.ByID((*lifestore.Store).GetLifeArea), ok))
		areas.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateLifeArea), ok))
		areas.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteLifeArea), noContent))
	}

	skills := g.Group("/skills")
	{
		skills.GET("", h(controller.Read((*lifestore.Store).GetSkills), ok))
		skills.POST("", h(controller.WithBody((*lifestore.Store).AddSkill), created))
		skills.POST("/decay", h(controller.RefreshSkillDecay, ok))
		skills.GET("/:id", h(controller.ByID((*lifestore.Store).GetSkill), ok))
		skills.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateSkill), ok))
		skills.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteSkill), noContent))
		skills.POST("/:id/practice", h(controller.ByIDWithBody((*lifestore.Store).PracticeSkill), ok))
	}

	achievements := g.Group("/achievements")
	{
		achievements.GET("", h(controller.Read((*lifestore.Store).GetAchievements), ok))
		achievements.POST("", h(controller.WithBody((*lifestore.Store).AddAchievement), created))
		achievements.GET("/:id", h(controller.ByID((*lifestore.Store).GetAchievement), ok))
		achievements.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateAchievement), ok))
		achievements.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteAchievement), noContent))
	}

	accounts := g.Group("/accounts")
	{
		accounts.GET("", h(controller.Read((*lifestore.Store).GetAccounts), ok))
		accounts.POST("", h(controller.WithBody((*lifestore.Store).AddAccount), created))
		accounts.GET("/:id", h(controller.ByID((*lifestore.Store).GetAccount), ok))
		accounts.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateAccount), ok))
		accounts.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteAccount), noContent))
	}

	transactions := g.Group("/transactions")
	{
		transactions.GET("", h(controller.Read((*lifestore.Store).GetTransactions), ok))
		transactions.POST("", h(controller.WithBody((*lifestore.Store).AddTransaction), created))
		transactions.GET("/:id", h(controller.ByID((*lifestore.Store).GetTransaction), ok))
		transactions.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateTransaction), ok))
		transactions.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteTransaction), noContent))
	}

	financialGoals := g.Group("/financial-goals")
	{
		financialGoals.GET("", h(controller.Read((*lifestore.Store).GetFinancialGoals), ok))
		financialGoals.POST("", h(controller.WithBody((*lifestore.Store).AddFinancialGoal), created))
		financialGoals.GET("/:id", h(controller.ByID((*lifestore.Store).GetFinancialGoal), ok))
		financialGoals.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateFinancialGoal), ok))
		financialGoals.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteFinancialGoal), noContent))
		financialGoals.POST("/:id/contribute", h(controller.ByIDWithBody((*lifestore.Store).ContributeToFinancialGoal), ok))
	}

	reviews := g.Group("/reviews")
	{
		reviews.GET("", h(controller.Read((*lifestore.Store).GetDailyReviews), ok))
		reviews.POST("", h(controller.WithBody((*lifestore.Store).SubmitDailyReview), created))
		reviews.GET("/:id", h(controller.ByID((*lifestore.Store).GetDailyReview), ok))
		reviews.PATCH("/:id", h(controller.ByIDWithBody((*lifestore.Store).UpdateDailyReview), ok))
		reviews.DELETE("/:id", h(controller.Remove((*lifestore.Store).DeleteDailyReview), noContent))
	}

	g.GET("/identity", h(controller.Read((*lifestore.Store).GetIdentity), ok))
	g.PATCH("/identity", h(controller.WithBody((*lifestore.Store).UpdateIdentity), ok))

	stats := g.Group("/stats")
	{
		stats.GET("", h(controller.Read((*lifestore.Store).GetStats), ok))
		stats.POST("/xp", h(controller.WithBody((*lifestore.Store).AddXP), ok))
		stats.POST("/coins", h(controller.WithBody((*lifestore.Store).AddCoins), ok))
		stats.POST("/coins/spend", h(controller.WithBody((*lifestore.Store).SpendCoins), ok))
	}
}

// setupDataRoutes configures backup, reset and event routes.
func (r *Router) setupDataRoutes(g *gin.RouterGroup) {
	g.GET("/export", r.dataController.Export)
	g.POST("/import", r.dataController.Import)
	g.DELETE("/data", r.dataController.Clear)
	g.GET("/diagnostics", r.dataController.Diagnostics)
	g.GET("/events", r.dataController.Events)
}

// setupSyncRoutes configures the cloud feed and sync engine routes.
func (r *Router) setupSyncRoutes(g *gin.RouterGroup) {
	sync := g.Group("/sync")
	sync.Use(r.syncRateLimiter.Middleware())
	{
		sync.POST("/pull", r.syncController.Pull)
		sync.POST("/push", r.syncController.Push)
		sync.GET("/ping", r.syncController.Ping)
		sync.POST("/run", r.syncController.Run)
		sync.GET("/status", r.syncController.Status)
		sync.GET("/conflicts", r.syncController.Conflicts)
		sync.POST("/conflicts/resolve", r.syncController.ResolveAll)
		sync.POST("/conflicts/:id/resolve", r.syncController.Resolve)
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
