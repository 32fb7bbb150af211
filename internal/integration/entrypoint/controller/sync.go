package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/usecase/cloudsync"
	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/application/usecase/syncengine"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/entrypoint/dto"
	"github.com/lifeos/backend/internal/integration/entrypoint/middleware"
)

// SyncController serves the cloud change feed and runs the sync engine of
// the caller's server-side store against it.
type SyncController struct {
	stores      *StoreController
	pullUseCase *cloudsync.PullChangesUseCase
	pushUseCase *cloudsync.PushChangesUseCase
	engines     *syncengine.Pool
	logger      *slog.Logger
}

// NewSyncController creates a new sync controller instance.
func NewSyncController(
	stores *StoreController,
	pullUseCase *cloudsync.PullChangesUseCase,
	pushUseCase *cloudsync.PushChangesUseCase,
	engines *syncengine.Pool,
) *SyncController {
	return &SyncController{
		stores:      stores,
		pullUseCase: pullUseCase,
		pushUseCase: pushUseCase,
		engines:     engines,
		logger:      slog.Default().With("component", "sync"),
	}
}

// Pull handles POST /sync/pull requests.
func (c *SyncController) Pull(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req dto.SyncPullRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadBody(ctx, err)
		return
	}

	output, err := c.pullUseCase.Execute(ctx.Request.Context(), cloudsync.PullChangesInput{
		UserID: userID,
		Token:  req.Token,
		Limit:  req.Limit,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	entities := output.Entities
	if entities == nil {
		entities = []entity.VersionedEntity{}
	}
	ctx.JSON(http.StatusOK, dto.SyncPullResponse{
		Entities: entities,
		Token:    output.Token,
		HasMore:  output.HasMore,
	})
}

// Push handles POST /sync/push requests.
func (c *SyncController) Push(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req dto.SyncPushRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadBody(ctx, err)
		return
	}

	output, err := c.pushUseCase.Execute(ctx.Request.Context(), cloudsync.PushChangesInput{
		UserID:   userID,
		Entities: req.Entities,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := dto.SyncPushResponse{
		Accepted: output.Accepted,
		Rejected: make([]dto.SyncRejection, 0, len(output.Rejected)),
	}
	if resp.Accepted == nil {
		resp.Accepted = []entity.EntityRef{}
	}
	for _, r := range output.Rejected {
		resp.Rejected = append(resp.Rejected, dto.SyncRejection{Ref: r.Ref, Current: r.Current})
	}
	ctx.JSON(http.StatusOK, resp)
}

// Ping handles GET /sync/ping requests. Clients use it to probe
// reachability and credentials.
func (c *SyncController) Ping(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Run handles POST /sync/run requests.
func (c *SyncController) Run(ctx *gin.Context) {
	engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	report, err := engine.Sync(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SyncReportResponse{
		Pulled:     report.Pulled,
		Adopted:    report.Adopted,
		Pushed:     report.Pushed,
		Rejected:   report.Rejected,
		Conflicts:  report.Conflicts,
		State:      string(report.State),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	})
}

// Status handles GET /sync/status requests.
func (c *SyncController) Status(ctx *gin.Context) {
	engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	status, err := engine.Status(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SyncStatusResponse{
		State:      string(status.State),
		LastSyncAt: status.LastSyncAt,
		LastError:  status.LastError,
		Pending:    status.Pending,
		Conflicts:  status.Conflicts,
	})
}

// Conflicts handles GET /sync/conflicts requests.
func (c *SyncController) Conflicts(ctx *gin.Context) {
	store, ok := c.stores.open(ctx)
	if !ok {
		return
	}
	conflicts, err := store.Conflicts(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if conflicts == nil {
		conflicts = []entity.Conflict{}
	}
	ctx.JSON(http.StatusOK, dto.ConflictListResponse{Conflicts: conflicts})
}

// Resolve handles POST /sync/conflicts/:id/resolve requests.
func (c *SyncController) Resolve(ctx *gin.Context) {
	var req dto.ResolveConflictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadBody(ctx, err)
		return
	}
	engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	if err := engine.Resolve(ctx.Request.Context(), ctx.Param("id"), entity.ResolutionStrategy(req.Strategy)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ResolveAll handles POST /sync/conflicts/resolve requests.
func (c *SyncController) ResolveAll(ctx *gin.Context) {
	var req dto.ResolveConflictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadBody(ctx, err)
		return
	}
	engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	n, err := engine.ResolveAll(ctx.Request.Context(), entity.ResolutionStrategy(req.Strategy))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ResolveAllResponse{Resolved: n})
}

// Release drops the engine and the store handle of a signed-out or deleted
// user. A later request builds both again.
func (c *SyncController) Release(userID uuid.UUID) {
	c.engines.Remove(userID.String())
	c.stores.stores.Release(userID)
}

// engine returns the sync engine of the caller's store, syncing it against
// the caller's cloud copy in process.
func (c *SyncController) engine(ctx *gin.Context) (*syncengine.Engine, bool) {
	store, ok := c.stores.open(ctx)
	if !ok {
		return nil, false
	}
	userID, _ := middleware.GetUserIDFromContext(ctx)

	engine, err := c.engines.Get(userID.String(), func() (*syncengine.Engine, error) {
		remote := cloudsync.NewDirectRemote(c.pullUseCase, c.pushUseCase, userID)
		return syncengine.New(store, remote, syncengine.Options{Logger: c.logger}), nil
	})
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return engine, true
}

func requireUser(ctx *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Unauthorized",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
	}
	return userID, ok
}

var _ syncengine.LocalStore = (*lifestore.Store)(nil)
